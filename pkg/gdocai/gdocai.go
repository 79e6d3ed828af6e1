// Package gdocai reads Google Document AI results into ocrtree pages.
//
// The input is a google.cloud.documentai.v1.Document in its JSON form,
// as written by the batch processing API or by protojson. Blocks,
// paragraphs, lines and tokens are flat lists per page in Document AI;
// the hierarchy is rebuilt from text anchor containment.
package gdocai

import (
	"log/slog"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/gardar/hocrpdf/pkg/ocrtree"
)

// Unmarshal decodes a Document AI JSON document.
func Unmarshal(data []byte) (*documentaipb.Document, error) {
	var doc documentaipb.Document
	opts := protojson.UnmarshalOptions{DiscardUnknown: true}
	if err := opts.Unmarshal(data, &doc); err != nil {
		return nil, &ocrtree.InputFormatError{Source: "docai", Reason: "invalid Document JSON", Err: err}
	}
	return &doc, nil
}

// ParseDocument converts a Document AI JSON document into pages. A
// document without pages yields one empty zero-sized page. A nil logger
// means slog.Default().
func ParseDocument(data []byte, logger *slog.Logger) (*ocrtree.Document, error) {
	doc, err := Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return FromProto(doc, logger), nil
}

// ParsePage returns the first page of a Document AI JSON document.
func ParsePage(data []byte, logger *slog.Logger) (*ocrtree.Element, error) {
	doc, err := ParseDocument(data, logger)
	if err != nil {
		return nil, err
	}
	return doc.Pages[0], nil
}
