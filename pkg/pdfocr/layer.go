package pdfocr

import (
	"fmt"
	"maps"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/gardar/hocrpdf/pkg/fonts"
)

// addTextLayer appends content to the content streams of page pageNr and
// makes fontRef available under the fixed font resource name. With
// isolate set, the existing content is wrapped in q/Q so that a
// transformation it leaves behind does not leak into the text layer.
func addTextLayer(x *model.XRefTable, pageNr int, fontRef types.IndirectRef, content []byte, isolate bool) error {
	pageDict, pageIndRef, inh, err := x.PageDict(pageNr, false)
	if err != nil {
		return err
	}
	if pageDict == nil || pageIndRef == nil {
		return fmt.Errorf("page %d not found", pageNr)
	}

	if err := ensureFontResource(x, pageDict, inh, fontRef); err != nil {
		return err
	}

	existing, err := contentRefs(x, pageDict["Contents"])
	if err != nil {
		return err
	}

	var refs types.Array
	if isolate && len(existing) > 0 {
		saveRef, err := newContentStream(x, []byte("q\n"))
		if err != nil {
			return err
		}
		refs = append(refs, *saveRef)
		refs = append(refs, existing...)
		content = append([]byte("Q\n"), content...)
	} else {
		refs = append(refs, existing...)
	}

	layerRef, err := newContentStream(x, content)
	if err != nil {
		return err
	}
	refs = append(refs, *layerRef)

	if len(refs) == 1 {
		pageDict["Contents"] = refs[0]
	} else {
		pageDict["Contents"] = refs
	}

	// Update the page dictionary in the xref table
	objNr := pageIndRef.ObjectNumber.Value()
	entry, found := x.Table[objNr]
	if !found {
		return fmt.Errorf("page object %d not found in xref table", objNr)
	}
	entry.Object = pageDict
	return nil
}

// contentRefs flattens a page's /Contents entry into a list.
func contentRefs(x *model.XRefTable, contents types.Object) (types.Array, error) {
	switch c := contents.(type) {
	case nil:
		return nil, nil
	case types.Array:
		return c, nil
	case types.IndirectRef:
		o, err := x.Dereference(c)
		if err != nil {
			return nil, err
		}
		if arr, ok := o.(types.Array); ok {
			return arr, nil
		}
		return types.Array{c}, nil
	default:
		return nil, fmt.Errorf("unsupported Contents type: %T", contents)
	}
}

func newContentStream(x *model.XRefTable, content []byte) (*types.IndirectRef, error) {
	sd, err := x.NewStreamDictForBuf(content)
	if err != nil {
		return nil, err
	}
	if err := sd.Encode(); err != nil {
		return nil, fmt.Errorf("failed to encode content stream: %w", err)
	}
	return x.IndRefForNewObject(*sd)
}

// ensureFontResource stores fontRef in the page's font resources. A page
// that only inherits its resources gets its own copy first.
func ensureFontResource(x *model.XRefTable, pageDict types.Dict, inh *model.InheritedPageAttrs, fontRef types.IndirectRef) error {
	resDict, err := x.DereferenceDict(pageDict["Resources"])
	if err != nil {
		return fmt.Errorf("invalid page resources: %w", err)
	}
	if resDict == nil {
		resDict = types.Dict{}
		if inh != nil && inh.Resources != nil {
			maps.Copy(resDict, inh.Resources)
		}
		pageDict["Resources"] = resDict
	}

	fontDict, err := x.DereferenceDict(resDict["Font"])
	if err != nil {
		return fmt.Errorf("invalid font resources: %w", err)
	}
	if fontDict == nil {
		fontDict = types.Dict{}
		resDict["Font"] = fontDict
	}

	if existing, ok := fontDict[fonts.ResourceName]; ok {
		if ref, ok := existing.(types.IndirectRef); ok && ref == fontRef {
			return nil
		}
		d, err := x.DereferenceDict(existing)
		if err != nil || d == nil || !fonts.IsGlyphless(d) {
			return fmt.Errorf("font resource /%s is already used by another font", fonts.ResourceName)
		}
	}
	fontDict[fonts.ResourceName] = fontRef
	return nil
}
