package gdocai

import (
	"fmt"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
)

// ExtractImageFromPage pulls out the image data from a Document AI page
// together with its MIME type.
func ExtractImageFromPage(page *documentaipb.Document_Page) ([]byte, string, error) {
	if page == nil {
		return nil, "", fmt.Errorf("no documentai page provided")
	}

	image := page.GetImage()
	if image == nil {
		return nil, "", fmt.Errorf("no image found in documentai page")
	}

	content := image.GetContent()
	if len(content) == 0 {
		return nil, "", fmt.Errorf("image content is empty")
	}

	return content, image.GetMimeType(), nil
}
