package media

import (
	"fmt"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// FitzConverter rasterizes PDF pages to PNG with MuPDF. The document is
// validated with pdfcpu first so structurally broken files fail before any
// rendering work happens.
type FitzConverter struct{}

func (c *FitzConverter) Convert(path string, dpi int) ([][]byte, error) {
	if err := api.ValidateFile(path, nil); err != nil {
		return nil, fmt.Errorf("invalid pdf: %w", err)
	}

	pageCount, err := api.PageCountFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to count pages: %w", err)
	}
	if pageCount == 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}

	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer doc.Close()

	images := make([][]byte, 0, pageCount)
	for page := 0; page < pageCount; page++ {
		png, err := doc.ImagePNG(page, float64(dpi))
		if err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", page+1, err)
		}
		images = append(images, png)
	}
	return images, nil
}
