package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"
)

const (
	MIMEPDF  = "application/pdf"
	MIMEPNG  = "image/png"
	MIMEJPEG = "image/jpeg"
	MIMEWEBP = "image/webp"
)

// ErrUnsupportedMIME marks an input the pipeline does not handle. It is a
// validation failure: the file is dropped, never retried.
var ErrUnsupportedMIME = errors.New("unsupported mime type")

// FetchError is a failed download or conversion. Fatal for the file; no
// partial retry of pages that were already rasterized.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Converter turns a PDF file into one encoded image per page, in page order.
type Converter interface {
	Convert(path string, dpi int) ([][]byte, error)
}

// Fetcher downloads a remote listing document and prepares it as a sequence
// of page images ready for extraction.
type Fetcher struct {
	httpClient *http.Client
	converter  Converter
	dpi        int
}

func NewFetcher(timeout time.Duration, dpi int) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		converter:  &FitzConverter{},
		dpi:        dpi,
	}
}

// NewFetcherWithConverter constructs a Fetcher with a custom converter.
func NewFetcherWithConverter(timeout time.Duration, dpi int, c Converter) *Fetcher {
	f := NewFetcher(timeout, dpi)
	f.converter = c
	return f
}

func supported(mimeType string) bool {
	switch mimeType {
	case MIMEPDF, MIMEPNG, MIMEJPEG, MIMEWEBP:
		return true
	}
	return false
}

// Prepare downloads the file behind downloadLink and returns its pages as
// encoded image bytes along with the effective mime type. PDFs are rasterized
// one PNG per page; single images pass through verbatim. The download link is
// only valid for five minutes, so Prepare does not retry internally.
func (f *Fetcher) Prepare(ctx context.Context, downloadLink, mimeType string) ([][]byte, string, error) {
	if !supported(mimeType) {
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedMIME, mimeType)
	}

	tmp, err := os.CreateTemp("", "mlsight-*")
	if err != nil {
		return nil, "", fmt.Errorf("failed to create temp file: %w", err)
	}
	path := tmp.Name()
	defer func() {
		if err := os.Remove(path); err != nil {
			slog.Warn("failed to remove temp file", "path", path, "error", err)
		}
	}()

	if err := f.download(ctx, downloadLink, tmp); err != nil {
		tmp.Close()
		return nil, "", &FetchError{URL: downloadLink, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return nil, "", &FetchError{URL: downloadLink, Err: err}
	}

	if mimeType == MIMEPDF {
		images, err := f.converter.Convert(path, f.dpi)
		if err != nil {
			return nil, "", &FetchError{URL: downloadLink, Err: err}
		}
		return images, MIMEPNG, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", &FetchError{URL: downloadLink, Err: err}
	}
	return [][]byte{data}, mimeType, nil
}

func (f *Fetcher) download(ctx context.Context, url string, dst io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	if _, err := io.Copy(dst, resp.Body); err != nil {
		return fmt.Errorf("failed to write download: %w", err)
	}
	return nil
}
