// Package provider contains the catalog and artwork service clients.
//
// The interfaces they satisfy (metadata.Catalog, metadata.ArtworkSource) are
// defined in internal/metadata, where they are consumed. Each sub-package
// here implements them for a specific service.
package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// maxImageSize bounds downloaded cover images.
const maxImageSize = 10 << 20

// FetchImage downloads the image at url. A 404 yields (nil, nil).
func FetchImage(ctx context.Context, client *http.Client, url, userAgent string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create image request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image download returned %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return data, nil
}
