// Package netx contains small HTTP helpers outside the backend gateway.
package netx

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// DownloadAsset fetches an image blob from the asset host. The asset host is
// a plain public file endpoint unrelated to the data backend, so no gateway
// protocol applies here.
func DownloadAsset(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed: %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}
