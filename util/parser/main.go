package parser

import (
	"context"
	"fmt"
	"io"
	"strings"

	"m3u8dl/models"
	"m3u8dl/util/networking"
)

// fetches content with context support, bounded by the configured timeout
func fetchContentWithContext(
	ctx context.Context,
	client models.HTTPClient,
	url string,
	config *models.DownloadConfig,
) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, config.Timeout)
	defer cancel()

	req, err := networking.NewRequest(reqCtx, url, config.Headers, config.Cookies)
	if err != nil {
		return nil, err
	}
	if client == nil {
		client = networking.GetDefaultHTTPClient()
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch content: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("server returned status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

func isNetworkURL(uri string) bool {
	lower := strings.ToLower(uri)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
