package util

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"m3u8dl/models"
	"m3u8dl/util/networking"

	"go.uber.org/zap"
)

// FetchSegment downloads one segment, retrying failed attempts
// up to config.RetryAttempts in total with config.RetryDelay in between.
// total is only used for log lines.
func FetchSegment(
	ctx context.Context,
	client models.HTTPClient,
	segment *models.Segment,
	total int,
	config *models.DownloadConfig,
) ([]byte, error) {
	config = models.GetDownloadConfig(config)
	if client == nil {
		client = networking.GetDefaultHTTPClient()
	}

	var lastErr error
	for attempt := 1; attempt <= config.RetryAttempts; attempt++ {
		data, err := downloadInMemory(ctx, client, segment.URL, config)
		if err == nil {
			return data, nil
		}
		lastErr = err

		remaining := config.RetryAttempts - attempt
		zap.S().Warnf(
			"[%d/%d] download failed: %v, retries left %d",
			segment.Index, total, err, remaining,
		)
		if remaining == 0 {
			break
		}
		// wait before retry
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(config.RetryDelay):
		}
	}

	return nil, fmt.Errorf(
		"%w: all %d attempts failed: %v",
		ErrSegmentFetch, config.RetryAttempts, lastErr,
	)
}

func downloadInMemory(
	ctx context.Context,
	client models.HTTPClient,
	fileURL string,
	config *models.DownloadConfig,
) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, config.Timeout)
	defer cancel()

	req, err := networking.NewRequest(reqCtx, fileURL, config.Headers, config.Cookies)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	// allocate a single buffer with the
	// correct size upfront to prevent reallocations
	var data []byte
	if resp.ContentLength > 0 {
		data = make([]byte, 0, resp.ContentLength)
	} else {
		// 64KB initial capacity
		data = make([]byte, 0, 64*1024)
	}

	buf := make([]byte, 32*1024) // 32KB buffer
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			data = append(data, buf[:n]...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}
	}

	return data, nil
}

func EnsureDownloadDir(dir string) error {
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			zap.S().Debugf("creating directory: %s", dir)
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
		} else {
			return fmt.Errorf("error accessing directory: %w", err)
		}
	}
	return nil
}
