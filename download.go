package models

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
)

// fetchProgressCap is the highest percent reported during the fetch phase.
// The remaining headroom is reserved for archive extraction.
const fetchProgressCap = 95

// defaultHTTPClient builds the client used when the caller does not inject
// one: bounded connect and response-header timeouts, no overall deadline so
// large model archives can stream as long as bytes keep arriving.
func defaultHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: DefaultConnectTimeout,
			}).DialContext,
			ResponseHeaderTimeout: DefaultReadTimeout,
		},
	}
}

// fetchArchive streams the resource at url into dst, reporting clamped
// percent values through onPercent. When the total size is unknown the
// progress callbacks are withheld.
func fetchArchive(ctx context.Context, client HTTPClient, url string, dst *os.File, onPercent func(int)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching %s: unexpected status %s", url, resp.Status)
	}

	total := resp.ContentLength

	var downloaded int64
	lastPercent := -1
	buf := make([]byte, copyBufferSize)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return fmt.Errorf("writing archive: %w", werr)
			}
			downloaded += int64(n)

			if total > 0 && onPercent != nil {
				percent := clampPercent(downloaded*100/total, fetchProgressCap)
				if percent > lastPercent {
					lastPercent = percent
					onPercent(percent)
				}
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}
	}

	return nil
}

// clampPercent bounds a percent value to [0, limit].
func clampPercent(p int64, limit int) int {
	if p < 0 {
		return 0
	}
	if p > int64(limit) {
		return limit
	}
	return int(p)
}

// classifyDownloadError translates a fetch failure into a user-safe
// ErrDownloadFailed, matching substrings in the underlying failure
// description the way the platform implementations do.
func classifyDownloadError(err error) error {
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "timeout"):
		return fmt.Errorf("%w: download timeout, please check your internet connection and try again", ErrDownloadFailed)
	case strings.Contains(msg, "connection"):
		return fmt.Errorf("%w: connection failed, please check your internet connection and try again", ErrDownloadFailed)
	case strings.Contains(msg, "network"):
		return fmt.Errorf("%w: network error, please check your internet connection and try again", ErrDownloadFailed)
	default:
		return fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
}
