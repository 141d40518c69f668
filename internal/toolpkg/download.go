package toolpkg

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
)

// download streams url into w and returns the number of bytes written.
func download(ctx context.Context, client *http.Client, url string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", "mergectl")

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("GET %s: unexpected status %s", url, resp.Status)
	}
	if resp.ContentLength > 0 {
		log.Info().
			Str("url", url).
			Str("size", humanize.Bytes(uint64(resp.ContentLength))).
			Msg("downloading archive")
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("GET %s: read body after %s: %w", url, humanize.Bytes(uint64(n)), err)
	}
	if resp.ContentLength > 0 && n != resp.ContentLength {
		return n, fmt.Errorf("GET %s: short body %d of %d bytes", url, n, resp.ContentLength)
	}
	return n, nil
}
