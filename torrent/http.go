package torrent

import (
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/StupidAfCoder/gorent/internal/bterr"
)

var httpClient = &http.Client{Timeout: 15 * time.Second}

// defaultHTTPGet is the real tracker transport. It rejects non-HTTP(S)
// announce URLs up front — UDP trackers are out of scope for this
// client.
func defaultHTTPGet(rawURL string) ([]byte, int, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, 0, bterr.Wrap(bterr.Tracker, err, "parse announce URL")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, 0, bterr.New(bterr.Tracker, "unsupported announce scheme %q", parsed.Scheme)
	}

	resp, err := httpClient.Get(rawURL)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}
