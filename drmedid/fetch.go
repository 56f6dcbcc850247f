package drmedid

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/q191201771/naza/pkg/nazalog"

	"github.com/apparentlymart/cta-timings/internal/atomicfile"
)

// DefaultURL is drm_edid.c on the mainline kernel's master branch.
const DefaultURL = "https://raw.githubusercontent.com/torvalds/linux/refs/heads/master/drivers/gpu/drm/drm_edid.c"

// Fetch retrieves url. Any failure, including a non-2xx response, is a
// *FetchError. There are no retries.
func Fetch(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", resp.Status),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	return body, nil
}

// Source says where to get drm_edid.c from.
type Source struct {
	// File, if set, is read instead of fetching URL.
	File string
	URL  string
	// Cache, if set, receives a copy of the fetched text.
	Cache string
}

// Load returns the source text described by s.
func (s Source) Load(ctx context.Context, client *http.Client, log Logger) ([]byte, error) {
	if log == nil {
		log = nazalog.GetGlobalLogger()
	}

	if s.File != "" {
		log.Infof("reading %s", s.File)
		src, err := os.ReadFile(s.File)
		if err != nil {
			return nil, fmt.Errorf("failed to read source: %w", err)
		}
		return src, nil
	}

	url := s.URL
	if url == "" {
		url = DefaultURL
	}
	log.Infof("fetching %s", url)
	src, err := Fetch(ctx, client, url)
	if err != nil {
		return nil, err
	}

	if s.Cache != "" {
		if err := atomicfile.Write(s.Cache, src, 0o644); err != nil {
			return nil, fmt.Errorf("failed to cache source: %w", err)
		}
		log.Debugf("cached source in %s", s.Cache)
	}
	return src, nil
}
