package bot

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/botweet/botweet/util"

	"golang.org/x/sync/errgroup"
)

// MediaOpener resolves a media reference to an upload filename and body.
type MediaOpener func(ctx context.Context, ref string) (string, io.ReadCloser, error)

// DefaultMediaOpener opens local files, or downloads http(s) URLs with client. The
// filename of a download is derived from its content type.
func DefaultMediaOpener(client *http.Client) MediaOpener {
	if client == nil {
		client = &http.Client{
			Transport: util.NewTransport(),
			Timeout:   30 * time.Second,
		}
	}
	return func(ctx context.Context, ref string) (string, io.ReadCloser, error) {
		if fi, err := os.Stat(ref); err == nil && fi.Mode().IsRegular() {
			f, err := os.Open(ref)
			if err != nil {
				return "", nil, err
			}
			return filepath.Base(ref), f, nil
		}

		u, err := url.Parse(ref)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return "", nil, fmt.Errorf("media %q is neither a local file nor an http(s) URL", ref)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
		if err != nil {
			return "", nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return "", nil, fmt.Errorf("downloading media: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return "", nil, fmt.Errorf("downloading media %q: HTTP %d", ref, resp.StatusCode)
		}
		return "img" + extensionFor(resp.Header.Get("Content-Type")), resp.Body, nil
	}
}

func extensionFor(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	exts, err := mime.ExtensionsByType(mt)
	if err != nil || len(exts) == 0 {
		return ""
	}
	// prefer the conventional spelling where the table offers several
	for _, e := range exts {
		if e == ".jpg" || e == ".png" || e == ".gif" || e == ".webp" || e == ".mp4" {
			return e
		}
	}
	return exts[0]
}

// uploadMedia uploads every reference concurrently, keeping the ids in input order.
func (r *reactor) uploadMedia(ctx context.Context, refs []string) ([]int64, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	ids := make([]int64, len(refs))
	eg, ctx := errgroup.WithContext(ctx)
	for i, ref := range refs {
		eg.Go(func() error {
			name, body, err := r.openMedia(ctx, ref)
			if err != nil {
				return err
			}
			defer body.Close()
			id, err := r.api.UploadMedia(ctx, name, body)
			if err != nil {
				return fmt.Errorf("uploading %q: %w", ref, err)
			}
			ids[i] = id
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return ids, nil
}
