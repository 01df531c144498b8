package twitter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
)

// endpoint: media/upload (simple, non-chunked upload)

// MediaUpload uploads a single image. The whole body is buffered so the request can
// be retried.
func MediaUpload(ctx context.Context, c *Client, filename string, r io.Reader) (*Media, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("media", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("reading media %q: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var out Media
	req := Request{
		Kind:        Procedure,
		Path:        "media/upload",
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: mw.FormDataContentType(),
		Upload:      true,
	}
	if err := c.Do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
