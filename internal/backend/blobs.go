package backend

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"

	"github.com/huddlehq/huddle/internal/apperr"
)

type uploadResponse struct {
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// Upload streams r to the blob store and returns the blob URL and the
// number of bytes sent.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (string, int64, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	counted := &countingReader{r: r}

	go func() {
		part, err := mw.CreateFormFile("file", filepath.Base(filename))
		if err == nil {
			_, err = io.Copy(part, counted)
		}
		if err == nil {
			err = mw.Close()
		}
		_ = pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("upload"), pr)
	if err != nil {
		_ = pr.Close()
		return "", 0, fmt.Errorf("upload: build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp uploadResponse
	if err := c.send("upload", req, &resp); err != nil {
		return "", 0, err
	}
	if resp.URL == "" {
		return "", 0, apperr.NetworkErr("upload", fmt.Errorf("server returned no url"))
	}
	return resp.URL, counted.n, nil
}

// Download opens a blob. Relative URLs resolve against the backend root.
func (c *Client) Download(ctx context.Context, blobURL string) (io.ReadCloser, error) {
	ref, err := url.Parse(blobURL)
	if err != nil {
		return nil, apperr.Validationf("download", "bad url %q", blobURL)
	}
	target := c.base.ResolveReference(ref)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("download: build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperr.NetworkErr("download", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer func() { _ = resp.Body.Close() }()
		return nil, decodeError("download", resp)
	}
	return resp.Body, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
