// seehuhn.de/go/pageedit - a page review and redaction editor
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package persist

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"
)

// maxImageSize limits the size of a downloaded page image.
const maxImageSize = 256 << 20

// StatusError reports a non-2xx response of the file service.
type StatusError struct {
	Method  string
	URL     string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: HTTP %d", e.Method, e.URL, e.Code)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Is makes 404 responses match ErrNotFound.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Code == http.StatusNotFound
}

// Client talks to the file service over HTTP.
//
// Routes, relative to the base URL:
//
//	GET    files/{id}/preview       original (or edited) page image
//	POST   files/{id}/save-edited   multipart: file=<id>.jpeg, fileId=<id>
//	DELETE files/{id}/reset-edited  discard the edited copy
type Client struct {
	base  *url.URL
	token string
	http  *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithToken sets a bearer token which is sent with every request.
func WithToken(token string) ClientOption {
	return func(c *Client) { c.token = token }
}

// NewClient returns a client for the service at baseURL.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("persist: base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("persist: base url %q: unsupported scheme", baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	c := &Client{
		base: u,
		http: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Original implements Store.
func (c *Client) Original(ctx context.Context, id FileID) (image.Image, error) {
	resp, err := c.do(ctx, http.MethodGet, id, "preview", nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	img, _, err := Decode(io.LimitReader(resp.Body, maxImageSize))
	if err != nil {
		return nil, fmt.Errorf("file %s: %w", id, err)
	}
	return img, nil
}

// Save implements Store.
func (c *Client) Save(ctx context.Context, id FileID, blob []byte) error {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s.jpeg"`, id))
	h.Set("Content-Type", "image/jpeg")
	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := part.Write(blob); err != nil {
		return err
	}
	if err := mw.WriteField("fileId", id.String()); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	resp, err := c.do(ctx, http.MethodPost, id, "save-edited", body, mw.FormDataContentType())
	if err != nil {
		return err
	}
	return drain(resp)
}

// Reset implements Store.
func (c *Client) Reset(ctx context.Context, id FileID) error {
	resp, err := c.do(ctx, http.MethodDelete, id, "reset-edited", nil, "")
	if err != nil {
		return err
	}
	return drain(resp)
}

// do sends a request for files/{id}/{action}. Non-2xx responses are
// turned into a *StatusError, in which case the body is already closed.
func (c *Client) do(ctx context.Context, method string, id FileID, action string, body io.Reader, contentType string) (*http.Response, error) {
	u := c.base.JoinPath("files", id.String(), action)
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, u, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &StatusError{
			Method:  method,
			URL:     u.String(),
			Code:    resp.StatusCode,
			Message: strings.TrimSpace(string(msg)),
		}
	}
	return resp, nil
}

func drain(resp *http.Response) error {
	_, err := io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
	if cerr := resp.Body.Close(); err == nil {
		err = cerr
	}
	return err
}
