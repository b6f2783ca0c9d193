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
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type fakeService struct {
	t     *testing.T
	token string
	page  []byte

	gotMethod []string
	gotFile   []byte
	gotName   string
	gotID     string
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.gotMethod = append(f.gotMethod, r.Method+" "+r.URL.Path)
	if r.Header.Get("Authorization") != "Bearer "+f.token {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/files/7/preview":
		w.Header().Set("Content-Type", "image/png")
		w.Write(f.page)
	case r.Method == http.MethodPost && r.URL.Path == "/api/files/7/save-edited":
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		file, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		f.gotFile, _ = io.ReadAll(file)
		f.gotName = hdr.Filename
		f.gotID = r.FormValue("fileId")
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodDelete && r.URL.Path == "/api/files/7/reset-edited":
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "no such file", http.StatusNotFound)
	}
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := png.Encode(buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestClientRoundTrip(t *testing.T) {
	page := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	page.SetNRGBA(1, 1, color.NRGBA{R: 200, A: 255})
	svc := &fakeService{t: t, token: "secret", page: encodePNG(t, page)}
	srv := httptest.NewServer(svc)
	defer srv.Close()

	c, err := NewClient(srv.URL+"/api", WithToken("secret"), WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	img, err := c.Original(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds() != page.Rect {
		t.Errorf("bounds %v", img.Bounds())
	}
	if r, _, _, _ := img.At(1, 1).RGBA(); r>>8 != 200 {
		t.Errorf("pixel (1,1) red = %d", r>>8)
	}

	blob := []byte("\xff\xd8 not really a jpeg \xff\xd9")
	if err := c.Save(ctx, 7, blob); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(svc.gotFile, blob) {
		t.Error("uploaded file differs")
	}
	if svc.gotName != "7.jpeg" || svc.gotID != "7" {
		t.Errorf("filename %q, fileId %q", svc.gotName, svc.gotID)
	}

	if err := c.Reset(ctx, 7); err != nil {
		t.Fatal(err)
	}

	want := []string{
		"GET /api/files/7/preview",
		"POST /api/files/7/save-edited",
		"DELETE /api/files/7/reset-edited",
	}
	if d := cmp.Diff(want, svc.gotMethod); d != "" {
		t.Errorf("requests (-want +got):\n%s", d)
	}
}

func TestClientErrors(t *testing.T) {
	svc := &fakeService{t: t, token: "secret"}
	srv := httptest.NewServer(svc)
	defer srv.Close()
	ctx := context.Background()

	c, err := NewClient(srv.URL+"/api/", WithToken("secret"))
	if err != nil {
		t.Fatal(err)
	}
	err = c.Reset(ctx, 8)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown file: %v", err)
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusNotFound || se.Message != "no such file" {
		t.Errorf("status error %#v", se)
	}

	anon, err := NewClient(srv.URL + "/api")
	if err != nil {
		t.Fatal(err)
	}
	err = anon.Save(ctx, 7, []byte("x"))
	if !errors.As(err, &se) || se.Code != http.StatusUnauthorized {
		t.Errorf("missing token: %v", err)
	}

	// the body of the preview is not an image
	svc.page = []byte("<html>login</html>")
	if _, err := c.Original(ctx, 7); err == nil {
		t.Error("decoding garbage succeeded")
	}

	if _, err := NewClient("ftp://example.com"); err == nil {
		t.Error("ftp base url accepted")
	}
}

func TestClientContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.Reset(ctx, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled request: %v", err)
	}
}
