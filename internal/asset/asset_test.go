package asset

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func uploadRequest(t *testing.T, contentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="photo.png"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(data)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/assets/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadAndServe(t *testing.T) {
	h := NewHandler(t.TempDir())

	rec := httptest.NewRecorder()
	h.Upload(rec, uploadRequest(t, "image/png", testPNG(t, 8, 4)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp UploadResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Width != 8 || resp.Height != 4 || resp.Name != "photo.png" {
		t.Errorf("unexpected response %+v", resp)
	}
	if !strings.HasPrefix(resp.URL, "/assets/asset_") {
		t.Errorf("url = %q", resp.URL)
	}

	rec = httptest.NewRecorder()
	h.Serve().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, resp.URL, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("serve status = %d", rec.Code)
	}
	if cc := rec.Header().Get("Cache-Control"); !strings.Contains(cc, "immutable") {
		t.Errorf("Cache-Control = %q", cc)
	}

	if err := h.Delete(resp.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := h.Delete(resp.ID); !errors.Is(err, ErrAssetNotFound) {
		t.Errorf("second delete = %v, want ErrAssetNotFound", err)
	}
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	h := NewHandler(t.TempDir())
	rec := httptest.NewRecorder()
	h.Upload(rec, uploadRequest(t, "image/svg+xml", []byte("<svg/>")))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestDeleteRejectsForeignID(t *testing.T) {
	h := NewHandler(t.TempDir())
	if err := h.Delete("../../etc/passwd"); !errors.Is(err, ErrAssetNotFound) {
		t.Errorf("err = %v, want ErrAssetNotFound", err)
	}
}

func TestResolveDataURL(t *testing.T) {
	r := NewResolver(t.TempDir(), nil, time.Minute)
	src := "data:image/png;base64," + base64.StdEncoding.EncodeToString(testPNG(t, 3, 5))

	img, err := r.Resolve(context.Background(), src)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 3 || b.Dy() != 5 {
		t.Errorf("bounds = %v", b)
	}

	again, err := r.Resolve(context.Background(), src)
	if err != nil {
		t.Fatal(err)
	}
	if again != img {
		t.Error("expected the cached image on second resolve")
	}
}

func TestResolveStoredAsset(t *testing.T) {
	h := NewHandler(t.TempDir())
	stored, err := h.store(image.NewRGBA(image.Rect(0, 0, 6, 6)), "x.png")
	if err != nil {
		t.Fatal(err)
	}
	r := NewResolver(h.Dir(), nil, time.Minute)
	img, err := r.Resolve(context.Background(), stored.URL)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 6 {
		t.Errorf("width = %d", img.Bounds().Dx())
	}

	if _, err := r.Resolve(context.Background(), "/assets/missing.png"); !errors.Is(err, ErrAssetNotFound) {
		t.Errorf("err = %v, want ErrAssetNotFound", err)
	}
}

func TestResolveRemote(t *testing.T) {
	data := testPNG(t, 2, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(data)
	}))
	defer srv.Close()

	r := NewResolver(t.TempDir(), srv.Client(), time.Minute)
	if _, err := r.Resolve(context.Background(), srv.URL+"/img.png"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Resolve(context.Background(), srv.URL+"/missing"); err == nil {
		t.Error("expected an error for 404")
	}
}

func TestResolveUnsupported(t *testing.T) {
	r := NewResolver(t.TempDir(), nil, time.Minute)
	for _, src := range []string{"ftp://host/x.png", "data:text/plain,hello", "data:image/png;base64"} {
		if _, err := r.Resolve(context.Background(), src); !errors.Is(err, ErrUnsupportedSource) {
			t.Errorf("%q: err = %v, want ErrUnsupportedSource", src, err)
		}
	}
}

// oversizedPNG is a valid 1x1 PNG whose header claims w×h pixels.
func oversizedPNG(t *testing.T, w, h uint32) []byte {
	t.Helper()
	data := testPNG(t, 1, 1)
	// signature(8) length(4) "IHDR"(4) then width and height
	binary.BigEndian.PutUint32(data[16:], w)
	binary.BigEndian.PutUint32(data[20:], h)
	binary.BigEndian.PutUint32(data[29:], crc32.ChecksumIEEE(data[12:29]))
	return data
}

func TestDecodeRefusesOversizedImages(t *testing.T) {
	bomb := oversizedPNG(t, 100_000, 100_000)
	if _, err := Decode(bytes.NewReader(bomb)); !errors.Is(err, ErrImageTooLarge) {
		t.Fatalf("Decode err = %v, want ErrImageTooLarge", err)
	}

	r := NewResolver(t.TempDir(), nil, time.Minute)
	src := "data:image/png;base64," + base64.StdEncoding.EncodeToString(bomb)
	if _, err := r.Resolve(context.Background(), src); !errors.Is(err, ErrImageTooLarge) {
		t.Errorf("Resolve err = %v, want ErrImageTooLarge", err)
	}

	rec := httptest.NewRecorder()
	NewHandler(t.TempDir()).Upload(rec, uploadRequest(t, "image/png", bomb))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("upload status = %d, want 400", rec.Code)
	}

	img, err := Decode(bytes.NewReader(testPNG(t, 3, 2)))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 3 || b.Dy() != 2 {
		t.Errorf("bounds = %v", b)
	}
}
