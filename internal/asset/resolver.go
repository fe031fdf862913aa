package asset

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	_ "golang.org/x/image/webp"
)

var (
	ErrUnsupportedSource = errors.New("unsupported image source")
	ErrImageTooLarge     = errors.New("image exceeds size limit")
)

const (
	maxRemoteSize = 20 << 20 // 20MB

	// MaxPixels bounds the decoded size of any image, checked from the
	// header before decoding.
	MaxPixels = 40_000_000
)

// Resolver turns image source references into decoded images: data URLs,
// "/assets/..." paths served by Handler, and http(s) URLs. Decoded images
// are cached by source.
type Resolver struct {
	dir    string
	client *http.Client
	cache  *cache.Cache
	ttl    time.Duration
}

// NewResolver creates a resolver reading stored assets from dir. Decoded
// images stay cached for ttl.
func NewResolver(dir string, client *http.Client, ttl time.Duration) *Resolver {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Resolver{
		dir:    dir,
		client: client,
		cache:  cache.New(ttl, 2*ttl),
		ttl:    ttl,
	}
}

// Resolve returns the decoded image for src.
func (r *Resolver) Resolve(ctx context.Context, src string) (image.Image, error) {
	src = strings.TrimSpace(src)
	key := cacheKey(src)
	if v, ok := r.cache.Get(key); ok {
		return v.(image.Image), nil
	}

	var (
		img image.Image
		err error
	)
	switch {
	case strings.HasPrefix(src, "data:"):
		img, err = decodeDataURL(src)
	case strings.HasPrefix(src, "/assets/"):
		img, err = r.decodeStored(strings.TrimPrefix(src, "/assets/"))
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		img, err = r.fetch(ctx, src)
	default:
		return nil, fmt.Errorf("%w: %.40q", ErrUnsupportedSource, src)
	}
	if err != nil {
		return nil, err
	}
	r.cache.Set(key, img, r.ttl)
	return img, nil
}

// data URLs can be megabytes long, so they are keyed by digest
func cacheKey(src string) string {
	if len(src) <= 256 {
		return src
	}
	sum := sha256.Sum256([]byte(src))
	return "sha256:" + hex.EncodeToString(sum[:])
}

func decodeDataURL(src string) (image.Image, error) {
	comma := strings.IndexByte(src, ',')
	if comma < 0 {
		return nil, fmt.Errorf("%w: malformed data url", ErrUnsupportedSource)
	}
	meta, payload := src[len("data:"):comma], src[comma+1:]
	if !strings.HasPrefix(meta, "image/") {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, meta)
	}

	var data []byte
	if strings.HasSuffix(meta, ";base64") {
		var err error
		data, err = base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("decode data url: %w", err)
		}
	} else {
		s, err := url.PathUnescape(payload)
		if err != nil {
			return nil, fmt.Errorf("decode data url: %w", err)
		}
		data = []byte(s)
	}
	return Decode(bytes.NewReader(data))
}

// Decode reads an image after checking its header dimensions against
// MaxPixels.
func Decode(rs io.ReadSeeker) (image.Image, error) {
	cfg, _, err := image.DecodeConfig(rs)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	img, _, err := image.Decode(rs)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

func (r *Resolver) decodeStored(name string) (image.Image, error) {
	// only bare file names inside the asset dir
	name = filepath.Base(filepath.Clean("/" + name))
	f, err := os.Open(filepath.Join(r.dir, name))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, name)
	}
	defer f.Close()
	img, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("asset %s: %w", name, err)
	}
	return img, nil
}

func (r *Resolver) fetch(ctx context.Context, src string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch image: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteSize+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(data) > maxRemoteSize {
		return nil, ErrImageTooLarge
	}
	return Decode(bytes.NewReader(data))
}
