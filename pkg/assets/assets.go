// Package assets decodes uploaded or on-disk rasters into read-only image
// assets and produces the scaled previews the editing surface works against.
package assets

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/jimwhimpey/beforeafterify/pkg/geometry"
)

// Asset is a decoded raster plus its metadata. The pixel data is owned by the
// loader; downstream components treat it as read-only.
type Asset struct {
	Image  image.Image
	Width  int
	Height int
	Format string
}

// SameSize reports whether two assets have identical pixel dimensions.
func SameSize(a, b *Asset) bool {
	return a != nil && b != nil && a.Width == b.Width && a.Height == b.Height
}

// Loader decodes images from readers, files, and URLs.
type Loader struct {
	httpClient *http.Client
}

// NewLoader creates a Loader with a 30 second HTTP timeout for URL sources.
func NewLoader() *Loader {
	return &Loader{
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Decode reads and decodes an image from r, with a WebP fallback for data the
// registered decoders reject.
func (l *Loader) Decode(r io.Reader) (*Asset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	return l.decodeBytes(data)
}

func (l *Loader) decodeBytes(data []byte) (*Asset, error) {
	if img, format, err := image.Decode(bytes.NewReader(data)); err == nil {
		return newAsset(img, format), nil
	}
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return newAsset(img, "webp"), nil
	}
	return nil, fmt.Errorf("image: unknown or unsupported format")
}

// Open loads an image from a file path, trying the registered decoders first
// and falling back to explicit WebP decoding.
func (l *Loader) Open(path string) (*Asset, error) {
	if img, err := imaging.Open(path); err == nil {
		return newAsset(img, formatFromPath(path)), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	asset, err := l.decodeBytes(data)
	if err != nil {
		return nil, fmt.Errorf("image: unknown format for %s", path)
	}
	return asset, nil
}

// FromURL downloads and decodes an image over HTTP(S).
func (l *Loader) FromURL(imageURL string) (*Asset, error) {
	parsed, err := url.Parse(imageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme: %s (only http and https are supported)", parsed.Scheme)
	}

	req, err := http.NewRequest(http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Beforeafterify/1.0 (+https://github.com/jimwhimpey/beforeafterify)")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: HTTP %d %s", resp.StatusCode, resp.Status)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "image/") {
		return nil, fmt.Errorf("URL does not point to an image (Content-Type: %s)", ct)
	}

	return l.Decode(resp.Body)
}

// FromSource loads an image from either a file path or an http(s) URL.
func (l *Loader) FromSource(source string) (*Asset, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return l.FromURL(source)
	}
	return l.Open(source)
}

// Preview returns the asset resized (Lanczos) to fit within maxW x maxH,
// together with the scale that was applied. Images already inside the box are
// returned at scale 1 without resampling.
func (a *Asset) Preview(maxW, maxH int) (*image.NRGBA, float64) {
	scale := geometry.FitScale(a.Width, a.Height, maxW, maxH)
	if scale >= 1 {
		return imaging.Clone(a.Image), 1
	}
	w := int(float64(a.Width)*scale + 0.5)
	return imaging.Resize(a.Image, w, 0, imaging.Lanczos), scale
}

// Save writes the asset to path in a format inferred from the extension
// (jpg/png/webp/gif via imaging, plus explicit WebP support).
func (a *Asset) Save(path string, quality int) error {
	if strings.HasSuffix(strings.ToLower(path), ".webp") {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		return webp.Encode(f, a.Image, &webp.Options{Quality: float32(quality)})
	}
	return imaging.Save(a.Image, path, imaging.JPEGQuality(quality))
}

// EncodeBase64 re-encodes the asset for transmission to a vision model,
// optionally downscaling so the long side is at most maxDim pixels.
func (a *Asset) EncodeBase64(format string, maxDim, quality int) (string, error) {
	img := a.Image
	if maxDim > 0 && (a.Width > maxDim || a.Height > maxDim) {
		if a.Width >= a.Height {
			img = imaging.Resize(img, maxDim, 0, imaging.Lanczos)
		} else {
			img = imaging.Resize(img, 0, maxDim, imaging.Lanczos)
		}
	}

	var buf bytes.Buffer
	switch strings.ToLower(format) {
	case "png":
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return "", err
		}
	default: // jpg
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return "", err
		}
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func newAsset(img image.Image, format string) *Asset {
	b := img.Bounds()
	return &Asset{
		Image:  img,
		Width:  b.Dx(),
		Height: b.Dy(),
		Format: format,
	}
}

func formatFromPath(path string) string {
	if i := strings.LastIndex(path, "."); i >= 0 {
		return strings.ToLower(path[i+1:])
	}
	return ""
}
