package recognition

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"strings"

	"github.com/smartcart/backend/internal/domain"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const maxSourcePixels = 40_000_000

// FrameConfig bounds the frames sent upstream
type FrameConfig struct {
	MaxWidth    int
	MaxHeight   int
	JPEGQuality int
	MaxBytes    int
}

// FramePreparer decodes client payloads and shapes them into bounded JPEG frames
type FramePreparer struct {
	maxWidth  int
	maxHeight int
	quality   int
	maxBytes  int
}

// NewFramePreparer creates a FramePreparer, applying defaults for unset limits
func NewFramePreparer(cfg FrameConfig) *FramePreparer {
	if cfg.MaxWidth <= 0 {
		cfg.MaxWidth = 640
	}
	if cfg.MaxHeight <= 0 {
		cfg.MaxHeight = 480
	}
	if cfg.JPEGQuality <= 0 || cfg.JPEGQuality > 100 {
		cfg.JPEGQuality = 85
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 10 << 20
	}
	return &FramePreparer{
		maxWidth:  cfg.MaxWidth,
		maxHeight: cfg.MaxHeight,
		quality:   cfg.JPEGQuality,
		maxBytes:  cfg.MaxBytes,
	}
}

// Prepare accepts a base64 image, optionally wrapped in a data URI, and
// returns a JPEG frame no larger than the configured bounds.
func (p *FramePreparer) Prepare(payload string) (*domain.Frame, error) {
	raw, err := decodePayload(payload)
	if err != nil {
		return nil, err
	}
	if len(raw) > p.maxBytes {
		return nil, fmt.Errorf("%w: image is %d bytes, limit is %d", domain.ErrInvalidImage, len(raw), p.maxBytes)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > maxSourcePixels {
		return nil, fmt.Errorf("%w: unsupported dimensions %dx%d", domain.ErrInvalidImage, cfg.Width, cfg.Height)
	}

	if format == "jpeg" && cfg.Width <= p.maxWidth && cfg.Height <= p.maxHeight {
		return &domain.Frame{Data: raw, MediaType: "image/jpeg", Width: cfg.Width, Height: cfg.Height}, nil
	}

	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidImage, err)
	}

	w, h := fitWithin(cfg.Width, cfg.Height, p.maxWidth, p.maxHeight)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: p.quality}); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}

	return &domain.Frame{Data: buf.Bytes(), MediaType: "image/jpeg", Width: w, Height: h}, nil
}

func decodePayload(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	if strings.HasPrefix(payload, "data:") {
		comma := strings.Index(payload, ",")
		if comma < 0 {
			return nil, fmt.Errorf("%w: malformed data URI", domain.ErrInvalidImage)
		}
		payload = payload[comma+1:]
	}
	if payload == "" {
		return nil, fmt.Errorf("%w: empty image", domain.ErrInvalidImage)
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return nil, fmt.Errorf("%w: image is not valid base64", domain.ErrInvalidImage)
		}
	}
	return raw, nil
}

// fitWithin scales (w, h) down to fit (maxW, maxH) keeping the aspect ratio
func fitWithin(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}
	scale := float64(maxW) / float64(w)
	if s := float64(maxH) / float64(h); s < scale {
		scale = s
	}
	nw := int(float64(w) * scale)
	nh := int(float64(h) * scale)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return nw, nh
}
