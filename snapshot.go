package postfx

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"golang.org/x/image/draw"

	"github.com/gogpu/postfx/gpucore"
)

// ErrEmptyReadback is returned when the adapter returns no pixel data
// for a registered texture.
var ErrEmptyReadback = errors.New("postfx: texture readback returned no data")

// Snapshot reads back a registered color texture and returns it as an
// RGBA image, optionally scaled to a preview size. It stalls the GPU;
// use it from debug tooling only, never inside the frame loop.
//
// The readback is interpreted as tightly packed 8-bit RGBA. Adapters
// whose color buffers use wider formats convert during ReadTexture.
//
// maxEdge caps the longer edge of the result; pass 0 to keep the
// native resolution. Downscaling uses Catmull-Rom resampling.
func Snapshot(adapter gpucore.GPUAdapter, texture gpucore.TextureID, width, height uint32, maxEdge int) (*image.RGBA, error) {
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("postfx: snapshot of degenerate texture %dx%d", width, height)
	}

	data, err := adapter.ReadTexture(texture)
	if err != nil {
		return nil, fmt.Errorf("postfx: texture readback: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyReadback
	}
	want := int(width) * int(height) * 4
	if len(data) < want {
		return nil, fmt.Errorf("postfx: short readback: got %d bytes, want %d", len(data), want)
	}

	img := &image.RGBA{
		Pix:    data[:want],
		Stride: int(width) * 4,
		Rect:   image.Rect(0, 0, int(width), int(height)),
	}

	if maxEdge <= 0 || (int(width) <= maxEdge && int(height) <= maxEdge) {
		return img, nil
	}

	pw, ph := previewSize(int(width), int(height), maxEdge)
	preview := image.NewRGBA(image.Rect(0, 0, pw, ph))
	draw.CatmullRom.Scale(preview, preview.Bounds(), img, img.Bounds(), draw.Src, nil)

	Logger().Debug("postfx: snapshot scaled",
		slog.Int("from_w", int(width)), slog.Int("from_h", int(height)),
		slog.Int("to_w", pw), slog.Int("to_h", ph))
	return preview, nil
}

// previewSize scales (w, h) so the longer edge equals maxEdge,
// preserving aspect ratio. Both results are at least 1.
func previewSize(w, h, maxEdge int) (int, int) {
	if w >= h {
		scaled := h * maxEdge / w
		return maxEdge, max(scaled, 1)
	}
	scaled := w * maxEdge / h
	return max(scaled, 1), maxEdge
}
