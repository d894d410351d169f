// Package vips implements the transform engine on libvips via govips. It is
// the production engine: it covers the full output format set, including
// webp, avif, heif, jp2, jxl and raw pixel export.
package vips

import (
	"context"
	"runtime"

	govips "github.com/davidbyttow/govips/v2/vips"

	"github.com/imagehub/imagehub_server/internal/apperr"
	"github.com/imagehub/imagehub_server/internal/transform"
)

type Engine struct {
	defaultQuality int
}

// NewEngine initialises libvips. Call Shutdown once at process exit.
func NewEngine() *Engine {
	govips.Startup(&govips.Config{
		ConcurrencyLevel: runtime.NumCPU(),
	})
	return &Engine{defaultQuality: 85}
}

func (e *Engine) Shutdown() {
	govips.Shutdown()
}

func (e *Engine) Supports(format string) bool {
	return transform.SupportedFormats[format]
}

func (e *Engine) Apply(ctx context.Context, data []byte, ops []transform.Operation) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindTransform, err, "transform canceled")
	}

	ref, err := govips.NewImageFromBuffer(data)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransform, err, "decode failed")
	}
	defer ref.Close()

	var encoded []byte
	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			return nil, apperr.Wrap(apperr.KindTransform, err, "transform canceled at %s", op.Kind)
		}

		switch op.Kind {
		case transform.OpResize:
			err = resize(ref, op.Width, op.Height)
		case transform.OpRotate:
			err = ref.Similarity(1.0, op.Degrees, &govips.ColorRGBA{}, 0, 0, 0, 0)
		case transform.OpGreyscale:
			err = ref.ToColorSpace(govips.InterpretationBW)
		case transform.OpBlur:
			err = ref.GaussianBlur(op.Sigma)
		case transform.OpFlip:
			err = ref.Flip(govips.DirectionVertical)
		case transform.OpFlop:
			err = ref.Flip(govips.DirectionHorizontal)
		case transform.OpTint:
			err = ref.Linear(
				[]float64{float64(op.Tint.R) / 255, float64(op.Tint.G) / 255, float64(op.Tint.B) / 255},
				[]float64{0, 0, 0},
			)
		case transform.OpEncode:
			encoded, err = e.export(ref, op)
		default:
			return nil, apperr.New(apperr.KindTransform, "unknown operation %s", op.Kind)
		}

		if err != nil {
			return nil, apperr.Wrap(apperr.KindTransform, err, "%s failed", op.Kind)
		}
	}

	if encoded == nil {
		return nil, apperr.New(apperr.KindTransform, "pipeline has no encode step")
	}
	return encoded, nil
}

// resize scales to the requested box; a zero width or height preserves the
// aspect ratio, matching the native engine's behavior.
func resize(ref *govips.ImageRef, width, height int) error {
	w, h := ref.Width(), ref.Height()
	if w == 0 || h == 0 {
		return nil
	}

	switch {
	case width > 0 && height > 0:
		return ref.ResizeWithVScale(float64(width)/float64(w), float64(height)/float64(h), govips.KernelLanczos3)
	case width > 0:
		return ref.Resize(float64(width)/float64(w), govips.KernelLanczos3)
	case height > 0:
		return ref.Resize(float64(height)/float64(h), govips.KernelLanczos3)
	default:
		return nil
	}
}

func (e *Engine) export(ref *govips.ImageRef, op transform.Operation) ([]byte, error) {
	quality := op.Quality
	if quality <= 0 {
		quality = e.defaultQuality
	}

	switch op.Format {
	case "jpg", "jpeg":
		p := govips.NewJpegExportParams()
		p.Quality = quality
		buf, _, err := ref.ExportJpeg(p)
		return buf, err
	case "png":
		p := govips.NewPngExportParams()
		buf, _, err := ref.ExportPng(p)
		return buf, err
	case "webp":
		p := govips.NewWebpExportParams()
		p.Quality = quality
		buf, _, err := ref.ExportWebp(p)
		return buf, err
	case "gif":
		p := govips.NewGifExportParams()
		buf, _, err := ref.ExportGIF(p)
		return buf, err
	case "tiff":
		p := govips.NewTiffExportParams()
		buf, _, err := ref.ExportTiff(p)
		return buf, err
	case "avif":
		p := govips.NewAvifExportParams()
		p.Quality = quality
		buf, _, err := ref.ExportAvif(p)
		return buf, err
	case "heif":
		p := govips.NewHeifExportParams()
		p.Quality = quality
		buf, _, err := ref.ExportHeif(p)
		return buf, err
	case "jp2":
		p := govips.NewJp2kExportParams()
		p.Quality = quality
		buf, _, err := ref.ExportJp2k(p)
		return buf, err
	case "jxl":
		p := govips.NewJxlExportParams()
		p.Quality = quality
		buf, _, err := ref.ExportJxl(p)
		return buf, err
	case "raw":
		return ref.ToBytes()
	default:
		return nil, apperr.New(apperr.KindTransform, "encode: unsupported output format %q", op.Format)
	}
}
