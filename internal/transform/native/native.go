// Package native implements the transform engine on the pure-Go imaging
// library. It covers the jpg/jpeg/png/gif/tiff output set; formats that
// need libvips (webp, avif, heif, jp2, jxl, raw) are served by the vips
// engine instead.
package native

import (
	"bytes"
	"context"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/imagehub/imagehub_server/internal/apperr"
	"github.com/imagehub/imagehub_server/internal/transform"
)

// nativeFormats is the subset of transform.SupportedFormats the imaging
// library can encode.
var nativeFormats = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"gif":  true,
	"tiff": true,
}

type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

func (e *Engine) Supports(format string) bool {
	return nativeFormats[format]
}

func (e *Engine) Apply(ctx context.Context, data []byte, ops []transform.Operation) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindTransform, err, "transform canceled")
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransform, err, "decode failed")
	}

	var encoded []byte
	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			return nil, apperr.Wrap(apperr.KindTransform, err, "transform canceled at %s", op.Kind)
		}

		switch op.Kind {
		case transform.OpResize:
			img = imaging.Resize(img, op.Width, op.Height, imaging.Lanczos)
		case transform.OpRotate:
			img = imaging.Rotate(img, -op.Degrees, color.Transparent)
		case transform.OpGreyscale:
			img = imaging.Grayscale(img)
		case transform.OpBlur:
			img = imaging.Blur(img, op.Sigma)
		case transform.OpFlip:
			img = imaging.FlipV(img)
		case transform.OpFlop:
			img = imaging.FlipH(img)
		case transform.OpTint:
			img = tint(img, op.Tint)
		case transform.OpEncode:
			encoded, err = encode(img, op)
			if err != nil {
				return nil, err
			}
		default:
			return nil, apperr.New(apperr.KindTransform, "unknown operation %s", op.Kind)
		}
	}

	if encoded == nil {
		return nil, apperr.New(apperr.KindTransform, "pipeline has no encode step")
	}
	return encoded, nil
}

// tint multiplies each channel by the tint color's ratio, matching the
// classic multiply-blend tint.
func tint(img image.Image, c transform.Color) *image.NRGBA {
	rf := float64(c.R) / 255
	gf := float64(c.G) / 255
	bf := float64(c.B) / 255
	return imaging.AdjustFunc(img, func(px color.NRGBA) color.NRGBA {
		px.R = uint8(float64(px.R) * rf)
		px.G = uint8(float64(px.G) * gf)
		px.B = uint8(float64(px.B) * bf)
		return px
	})
}

func encode(img image.Image, op transform.Operation) ([]byte, error) {
	format, err := imaging.FormatFromExtension("." + op.Format)
	if err != nil {
		return nil, apperr.New(apperr.KindTransform,
			"encode: output format %q not supported by the native engine", op.Format)
	}

	opts := []imaging.EncodeOption{}
	if op.Quality > 0 {
		opts = append(opts, imaging.JPEGQuality(op.Quality))
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, opts...); err != nil {
		return nil, apperr.Wrap(apperr.KindTransform, err, "encode to %s failed", op.Format)
	}
	return buf.Bytes(), nil
}
