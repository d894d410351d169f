package transform

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/imagehub/imagehub_server/internal/apperr"
)

// Color is a parsed 6-hex-digit RGB tint value.
type Color struct {
	R, G, B uint8
}

// Hex returns the canonical lowercase representation used in cache keys.
func (c Color) Hex() string {
	return fmt.Sprintf("%02x%02x%02x", c.R, c.G, c.B)
}

// Spec is a validated, immutable set of image operations. Nil fields were not
// requested. Field order below is the canonical application order for the
// engine: resize first, then rotate, greyscale, blur, flip, flop, tint, with
// format/quality encoding last.
type Spec struct {
	Width     *uint
	Height    *uint
	Quality   *uint
	Format    string // canonical output extension, "" when not requested
	Rotate    *float64
	Greyscale *bool
	Flip      *bool
	Flop      *bool
	Blur      *float64
	Tint      *Color
}

// Empty reports whether no transformation at all was requested.
func (s Spec) Empty() bool {
	return s.Width == nil && s.Height == nil && s.Quality == nil &&
		s.Format == "" && s.Rotate == nil && s.Greyscale == nil &&
		s.Flip == nil && s.Flop == nil && s.Blur == nil && s.Tint == nil
}

// SupportedFormats is the closed set of output extensions the gateway accepts.
var SupportedFormats = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"webp": true,
	"gif":  true,
	"tiff": true,
	"avif": true,
	"heif": true,
	"jp2":  true,
	"jxl":  true,
	"raw":  true,
}

// ParseSpec validates a raw parameter map into a Spec. Unknown keys and any
// malformed value fail with an invalid-parameter error naming the offending
// key and raw value.
func ParseSpec(raw map[string]string) (Spec, error) {
	var spec Spec

	for key, value := range raw {
		switch key {
		case "width":
			v, err := parseUint(key, value)
			if err != nil {
				return Spec{}, err
			}
			spec.Width = &v
		case "height":
			v, err := parseUint(key, value)
			if err != nil {
				return Spec{}, err
			}
			spec.Height = &v
		case "quality":
			v, err := parseUint(key, value)
			if err != nil {
				return Spec{}, err
			}
			if v > 100 {
				return Spec{}, apperr.New(apperr.KindInvalidParameter,
					"quality must be between 0 and 100, got %q", value)
			}
			spec.Quality = &v
		case "blur":
			v, err := parseNonNegativeFloat(key, value)
			if err != nil {
				return Spec{}, err
			}
			spec.Blur = &v
		case "rotate":
			v, err := parseNonNegativeFloat(key, value)
			if err != nil {
				return Spec{}, err
			}
			spec.Rotate = &v
		case "greyscale":
			v, err := parseBool(key, value)
			if err != nil {
				return Spec{}, err
			}
			spec.Greyscale = &v
		case "flip":
			v, err := parseBool(key, value)
			if err != nil {
				return Spec{}, err
			}
			spec.Flip = &v
		case "flop":
			v, err := parseBool(key, value)
			if err != nil {
				return Spec{}, err
			}
			spec.Flop = &v
		case "tint":
			c, err := parseColor(key, value)
			if err != nil {
				return Spec{}, err
			}
			spec.Tint = &c
		case "format":
			f := strings.ToLower(value)
			if !SupportedFormats[f] {
				return Spec{}, apperr.New(apperr.KindInvalidParameter,
					"unsupported format %q", value)
			}
			spec.Format = f
		default:
			return Spec{}, apperr.New(apperr.KindInvalidParameter,
				"unknown parameter %q", key)
		}
	}

	return spec, nil
}

func parseUint(key, value string) (uint, error) {
	v, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0, apperr.New(apperr.KindInvalidParameter,
			"%s must be a non-negative integer, got %q", key, value)
	}
	return uint(v), nil
}

func parseNonNegativeFloat(key, value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil || v < 0 {
		return 0, apperr.New(apperr.KindInvalidParameter,
			"%s must be a non-negative number, got %q", key, value)
	}
	return v, nil
}

func parseBool(key, value string) (bool, error) {
	switch strings.ToLower(value) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	default:
		return false, apperr.New(apperr.KindInvalidParameter,
			"%s must be true, false, 1 or 0, got %q", key, value)
	}
}

func parseColor(key, value string) (Color, error) {
	hex := strings.ToLower(strings.TrimPrefix(value, "#"))
	if len(hex) != 6 {
		return Color{}, apperr.New(apperr.KindInvalidParameter,
			"%s must be a 6-hex-digit color, got %q", key, value)
	}
	var rgb [3]uint8
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseUint(hex[i*2:i*2+2], 16, 8)
		if err != nil {
			return Color{}, apperr.New(apperr.KindInvalidParameter,
				"%s must be a 6-hex-digit color, got %q", key, value)
		}
		rgb[i] = uint8(v)
	}
	return Color{R: rgb[0], G: rgb[1], B: rgb[2]}, nil
}
