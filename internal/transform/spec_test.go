package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imagehub/imagehub_server/internal/apperr"
)

func TestParseSpec_ValidationBoundary(t *testing.T) {
	tests := []struct {
		name    string
		raw     map[string]string
		wantErr bool
	}{
		{name: "quality above range", raw: map[string]string{"quality": "101"}, wantErr: true},
		{name: "quality negative", raw: map[string]string{"quality": "-1"}, wantErr: true},
		{name: "width negative", raw: map[string]string{"width": "-5"}, wantErr: true},
		{name: "tint not hex", raw: map[string]string{"tint": "zzzzzz"}, wantErr: true},
		{name: "format not an image", raw: map[string]string{"format": "docx"}, wantErr: true},
		{name: "unknown key", raw: map[string]string{"sharpen": "3"}, wantErr: true},
		{name: "width not numeric", raw: map[string]string{"width": "abc"}, wantErr: true},
		{name: "blur negative", raw: map[string]string{"blur": "-0.5"}, wantErr: true},
		{name: "rotate negative", raw: map[string]string{"rotate": "-90"}, wantErr: true},
		{name: "flip not boolean", raw: map[string]string{"flip": "yes"}, wantErr: true},
		{name: "quality zero", raw: map[string]string{"quality": "0"}},
		{name: "quality full", raw: map[string]string{"quality": "100"}},
		{name: "width zero", raw: map[string]string{"width": "0"}},
		{name: "boolean digit form", raw: map[string]string{"greyscale": "1", "flop": "0"}},
		{name: "boolean mixed case", raw: map[string]string{"flip": "TRUE"}},
		{name: "tint with hash prefix", raw: map[string]string{"tint": "#FF8800"}},
		{name: "format uppercase", raw: map[string]string{"format": "WEBP"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSpec(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, apperr.KindInvalidParameter, apperr.KindOf(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseSpec_TypedFields(t *testing.T) {
	// given
	raw := map[string]string{
		"width":     "600",
		"height":    "800",
		"quality":   "80",
		"blur":      "1.5",
		"rotate":    "90",
		"greyscale": "true",
		"tint":      "#FF8800",
		"format":    "WebP",
	}

	// when
	spec, err := ParseSpec(raw)

	// then
	require.NoError(t, err)
	require.NotNil(t, spec.Width)
	assert.Equal(t, uint(600), *spec.Width)
	require.NotNil(t, spec.Height)
	assert.Equal(t, uint(800), *spec.Height)
	require.NotNil(t, spec.Quality)
	assert.Equal(t, uint(80), *spec.Quality)
	require.NotNil(t, spec.Blur)
	assert.Equal(t, 1.5, *spec.Blur)
	require.NotNil(t, spec.Rotate)
	assert.Equal(t, 90.0, *spec.Rotate)
	require.NotNil(t, spec.Greyscale)
	assert.True(t, *spec.Greyscale)
	require.NotNil(t, spec.Tint)
	assert.Equal(t, Color{R: 0xff, G: 0x88, B: 0x00}, *spec.Tint)
	assert.Equal(t, "ff8800", spec.Tint.Hex())
	assert.Equal(t, "webp", spec.Format)
	assert.False(t, spec.Empty())
}

func TestParseSpec_Empty(t *testing.T) {
	spec, err := ParseSpec(map[string]string{})

	require.NoError(t, err)
	assert.True(t, spec.Empty())
}

func TestSpecOperations_Order(t *testing.T) {
	// given
	width := uint(100)
	quality := uint(70)
	rotate := 45.0
	blur := 2.0
	grey := true
	spec := Spec{
		Width:     &width,
		Quality:   &quality,
		Rotate:    &rotate,
		Blur:      &blur,
		Greyscale: &grey,
	}

	// when
	ops := spec.Operations("png")

	// then: resize first, encode last, rotate before blur per canonical order
	require.Len(t, ops, 5)
	assert.Equal(t, OpResize, ops[0].Kind)
	assert.Equal(t, OpRotate, ops[1].Kind)
	assert.Equal(t, OpGreyscale, ops[2].Kind)
	assert.Equal(t, OpBlur, ops[3].Kind)
	assert.Equal(t, OpEncode, ops[4].Kind)
	assert.Equal(t, "png", ops[4].Format)
	assert.Equal(t, 70, ops[4].Quality)
}

func TestSpecOperations_FalseBooleansProduceNoSteps(t *testing.T) {
	flip := false
	spec := Spec{Flip: &flip}

	ops := spec.Operations("jpg")

	require.Len(t, ops, 1)
	assert.Equal(t, OpEncode, ops[0].Kind)
}
