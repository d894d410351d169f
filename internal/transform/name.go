package transform

import (
	"path"
	"sort"
	"strconv"
	"strings"
)

// Short codes for cache-key tokens. Format is deliberately absent: it is
// already encoded as the derived extension.
const (
	codeWidth     = "w"
	codeHeight    = "h"
	codeQuality   = "q"
	codeBlur      = "b"
	codeRotate    = "r"
	codeGreyscale = "g"
	codeFlip      = "flip"
	codeFlop      = "flop"
	codeTint      = "t"
)

// DeriveName maps (base name, output extension, spec) to the deterministic
// cache key. Tokens are sorted lexicographically so the result is independent
// of parameter order; an empty spec yields the bare "{base}.{ext}" name.
func DeriveName(baseName, extension string, spec Spec) string {
	tokens := make([]string, 0, 9)

	add := func(code, value string) {
		tokens = append(tokens, code+"-"+value)
	}

	if spec.Width != nil {
		add(codeWidth, strconv.FormatUint(uint64(*spec.Width), 10))
	}
	if spec.Height != nil {
		add(codeHeight, strconv.FormatUint(uint64(*spec.Height), 10))
	}
	if spec.Quality != nil {
		add(codeQuality, strconv.FormatUint(uint64(*spec.Quality), 10))
	}
	if spec.Blur != nil {
		add(codeBlur, strconv.FormatFloat(*spec.Blur, 'f', -1, 64))
	}
	if spec.Rotate != nil {
		add(codeRotate, strconv.FormatFloat(*spec.Rotate, 'f', -1, 64))
	}
	if spec.Greyscale != nil {
		add(codeGreyscale, strconv.FormatBool(*spec.Greyscale))
	}
	if spec.Flip != nil {
		add(codeFlip, strconv.FormatBool(*spec.Flip))
	}
	if spec.Flop != nil {
		add(codeFlop, strconv.FormatBool(*spec.Flop))
	}
	if spec.Tint != nil {
		add(codeTint, spec.Tint.Hex())
	}

	if len(tokens) == 0 {
		return baseName + "." + extension
	}

	sort.Strings(tokens)
	return baseName + "-" + strings.Join(tokens, "-") + "." + extension
}

// SplitPath breaks a storage path into directory, base name and extension.
// ok is false when no extension can be extracted.
func SplitPath(p string) (dir, base, ext string, ok bool) {
	dir = path.Dir(p)
	file := path.Base(p)
	dot := strings.LastIndex(file, ".")
	if dot <= 0 || dot == len(file)-1 {
		return "", "", "", false
	}
	return dir, file[:dot], strings.ToLower(file[dot+1:]), true
}

// CacheKey derives the full storage key for a source path and spec, keeping
// the source's directory prefix so transformed objects live next to their
// originals.
func CacheKey(srcPath, outExt string, spec Spec) (string, bool) {
	dir, base, _, ok := SplitPath(srcPath)
	if !ok {
		return "", false
	}
	name := DeriveName(base, outExt, spec)
	if dir == "." || dir == "/" {
		return name, true
	}
	return dir + "/" + name, true
}

// ContentType maps an output extension to the response Content-Type.
func ContentType(ext string) string {
	switch strings.ToLower(ext) {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "webp":
		return "image/webp"
	case "gif":
		return "image/gif"
	case "tiff":
		return "image/tiff"
	case "avif":
		return "image/avif"
	case "heif":
		return "image/heif"
	case "jp2":
		return "image/jp2"
	case "jxl":
		return "image/jxl"
	default:
		return "application/octet-stream"
	}
}
