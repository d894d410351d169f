package transform

import "context"

// OpKind enumerates the closed set of pipeline operations. Engines dispatch
// over this set with an exhaustive switch; there is no runtime discovery of
// unsupported operation names.
type OpKind int

const (
	OpResize OpKind = iota + 1
	OpRotate
	OpGreyscale
	OpBlur
	OpFlip
	OpFlop
	OpTint
	OpEncode
)

func (k OpKind) String() string {
	switch k {
	case OpResize:
		return "resize"
	case OpRotate:
		return "rotate"
	case OpGreyscale:
		return "greyscale"
	case OpBlur:
		return "blur"
	case OpFlip:
		return "flip"
	case OpFlop:
		return "flop"
	case OpTint:
		return "tint"
	case OpEncode:
		return "encode"
	default:
		return "unknown"
	}
}

// Operation is one tagged pipeline step with its typed argument.
type Operation struct {
	Kind    OpKind
	Width   int     // resize
	Height  int     // resize
	Degrees float64 // rotate
	Sigma   float64 // blur
	Tint    Color   // tint
	Format  string  // encode
	Quality int     // encode; 0 means engine default
}

// Operations expands the spec into the ordered pipeline: resize first,
// remaining operations in the spec's canonical field order, encoding last.
func (s Spec) Operations(outExt string) []Operation {
	ops := make([]Operation, 0, 8)

	if s.Width != nil || s.Height != nil {
		op := Operation{Kind: OpResize}
		if s.Width != nil {
			op.Width = int(*s.Width)
		}
		if s.Height != nil {
			op.Height = int(*s.Height)
		}
		ops = append(ops, op)
	}
	if s.Rotate != nil {
		ops = append(ops, Operation{Kind: OpRotate, Degrees: *s.Rotate})
	}
	if s.Greyscale != nil && *s.Greyscale {
		ops = append(ops, Operation{Kind: OpGreyscale})
	}
	if s.Blur != nil && *s.Blur > 0 {
		ops = append(ops, Operation{Kind: OpBlur, Sigma: *s.Blur})
	}
	if s.Flip != nil && *s.Flip {
		ops = append(ops, Operation{Kind: OpFlip})
	}
	if s.Flop != nil && *s.Flop {
		ops = append(ops, Operation{Kind: OpFlop})
	}
	if s.Tint != nil {
		ops = append(ops, Operation{Kind: OpTint, Tint: *s.Tint})
	}

	encode := Operation{Kind: OpEncode, Format: outExt}
	if s.Quality != nil {
		encode.Quality = int(*s.Quality)
	}
	ops = append(ops, encode)

	return ops
}

// Engine applies an ordered operation pipeline to encoded image bytes.
// Implementations must be safe for concurrent use. Supports reports whether
// the engine can encode the given output extension; callers check it before
// any storage or pixel work so an unencodable request fails as a bad
// argument, not as an engine fault.
type Engine interface {
	Apply(ctx context.Context, data []byte, ops []Operation) ([]byte, error)
	Supports(format string) bool
}
