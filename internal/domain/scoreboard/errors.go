package scoreboard

import "errors"

// Sentinel kinds for score matrix errors. All of them stem from caller
// input; the matrix is unchanged whenever one is returned.
var (
	ErrInvalidName     = errors.New("invalid name")
	ErrDuplicateName   = errors.New("duplicate name")
	ErrShapeMismatch   = errors.New("shape mismatch")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrInvalidSize     = errors.New("invalid size")
)

// Kind returns a short label for err suitable for metrics and API codes.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidName):
		return "invalid_name"
	case errors.Is(err, ErrDuplicateName):
		return "duplicate_name"
	case errors.Is(err, ErrShapeMismatch):
		return "shape_mismatch"
	case errors.Is(err, ErrIndexOutOfRange):
		return "index_out_of_range"
	case errors.Is(err, ErrInvalidSize):
		return "invalid_size"
	default:
		return "unknown"
	}
}
