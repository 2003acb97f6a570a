package dispatch

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTimeout marks an attempt that exceeded its per-call deadline
var ErrTimeout = errors.New("model call timed out")

// ErrMalformed marks a payload that could not be reduced to text
var ErrMalformed = errors.New("malformed model response")

// Normalize reduces a raw provider payload to a trimmed string. Providers
// return one of three shapes: a plain string, a list of alternatives, or
// a map carrying a text field.
func Normalize(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return trimmed(v)
	case []string:
		if len(v) == 0 {
			return "", fmt.Errorf("%w: empty list", ErrMalformed)
		}
		return trimmed(v[0])
	case []any:
		if len(v) == 0 {
			return "", fmt.Errorf("%w: empty list", ErrMalformed)
		}
		s, ok := v[0].(string)
		if !ok {
			return "", fmt.Errorf("%w: list element is %T", ErrMalformed, v[0])
		}
		return trimmed(s)
	case map[string]any:
		for _, field := range []string{"text", "content"} {
			if s, ok := v[field].(string); ok {
				return trimmed(s)
			}
		}
		return "", fmt.Errorf("%w: map has no text field", ErrMalformed)
	default:
		return "", fmt.Errorf("%w: unsupported payload type %T", ErrMalformed, raw)
	}
}

func trimmed(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: empty response", ErrMalformed)
	}
	return s, nil
}
