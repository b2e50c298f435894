package router

import "fmt"

type ErrorKind string

const (
	KindUnsupportedMode ErrorKind = "unsupported_mode"
	KindInvalidWeights  ErrorKind = "invalid_weights"
	KindNoModels        ErrorKind = "no_models"
)

// Error is returned when a router cannot be constructed.
type Error struct {
	Kind    ErrorKind
	Mode    string
	ModelID string
	Detail  string
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindUnsupportedMode:
		return fmt.Sprintf("router: unsupported routing mode %q", e.Mode)
	case KindNoModels:
		return fmt.Sprintf("router: %s router needs at least one model", e.Mode)
	case KindInvalidWeights:
		if e.ModelID != "" {
			return fmt.Sprintf("router: invalid weights for %s routing: model %q: %s", e.Mode, e.ModelID, e.Detail)
		}
		return fmt.Sprintf("router: invalid weights for %s routing: %s", e.Mode, e.Detail)
	default:
		return fmt.Sprintf("router: %s", e.Kind)
	}
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

var (
	ErrUnsupportedMode = &Error{Kind: KindUnsupportedMode}
	ErrInvalidWeights  = &Error{Kind: KindInvalidWeights}
	ErrNoModels        = &Error{Kind: KindNoModels}
)
