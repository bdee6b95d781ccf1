package artifact

import "errors"

var (
	// ErrNotFound is returned when the requested artifact does not exist.
	ErrNotFound = errors.New("artifact not found")

	// ErrInvalidVersion is returned when a version index is out of range.
	ErrInvalidVersion = errors.New("invalid artifact version")

	// ErrInvalidType is returned when the type is not in the closed set.
	ErrInvalidType = errors.New("invalid artifact type")

	// ErrMissingMessageID is returned when an artifact has no origin
	// message id; the dedup invariant depends on it.
	ErrMissingMessageID = errors.New("missing message id")
)

// ValidateType checks the type against the closed set.
// Returns ErrInvalidType if validation fails.
func ValidateType(t Type) error {
	switch t {
	case TypeMessagePreview, TypeResumeTailored, TypeResumeScore:
		return nil
	}
	return ErrInvalidType
}
