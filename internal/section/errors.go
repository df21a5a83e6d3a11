package section

import "fmt"

// UnsupportedComponentTypeError is returned for a kind outside {beam, column}.
type UnsupportedComponentTypeError struct {
	Type string
}

func (e *UnsupportedComponentTypeError) Error() string {
	return fmt.Sprintf("unsupported component type: %q", e.Type)
}

// UnsupportedProfileStructureError is returned when no decoder handles the
// observed vertex count.
type UnsupportedProfileStructureError struct {
	Count int
}

func (e *UnsupportedProfileStructureError) Error() string {
	return fmt.Sprintf("unsupported profile structure (%d points)", e.Count)
}

// MalformedInputError reports a required field that was not supplied.
type MalformedInputError struct {
	Field string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}
