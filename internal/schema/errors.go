package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTemplateNotFound is returned when resolution names an unknown template.
var ErrTemplateNotFound = errors.New("template not found")

// ValidationKind discriminates validation failures.
type ValidationKind string

const (
	MissingRequired ValidationKind = "missing_required"
	NotAccepted     ValidationKind = "not_accepted"
	TypeMismatch    ValidationKind = "type_mismatch"
)

// ValidationError describes one field-level validation failure.
type ValidationError struct {
	Field   string
	Kind    ValidationKind
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field '%s': %s", e.Field, e.Message)
}

// ValidationErrors aggregates every failure from one application pass.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	msgs := make([]string, len(e))
	for i, ve := range e {
		msgs[i] = ve.Error()
	}
	return fmt.Sprintf("%d validation errors: %s", len(e), strings.Join(msgs, "; "))
}

// EditabilityError is returned when an update explicitly targets a
// non-editable field. The whole update is rejected; nothing is applied.
type EditabilityError struct {
	Field string
}

func (e *EditabilityError) Error() string {
	return fmt.Sprintf("field '%s' is not editable", e.Field)
}
