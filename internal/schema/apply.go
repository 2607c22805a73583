package schema

import (
	"fmt"

	"github.com/aidanlsb/munin/internal/model"
)

// Applier applies one resolved context's semantics to a field map. Create,
// update, and import all funnel through here; nothing else writes
// schema-managed fields.
type Applier struct {
	ctx *Context
}

// NewApplier wraps a resolved context.
func NewApplier(ctx *Context) *Applier {
	return &Applier{ctx: ctx}
}

// ApplyCreate runs the creation pipeline on fields, in place:
//
//  1. every enabled spec with a system value is derived and set,
//     overwriting whatever the caller supplied
//  2. every enabled spec with a default and no value gets the resolved
//     default
//  3. values are coerced to their declared types
//  4. required and accepted-values checks run over the result
//
// Fields with enabled=false and fields outside the context pass through
// untouched as opaque custom data.
func (a *Applier) ApplyCreate(fields *model.FieldMap, in DeriveInputs) error {
	if err := a.deriveSystemValues(fields, in, false); err != nil {
		return err
	}
	if err := a.applyDefaults(fields, in); err != nil {
		return err
	}
	var errs ValidationErrors
	errs = append(errs, a.coerce(fields)...)
	errs = append(errs, a.Validate(fields)...)
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ApplyUpdate runs the update pipeline on fields, in place. changes holds
// the targeted field values; removals lists fields to clear.
//
// A targeted field that is enabled and non-editable fails the whole update
// before anything is applied. Untargeted fields are untouched. Every enabled
// field that is both editable and system-valued is re-derived. The full
// create-style validation runs over the result.
func (a *Applier) ApplyUpdate(fields, changes *model.FieldMap, removals []string, in DeriveInputs) error {
	for _, name := range changes.Names() {
		if err := a.checkEditable(name); err != nil {
			return err
		}
	}
	for _, name := range removals {
		if err := a.checkEditable(name); err != nil {
			return err
		}
	}

	for _, name := range changes.Names() {
		vals, _ := changes.Get(name)
		fields.Set(name, vals...)
	}
	for _, name := range removals {
		fields.Delete(name)
	}

	if err := a.deriveSystemValues(fields, in, true); err != nil {
		return err
	}

	var errs ValidationErrors
	errs = append(errs, a.coerce(fields)...)
	errs = append(errs, a.Validate(fields)...)
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SanitizeImport strips incoming values for enabled non-editable fields so
// the create pipeline re-derives them under the importing identity. Returns
// the names that were dropped.
func (a *Applier) SanitizeImport(fields *model.FieldMap) []string {
	var dropped []string
	for _, spec := range a.ctx.Specs() {
		if !spec.IsEnabled() || spec.IsEditable() {
			continue
		}
		if fields.Has(spec.Name) {
			fields.Delete(spec.Name)
			dropped = append(dropped, spec.Name)
		}
	}
	return dropped
}

// Validate runs the non-mutating checks: cardinality, requiredness, and
// accepted values. Type conformance is coerce's job.
func (a *Applier) Validate(fields *model.FieldMap) ValidationErrors {
	var errs ValidationErrors

	for _, spec := range a.ctx.Specs() {
		if !spec.IsEnabled() {
			continue
		}

		vals, present := fields.Get(spec.Name)

		if !spec.Multi() && len(vals) > 1 {
			errs = append(errs, &ValidationError{
				Field:   spec.Name,
				Kind:    TypeMismatch,
				Message: fmt.Sprintf("holds %d values but is single-valued", len(vals)),
			})
			continue
		}

		if spec.Required && (!present || allEmpty(vals)) {
			errs = append(errs, &ValidationError{
				Field:   spec.Name,
				Kind:    MissingRequired,
				Message: "required field is missing",
			})
			continue
		}

		if len(spec.AcceptedValues) > 0 {
			for _, v := range vals {
				if v.IsEmpty() {
					continue
				}
				if !accepted(spec.AcceptedValues, v.Render()) {
					errs = append(errs, &ValidationError{
						Field:   spec.Name,
						Kind:    NotAccepted,
						Message: fmt.Sprintf("value %q is not accepted (accepted: %v)", v.Render(), spec.AcceptedValues),
					})
				}
			}
		}
	}

	return errs
}

func (a *Applier) checkEditable(name string) error {
	spec, ok := a.ctx.Lookup(name)
	if !ok || !spec.IsEnabled() {
		// Custom and disabled fields are outside the contract.
		return nil
	}
	if !spec.IsEditable() {
		return &EditabilityError{Field: name}
	}
	return nil
}

// deriveSystemValues sets system-valued fields. On create every enabled
// system field is set; on update only the editable ones refresh, so
// create-time stamps survive.
func (a *Applier) deriveSystemValues(fields *model.FieldMap, in DeriveInputs, updateOnly bool) error {
	for _, spec := range a.ctx.Specs() {
		if !spec.IsEnabled() || spec.SystemValue == "" {
			continue
		}
		if updateOnly && !spec.IsEditable() {
			continue
		}
		raw, err := Derive(spec.SystemValue, in)
		if err != nil {
			return err
		}
		v, err := model.Coerce(raw, spec.Kind())
		if err != nil {
			return &ValidationError{
				Field:   spec.Name,
				Kind:    TypeMismatch,
				Message: fmt.Sprintf("system value %q does not fit type %s: %v", spec.SystemValue, spec.Kind(), err),
			}
		}
		fields.Set(spec.Name, v)
	}
	return nil
}

// applyDefaults fills enabled fields that declare a default and hold no
// value. Defaults apply at creation only.
func (a *Applier) applyDefaults(fields *model.FieldMap, in DeriveInputs) error {
	for _, spec := range a.ctx.Specs() {
		if !spec.IsEnabled() || spec.Default == "" {
			continue
		}
		if vals, ok := fields.Get(spec.Name); ok && !allEmpty(vals) {
			continue
		}
		raw, err := ResolveDefault(spec.Default, in)
		if err != nil {
			return fmt.Errorf("default for field %q: %w", spec.Name, err)
		}
		v, err := model.Coerce(raw, spec.Kind())
		if err != nil {
			return &ValidationError{
				Field:   spec.Name,
				Kind:    TypeMismatch,
				Message: fmt.Sprintf("default %q does not fit type %s: %v", spec.Default, spec.Kind(), err),
			}
		}
		fields.Set(spec.Name, v)
	}
	return nil
}

// coerce aligns every managed field's scalars with the declared value type,
// in place.
func (a *Applier) coerce(fields *model.FieldMap) ValidationErrors {
	var errs ValidationErrors
	for _, spec := range a.ctx.Specs() {
		if !spec.IsEnabled() {
			continue
		}
		vals, ok := fields.Get(spec.Name)
		if !ok {
			continue
		}
		coerced := make([]model.Value, 0, len(vals))
		bad := false
		for _, v := range vals {
			c, err := model.Coerce(v.Raw(), spec.Kind())
			if err != nil {
				errs = append(errs, &ValidationError{
					Field:   spec.Name,
					Kind:    TypeMismatch,
					Message: err.Error(),
				})
				bad = true
				break
			}
			coerced = append(coerced, c)
		}
		if !bad {
			fields.Set(spec.Name, coerced...)
		}
	}
	return errs
}

func allEmpty(vals []model.Value) bool {
	for _, v := range vals {
		if !v.IsEmpty() {
			return false
		}
	}
	return true
}

func accepted(list []string, rendered string) bool {
	for _, a := range list {
		if a == rendered {
			return true
		}
	}
	return false
}
