// Package validation checks configuration and request structs against their
// `validate` struct tags using go-playground/validator.
//
//	type Config struct {
//	    BaseURL string        `validate:"omitempty,url"`
//	    Timeout time.Duration `validate:"gt=0"`
//	}
//	if err := validation.Validate(cfg); err != nil { ... }
//
// Failures are reported as a single *apierror.AppError listing every field.
package validation
