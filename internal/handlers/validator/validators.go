package validator

import (
	"github.com/go-playground/validator/v10"
)

type ValidationRule struct {
	Rule func(v *validator.Validate)
}

// Validator is a wrapper around the actual validator.
// It sets up the custom rules once so handlers only call Struct.
type Validator struct {
	validator *validator.Validate
}

func NewValidator(rules ...[]ValidationRule) *Validator {
	v := &Validator{validator: validator.New(validator.WithRequiredStructEnabled())}
	for _, set := range rules {
		v.Register(set...)
	}
	return v
}

func (v *Validator) Register(rules ...ValidationRule) {
	for _, validationRule := range rules {
		validationRule.Rule(v.validator)
	}
}

func (v *Validator) Struct(s any) error {
	return v.validator.Struct(s)
}
