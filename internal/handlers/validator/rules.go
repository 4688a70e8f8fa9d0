package validator

import "github.com/go-playground/validator/v10"

func registerFn(tag string, fn func(fl validator.FieldLevel) bool) func(v *validator.Validate) {
	return func(v *validator.Validate) {
		_ = v.RegisterValidation(tag, fn)
	}
}

func NewEvaluatorValidationRules() []ValidationRule {
	return []ValidationRule{
		{
			Rule: registerFn("evaluator_name", nameValidator),
		},
	}
}

func NewTaskValidationRules() []ValidationRule {
	return []ValidationRule{
		{
			Rule: registerFn("task_kind", taskKindValidator),
		},
		{
			Rule: registerFn("writing_type", writingTypeValidator),
		},
		{
			Rule: registerFn("uuid_string", uuidValidator),
		},
	}
}

func NewBookingValidationRules() []ValidationRule {
	return []ValidationRule{
		{
			Rule: registerFn("slot", slotValidator),
		},
		{
			Rule: registerFn("booking_status", bookingStatusValidator),
		},
		{
			Rule: registerFn("uuid_string", uuidValidator),
		},
	}
}
