package validator

import (
	"regexp"
	"slices"
	"strings"

	"github.com/evalportal/assessment-portal/internal/store/model"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var evaluatorNameRegex = regexp.MustCompile(`^[\p{L}][\p{L}\p{M} .'-]*$`)

func nameValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	return evaluatorNameRegex.MatchString(strings.TrimSpace(val))
}

func taskKindValidator(fl validator.FieldLevel) bool {
	return model.TaskKind(fl.Field().String()).IsValid()
}

// writingTypeValidator accepts an empty value; whether one is required depends on the kind.
func writingTypeValidator(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	return val == "" || slices.Contains(model.WritingTypes, val)
}

func slotValidator(fl validator.FieldLevel) bool {
	_, err := model.ParseSlot(fl.Field().String())
	return err == nil
}

func bookingStatusValidator(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	return val == "" || model.BookingStatus(val).IsValid()
}

func uuidValidator(fl validator.FieldLevel) bool {
	_, err := uuid.Parse(fl.Field().String())
	return err == nil
}
