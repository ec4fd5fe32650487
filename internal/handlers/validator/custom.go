package validator

import (
	"github.com/go-playground/validator/v10"
	"github.com/wri/terramatch-workflow/internal/store/model"
)

func entityTypeValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(model.EntityType)
	if !ok {
		return false
	}

	return val.IsAuditable()
}

// entityStatusValidator checks the status against the truth set of the sibling Type field.
func entityStatusValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(model.Status)
	if !ok {
		return false
	}

	typeField := fl.Parent().FieldByName("Type")
	if !typeField.IsValid() {
		return val.IsValid()
	}

	entityType, ok := typeField.Interface().(model.EntityType)
	if !ok {
		return false
	}

	return val.IsValidFor(entityType)
}
