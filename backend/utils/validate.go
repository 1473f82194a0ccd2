package utils

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateStruct runs struct-tag validation and flattens the failures into a
// field -> rule map for the validation error response.
func ValidateStruct(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"request": err.Error()}
	}

	out := make(map[string]string, len(errs))
	for _, fe := range errs {
		out[strings.ToLower(fe.Field())] = fe.Tag()
	}
	return out
}
