// Package validator valida structs de request con go-playground/validator.
package validator

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateStruct valida los tags `validate` de un struct y devuelve una lista
// de mensajes legibles (campo + regla violada). Lista vacía = válido.
func ValidateStruct(data interface{}) []string {
	var messages []string
	err := validate.Struct(data)
	if err != nil {
		for _, fe := range err.(validator.ValidationErrors) {
			messages = append(messages, formatFieldError(fe))
		}
	}
	return messages
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s: es obligatorio", fe.StructNamespace())
	case "min":
		return fmt.Sprintf("%s: mínimo %s", fe.StructNamespace(), fe.Param())
	case "max":
		return fmt.Sprintf("%s: máximo %s", fe.StructNamespace(), fe.Param())
	case "email":
		return fmt.Sprintf("%s: email inválido", fe.StructNamespace())
	case "gt":
		return fmt.Sprintf("%s: debe ser mayor que %s", fe.StructNamespace(), fe.Param())
	default:
		return fmt.Sprintf("%s: falla regla %s", fe.StructNamespace(), fe.Tag())
	}
}
