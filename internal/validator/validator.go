// Package validator adapts go-playground/validator to Echo so handlers
// can call c.Validate on bound request structs.
package validator

import (
	"github.com/go-playground/validator/v10"
)

// RequestValidator satisfies echo.Validator.
type RequestValidator struct {
	validate *validator.Validate
}

func New() *RequestValidator {
	return &RequestValidator{validate: validator.New()}
}

// Validate runs the struct tags of i. The raw validator error is
// returned; handlers decide how much of it to expose.
func (rv *RequestValidator) Validate(i interface{}) error {
	return rv.validate.Struct(i)
}
