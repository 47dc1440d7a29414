// Package validator implements echo.Validator on top of
// go-playground/validator and translates field failures into the
// application's JSON error envelope.
package validator

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/tenant-auth/internal/httperr"
)

// RequestValidator validates bound request DTOs.  Register it on the Echo
// instance so handlers can call c.Validate(&req).
type RequestValidator struct {
	validate *validator.Validate
}

// New builds a RequestValidator.  Field names in error messages come from
// the json struct tags so they match what the client actually sent.
func New() *RequestValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &RequestValidator{validate: v}
}

// Validate runs the struct tags and converts any failures into a 400 error
// carrying one envelope entry per invalid field.
func (rv *RequestValidator) Validate(i interface{}) error {
	err := rv.validate.Struct(i)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return httperr.New(400, "invalid request")
	}
	fields := make([]httperr.Field, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, httperr.Field{
			Type:     "field",
			Msg:      message(fe),
			Path:     fe.Field(),
			Location: "body",
		})
	}
	return httperr.Validation(fields)
}

// labels maps json field names to the display names used in messages.
var labels = map[string]string{
	"firstName": "First Name",
	"lastName":  "Last Name",
	"email":     "Email",
	"password":  "Password",
	"name":      "Name",
	"address":   "Address",
	"role":      "Role",
	"tenantId":  "Tenant",
}

func label(field string) string {
	if l, ok := labels[field]; ok {
		return l
	}
	return field
}

// message renders a human-readable message for one field failure.
func message(fe validator.FieldError) string {
	l := label(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", l)
	case "email":
		return "Invalid email format"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", l, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", l, fe.Param())
	case "oneof":
		return fmt.Sprintf("Invalid %s specified", strings.ToLower(l))
	default:
		return fmt.Sprintf("%s is invalid", l)
	}
}
