package checkout

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/multimart/multimart-backend/pkg/errors"
)

// ShippingForm carries the contact fields collected on the payment step.
type ShippingForm struct {
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone" validate:"required,len=10,numeric"`
	Email   string `json:"email" validate:"required,email"`
	Address string `json:"address" validate:"required"`
	City    string `json:"city" validate:"required"`
	Pincode string `json:"pincode" validate:"required,len=6,numeric"`

	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

var formValidator = newFormValidator()

func newFormValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// Validate checks every shipping field, returning a validation error with
// per-field messages.
func (f ShippingForm) Validate() error {
	err := formValidator.Struct(f)
	if err == nil {
		return nil
	}
	if errs, ok := err.(validator.ValidationErrors); ok {
		details := map[string]string{}
		for _, fieldErr := range errs {
			details[fieldErr.Field()] = formFieldMessage(fieldErr)
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping details are incomplete").WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "shipping details are invalid")
}

func formFieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "numeric":
		return "must contain digits only"
	default:
		return "is invalid"
	}
}
