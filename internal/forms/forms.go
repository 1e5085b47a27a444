// Package forms defines the sign-in and sign-up inputs and their field
// rules. Validation runs before anything reaches the auth store.
package forms

import (
	"errors"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Field keys as they appear in the HTML forms
const (
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirmPassword"
)

// Login is the sign-in form
type Login struct {
	Email    string `form:"email" json:"email" binding:"required,email"`
	Password string `form:"password" json:"password" binding:"required,min=6"`
	From     string `form:"from" json:"from"`
}

// SignUp is the registration form
type SignUp struct {
	Email           string `form:"email" json:"email" binding:"required,email"`
	Password        string `form:"password" json:"password" binding:"required,min=6"`
	ConfirmPassword string `form:"confirmPassword" json:"confirmPassword" binding:"required,eqfield=Password"`
}

// FieldErrors maps a field key to the message shown under it
type FieldErrors map[string]string

var fieldKeys = map[string]string{
	"Email":           FieldEmail,
	"Password":        FieldPassword,
	"ConfirmPassword": FieldConfirmPassword,
}

var fieldMessages = map[string]map[string]string{
	FieldEmail: {
		"required": "Please input your email!",
		"email":    "Please enter a valid email!",
	},
	FieldPassword: {
		"required": "Please input your password!",
		"min":      "Password must be at least 6 characters!",
	},
	FieldConfirmPassword: {
		"required": "Please confirm your password!",
		"eqfield":  "The two passwords do not match!",
	},
}

// ErrMalformed is reported for input that could not be bound at all
var ErrMalformed = errors.New("malformed form submission")

// Messages turns a binding error into per-field messages.
// A nil error yields nil.
func Messages(err error) FieldErrors {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"": ErrMalformed.Error()}
	}

	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		key, ok := fieldKeys[fe.StructField()]
		if !ok {
			key = fe.Field()
		}
		if _, seen := out[key]; seen {
			continue
		}
		msg, ok := fieldMessages[key][fe.Tag()]
		if !ok {
			msg = "Invalid value"
		}
		out[key] = msg
	}
	return out
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validate applies the binding rules outside of a gin request (CLI input)
func Validate(form any) FieldErrors {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.SetTagName("binding")
	})
	return Messages(validate.Struct(form))
}

// First returns one message in field order, for single-line output
func (fe FieldErrors) First() string {
	for _, key := range []string{FieldEmail, FieldPassword, FieldConfirmPassword, ""} {
		if msg, ok := fe[key]; ok {
			return msg
		}
	}
	for _, msg := range fe {
		return msg
	}
	return ""
}
