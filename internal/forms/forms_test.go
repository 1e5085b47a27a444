package forms

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_Login(t *testing.T) {
	tests := []struct {
		name string
		form Login
		want FieldErrors
	}{
		{
			name: "valid",
			form: Login{Email: "user@example.com", Password: "secret1"},
		},
		{
			name: "empty",
			form: Login{},
			want: FieldErrors{
				FieldEmail:    "Please input your email!",
				FieldPassword: "Please input your password!",
			},
		},
		{
			name: "bad email",
			form: Login{Email: "user-at-example", Password: "secret1"},
			want: FieldErrors{FieldEmail: "Please enter a valid email!"},
		},
		{
			name: "short password",
			form: Login{Email: "user@example.com", Password: "12345"},
			want: FieldErrors{FieldPassword: "Password must be at least 6 characters!"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Validate(tt.form))
		})
	}
}

func TestValidate_SignUp(t *testing.T) {
	tests := []struct {
		name string
		form SignUp
		want FieldErrors
	}{
		{
			name: "valid",
			form: SignUp{Email: "user@example.com", Password: "secret1", ConfirmPassword: "secret1"},
		},
		{
			name: "mismatched confirmation",
			form: SignUp{Email: "user@example.com", Password: "secret1", ConfirmPassword: "secret2"},
			want: FieldErrors{FieldConfirmPassword: "The two passwords do not match!"},
		},
		{
			name: "missing confirmation",
			form: SignUp{Email: "user@example.com", Password: "secret1"},
			want: FieldErrors{FieldConfirmPassword: "Please confirm your password!"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Validate(tt.form))
		})
	}
}

func TestMessages_NonValidationError(t *testing.T) {
	fe := Messages(errors.New("EOF"))
	assert.Equal(t, ErrMalformed.Error(), fe.First())
	assert.Nil(t, Messages(nil))
}

func TestFieldErrors_First(t *testing.T) {
	fe := FieldErrors{
		FieldConfirmPassword: "c",
		FieldPassword:        "p",
	}
	assert.Equal(t, "p", fe.First())
	assert.Equal(t, "", FieldErrors{}.First())
}
