package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type signupInput struct {
	Name     string `validate:"required,min=2"`
	Email    string `validate:"required,email"`
	Role     string `validate:"omitempty,oneof=owner admin member"`
	Password string `validate:"required,min=8"`
}

func TestValidateStruct(t *testing.T) {
	valid := signupInput{Name: "Dana", Email: "dana@example.com", Role: "admin", Password: "supersecret"}
	assert.NoError(t, ValidateStruct(valid))
}

func TestValidateStructMessages(t *testing.T) {
	tests := []struct {
		name  string
		input signupInput
		want  string
	}{
		{
			name:  "missing required field",
			input: signupInput{Email: "dana@example.com", Password: "supersecret"},
			want:  "name is required",
		},
		{
			name:  "bad email",
			input: signupInput{Name: "Dana", Email: "not-an-email", Password: "supersecret"},
			want:  "email must be a valid email",
		},
		{
			name:  "password too short",
			input: signupInput{Name: "Dana", Email: "dana@example.com", Password: "short"},
			want:  "password must be at least 8 characters",
		},
		{
			name:  "role outside allowed set",
			input: signupInput{Name: "Dana", Email: "dana@example.com", Role: "superuser", Password: "supersecret"},
			want:  "role must be one of: owner admin member",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.input)
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
