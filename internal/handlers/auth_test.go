package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSignup() signupRequest {
	return signupRequest{
		FirstName:       "Aziz",
		LastName:        "Karimov",
		Gender:          "male",
		Email:           "aziz@example.com",
		PhoneNumber:     "+998901234567",
		Password:        "password123",
		PasswordConfirm: "password123",
		BirthDate:       "1995-04-12",
		PassportNumber:  "AB1234567",
		Pinfl:           "12345678901234",
	}
}

func TestSignupValidateOK(t *testing.T) {
	req := validSignup()

	errs, birthDate := req.validate()
	assert.Empty(t, errs)
	require.NotNil(t, birthDate)
	assert.Equal(t, 1995, birthDate.Year())
}

func TestSignupValidateFieldErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*signupRequest)
		field  string
	}{
		{"missing first name", func(r *signupRequest) { r.FirstName = "" }, "first_name"},
		{"missing last name", func(r *signupRequest) { r.LastName = "" }, "last_name"},
		{"unknown gender", func(r *signupRequest) { r.Gender = "other" }, "gender"},
		{"bad email", func(r *signupRequest) { r.Email = "not-an-email" }, "email"},
		{"bad phone", func(r *signupRequest) { r.PhoneNumber = "12ab" }, "phone_number"},
		{"short password", func(r *signupRequest) { r.Password = "short"; r.PasswordConfirm = "short" }, "password"},
		{"mismatched confirm", func(r *signupRequest) { r.PasswordConfirm = "different123" }, "password_confirm"},
		{"short pinfl", func(r *signupRequest) { r.Pinfl = "123" }, "pinfl"},
		{"non-digit pinfl", func(r *signupRequest) { r.Pinfl = "1234567890123a" }, "pinfl"},
		{"missing passport", func(r *signupRequest) { r.PassportNumber = "" }, "passport_number"},
		{"missing birth date", func(r *signupRequest) { r.BirthDate = "" }, "birth_date"},
		{"malformed birth date", func(r *signupRequest) { r.BirthDate = "12.04.1995" }, "birth_date"},
		{"future birth date", func(r *signupRequest) { r.BirthDate = "2100-01-01" }, "birth_date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validSignup()
			tt.mutate(&req)

			errs, _ := req.validate()
			assert.Contains(t, errs, tt.field)
		})
	}
}

func TestGenerateVerificationCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		code, err := generateVerificationCode()
		require.NoError(t, err)
		assert.Len(t, code, 6)
		for _, r := range code {
			assert.True(t, r >= '0' && r <= '9')
		}
		seen[code] = true
	}
	assert.Greater(t, len(seen), 1, "codes must vary")
}
