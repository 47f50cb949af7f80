package httpapi

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// SignupForm is the body of POST /auth/signup.
type SignupForm struct {
	Email           string `json:"email" binding:"required,email"`
	Username        string `json:"username" binding:"required,fullname"`
	Password        string `json:"password" binding:"required,min=10,max=128"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=Password"`
}

// LoginForm is the body of POST /auth/login.
type LoginForm struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ConfirmEmailForm is the body of PATCH /auth/confirm-email.
type ConfirmEmailForm struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required,len=6,numeric"`
}

// ResendForm is the body of POST /auth/resend-otp.
type ResendForm struct {
	Email string `json:"email" binding:"required,email"`
}

// LogoutForm is the body of POST /user/logout.
type LogoutForm struct {
	Flag string `json:"flag" binding:"required,oneof=ONLY ALL only all"`
}

// validationMessage turns binding errors into one readable line per field.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request payload"
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return strings.Join(msgs, "; ")
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "fullname":
		return fmt.Sprintf("%s must contain exactly 2 words", field)
	case "eqfield":
		return "password mismatch"
	case "min", "max", "len":
		return fmt.Sprintf("%s has an invalid length", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
