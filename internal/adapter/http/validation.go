package http

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Reusable error payload
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
type ErrorResponse struct {
	Error   string       `json:"error"`
	Details []FieldError `json:"details,omitempty"`
}

var (
	reLoanID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	reAmount = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)
)

type CustomValidator struct{ v *validator.Validate }

func NewValidator() *CustomValidator {
	v := validator.New()

	// chain address: printable, no spaces, sane length
	_ = v.RegisterValidation("chainaddr", func(fl validator.FieldLevel) bool {
		s := strings.TrimSpace(fl.Field().String())
		return len(s) >= 10 && len(s) <= 128 && !strings.ContainsAny(s, " \t\n")
	})
	// decimal amount string ("1.5", "100")
	_ = v.RegisterValidation("amount", func(fl validator.FieldLevel) bool {
		return reAmount.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	// currency/network code, e.g. BTC, ERC20
	_ = v.RegisterValidation("asset", func(fl validator.FieldLevel) bool {
		s := strings.TrimSpace(fl.Field().String())
		return len(s) >= 2 && len(s) <= 16
	})

	return &CustomValidator{v: v}
}

func (cv *CustomValidator) Validate(i any) error { return cv.v.Struct(i) }

// Map validator.ValidationErrors → []FieldError with readable messages.
func ToFieldErrors(err error) []FieldError {
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return []FieldError{{Field: "_", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(ve))
	for _, e := range ve {
		field := e.Field()
		switch e.Tag() {
		case "required":
			out = append(out, FieldError{Field: field, Message: "is required"})
		case "chainaddr":
			out = append(out, FieldError{Field: field, Message: "must be a plausible chain address"})
		case "amount":
			out = append(out, FieldError{Field: field, Message: "must be a decimal amount"})
		case "asset":
			out = append(out, FieldError{Field: field, Message: "must be a currency or network code"})
		default:
			out = append(out, FieldError{Field: field, Message: e.Tag() + " validation failed"})
		}
	}
	return out
}

func validLoanID(id string) bool { return reLoanID.MatchString(id) }
