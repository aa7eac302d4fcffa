package validator

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"chatapp-client/internal/chaterr"

	"github.com/go-playground/validator/v10"
)

var validate = newValidate()

var (
	lowercase = regexp.MustCompile(`[a-z]`)
	uppercase = regexp.MustCompile(`[A-Z]`)
	number    = regexp.MustCompile(`\d`)
)

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return Password(fl.Field().String()) == nil
	})
	if err != nil {
		panic(err)
	}
	return v
}

// Struct validates s using its validate tags. Failures match
// chaterr.ErrInvalid.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	fields := Fields(err)
	if fields == nil {
		return chaterr.Invalid("%v", err)
	}

	parts := make([]string, 0, len(fields))
	for field, tag := range fields {
		parts = append(parts, fmt.Sprintf("%s:%s", field, tag))
	}
	sort.Strings(parts)

	return chaterr.Invalid("%s", strings.Join(parts, ","))
}

// Fields maps each failing field to the rule it broke, or returns nil when
// err is not a validation failure.
func Fields(err error) map[string]string {
	var validateErrs validator.ValidationErrors
	if !errors.As(err, &validateErrs) {
		return nil
	}

	fields := make(map[string]string, len(validateErrs))
	for _, e := range validateErrs {
		fields[e.Field()] = e.Tag()
	}
	return fields
}

func Email(email string) error {
	const maxlength = 64

	if len(email) > maxlength {
		return fmt.Errorf("long_email")
	}

	if validate.Var(email, "required,email") != nil {
		return fmt.Errorf("bad_format")
	}

	return nil
}

func Password(password string) error {
	length := len(password)
	if length < 6 {
		return fmt.Errorf("short_password")
	} else if length > 32 {
		return fmt.Errorf("long_password")
	}

	if !lowercase.MatchString(password) {
		return fmt.Errorf("no_lowercase")
	}
	if !uppercase.MatchString(password) {
		return fmt.Errorf("no_uppercase")
	}
	if !number.MatchString(password) {
		return fmt.Errorf("no_number")
	}
	return nil
}
