package validationx

import (
	"reflect"
	"regexp"

	"github.com/ARUMANDESU/validation"
	"github.com/google/uuid"

	"gitlab.com/ucmsv2/accounts/pkg/i18nx"
)

// MaxPasswordBytes is the longest input bcrypt takes into account.
const MaxPasswordBytes = 72

var (
	ErrInvalidPasswordFormat = validation.NewError(
		i18nx.ValidationIsPassword,
		"must be at least 8 characters long and contain an uppercase letter, a lowercase letter and a digit",
	)
	ErrInvalidVerificationCode = validation.NewError(
		i18nx.ValidationIsVerificationCode,
		"must be a valid verification code",
	)
)

var (
	PasswordFormat = PasswordFormatRule{}
	// Required rejects zero uuids in addition to what validation.Required rejects.
	Required = RequiredRule{}

	verificationCodeRegex = regexp.MustCompile(`^[A-Z0-9]+$`)
)

type PasswordFormatRule struct{}

func (r PasswordFormatRule) Validate(value any) error {
	value, isNil := validation.Indirect(value)
	if isNil {
		return nil
	}
	password, ok := value.(string)
	if !ok || password == "" {
		return nil // let Required handle emptiness
	}

	if len(password) < 8 || len(password) > MaxPasswordBytes {
		return ErrInvalidPasswordFormat
	}

	var hasLower, hasUpper, hasDigit bool
	for _, char := range password {
		switch {
		case char >= 'a' && char <= 'z':
			hasLower = true
		case char >= 'A' && char <= 'Z':
			hasUpper = true
		case char >= '0' && char <= '9':
			hasDigit = true
		}
	}

	if !hasLower || !hasUpper || !hasDigit {
		return ErrInvalidPasswordFormat
	}

	return nil
}

var IsVerificationCode = validation.By(func(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if !verificationCodeRegex.MatchString(s) {
		return ErrInvalidVerificationCode
	}
	return nil
})

// MaxBytes limits the byte length of a string, unlike validation.Length which counts runes.
func MaxBytes(n int) validation.Rule {
	return validation.By(func(value any) error {
		value, isNil := validation.Indirect(value)
		if isNil {
			return nil
		}
		s, _ := value.(string)
		if len(s) > n {
			return validation.ErrLengthTooLong.SetParams(map[string]any{"max": n})
		}
		return nil
	})
}

type RequiredRule struct{}

func (r RequiredRule) Validate(value any) error {
	// checked before Indirect, which turns a uuid into its string form via driver.Valuer
	switch v := value.(type) {
	case uuid.UUID:
		if v == uuid.Nil {
			return validation.ErrRequired
		}
		return nil
	case *uuid.UUID:
		if v == nil || *v == uuid.Nil {
			return validation.ErrRequired
		}
		return nil
	}

	value, isNil := validation.Indirect(value)
	if isNil {
		return validation.ErrRequired
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Array && rv.IsZero() {
		return validation.ErrRequired
	}

	return validation.Required.Validate(value)
}
