package accountapp

import (
	"gitlab.com/ucmsv2/accounts/internal/domain/user"
	"gitlab.com/ucmsv2/accounts/internal/domain/valueobject/role"
	"gitlab.com/ucmsv2/accounts/pkg/errorx"
	"gitlab.com/ucmsv2/accounts/pkg/i18nx"
)

// ErrorKind is the closed set of outcomes a use case can fail with.
type ErrorKind string

const (
	KindNone                  ErrorKind = ""
	KindDuplicateEmail        ErrorKind = "DuplicateEmail"
	KindUserNotFound          ErrorKind = "UserNotFound"
	KindInvalidCredentials    ErrorKind = "InvalidCredentials"
	KindInvalidInput          ErrorKind = "InvalidInput"
	KindAccountCreationFailed ErrorKind = "AccountCreationFailed"
	KindLoginFailed           ErrorKind = "LoginFailed"
	KindProfileUpdateFailed   ErrorKind = "ProfileUpdateFailed"
	KindProfileLookupFailed   ErrorKind = "ProfileLookupFailed"
	KindVerificationNotFound  ErrorKind = "VerificationNotFound"
	KindVerificationFailed    ErrorKind = "VerificationFailed"
)

func (k ErrorKind) String() string {
	return string(k)
}

var kindErrors = map[ErrorKind]*errorx.I18nError{
	KindDuplicateEmail:        errorx.NewDuplicateEntryWithField("user", i18nx.FieldEmail).WithKey(i18nx.KeyEmailTaken),
	KindUserNotFound:          errorx.NewResourceNotFound("user").WithKey(i18nx.KeyUserNotFound),
	KindInvalidCredentials:    errorx.NewInvalidCredentials().WithKey(i18nx.KeyWrongPassword),
	KindInvalidInput:          errorx.NewValidationFailed(),
	KindAccountCreationFailed: errorx.NewInternalError().WithKey(i18nx.KeyAccountCreationFailed),
	KindLoginFailed:           errorx.NewInternalError().WithKey(i18nx.KeyLoginFailed),
	KindProfileUpdateFailed:   errorx.NewInternalError().WithKey(i18nx.KeyProfileUpdateFailed),
	KindProfileLookupFailed:   errorx.NewInternalError().WithKey(i18nx.KeyProfileLookupFailed),
	KindVerificationNotFound:  errorx.NewResourceNotFound("verification").WithKey(i18nx.KeyVerificationNotFound),
	KindVerificationFailed:    errorx.NewInternalError().WithKey(i18nx.KeyVerificationFailed),
}

// Result is the uniform outcome of every use case. Expected failures are
// reported through Error, never as Go errors.
type Result struct {
	OK    bool
	Error ErrorKind

	// invalid holds the field errors behind KindInvalidInput.
	invalid error
}

func succeeded() Result {
	return Result{OK: true}
}

func failed(kind ErrorKind) Result {
	return Result{Error: kind}
}

func invalidInput(err error) Result {
	return Result{Error: KindInvalidInput, invalid: err}
}

// Err translates the outcome for a transport. It returns nil on success.
// For KindInvalidInput it returns the field validation errors themselves.
func (r Result) Err() error {
	if r.OK {
		return nil
	}
	if r.Error == KindInvalidInput && r.invalid != nil {
		return r.invalid
	}
	if e, found := kindErrors[r.Error]; found {
		return e
	}
	return errorx.NewInternalError()
}

type CreateAccountResult struct {
	Result
	UserID user.ID
}

type LoginResult struct {
	Result
	Token string
}

type Profile struct {
	ID       user.ID
	Email    string
	Role     role.Role
	Verified bool
}

type ProfileResult struct {
	Result
	Profile Profile
}

type VerificationCodeResult struct {
	Result
	Code string
}
