package i18nx

// Error message keys
const (
	// Client errors
	KeyInvalid                 = "invalid"
	KeyValidationFailed        = "validation_failed"
	KeyValidationFailedField   = "validation_failed_field"
	KeyMalformedJSON           = "malformed_json"
	KeyUnauthorized            = "unauthorized"
	KeyInvalidCredentials      = "invalid_credentials"
	KeyInvalidToken            = "invalid_token"
	KeyNotFound                = "not_found"
	KeyNotFoundWithType        = "not_found_with_type"
	KeyMethodNotAllowed        = "method_not_allowed"
	KeyConflict                = "conflict"
	KeyDuplicateEntry          = "duplicate_entry"
	KeyDuplicateEntryWithField = "duplicate_entry_with_field"

	// Server errors
	KeyInternalError        = "internal_error"
	KeyServiceUnavailable   = "service_unavailable"
	KeyUpstreamServiceError = "upstream_service_error"

	// Account specific
	KeyEmailTaken             = "account_email_taken"
	KeyUserNotFound           = "account_user_not_found"
	KeyWrongPassword          = "account_wrong_password"
	KeyAccountCreationFailed  = "account_creation_failed"
	KeyLoginFailed            = "account_login_failed"
	KeyProfileUpdateFailed    = "account_profile_update_failed"
	KeyProfileLookupFailed    = "account_profile_lookup_failed"
	KeyVerificationNotFound   = "account_verification_not_found"
	KeyVerificationFailed     = "account_verification_failed"
	KeyNothingToUpdate        = "account_nothing_to_update"
	KeyVerificationEmailTitle = "mail_verification_subject"
)

// Validation message keys, matching the codes produced by the validation rules.
const (
	ValidationRequired           = "validation_required"
	ValidationNilOrNotEmpty      = "validation_nil_or_not_empty_required"
	ValidationInInvalid          = "validation_in_invalid"
	ValidationLengthTooLong      = "validation_length_too_long"
	ValidationLengthTooShort     = "validation_length_too_short"
	ValidationLengthOutOfRange   = "validation_length_out_of_range"
	ValidationLengthInvalid      = "validation_length_invalid"
	ValidationIsEmail            = "validation_is_email"
	ValidationIsPassword         = "validation_is_password"
	ValidationIsVerificationCode = "validation_is_verification_code"
)

const (
	FieldEmail            = "email"
	FieldPassword         = "password"
	FieldRole             = "role"
	FieldVerificationCode = "code"
)
