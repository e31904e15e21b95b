package validationx

import (
	"github.com/ARUMANDESU/validation"
	"github.com/ARUMANDESU/validation/is"
)

var (
	EmailRules = []validation.Rule{
		validation.Required,
		validation.Length(3, 255),
		is.EmailFormat,
	}

	// PasswordRules is the strength policy applied to passwords coming from clients.
	PasswordRules = []validation.Rule{
		validation.Required,
		validation.Length(8, 128),
		PasswordFormat,
	}

	// StorablePasswordRules only guards what the hasher can take.
	StorablePasswordRules = []validation.Rule{
		validation.Required,
		MaxBytes(MaxPasswordBytes),
	}

	VerificationCodeRules = []validation.Rule{
		validation.Required,
		validation.Length(8, 64),
		IsVerificationCode,
	}
)
