package accounts

import (
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	mailevent "gitlab.com/ucmsv2/accounts/internal/application/mail/event"
	"gitlab.com/ucmsv2/accounts/internal/domain/user"
	"gitlab.com/ucmsv2/accounts/internal/domain/valueobject/role"
	"gitlab.com/ucmsv2/accounts/internal/domain/verification"
	accountshttp "gitlab.com/ucmsv2/accounts/internal/ports/http/accounts"
	"gitlab.com/ucmsv2/accounts/pkg/errorx"
	"gitlab.com/ucmsv2/accounts/tests/integration/builders"
	"gitlab.com/ucmsv2/accounts/tests/integration/fixtures"
	"gitlab.com/ucmsv2/accounts/tests/integration/framework"
	frameworkhttp "gitlab.com/ucmsv2/accounts/tests/integration/framework/http"
)

type AccountsIntegrationSuite struct {
	framework.IntegrationTestSuite
}

func TestAccountsIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("integration tests need docker")
	}
	suite.Run(t, new(AccountsIntegrationSuite))
}

func (s *AccountsIntegrationSuite) TestAccountLifecycle() {
	email := "lifecycle@test.com"

	var userID string
	s.T().Run("Create Account", func(t *testing.T) {
		userID = s.HTTP.CreateAccount(t, email, fixtures.ValidPassword, role.Owner.String()).
			AssertCreated().
			Field("user_id")
	})

	s.T().Run("Stored Unverified", func(t *testing.T) {
		s.DB.RequireUserExists(t, email).
			AssertEmail(t, email).
			AssertRole(t, role.Owner).
			AssertVerified(t, false).
			AssertPassword(t, builders.Hasher, fixtures.ValidPassword)
		s.DB.AssertUserRow(t, email).
			PasswordNotPlain(fixtures.ValidPassword).
			UpdatedAfterCreated()
	})

	s.T().Run("Account Created Event", func(t *testing.T) {
		e := s.Event.AssertAccountCreated(t, email)
		assert.Equal(t, userID, e.UserID.String())
		assert.Equal(t, role.Owner, e.Role)
	})

	var code string
	s.T().Run("Verification Mail Delivered", func(t *testing.T) {
		v := s.DB.RequireVerificationForUser(t, mustParse(t, userID))
		code = v.Code()
		assert.Len(t, code, verification.CodeLength)

		assert.Equal(t, code, s.Event.AssertEmailRequested(t, email).Code)
		body := s.WaitForMail(email)
		assert.Contains(t, body, code)
		assert.Contains(t, body, "code="+code)

		mails := s.Mail.GetSentMails()
		require.Len(t, mails, 1)
		assert.Equal(t, mailevent.VerificationSubject, mails[0].Subject)
	})

	var token string
	s.T().Run("Login", func(t *testing.T) {
		token = s.HTTP.Login(t, email, fixtures.ValidPassword).
			AssertSuccess().
			Field("token")
	})

	s.T().Run("Profile Before Verification", func(t *testing.T) {
		var body struct {
			User accountshttp.ProfileResponse `json:"user"`
		}
		s.HTTP.GetMe(t, token).AssertSuccess().ParseJSON(&body)
		assert.Equal(t, userID, body.User.ID)
		assert.Equal(t, email, body.User.Email)
		assert.False(t, body.User.Verified)
	})

	s.T().Run("Verify Through Link", func(t *testing.T) {
		s.HTTP.VerifyEmailLink(t, code).AssertSuccess()
		s.DB.AssertUserRow(t, email).IsVerified(true)
		s.DB.RequireNoVerificationForUser(t, mustParse(t, userID))
	})

	s.T().Run("Code Is Single Use", func(t *testing.T) {
		s.HTTP.VerifyEmail(t, code).AssertError(http.StatusNotFound, errorx.CodeNotFound.String())
	})
}

func (s *AccountsIntegrationSuite) TestCreateAccount_DuplicateEmail() {
	email := "duplicate@test.com"

	s.HTTP.CreateAccount(s.T(), email, fixtures.ValidPassword, role.Client.String()).AssertCreated()
	s.HTTP.CreateAccount(s.T(), strings.ToUpper(email), fixtures.ValidPassword2, role.Delivery.String()).
		AssertError(http.StatusConflict, errorx.CodeDuplicateEntry.String())

	s.DB.RequireUserCount(s.T(), 1)
	s.DB.AssertUserRow(s.T(), email).HasRole(role.Client)
}

func (s *AccountsIntegrationSuite) TestCreateAccount_ConcurrentSameEmail() {
	const attempts = 8
	email := "race@test.com"

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := s.HTTP.CreateAccount(s.T(), email, fixtures.ValidPassword, role.Client.String())
			if res.Code == http.StatusCreated {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.Equal(1, created, "exactly one signup must win")
	s.DB.RequireUserCount(s.T(), 1)
}

func (s *AccountsIntegrationSuite) TestVerifyEmail_ConcurrentSameCode() {
	const attempts = 6
	email := "concurrent-verify@test.com"

	s.HTTP.CreateAccount(s.T(), email, fixtures.ValidPassword, role.Client.String()).AssertCreated()
	code := s.HTTP.GetVerificationCode(s.T(), email).AssertSuccess().Field("code")

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		statuses []int
	)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := s.HTTP.VerifyEmail(s.T(), code)
			mu.Lock()
			statuses = append(statuses, res.Code)
			mu.Unlock()
		}()
	}
	wg.Wait()

	ok := 0
	for _, status := range statuses {
		if status == http.StatusOK {
			ok++
			continue
		}
		s.Equal(http.StatusNotFound, status)
	}
	s.Equal(1, ok, "exactly one verification must succeed")
	s.DB.AssertUserRow(s.T(), email).IsVerified(true)
}

func (s *AccountsIntegrationSuite) TestEditProfile_EmailChange() {
	oldEmail := "before@test.com"
	newEmail := "after@test.com"

	s.HTTP.CreateAccount(s.T(), oldEmail, fixtures.ValidPassword, role.Client.String()).AssertCreated()
	oldCode := s.HTTP.GetVerificationCode(s.T(), oldEmail).AssertSuccess().Field("code")
	s.HTTP.VerifyEmail(s.T(), oldCode).AssertSuccess()
	s.DB.AssertUserRow(s.T(), oldEmail).IsVerified(true)

	token := s.HTTP.Login(s.T(), oldEmail, fixtures.ValidPassword).AssertSuccess().Field("token")
	s.WaitForMail(oldEmail)
	s.Mail.Reset()

	s.HTTP.EditMe(s.T(), token, accountshttp.EditProfileRequest{Email: &newEmail}).AssertSuccess()

	s.DB.RequireUserNotExists(s.T(), oldEmail)
	s.DB.AssertUserRow(s.T(), newEmail).IsVerified(false)

	body := s.WaitForMail(newEmail)
	newCode := s.HTTP.GetVerificationCode(s.T(), newEmail).AssertSuccess().Field("code")
	s.NotEqual(oldCode, newCode)
	s.Contains(body, newCode)

	var changed user.EmailChanged
	s.Event.AssertEvent(s.T(), user.EventStreamName, "user.EmailChanged").Parse(&changed)
	s.Equal(oldEmail, changed.OldEmail)
	s.Equal(newEmail, changed.NewEmail)

	s.HTTP.Login(s.T(), oldEmail, fixtures.ValidPassword).AssertError(http.StatusNotFound, errorx.CodeNotFound.String())
	s.HTTP.Login(s.T(), newEmail, fixtures.ValidPassword).AssertSuccess()

	s.HTTP.VerifyEmail(s.T(), newCode).AssertSuccess()
	s.DB.AssertUserRow(s.T(), newEmail).IsVerified(true)
}

func (s *AccountsIntegrationSuite) TestEditProfile_EmailTaken() {
	s.HTTP.CreateAccount(s.T(), fixtures.ValidEmail, fixtures.ValidPassword, role.Client.String()).AssertCreated()
	s.HTTP.CreateAccount(s.T(), fixtures.ValidEmail2, fixtures.ValidPassword, role.Client.String()).AssertCreated()

	token := s.HTTP.Login(s.T(), fixtures.ValidEmail2, fixtures.ValidPassword).AssertSuccess().Field("token")
	taken := fixtures.ValidEmail
	s.HTTP.EditMe(s.T(), token, accountshttp.EditProfileRequest{Email: &taken}).
		AssertError(http.StatusConflict, errorx.CodeDuplicateEntry.String())

	s.DB.AssertUserRow(s.T(), fixtures.ValidEmail2)
	s.DB.RequireUserCount(s.T(), 2)
}

func (s *AccountsIntegrationSuite) TestEditProfile_PasswordChange() {
	email := "password@test.com"
	s.HTTP.CreateAccount(s.T(), email, fixtures.ValidPassword, role.Delivery.String()).AssertCreated()
	code := s.HTTP.GetVerificationCode(s.T(), email).AssertSuccess().Field("code")

	token := s.HTTP.Login(s.T(), email, fixtures.ValidPassword).AssertSuccess().Field("token")
	password := fixtures.ValidPassword2
	s.HTTP.EditMe(s.T(), token, accountshttp.EditProfileRequest{Password: &password}).AssertSuccess()

	s.HTTP.Login(s.T(), email, fixtures.ValidPassword).AssertError(http.StatusUnauthorized, errorx.CodeInvalidCredentials.String())
	s.HTTP.Login(s.T(), email, fixtures.ValidPassword2).AssertSuccess()

	// the pending code is untouched by a password change
	s.Equal(code, s.HTTP.GetVerificationCode(s.T(), email).AssertSuccess().Field("code"))
	s.Event.AssertEventCount(s.T(), user.EventStreamName, "user.PasswordChanged", 1)
}

func (s *AccountsIntegrationSuite) TestCreateAccount_InvalidInput() {
	res := s.HTTP.Do(s.T(), frameworkhttp.NewRequest(http.MethodPost, "/v1/accounts").
		WithLanguage("ru").
		WithJSON(accountshttp.CreateAccountRequest{Email: fixtures.InvalidEmail, Role: "admin"}).
		Build())

	res.AssertError(http.StatusBadRequest, errorx.CodeValidationFailed.String()).
		AssertMessage("Ошибка валидации").
		AssertFieldError("email").
		AssertFieldError("password").
		AssertFieldError("role")
	s.DB.RequireUserCount(s.T(), 0)
}

func (s *AccountsIntegrationSuite) TestLogin_UnknownUserLocalized() {
	res := s.HTTP.Do(s.T(), frameworkhttp.NewRequest(http.MethodPost, "/v1/auth/login").
		WithLanguage("ru-RU,ru;q=0.9").
		WithJSON(accountshttp.LoginRequest{Email: "nobody@test.com", Password: fixtures.ValidPassword}).
		Build())

	res.AssertError(http.StatusNotFound, errorx.CodeNotFound.String()).
		AssertMessage("Пользователь не найден")
}

func mustParse(t *testing.T, s string) user.ID {
	t.Helper()
	id, err := user.ParseID(s)
	require.NoError(t, err)
	return id
}
