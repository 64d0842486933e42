package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/kmorand/gatehouse/internal/crypto"
	"github.com/kmorand/gatehouse/internal/dependencies/mocks"
	"github.com/kmorand/gatehouse/internal/model"
	"github.com/kmorand/gatehouse/internal/services/policy"
	"github.com/kmorand/gatehouse/internal/storage/memory"
	"github.com/kmorand/gatehouse/internal/testutil"
)

const (
	goodPassword    = "Sturdy_Pass_99"
	anotherPassword = "Another_Way_42"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	policy  *policy.Service
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	logger := testutil.NopLogger()
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	s.policy = policy.New(s.storage, logger)
	s.policy.LoadWords([]string{"Password_1234"})
	hasher := crypto.NewBcryptHasher(bcrypt.MinCost)
	s.service = New(s.storage, s.policy, hasher, s.clock, DefaultConfig(), logger)
	s.ctx = context.Background()
}

// Register tests

func (s *ServiceSuite) TestRegisterSucceeds() {
	err := s.service.Register(s.ctx, "alice", goodPassword)
	s.Require().NoError(err)

	user, err := s.storage.GetUser(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal("alice", user.Username)
	s.NotEmpty(user.PasswordHash)
	s.NotEqual(goodPassword, user.PasswordHash) // Should be hashed
	s.Equal(s.clock.Now(), user.LastPasswordUpdate)
}

func (s *ServiceSuite) TestRegisterDoesNotCreateSession() {
	err := s.service.Register(s.ctx, "alice", goodPassword)
	s.Require().NoError(err)

	// The account exists but the user must still log in
	s.Empty(s.service.sessions)
}

func (s *ServiceSuite) TestRegisterRejectsWeakPassword() {
	err := s.service.Register(s.ctx, "alice", "short")
	s.Require().Error(err)

	var policyErr *PolicyError
	s.Require().ErrorAs(err, &policyErr)
	s.Contains(policyErr.Reasons, policy.ReasonTooShort)

	// Nothing stored
	_, err = s.storage.GetUser(s.ctx, "alice")
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *ServiceSuite) TestRegisterRejectsCommonPassword() {
	err := s.service.Register(s.ctx, "alice", "Password_1234")
	s.Require().Error(err)

	var policyErr *PolicyError
	s.Require().ErrorAs(err, &policyErr)
	s.Equal([]policy.Reason{policy.ReasonTooCommon}, policyErr.Reasons)
}

func (s *ServiceSuite) TestRegisterRejectsDuplicateUsername() {
	s.Require().NoError(s.service.Register(s.ctx, "alice", goodPassword))

	err := s.service.Register(s.ctx, "alice", anotherPassword)
	s.ErrorIs(err, ErrUsernameTaken)
}

func (s *ServiceSuite) TestRegisterDuplicateLeavesOriginalCredential() {
	s.Require().NoError(s.service.Register(s.ctx, "alice", goodPassword))
	_ = s.service.Register(s.ctx, "alice", anotherPassword)

	// The original password still works
	_, err := s.service.Login(s.ctx, "alice", goodPassword)
	s.NoError(err)
}

// Login tests

func (s *ServiceSuite) TestLoginSucceeds() {
	s.Require().NoError(s.service.Register(s.ctx, "alice", goodPassword))

	session, err := s.service.Login(s.ctx, "alice", goodPassword)
	s.Require().NoError(err)
	s.NotEmpty(session.Token)
	s.Equal("alice", session.Username)
	s.Equal(s.clock.Now(), session.CreatedAt)
	s.Equal(s.clock.Now().Add(24*time.Hour), session.ExpiresAt)
}

func (s *ServiceSuite) TestLoginUnknownUsername() {
	_, err := s.service.Login(s.ctx, "nobody", goodPassword)
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *ServiceSuite) TestLoginWrongPassword() {
	s.Require().NoError(s.service.Register(s.ctx, "alice", goodPassword))

	_, err := s.service.Login(s.ctx, "alice", anotherPassword)
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *ServiceSuite) TestLoginFailuresAreIndistinguishable() {
	s.Require().NoError(s.service.Register(s.ctx, "alice", goodPassword))

	_, errUnknown := s.service.Login(s.ctx, "nobody", goodPassword)
	_, errWrong := s.service.Login(s.ctx, "alice", anotherPassword)

	// Unknown user and wrong password must be the same error value,
	// so nothing about account existence leaks to the caller.
	s.Equal(errUnknown, errWrong)
	s.Equal(errUnknown.Error(), errWrong.Error())
}

func (s *ServiceSuite) TestLoginTokensAreUnique() {
	s.Require().NoError(s.service.Register(s.ctx, "alice", goodPassword))

	first, err := s.service.Login(s.ctx, "alice", goodPassword)
	s.Require().NoError(err)
	second, err := s.service.Login(s.ctx, "alice", goodPassword)
	s.Require().NoError(err)

	s.NotEqual(first.Token, second.Token)
}

// Session tests

func (s *ServiceSuite) TestValidateSessionSucceeds() {
	s.Require().NoError(s.service.Register(s.ctx, "alice", goodPassword))
	session, err := s.service.Login(s.ctx, "alice", goodPassword)
	s.Require().NoError(err)

	validated, err := s.service.ValidateSession(session.Token)
	s.Require().NoError(err)
	s.Equal("alice", validated.Username)
}

func (s *ServiceSuite) TestValidateSessionUnknownToken() {
	_, err := s.service.ValidateSession("sess_bogus")
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *ServiceSuite) TestValidateSessionExpires() {
	s.Require().NoError(s.service.Register(s.ctx, "alice", goodPassword))
	session, err := s.service.Login(s.ctx, "alice", goodPassword)
	s.Require().NoError(err)

	s.clock.Advance(24*time.Hour + time.Minute)

	_, err = s.service.ValidateSession(session.Token)
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *ServiceSuite) TestInvalidateSession() {
	s.Require().NoError(s.service.Register(s.ctx, "alice", goodPassword))
	session, err := s.service.Login(s.ctx, "alice", goodPassword)
	s.Require().NoError(err)

	s.service.InvalidateSession(session.Token)

	_, err = s.service.ValidateSession(session.Token)
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *ServiceSuite) TestCleanExpiredSessions() {
	s.Require().NoError(s.service.Register(s.ctx, "alice", goodPassword))
	old, err := s.service.Login(s.ctx, "alice", goodPassword)
	s.Require().NoError(err)

	s.clock.Advance(25 * time.Hour)
	fresh, err := s.service.Login(s.ctx, "alice", goodPassword)
	s.Require().NoError(err)

	s.service.CleanExpiredSessions()

	_, err = s.service.ValidateSession(old.Token)
	s.ErrorIs(err, ErrInvalidSession)
	_, err = s.service.ValidateSession(fresh.Token)
	s.NoError(err)
}

// UpdatePassword tests

func (s *ServiceSuite) loginAlice() *Session {
	s.Require().NoError(s.service.Register(s.ctx, "alice", goodPassword))
	session, err := s.service.Login(s.ctx, "alice", goodPassword)
	s.Require().NoError(err)
	return session
}

func (s *ServiceSuite) TestUpdatePasswordSucceeds() {
	session := s.loginAlice()
	s.clock.Advance(time.Hour)

	err := s.service.UpdatePassword(s.ctx, session.Token, goodPassword, anotherPassword)
	s.Require().NoError(err)

	user, err := s.storage.GetUser(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(s.clock.Now(), user.LastPasswordUpdate)

	// Old password no longer works, new one does
	_, err = s.service.Login(s.ctx, "alice", goodPassword)
	s.ErrorIs(err, ErrInvalidCredentials)
	_, err = s.service.Login(s.ctx, "alice", anotherPassword)
	s.NoError(err)
}

func (s *ServiceSuite) TestUpdatePasswordRequiresSession() {
	err := s.service.UpdatePassword(s.ctx, "sess_bogus", goodPassword, anotherPassword)
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *ServiceSuite) TestUpdatePasswordWrongCurrent() {
	session := s.loginAlice()

	err := s.service.UpdatePassword(s.ctx, session.Token, "Wrong_Pass_11", anotherPassword)
	s.ErrorIs(err, ErrCurrentPassword)

	// Credential untouched
	_, err = s.service.Login(s.ctx, "alice", goodPassword)
	s.NoError(err)
}

func (s *ServiceSuite) TestUpdatePasswordRejectsWeakNewPassword() {
	session := s.loginAlice()

	err := s.service.UpdatePassword(s.ctx, session.Token, goodPassword, "weak")
	var policyErr *PolicyError
	s.Require().ErrorAs(err, &policyErr)

	// Credential untouched
	_, err = s.service.Login(s.ctx, "alice", goodPassword)
	s.NoError(err)
}

func (s *ServiceSuite) TestUpdatePasswordRejectsCommonNewPassword() {
	session := s.loginAlice()

	err := s.service.UpdatePassword(s.ctx, session.Token, goodPassword, "Password_1234")
	var policyErr *PolicyError
	s.Require().ErrorAs(err, &policyErr)
	s.Equal([]policy.Reason{policy.ReasonTooCommon}, policyErr.Reasons)

	// Stored hash unchanged
	_, err = s.service.Login(s.ctx, "alice", goodPassword)
	s.NoError(err)
}

func (s *ServiceSuite) TestUpdatePasswordChecksCurrentBeforePolicy() {
	session := s.loginAlice()

	// Both the current password and the new password are wrong; the
	// current-password failure wins.
	err := s.service.UpdatePassword(s.ctx, session.Token, "Wrong_Pass_11", "weak")
	s.ErrorIs(err, ErrCurrentPassword)
	s.False(errors.As(err, new(*PolicyError)))
}

func (s *ServiceSuite) TestUpdatePasswordSessionSurvives() {
	session := s.loginAlice()

	err := s.service.UpdatePassword(s.ctx, session.Token, goodPassword, anotherPassword)
	s.Require().NoError(err)

	_, err = s.service.ValidateSession(session.Token)
	s.NoError(err)
}

func (s *ServiceSuite) TestUpdatePasswordAccountVanished() {
	session := s.loginAlice()

	// Simulate the account disappearing behind the session
	fresh := memory.New()
	s.service.storage = fresh

	err := s.service.UpdatePassword(s.ctx, session.Token, goodPassword, anotherPassword)
	s.ErrorIs(err, ErrInvalidSession)

	// The stale session is dropped as well
	_, err = s.service.ValidateSession(session.Token)
	s.ErrorIs(err, ErrInvalidSession)
}
