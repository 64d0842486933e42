package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/kmorand/gatehouse/internal/model"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
}

func (s *StorageSuite) alice() *model.User {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &model.User{
		Username:           "alice",
		PasswordHash:       "$2a$04$fakehash",
		CreatedAt:          now,
		LastPasswordUpdate: now,
	}
}

func (s *StorageSuite) TestCreateAndGetUser() {
	s.Require().NoError(s.storage.CreateUser(s.ctx, s.alice()))

	got, err := s.storage.GetUser(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal("alice", got.Username)
	s.Equal("$2a$04$fakehash", got.PasswordHash)
}

func (s *StorageSuite) TestCreateUserDuplicate() {
	s.Require().NoError(s.storage.CreateUser(s.ctx, s.alice()))

	dupe := s.alice()
	dupe.PasswordHash = "$2a$04$otherhash"
	s.ErrorIs(s.storage.CreateUser(s.ctx, dupe), model.ErrUsernameTaken)

	got, err := s.storage.GetUser(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal("$2a$04$fakehash", got.PasswordHash)
}

func (s *StorageSuite) TestGetUserNotFound() {
	_, err := s.storage.GetUser(s.ctx, "nobody")
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *StorageSuite) TestGetUserReturnsCopy() {
	s.Require().NoError(s.storage.CreateUser(s.ctx, s.alice()))

	got, err := s.storage.GetUser(s.ctx, "alice")
	s.Require().NoError(err)
	got.PasswordHash = "mutated"

	again, err := s.storage.GetUser(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal("$2a$04$fakehash", again.PasswordHash)
}

func (s *StorageSuite) TestUpdatePassword() {
	s.Require().NoError(s.storage.CreateUser(s.ctx, s.alice()))

	at := time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)
	s.Require().NoError(s.storage.UpdatePassword(s.ctx, "alice", "$2a$04$newhash", at))

	got, err := s.storage.GetUser(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal("$2a$04$newhash", got.PasswordHash)
	s.True(got.LastPasswordUpdate.Equal(at))
}

func (s *StorageSuite) TestUpdatePasswordUnknownUser() {
	err := s.storage.UpdatePassword(s.ctx, "nobody", "$2a$04$newhash", time.Now())
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *StorageSuite) TestConcurrentCreateSingleWinner() {
	const attempts = 32

	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := s.alice()
			user.PasswordHash = fmt.Sprintf("hash-%d", i)
			errs[i] = s.storage.CreateUser(s.ctx, user)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			s.ErrorIs(err, model.ErrUsernameTaken)
		}
	}
	s.Equal(1, winners)
}

func (s *StorageSuite) TestDenylistNotLoaded() {
	_, err := s.storage.GetDenylistWords(s.ctx)
	s.ErrorIs(err, model.ErrDenylistNotLoaded)
}

func (s *StorageSuite) TestSaveAndGetDenylist() {
	s.Require().NoError(s.storage.SaveDenylistWords(s.ctx, []string{"password", "123456"}))

	got, err := s.storage.GetDenylistWords(s.ctx)
	s.Require().NoError(err)
	s.ElementsMatch([]string{"password", "123456"}, got)
}

func (s *StorageSuite) TestSaveDenylistEmptyStillLoaded() {
	s.Require().NoError(s.storage.SaveDenylistWords(s.ctx, []string{}))

	got, err := s.storage.GetDenylistWords(s.ctx)
	s.Require().NoError(err)
	s.Empty(got)
}
