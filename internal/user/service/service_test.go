package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"novabook/internal/user"
	dErrors "novabook/pkg/domain-errors"
)

type UserServiceSuite struct {
	suite.Suite
	store *user.InMemoryStore
	svc   *Service
	ctx   context.Context
}

func (s *UserServiceSuite) SetupTest() {
	s.store = user.NewInMemoryStore()
	s.svc = NewService(s.store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.ctx = context.Background()
}

func (s *UserServiceSuite) TestCreateNormalizesAndHashes() {
	u, err := s.svc.Create(s.ctx, &user.User{Email: "  Ada@Example.COM ", Name: "Ada"}, "s3cret")
	s.Require().NoError(err)
	s.Equal("ada@example.com", u.Email)
	s.Equal(user.RoleUser, u.Role)
	s.True(u.Active)
	s.NotEqual("s3cret", u.PasswordHash)
	s.NotEmpty(u.PasswordHash)
}

func (s *UserServiceSuite) TestCreateRequiresEmailAndPassword() {
	_, err := s.svc.Create(s.ctx, &user.User{Name: "Ada"}, "pw")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.svc.Create(s.ctx, &user.User{Email: "a@b.com"}, "")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *UserServiceSuite) TestCreateDuplicateEmail() {
	_, err := s.svc.Create(s.ctx, &user.User{Email: "a@b.com"}, "pw")
	s.Require().NoError(err)

	_, err = s.svc.Create(s.ctx, &user.User{Email: "a@b.com"}, "pw")
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *UserServiceSuite) TestAuthenticate() {
	_, err := s.svc.Create(s.ctx, &user.User{Email: "a@b.com"}, "correct-horse")
	s.Require().NoError(err)

	s.Run("valid credentials", func() {
		u, err := s.svc.Authenticate(s.ctx, "a@b.com", "correct-horse")
		s.Require().NoError(err)
		s.Equal("a@b.com", u.Email)
	})

	s.Run("email is case insensitive", func() {
		_, err := s.svc.Authenticate(s.ctx, "A@B.com", "correct-horse")
		s.NoError(err)
	})

	s.Run("wrong password", func() {
		_, err := s.svc.Authenticate(s.ctx, "a@b.com", "wrong")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("unknown account", func() {
		_, err := s.svc.Authenticate(s.ctx, "nobody@b.com", "correct-horse")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *UserServiceSuite) TestAuthenticateDeletedAccountRejected() {
	u, err := s.svc.Create(s.ctx, &user.User{Email: "a@b.com"}, "pw")
	s.Require().NoError(err)
	s.Require().NoError(s.svc.SoftDelete(s.ctx, u.ID))

	_, err = s.svc.Authenticate(s.ctx, "a@b.com", "pw")
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *UserServiceSuite) TestChangePassword() {
	u, err := s.svc.Create(s.ctx, &user.User{Email: "a@b.com"}, "old")
	s.Require().NoError(err)

	s.Require().NoError(s.svc.ChangePassword(s.ctx, u.ID, "new"))

	_, err = s.svc.Authenticate(s.ctx, "a@b.com", "old")
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	_, err = s.svc.Authenticate(s.ctx, "a@b.com", "new")
	s.NoError(err)
}

func (s *UserServiceSuite) TestEnsureAdmin() {
	s.Require().NoError(s.svc.EnsureAdmin(s.ctx, "admin@novabook.local", "admin"))

	admins, err := s.svc.FindByRole(s.ctx, user.RoleAdmin)
	s.Require().NoError(err)
	s.Require().Len(admins, 1)
	s.Equal("admin@novabook.local", admins[0].Email)

	s.Run("second call is a no-op", func() {
		s.Require().NoError(s.svc.EnsureAdmin(s.ctx, "admin@novabook.local", "admin"))
		admins, err := s.svc.FindByRole(s.ctx, user.RoleAdmin)
		s.Require().NoError(err)
		s.Len(admins, 1)
	})
}

func TestUserServiceSuite(t *testing.T) {
	suite.Run(t, new(UserServiceSuite))
}
