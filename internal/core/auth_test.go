package core

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forumhub/internal/forum"
	"forumhub/internal/repository"
	"forumhub/internal/store"
	"forumhub/pkg/models"
)

func newTestAuth(t *testing.T) (AuthService, *store.Memory) {
	t.Helper()
	profiles := store.NewMemory()
	svc := NewAuthService(repository.NewMemoryAccountRepository(), profiles, "test-secret", "forumhub-test", time.Hour)
	return svc, profiles
}

func TestRegisterWritesProfile(t *testing.T) {
	svc, profiles := newTestAuth(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, models.RegisterRequest{
		Email:       " Ada@Example.com ",
		Password:    "secret1",
		FullName:    " Ada Lovelace ",
		PhoneNumber: "555",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "ada@example.com", resp.User.Email)
	assert.InDelta(t, 3600, resp.ExpiresIn, 2)

	snap, err := profiles.Read(ctx, forum.ProfilePath(resp.User.ID))
	require.NoError(t, err)
	var profile models.UserProfile
	require.NoError(t, snap.Decode(&profile))
	assert.Equal(t, resp.User.ID, profile.UID)
	assert.Equal(t, "Ada Lovelace", profile.FullName)
	assert.Equal(t, "ada@example.com", profile.Email)
	assert.Equal(t, "555", profile.PhoneNumber)
	assert.NotZero(t, profile.CreatedAt)

	name, email, err := forum.ReadAuthor(ctx, profiles, resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", name)
	assert.Equal(t, "ada@example.com", email)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestAuth(t)
	ctx := context.Background()

	cases := []models.RegisterRequest{
		{Email: "a@b.co", Password: "secret1", FullName: "  "},
		{Email: "not-an-email", Password: "secret1", FullName: "A"},
		{Email: "a@b.co", Password: "12345", FullName: "A"},
	}
	for _, req := range cases {
		_, err := svc.Register(ctx, req)
		assert.ErrorIs(t, err, models.ErrInvalidInput, "%+v", req)
		assert.Equal(t, 400, models.HTTPStatus(err))
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestAuth(t)
	ctx := context.Background()
	req := models.RegisterRequest{Email: "a@b.co", Password: "secret1", FullName: "A"}

	_, err := svc.Register(ctx, req)
	require.NoError(t, err)

	req.Email = "A@B.CO"
	_, err = svc.Register(ctx, req)
	assert.ErrorIs(t, err, models.ErrEmailExists)
	assert.Equal(t, 409, models.HTTPStatus(err))
}

func TestLoginAndValidateToken(t *testing.T) {
	svc, _ := newTestAuth(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, models.RegisterRequest{Email: "a@b.co", Password: "secret1", FullName: "A"})
	require.NoError(t, err)

	resp, err := svc.Login(ctx, models.LoginRequest{Email: "A@b.co", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, resp.User.ID)

	user, err := svc.ValidateToken(ctx, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, models.AuthUser{ID: reg.User.ID, Email: "a@b.co"}, user)

	_, err = svc.Login(ctx, models.LoginRequest{Email: "a@b.co", Password: "wrong-pass"})
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	_, err = svc.Login(ctx, models.LoginRequest{Email: "nobody@b.co", Password: "secret1"})
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestValidateTokenRejects(t *testing.T) {
	svc, _ := newTestAuth(t)
	ctx := context.Background()

	_, err := svc.ValidateToken(ctx, "garbage")
	assert.ErrorIs(t, err, models.ErrInvalidToken)

	// Signed with another secret
	other := NewAuthService(repository.NewMemoryAccountRepository(), store.NewMemory(), "other", "x", time.Hour)
	resp, err := other.Register(ctx, models.RegisterRequest{Email: "a@b.co", Password: "secret1", FullName: "A"})
	require.NoError(t, err)
	_, err = svc.ValidateToken(ctx, resp.Token)
	assert.ErrorIs(t, err, models.ErrInvalidToken)

	// Expired
	claims := &jwtClaims{
		UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(ctx, expired)
	assert.ErrorIs(t, err, models.ErrInvalidToken)

	// Valid signature but unknown account
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Minute))
	orphan, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(ctx, orphan)
	assert.ErrorIs(t, err, models.ErrInvalidToken)
}
