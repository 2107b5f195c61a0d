package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"forumhub/pkg/models"
)

func TestSession(t *testing.T) {
	s := NewSession()
	_, ok := s.CurrentUser()
	assert.False(t, ok)
	assert.Empty(t, s.Token())

	s.SignIn(models.AuthUser{ID: "u1", Email: "a@b.co"}, "tok")
	user, ok := s.CurrentUser()
	assert.True(t, ok)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "tok", s.Token())

	s.SignOut()
	_, ok = s.CurrentUser()
	assert.False(t, ok)
	assert.Empty(t, s.Token())
}

func TestRestore(t *testing.T) {
	_, ok := Restore(models.AuthUser{ID: "u1"}, "").CurrentUser()
	assert.False(t, ok)

	user, ok := Restore(models.AuthUser{ID: "u1", Email: "e"}, "tok").CurrentUser()
	assert.True(t, ok)
	assert.Equal(t, "e", user.Email)
}

func TestStatic(t *testing.T) {
	_, ok := Static{}.CurrentUser()
	assert.False(t, ok)

	user, ok := As("u2", "x@y.z").CurrentUser()
	assert.True(t, ok)
	assert.Equal(t, models.AuthUser{ID: "u2", Email: "x@y.z"}, user)
}
