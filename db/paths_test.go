package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePath(t *testing.T) {
	p, err := ParsePath("/users/alice/posts/")
	require.NoError(t, err)
	assert.Equal(t, "users", p.Collection)
	assert.Equal(t, "alice", p.Document)
	assert.Equal(t, []string{"posts"}, p.Fields)
	assert.Equal(t, "users/alice/posts", p.String())

	p, err = ParsePath("notifications/bob/items/0")
	require.NoError(t, err)
	assert.Equal(t, "items.0", p.FieldPath())

	p, err = ParsePath("users")
	require.NoError(t, err)
	assert.Empty(t, p.Document)
	assert.Equal(t, []string{"users"}, p.Segments())
}

func TestParsePathRejects(t *testing.T) {
	for _, raw := range []string{"", "/", "users//alice", "users/$where", "users/alice/a.b"} {
		_, err := ParsePath(raw)
		assert.ErrorIs(t, err, ErrInvalidPath, raw)
	}
}

func TestParsePathAllowsDotInDocumentID(t *testing.T) {
	p, err := ParsePath("accounts/a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", p.Document)
}

func TestJoinPath(t *testing.T) {
	assert.Equal(t, "users/alice/followers", JoinPath("users", "alice", "followers"))
}
