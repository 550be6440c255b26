package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBinding(t *testing.T) {
	b, err := NewBinding(7, ExternalProfile{
		UID:           "U1234",
		DisplayName:   "Taro",
		Email:         " Taro@Example.COM ",
		EmailVerified: true,
	}, ProviderTokens{AccessToken: "at"})
	require.NoError(t, err)

	assert.Equal(t, uint64(7), b.LocalUserID)
	assert.Equal(t, "U1234", b.ExternalUID)
	assert.Equal(t, "taro@example.com", b.Email)
	assert.True(t, b.EmailVerified)
	assert.True(t, b.BelongsTo(7))
	assert.False(t, b.BelongsTo(8))

	_, err = NewBinding(0, ExternalProfile{UID: "U1"}, ProviderTokens{})
	assert.Error(t, err)
	_, err = NewBinding(1, ExternalProfile{}, ProviderTokens{})
	assert.Error(t, err)
}

func TestBinding_ApplyProfileKeepsKnownFields(t *testing.T) {
	b, err := NewBinding(1, ExternalProfile{UID: "U1", DisplayName: "Old", AvatarURL: "https://p/1", Email: "a@b.co"}, ProviderTokens{AccessToken: "t1"})
	require.NoError(t, err)

	b.ApplyProfile(ExternalProfile{UID: "U1", DisplayName: "New"}, ProviderTokens{})

	assert.Equal(t, "New", b.DisplayName)
	assert.Equal(t, "https://p/1", b.AvatarURL)
	assert.Equal(t, "a@b.co", b.Email)
	assert.Equal(t, "t1", b.Tokens.AccessToken)
}

func TestBinding_SetFriendship(t *testing.T) {
	b := &Binding{IsFriend: true}
	b.SetFriendship(nil)
	assert.True(t, b.IsFriend)

	no := false
	b.SetFriendship(&no)
	assert.False(t, b.IsFriend)
}

func TestExternalProfile_Validate(t *testing.T) {
	assert.NoError(t, (&ExternalProfile{UID: "U1", Email: "x@example.com"}).Validate())
	assert.Error(t, (&ExternalProfile{}).Validate())
	assert.Error(t, (&ExternalProfile{UID: "U1", Email: "not-an-email"}).Validate())
	assert.Error(t, (&ExternalProfile{UID: "U1", AvatarURL: "::"}).Validate())
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("user@example.com"))
	assert.Error(t, ValidateEmail(""))
	assert.Error(t, ValidateEmail("user@"))
}

func TestCallerContext(t *testing.T) {
	assert.False(t, AnonymousCaller().IsAuthenticated())
	assert.True(t, AuthenticatedCaller(3).IsAuthenticated())
	assert.False(t, AuthenticatedCaller(0).IsAuthenticated())
}
