package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsInit(t *testing.T) {
	t.Run("role missing", func(t *testing.T) {
		out := NewSettingsService(unsetSettings()).Init("1", true, "")
		assert.Contains(t, out, msgRoleMissing)
	})

	t.Run("not admin", func(t *testing.T) {
		settings := unsetSettings()
		out := NewSettingsService(settings).Init("1", false, testRoleStr)
		assert.Contains(t, out, msgNotAdmin)
		assert.False(t, settings.VerifyRoleSet())
	})

	t.Run("already initialized", func(t *testing.T) {
		out := NewSettingsService(configuredSettings()).Init("1", true, "111111111111111111")
		assert.Contains(t, out, msgAlreadyInit)
	})

	t.Run("invalid role", func(t *testing.T) {
		out := NewSettingsService(unsetSettings()).Init("1", true, "12")
		assert.Contains(t, out, msgInvalidRole)
		out = NewSettingsService(unsetSettings()).Init("1", true, "role")
		assert.Contains(t, out, msgInvalidRole)
	})

	t.Run("selects role once", func(t *testing.T) {
		settings := unsetSettings()
		svc := NewSettingsService(settings)

		out := svc.Init("1", true, testRoleStr)
		assert.Equal(t, "Hello <@1> :)\n\nRole selected: <@&987654321012345678>", out)
		assert.Equal(t, testRoleID, settings.VerifyRoleID())

		out = svc.Init("1", true, "111111111111111111")
		assert.Contains(t, out, msgAlreadyInit)
		assert.Equal(t, testRoleID, settings.VerifyRoleID())
	})
}

func TestInfo(t *testing.T) {
	ctx := context.Background()

	t.Run("profile", func(t *testing.T) {
		profiles := &fakeProfiles{}
		profiles.setMotto("Alice", "hello")
		out, p := NewInfoService(profiles).Info(ctx, "5", "Alice")
		assert.Contains(t, out, "Here is your information about the Habbo `Alice` :)")
		require.NotNil(t, p)
		assert.Equal(t, "hello", p.Motto)
	})

	t.Run("missing name", func(t *testing.T) {
		out, p := NewInfoService(&fakeProfiles{}).Info(ctx, "5", "")
		assert.Contains(t, out, msgUsernameMissing)
		assert.Nil(t, p)
	})

	t.Run("private profile", func(t *testing.T) {
		out, p := NewInfoService(&fakeProfiles{err: errPrivate}).Info(ctx, "5", "Alice")
		assert.Contains(t, out, "does not exist or the profile has been set to private")
		assert.Nil(t, p)
	})

	t.Run("transport failure", func(t *testing.T) {
		out, p := NewInfoService(&fakeProfiles{err: errTransport}).Info(ctx, "5", "Alice")
		assert.Contains(t, out, msgRequestFailed)
		assert.Nil(t, p)
	})
}
