package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
discord:
  token: abc
  guild_id: "123456789012345678"
database:
  driver: memory
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DATABASE_DRIVER", "")
	path := writeConfig(t, sampleConfig)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "abc", cfg.Discord.Token)
	assert.Equal(t, DefaultLookupURL, cfg.Habbo.LookupURL)
	assert.Equal(t, 5, cfg.Verification.CodeLength)
	assert.Equal(t, 45, cfg.Verification.WaitSeconds)
	assert.Equal(t, "verified_users", cfg.Database.Collection)
	assert.Zero(t, cfg.Discord.VerifyRoleID)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "from-env")
	path := writeConfig(t, sampleConfig)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Discord.Token)
}

func TestLoadRejectsMissingDSN(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DATABASE_DRIVER", "")
	path := writeConfig(t, `
discord:
  token: abc
  guild_id: "1"
database:
  driver: postgres
`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestInitVerifyRolePersists(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")
	path := writeConfig(t, sampleConfig)
	cfg, err := Load(path)
	require.NoError(t, err)

	settings := NewSettings(path, cfg)
	assert.False(t, settings.VerifyRoleSet())

	require.NoError(t, settings.InitVerifyRole(987654321012345678))
	assert.True(t, settings.VerifyRoleSet())
	assert.Equal(t, "987654321012345678", settings.VerifyRole())

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(987654321012345678), reloaded.Discord.VerifyRoleID)
	assert.Equal(t, "abc", reloaded.Discord.Token)
}

func TestInitVerifyRoleRules(t *testing.T) {
	settings := NewSettings("", &Config{})

	assert.ErrorIs(t, settings.InitVerifyRole(LowestSnowflake-1), ErrInvalidRole)
	require.NoError(t, settings.InitVerifyRole(LowestSnowflake))
	assert.ErrorIs(t, settings.InitVerifyRole(LowestSnowflake+1), ErrAlreadyInitialized)
	assert.Equal(t, LowestSnowflake, settings.VerifyRoleID())
}

func TestInitVerifyRoleSingleWinner(t *testing.T) {
	settings := NewSettings("", &Config{})

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			if settings.InitVerifyRole(id) == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(LowestSnowflake + uint64(i))
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}
