package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"
)

// LowestSnowflake is the smallest Discord id with a non-zero timestamp part. Any configured role id
// below it counts as unset.
const LowestSnowflake uint64 = 1 << 22

var (
	ErrAlreadyInitialized = errors.New("verify role already initialized")
	ErrInvalidRole        = errors.New("invalid role id")
)

// Settings is the runtime view of the guild settings. Reads are concurrent; the verify role can only
// be written once, through InitVerifyRole.
type Settings struct {
	mu           sync.RWMutex
	path         string
	guildID      string
	verifyRoleID uint64
}

// NewSettings builds the settings service. With an empty path InitVerifyRole only updates memory.
func NewSettings(path string, cfg *Config) *Settings {
	return &Settings{
		path:         path,
		guildID:      cfg.Discord.GuildID,
		verifyRoleID: cfg.Discord.VerifyRoleID,
	}
}

func (s *Settings) GuildID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.guildID
}

func (s *Settings) VerifyRoleID() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.verifyRoleID
}

// VerifyRole returns the role id in the string form the platform API uses.
func (s *Settings) VerifyRole() string {
	return strconv.FormatUint(s.VerifyRoleID(), 10)
}

func (s *Settings) VerifyRoleSet() bool {
	return s.VerifyRoleID() >= LowestSnowflake
}

// InitVerifyRole sets the verify role if none is set yet and persists it to the settings file.
func (s *Settings) InitVerifyRole(roleID uint64) error {
	if roleID < LowestSnowflake {
		return ErrInvalidRole
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.verifyRoleID >= LowestSnowflake {
		return ErrAlreadyInitialized
	}
	if s.path != "" {
		if err := saveVerifyRole(s.path, roleID); err != nil {
			return err
		}
	}
	s.verifyRoleID = roleID
	return nil
}

// saveVerifyRole rewrites only the role id of the file on disk, so that env overrides never end up
// persisted.
func saveVerifyRole(path string, roleID uint64) error {
	cfg, err := readFile(path)
	if err != nil {
		return err
	}
	cfg.Discord.VerifyRoleID = roleID

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*.yaml")
	if err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("save config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}
