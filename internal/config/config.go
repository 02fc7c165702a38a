package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath      = "config/config.yaml"
	DefaultLookupURL = "https://origins.habbo.com/api/public/users?name="
	defaultUserAgent = "Mozilla/1.22 (compatible; MSIE 5.01; PalmOS 3.0) EudoraWeb 2"
)

type DiscordConfig struct {
	Token        string `yaml:"token" validate:"required"`
	GuildID      string `yaml:"guild_id" validate:"required,numeric"`
	VerifyRoleID uint64 `yaml:"verify_role_id"`
	Activity     string `yaml:"activity"`
}

type DatabaseConfig struct {
	Driver     string `yaml:"driver" validate:"oneof=postgres mongo memory"`
	DSN        string `yaml:"url" validate:"required_unless=Driver memory"`
	Name       string `yaml:"name"`
	Collection string `yaml:"collection"`
}

type HabboConfig struct {
	LookupURL      string `yaml:"lookup_url" validate:"required,url"`
	UserAgent      string `yaml:"user_agent"`
	TimeoutSeconds int    `yaml:"timeout_seconds" validate:"min=1"`
}

type VerificationConfig struct {
	CodeLength  int `yaml:"code_length" validate:"min=1,max=32"`
	WaitSeconds int `yaml:"wait_seconds" validate:"min=1"`
}

type AdminConfig struct {
	Port         int    `yaml:"port" validate:"min=0,max=65535"`
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
	JWTSecret    string `yaml:"jwt_secret"`
	ReportFont   string `yaml:"report_font"`
	// AllowedOrigins lists browser origins that may open the event stream. Empty means same host only.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`
}

type EmailConfig struct {
	SMTPHost     string   `yaml:"smtp_host"`
	SMTPPort     int      `yaml:"smtp_port"`
	SMTPUser     string   `yaml:"smtp_user"`
	SMTPPassword string   `yaml:"smtp_password"`
	FromEmail    string   `yaml:"from_email"`
	To           []string `yaml:"to" validate:"dive,email"`
}

type RepairConfig struct {
	Schedule string `yaml:"schedule"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type Config struct {
	Discord      DiscordConfig      `yaml:"discord"`
	Database     DatabaseConfig     `yaml:"database"`
	Habbo        HabboConfig        `yaml:"habbo"`
	Verification VerificationConfig `yaml:"verification"`
	Admin        AdminConfig        `yaml:"admin"`
	Telegram     TelegramConfig     `yaml:"telegram"`
	Email        EmailConfig        `yaml:"email"`
	Repair       RepairConfig       `yaml:"repair"`
	Log          LogConfig          `yaml:"log"`
}

// Load reads the YAML settings file, applies .env and environment overrides, fills defaults and
// validates the result.
func Load(path string) (*Config, error) {
	cfg, err := readFile(path)
	if err != nil {
		return nil, err
	}

	// .env is optional
	_ = godotenv.Load()
	overrideWithEnv(cfg)
	applyDefaults(cfg)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func readFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = "habbo"
	}
	if cfg.Database.Collection == "" {
		cfg.Database.Collection = "verified_users"
	}
	if cfg.Habbo.LookupURL == "" {
		cfg.Habbo.LookupURL = DefaultLookupURL
	}
	if cfg.Habbo.UserAgent == "" {
		cfg.Habbo.UserAgent = defaultUserAgent
	}
	if cfg.Habbo.TimeoutSeconds == 0 {
		cfg.Habbo.TimeoutSeconds = 10
	}
	if cfg.Verification.CodeLength == 0 {
		cfg.Verification.CodeLength = 5
	}
	if cfg.Verification.WaitSeconds == 0 {
		cfg.Verification.WaitSeconds = 45
	}
	if cfg.Admin.Username == "" {
		cfg.Admin.Username = "admin"
	}
	if cfg.Discord.Activity == "" {
		cfg.Discord.Activity = "Habbo Hotel:Origins"
	}
}

func overrideWithEnv(cfg *Config) {
	if v := os.Getenv("DISCORD_TOKEN"); v != "" {
		cfg.Discord.Token = v
	}
	if v := os.Getenv("DISCORD_GUILD_ID"); v != "" {
		cfg.Discord.GuildID = v
	}
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("MONGODB_URI"); v != "" && cfg.Database.Driver == "mongo" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("ADMIN_JWT_SECRET"); v != "" {
		cfg.Admin.JWTSecret = v
	}
	if v := os.Getenv("ADMIN_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Admin.Port = port
		}
	}
	if v := os.Getenv("TELEGRAM_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}
