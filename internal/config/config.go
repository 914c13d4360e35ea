package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port                string   `mapstructure:"PORT"`
	Env                 string   `mapstructure:"ENV"`
	DatabaseURL         string   `mapstructure:"DATABASE_URL"`
	DBMaxConns          int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns          int32    `mapstructure:"DB_MIN_CONNS"`
	CORSOrigins         []string `mapstructure:"CORS_ORIGINS"`
	PublicBaseURL       string   `mapstructure:"PUBLIC_BASE_URL"`
	ClinicName          string   `mapstructure:"CLINIC_NAME"`
	ClinicAddress       string   `mapstructure:"CLINIC_ADDRESS"`
	ClinicPhone         string   `mapstructure:"CLINIC_PHONE"`
	ClinicLogoPath      string   `mapstructure:"CLINIC_LOGO_PATH"`
	ReminderLeadMinutes int      `mapstructure:"REMINDER_LEAD_MINUTES"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8000")
	v.SetDefault("CLINIC_NAME", "Clínica")
	v.SetDefault("REMINDER_LEAD_MINUTES", 30)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("PUBLIC_BASE_URL")
	v.BindEnv("CLINIC_NAME")
	v.BindEnv("CLINIC_ADDRESS")
	v.BindEnv("CLINIC_PHONE")
	v.BindEnv("CLINIC_LOGO_PATH")
	v.BindEnv("REMINDER_LEAD_MINUTES")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks that the configuration is safe to run with.
func (c *Config) Validate() error {
	if c.PublicBaseURL == "" {
		return fmt.Errorf("PUBLIC_BASE_URL is required (signing links are built from it)")
	}
	if strings.Contains(c.PublicBaseURL, " ") {
		return fmt.Errorf("PUBLIC_BASE_URL must not contain spaces, got %q", c.PublicBaseURL)
	}
	if c.ReminderLeadMinutes < 0 {
		return fmt.Errorf("REMINDER_LEAD_MINUTES must not be negative, got %d", c.ReminderLeadMinutes)
	}
	return nil
}
