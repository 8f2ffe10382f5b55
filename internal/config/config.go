package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env            string        `mapstructure:"ENV"`
	Port           string        `mapstructure:"PORT"`
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	AdminKey       string        `mapstructure:"ADMIN_KEY"`
	CORSAllowed    string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`
	MigrateOnStart bool          `mapstructure:"MIGRATE_ON_START"`

	EncryptionKey string `mapstructure:"ENCRYPTION_KEY"`

	GoogleClientID     string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `mapstructure:"GOOGLE_REDIRECT_URI"`

	MicrosoftClientID     string `mapstructure:"MS_CLIENT_ID"`
	MicrosoftClientSecret string `mapstructure:"MS_CLIENT_SECRET"`
	MicrosoftTenant       string `mapstructure:"MS_TENANT_ID"`

	ProviderTimeout    time.Duration `mapstructure:"PROVIDER_TIMEOUT"`
	ProviderMaxRetries int           `mapstructure:"PROVIDER_MAX_RETRIES"`
	RefreshThreshold   time.Duration `mapstructure:"TOKEN_REFRESH_THRESHOLD"`

	BusinessHoursStart int           `mapstructure:"BUSINESS_HOURS_START"`
	BusinessHoursEnd   int           `mapstructure:"BUSINESS_HOURS_END"`
	SlotGranularity    time.Duration `mapstructure:"SLOT_GRANULARITY"`
	DefaultDuration    time.Duration `mapstructure:"DEFAULT_BOOKING_DURATION"`
	NoShowGrace        time.Duration `mapstructure:"NO_SHOW_GRACE"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("MIGRATE_ON_START", true)
	v.SetDefault("MS_TENANT_ID", "common")
	v.SetDefault("PROVIDER_TIMEOUT", "15s")
	v.SetDefault("PROVIDER_MAX_RETRIES", 3)
	v.SetDefault("TOKEN_REFRESH_THRESHOLD", "5m")
	v.SetDefault("BUSINESS_HOURS_START", 9)
	v.SetDefault("BUSINESS_HOURS_END", 17)
	v.SetDefault("SLOT_GRANULARITY", "1h")
	v.SetDefault("DEFAULT_BOOKING_DURATION", "30m")
	v.SetDefault("NO_SHOW_GRACE", "1h")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
