package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type DBConfig struct {
	Host, User, Password, DBName, SSLMode string
	Port                                  int
}

type SMTPConfig struct {
	Host string
	Port int
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type Config struct {
	WebHost       string
	WebPort       int
	JWTSecret     string
	JWTExpiry     time.Duration
	AuthRateLimit int
	DB            DBConfig
	SMTP          SMTPConfig
	OpenAI        OpenAIConfig
}

// Load reads the optional config file, then applies strict env overrides.
func Load(file string) (Config, error) {
	_ = godotenv.Load()

	viper.SetDefault("web.host", "0.0.0.0")
	viper.SetDefault("web.port", 8080)
	viper.SetDefault("jwt_expiry", "168h")
	viper.SetDefault("auth_rate_limit", 60)
	viper.SetDefault("db.sslmode", "disable")
	viper.SetDefault("smtp.host", "127.0.0.1")
	viper.SetDefault("smtp.port", 25)
	viper.SetDefault("openai.model", "gpt-3.5-turbo")
	viper.SetDefault("openai.base_url", "https://api.openai.com")

	if file != "" {
		viper.SetConfigFile(file)
	}
	_ = viper.ReadInConfig() // ignore missing config file

	c := Config{
		WebHost:       viper.GetString("web.host"),
		WebPort:       viper.GetInt("web.port"),
		JWTSecret:     viper.GetString("jwt_secret"),
		JWTExpiry:     viper.GetDuration("jwt_expiry"),
		AuthRateLimit: viper.GetInt("auth_rate_limit"),
		DB: DBConfig{
			Host:     viper.GetString("db.host"),
			Port:     viper.GetInt("db.port"),
			User:     viper.GetString("db.user"),
			Password: viper.GetString("db.password"),
			DBName:   viper.GetString("db.name"),
			SSLMode:  viper.GetString("db.sslmode"),
		},
		SMTP: SMTPConfig{
			Host: viper.GetString("smtp.host"),
			Port: viper.GetInt("smtp.port"),
		},
		OpenAI: OpenAIConfig{
			APIKey:  viper.GetString("openai.api_key"),
			Model:   viper.GetString("openai.model"),
			BaseURL: viper.GetString("openai.base_url"),
		},
	}

	// ---- OVERRIDE WITH ENV VARS (STRICT) ----
	if v := os.Getenv("EMAILMICROWAVE_DB_HOST"); v != "" {
		c.DB.Host = v
	}
	if v := os.Getenv("EMAILMICROWAVE_DB_PORT"); v != "" {
		fmt.Sscanf(v, "%d", &c.DB.Port)
	}
	if v := os.Getenv("EMAILMICROWAVE_DB_USER"); v != "" {
		c.DB.User = v
	}
	if v := os.Getenv("EMAILMICROWAVE_DB_PASSWORD"); v != "" {
		c.DB.Password = v
	}
	if v := os.Getenv("EMAILMICROWAVE_DB_NAME"); v != "" {
		c.DB.DBName = v
	}
	if v := os.Getenv("EMAILMICROWAVE_JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}
	if v := os.Getenv("EMAILMICROWAVE_JWT_EXPIRY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.JWTExpiry = d
		}
	}
	if v := os.Getenv("EMAILMICROWAVE_OPENAI_API_KEY"); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv("EMAILMICROWAVE_SMTP_HOST"); v != "" {
		c.SMTP.Host = v
	}
	if v := os.Getenv("EMAILMICROWAVE_SMTP_PORT"); v != "" {
		fmt.Sscanf(v, "%d", &c.SMTP.Port)
	}

	if c.JWTSecret == "" {
		return Config{}, errors.New("jwt_secret is required")
	}
	if c.OpenAI.APIKey == "" {
		return Config{}, errors.New("openai.api_key is required")
	}

	return c, nil
}
