package config

import (
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Port              string `mapstructure:"PORT"`
	DatabaseDriver    string `mapstructure:"DATABASE_DRIVER"`
	DatabaseDSN       string `mapstructure:"DATABASE_DSN"`
	ActivitiesPath    string `mapstructure:"ACTIVITIES_PATH"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	OAuthClientID     string `mapstructure:"OAUTH_CLIENT_ID"`
	OAuthClientSecret string `mapstructure:"OAUTH_CLIENT_SECRET"`
	OAuthAuthURL      string `mapstructure:"OAUTH_AUTH_URL"`
	OAuthTokenURL     string `mapstructure:"OAUTH_TOKEN_URL"`
	OAuthUserInfoURL  string `mapstructure:"OAUTH_USERINFO_URL"`
	OAuthRedirectURL  string `mapstructure:"OAUTH_REDIRECT_URL"`
	BrevoAPIKey       string `mapstructure:"BREVO_API_KEY"`
	SenderEmail       string `mapstructure:"SENDER_EMAIL"`
	SenderName        string `mapstructure:"SENDER_NAME"`
	OfficeEmail       string `mapstructure:"OFFICE_EMAIL"`
	PayPalClientID    string `mapstructure:"PAYPAL_CLIENT_ID"`
	Currency          string `mapstructure:"CURRENCY"`
	DiscordBotToken   string `mapstructure:"DISCORD_BOT_TOKEN"`
	DiscordChannelID  string `mapstructure:"DISCORD_CHANNEL_ID"`
	ReminderLeadDays  int    `mapstructure:"REMINDER_LEAD_DAYS"`
}

func LoadConfig() *Config {
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DATABASE_DRIVER", "sqlite")
	viper.SetDefault("DATABASE_DSN", "registration.db")
	viper.SetDefault("ACTIVITIES_PATH", "activities.yaml")
	viper.SetDefault("OAUTH_REDIRECT_URL", "http://127.0.0.1:8080/auth/callback")
	viper.SetDefault("SENDER_NAME", "Maplewood Arts")
	viper.SetDefault("CURRENCY", "USD")
	viper.SetDefault("REMINDER_LEAD_DAYS", 3)

	viper.BindEnv("DATABASE_DRIVER")
	viper.BindEnv("DATABASE_DSN")
	viper.BindEnv("ACTIVITIES_PATH")
	viper.BindEnv("JWT_SECRET")
	viper.BindEnv("OAUTH_CLIENT_ID")
	viper.BindEnv("OAUTH_CLIENT_SECRET")
	viper.BindEnv("OAUTH_AUTH_URL")
	viper.BindEnv("OAUTH_TOKEN_URL")
	viper.BindEnv("OAUTH_USERINFO_URL")
	viper.BindEnv("OAUTH_REDIRECT_URL")
	viper.BindEnv("BREVO_API_KEY")
	viper.BindEnv("SENDER_EMAIL")
	viper.BindEnv("SENDER_NAME")
	viper.BindEnv("OFFICE_EMAIL")
	viper.BindEnv("PAYPAL_CLIENT_ID")
	viper.BindEnv("CURRENCY")
	viper.BindEnv("DISCORD_BOT_TOKEN")
	viper.BindEnv("DISCORD_CHANNEL_ID")
	viper.BindEnv("REMINDER_LEAD_DAYS")

	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}

	return &config
}
