package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort string `mapstructure:"APP_PORT"`
	Env     string `mapstructure:"ENV"`

	// MongoDB configuration.
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// Redis configuration.
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisSessionDB int    `mapstructure:"REDIS_SESSION_DB"`
	RedisQueueDB   int    `mapstructure:"REDIS_QUEUE_DB"`

	// LINE Messaging API credentials.
	LineChannelAccessToken string `mapstructure:"LINE_CHANNEL_ACCESS_TOKEN"`
	LineChannelSecret      string `mapstructure:"LINE_CHANNEL_SECRET"`

	// Business rules. All scheduling math is evaluated in BusinessTimezone.
	BusinessTimezone string `mapstructure:"BUSINESS_TIMEZONE"`
	OpenHour         int    `mapstructure:"BUSINESS_HOURS_START"`
	CloseHour        int    `mapstructure:"BUSINESS_HOURS_END"`
	ClosedWeekday    int    `mapstructure:"CLOSED_WEEKDAY"`
	ReminderHour     int    `mapstructure:"REMINDER_HOUR"`
	SlotCapacity     int    `mapstructure:"SLOT_CAPACITY"`
	SlotDaysAhead    int    `mapstructure:"SLOT_DAYS_AHEAD"`
	SessionTTLMin    int    `mapstructure:"SESSION_TTL_MINUTES"`

	MaxRequestsPerMin int `mapstructure:"MAX_REQUESTS_PER_MIN"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "yoyaku")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_SESSION_DB", 0)
	viper.SetDefault("REDIS_QUEUE_DB", 1)
	viper.SetDefault("LINE_CHANNEL_ACCESS_TOKEN", "")
	viper.SetDefault("LINE_CHANNEL_SECRET", "")
	viper.SetDefault("BUSINESS_TIMEZONE", "Asia/Tokyo")
	viper.SetDefault("BUSINESS_HOURS_START", 11)
	viper.SetDefault("BUSINESS_HOURS_END", 22)
	viper.SetDefault("CLOSED_WEEKDAY", 2) // Tuesday
	viper.SetDefault("REMINDER_HOUR", 10)
	viper.SetDefault("SLOT_CAPACITY", 4)
	viper.SetDefault("SLOT_DAYS_AHEAD", 30)
	viper.SetDefault("SESSION_TTL_MINUTES", 30)
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
