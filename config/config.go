package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
	PublicOrigin      string `mapstructure:"PUBLIC_ORIGIN"`
	CORSOrigins       string `mapstructure:"CORS_ORIGINS"`
	CSRFKey           string `mapstructure:"CSRF_KEY"`

	// Runtime config document that carries backend_url.
	RuntimeConfigURL     string `mapstructure:"RUNTIME_CONFIG_URL"`
	RuntimeConfigRetries int    `mapstructure:"RUNTIME_CONFIG_RETRIES"`
	APITimeoutSeconds    int    `mapstructure:"API_TIMEOUT_SECONDS"`

	// Session configuration.
	SessionStore    string `mapstructure:"SESSION_STORE"`
	SessionCookie   string `mapstructure:"SESSION_COOKIE"`
	SessionTTLHours int    `mapstructure:"SESSION_TTL_HOURS"`
	CookieSecure    bool   `mapstructure:"COOKIE_SECURE"`

	// Redis configuration.
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisSessionDB int    `mapstructure:"REDIS_SESSION_DB"`

	// Queue screens.
	QueuePollMS     int    `mapstructure:"QUEUE_POLL_MS"`
	QueueAnnounceMS int    `mapstructure:"QUEUE_ANNOUNCE_MS"`
	QueueFeedToken  string `mapstructure:"QUEUE_FEED_TOKEN"`
	QueueJoinName   string `mapstructure:"QUEUE_JOIN_NAME"`
	SoundPath       string `mapstructure:"SOUND_PATH"`
	// SoundFile is served at SoundPath when set and present on disk.
	SoundFile       string `mapstructure:"SOUND_FILE"`

	// Media uploads.
	MediaStorage        string `mapstructure:"MEDIA_STORAGE"`
	CloudinaryCloudName string `mapstructure:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `mapstructure:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `mapstructure:"CLOUDINARY_API_SECRET"`
	CloudinaryFolder    string `mapstructure:"CLOUDINARY_FOLDER"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	SetDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	v.SetDefault("PUBLIC_ORIGIN", "")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("CSRF_KEY", "")

	v.SetDefault("RUNTIME_CONFIG_URL", "http://localhost:3000/config.json")
	v.SetDefault("RUNTIME_CONFIG_RETRIES", 5)
	v.SetDefault("API_TIMEOUT_SECONDS", 15)

	v.SetDefault("SESSION_STORE", "memory")
	v.SetDefault("SESSION_COOKIE", "clinic_session")
	v.SetDefault("SESSION_TTL_HOURS", 12)
	v.SetDefault("COOKIE_SECURE", false)

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_SESSION_DB", 0)

	v.SetDefault("QUEUE_POLL_MS", 3000)
	v.SetDefault("QUEUE_ANNOUNCE_MS", 4000)
	v.SetDefault("QUEUE_FEED_TOKEN", "")
	v.SetDefault("QUEUE_JOIN_NAME", "Guest")
	v.SetDefault("SOUND_PATH", "/callnext.mp3")
	v.SetDefault("SOUND_FILE", "")

	v.SetDefault("MEDIA_STORAGE", "passthrough")
	v.SetDefault("CLOUDINARY_CLOUD_NAME", "")
	v.SetDefault("CLOUDINARY_API_KEY", "")
	v.SetDefault("CLOUDINARY_API_SECRET", "")
	v.SetDefault("CLOUDINARY_FOLDER", "clinic")
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// PollInterval is the refresh period shared by the queue dashboard and display.
func (c Config) PollInterval() time.Duration {
	if c.QueuePollMS <= 0 {
		return 3 * time.Second
	}
	return time.Duration(c.QueuePollMS) * time.Millisecond
}

// AnnounceDuration is how long the "now serving" overlay stays up.
func (c Config) AnnounceDuration() time.Duration {
	if c.QueueAnnounceMS <= 0 {
		return 4 * time.Second
	}
	return time.Duration(c.QueueAnnounceMS) * time.Millisecond
}

func (c Config) APITimeout() time.Duration {
	if c.APITimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.APITimeoutSeconds) * time.Second
}

func (c Config) SessionTTL() time.Duration {
	if c.SessionTTLHours <= 0 {
		return 12 * time.Hour
	}
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// AllowedOrigins splits CORS_ORIGINS on commas.
func (c Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
