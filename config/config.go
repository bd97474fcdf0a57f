package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort       string `mapstructure:"APP_PORT"`
	Env           string `mapstructure:"ENV"`
	LogLevel      string `mapstructure:"LOG_LEVEL"`
	PublicBaseURL string `mapstructure:"PUBLIC_BASE_URL"`
	BusinessName  string `mapstructure:"BUSINESS_NAME"`
	TimeZone      string `mapstructure:"TIMEZONE"`

	// Booking rules.
	BookingDuration time.Duration `mapstructure:"BOOKING_DURATION"`
	SearchStep      time.Duration `mapstructure:"SEARCH_STEP"`
	SearchMaxProbes int           `mapstructure:"SEARCH_MAX_PROBES"`
	SessionTimeout  time.Duration `mapstructure:"SESSION_TIMEOUT"`

	// Gemini (NLU).
	GeminiAPIKey string        `mapstructure:"GEMINI_API_KEY"`
	GeminiModel  string        `mapstructure:"GEMINI_MODEL"`
	NLUTimeout   time.Duration `mapstructure:"NLU_TIMEOUT"`

	// Google Speech-to-Text and Calendar credentials.
	GoogleServiceAccountFile string `mapstructure:"GOOGLE_SERVICE_ACCOUNT_FILE"`
	STTLanguage              string `mapstructure:"STT_LANGUAGE"`

	// ElevenLabs (speech synthesis).
	ElevenLabsAPIKey  string `mapstructure:"ELEVENLABS_API_KEY"`
	ElevenLabsVoiceID string `mapstructure:"ELEVENLABS_VOICE_ID"`

	// Twilio.
	TwilioAccountSID        string `mapstructure:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken         string `mapstructure:"TWILIO_AUTH_TOKEN"`
	ValidateTwilioSignature bool   `mapstructure:"VALIDATE_TWILIO_SIGNATURE"`
	RecordingFetchAttempts  int    `mapstructure:"RECORDING_FETCH_ATTEMPTS"`
	RecordMaxLength         int    `mapstructure:"RECORD_MAX_LENGTH"`
	TwilioFromNumber        string `mapstructure:"TWILIO_FROM_NUMBER"`
	SMSConfirmations        bool   `mapstructure:"SMS_CONFIRMATIONS"`

	// SMS follow-ups run on an asynq queue in Redis.
	RedisQueueDB    int           `mapstructure:"REDIS_QUEUE_DB"`
	SMSReminderLead time.Duration `mapstructure:"SMS_REMINDER_LEAD"`

	// Calendar of record.
	CalendarBackend  string        `mapstructure:"CALENDAR_BACKEND"`
	DatabaseURL      string        `mapstructure:"DATABASE_URL"`
	DatabaseName     string        `mapstructure:"DATABASE_NAME"`
	GoogleCalendarID string        `mapstructure:"GOOGLE_CALENDAR_ID"`
	CalendarTimeout  time.Duration `mapstructure:"CALENDAR_TIMEOUT"`

	// Synthesized audio hosting.
	AudioStore          string        `mapstructure:"AUDIO_STORE"`
	AudioTTL            time.Duration `mapstructure:"AUDIO_TTL"`
	RedisAddr           string        `mapstructure:"REDIS_ADDR"`
	RedisPassword       string        `mapstructure:"REDIS_PASSWORD"`
	RedisAudioDB        int           `mapstructure:"REDIS_AUDIO_DB"`
	CloudinaryCloudName string        `mapstructure:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string        `mapstructure:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string        `mapstructure:"CLOUDINARY_API_SECRET"`
	CloudinaryFolder    string        `mapstructure:"CLOUDINARY_FOLDER"`
	FallbackAudioPath   string        `mapstructure:"FALLBACK_AUDIO_PATH"`

	HTTPClientTimeout time.Duration `mapstructure:"HTTP_CLIENT_TIMEOUT"`
}

var AppConfig Config

func setDefaults() {
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")
	viper.SetDefault("BUSINESS_NAME", "Fresh Fade Barbershop")
	viper.SetDefault("TIMEZONE", "America/New_York")

	viper.SetDefault("BOOKING_DURATION", "30m")
	viper.SetDefault("SEARCH_STEP", "30m")
	viper.SetDefault("SEARCH_MAX_PROBES", 8)
	viper.SetDefault("SESSION_TIMEOUT", "30m")

	viper.SetDefault("GEMINI_API_KEY", "")
	viper.SetDefault("GEMINI_MODEL", "models/gemini-1.5-flash")
	viper.SetDefault("NLU_TIMEOUT", "10s")

	viper.SetDefault("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	viper.SetDefault("STT_LANGUAGE", "en-US")

	viper.SetDefault("ELEVENLABS_API_KEY", "")
	viper.SetDefault("ELEVENLABS_VOICE_ID", "EXAVITQu4vr4xnSDxMaL")

	viper.SetDefault("TWILIO_ACCOUNT_SID", "")
	viper.SetDefault("TWILIO_AUTH_TOKEN", "")
	viper.SetDefault("VALIDATE_TWILIO_SIGNATURE", false)
	viper.SetDefault("RECORDING_FETCH_ATTEMPTS", 3)
	viper.SetDefault("RECORD_MAX_LENGTH", 30)
	viper.SetDefault("TWILIO_FROM_NUMBER", "")
	viper.SetDefault("SMS_CONFIRMATIONS", false)
	viper.SetDefault("REDIS_QUEUE_DB", 1)
	viper.SetDefault("SMS_REMINDER_LEAD", "2h")

	viper.SetDefault("CALENDAR_BACKEND", "mongo")
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "freshfade")
	viper.SetDefault("GOOGLE_CALENDAR_ID", "primary")
	viper.SetDefault("CALENDAR_TIMEOUT", "5s")

	viper.SetDefault("AUDIO_STORE", "redis")
	viper.SetDefault("AUDIO_TTL", "1h")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_AUDIO_DB", 0)
	viper.SetDefault("CLOUDINARY_CLOUD_NAME", "")
	viper.SetDefault("CLOUDINARY_API_KEY", "")
	viper.SetDefault("CLOUDINARY_API_SECRET", "")
	viper.SetDefault("CLOUDINARY_FOLDER", "receptionist")
	viper.SetDefault("FALLBACK_AUDIO_PATH", "") // e.g. /static/sorry.mp3; empty speaks the reply with <Say>

	viper.SetDefault("HTTP_CLIENT_TIMEOUT", "15s")
}

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	setDefaults()

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

// Location returns the business timezone, falling back to UTC when TIMEZONE is invalid.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// FallbackAudioURL is the absolute URL of the static clip played when synthesis fails.
// It is empty when no clip is configured.
func (c Config) FallbackAudioURL() string {
	if strings.TrimSpace(c.FallbackAudioPath) == "" {
		return ""
	}
	return c.PublicBaseURL + c.FallbackAudioPath
}
