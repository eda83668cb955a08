package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database     DatabaseConfig
	Redis        RedisConfig
	CORS         CORSConfig
	Log          LogConfig
	Campus       CampusConfig
	Eligibility  EligibilityConfig
	Seeder       SeederConfig
	CourseEvents CourseEventsConfig
	Audits       AuditsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CampusConfig describes the timetable clock used to expand course occurrences.
type CampusConfig struct {
	UTCOffsetHours int
	ZoneName       string
}

// EligibilityConfig tunes the activity participation cap.
type EligibilityConfig struct {
	AnnualCap     int
	Window        time.Duration
	EligibleLimit int
}

// SeederConfig holds defaults for bulk enrollment seeding.
type SeederConfig struct {
	RandomMin    int
	RandomMax    int
	SkipExisting bool
	RandomSeed   int64
}

// CourseEventsConfig governs caching of expanded course occurrences.
type CourseEventsConfig struct {
	CacheTTL time.Duration
}

// AuditsConfig configures asynchronous conflict audit exports.
type AuditsConfig struct {
	ExportsEnabled    bool
	StorageDir        string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	CleanupInterval   time.Duration
	WorkerConcurrency int
	WorkerRetries     int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("ENABLE_REDIS"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Campus = CampusConfig{
		UTCOffsetHours: v.GetInt("CAMPUS_UTC_OFFSET_HOURS"),
		ZoneName:       v.GetString("CAMPUS_ZONE_NAME"),
	}

	cfg.Eligibility = EligibilityConfig{
		AnnualCap:     v.GetInt("ELIGIBILITY_ANNUAL_CAP"),
		Window:        parseDuration(v.GetString("ELIGIBILITY_WINDOW"), 365*24*time.Hour),
		EligibleLimit: v.GetInt("ELIGIBILITY_LIST_LIMIT"),
	}

	cfg.Seeder = SeederConfig{
		RandomMin:    v.GetInt("SEED_RANDOM_MIN"),
		RandomMax:    v.GetInt("SEED_RANDOM_MAX"),
		SkipExisting: v.GetBool("SEED_SKIP_EXISTING"),
		RandomSeed:   v.GetInt64("SEED_RANDOM_SEED"),
	}

	cfg.CourseEvents = CourseEventsConfig{
		CacheTTL: parseDuration(v.GetString("COURSE_EVENTS_CACHE_TTL"), 15*time.Minute),
	}

	cfg.Audits = AuditsConfig{
		ExportsEnabled:    v.GetBool("ENABLE_AUDIT_EXPORTS"),
		StorageDir:        v.GetString("AUDITS_STORAGE_DIR"),
		SignedURLSecret:   v.GetString("AUDITS_SIGNED_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("AUDITS_SIGNED_URL_TTL"), 24*time.Hour),
		CleanupInterval:   parseDuration(v.GetString("AUDITS_CLEANUP_INTERVAL"), time.Hour),
		WorkerConcurrency: v.GetInt("AUDITS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("AUDITS_WORKER_RETRIES"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "activitypass")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("ENABLE_REDIS", true)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("CAMPUS_UTC_OFFSET_HOURS", 8)
	v.SetDefault("CAMPUS_ZONE_NAME", "CST")

	v.SetDefault("ELIGIBILITY_ANNUAL_CAP", 7)
	v.SetDefault("ELIGIBILITY_WINDOW", "8760h")
	v.SetDefault("ELIGIBILITY_LIST_LIMIT", 20)

	v.SetDefault("SEED_RANDOM_MIN", 5)
	v.SetDefault("SEED_RANDOM_MAX", 10)
	v.SetDefault("SEED_SKIP_EXISTING", true)
	v.SetDefault("SEED_RANDOM_SEED", 0)

	v.SetDefault("COURSE_EVENTS_CACHE_TTL", "15m")

	v.SetDefault("ENABLE_AUDIT_EXPORTS", false)
	v.SetDefault("AUDITS_STORAGE_DIR", "./exports")
	v.SetDefault("AUDITS_SIGNED_URL_SECRET", "dev_audits_secret")
	v.SetDefault("AUDITS_SIGNED_URL_TTL", "24h")
	v.SetDefault("AUDITS_CLEANUP_INTERVAL", "1h")
	v.SetDefault("AUDITS_WORKER_CONCURRENCY", 1)
	v.SetDefault("AUDITS_WORKER_RETRIES", 3)
}

// Location returns the fixed campus zone used for timetable clocks.
func (c CampusConfig) Location() *time.Location {
	name := c.ZoneName
	if name == "" {
		name = "CST"
	}
	return time.FixedZone(name, c.UTCOffsetHours*3600)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
