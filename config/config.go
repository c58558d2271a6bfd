package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AppConfig holds environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via env files or the environment.
type AppConfig struct {
	AppPort            string
	JWTSecret          string
	SiteName           string
	RateLimitPerMinute int
	AllowedOrigins     []string
	// Gin framework configuration
	GinMode string
	GinPath string
	// Admin gate
	AdminAccessCode     string
	AdminAccessCodeHash string
	AdminTokenTTLHours  int
	// Storage backend for the post collection
	StorageDriver     string
	StorageKey        string
	SQLitePath        string
	PersistTimeoutSec int
	// MySQL
	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	// Redis
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	// Mongo
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
	// S3 compatible object storage
	S3Bucket          string
	S3Prefix          string
	S3Region          string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	// Snapshot backups
	BackupEnabled  bool
	BackupSchedule string
	BackupDriver   string
	BackupPrefix   string
	// Share links
	ShareBaseURL string
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
}

var cfg AppConfig
var loaded bool

// DefaultPath is where Load looks for the YAML file.
var DefaultPath = filepath.Join("config", "config.yaml")

// Load loads the application configuration. It should be called once during boot.
func Load() AppConfig {
	if loaded {
		return cfg
	}
	c, err := LoadFrom(DefaultPath)
	if err != nil {
		log.Fatal(err)
	}
	cfg = c
	loaded = true
	return cfg
}

// LoadFrom builds a configuration without caching it.
// Precedence: .env -> yaml file -> defaults -> environment variable overrides.
func LoadFrom(path string) (AppConfig, error) {
	// .env only fills variables that are not already set.
	_ = godotenv.Load()

	var c AppConfig
	if err := loadYAMLConfig(path, &c); err != nil {
		return c, fmt.Errorf("read %s: %w", path, err)
	}
	applyDefaults(&c)
	if err := applyEnvOverrides(&c); err != nil {
		return c, err
	}
	if c.JWTSecret == "" {
		return c, errors.New("JWT_SECRET must be set in environment variables")
	}
	return c, nil
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

type fileConfig struct {
	App struct {
		Port               string   `yaml:"port"`
		JWTSecret          string   `yaml:"jwt_secret"`
		SiteName           string   `yaml:"site_name"`
		RateLimitPerMinute int      `yaml:"rate_limit_per_minute"`
		AllowedOrigins     []string `yaml:"allowed_origins"`
	} `yaml:"app"`
	Log struct {
		Level      string `yaml:"level"`
		Path       string `yaml:"path"`
		GinMode    string `yaml:"gin_mode"`
		GinPath    string `yaml:"gin_path"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
		Compress   bool   `yaml:"compress"`
	} `yaml:"log"`
	Admin struct {
		AccessCode     string `yaml:"access_code"`
		AccessCodeHash string `yaml:"access_code_hash"`
		TokenTTLHours  int    `yaml:"token_ttl_hours"`
	} `yaml:"admin"`
	Storage struct {
		Driver            string `yaml:"driver"`
		Key               string `yaml:"key"`
		SQLitePath        string `yaml:"sqlite_path"`
		PersistTimeoutSec int    `yaml:"persist_timeout_sec"`
	} `yaml:"storage"`
	MySQL struct {
		URI      string `yaml:"uri"`
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
	} `yaml:"mysql"`
	Redis struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		DB       int    `yaml:"db"`
		Password string `yaml:"password"`
	} `yaml:"redis"`
	Mongo struct {
		URI        string `yaml:"uri"`
		Database   string `yaml:"database"`
		Collection string `yaml:"collection"`
	} `yaml:"mongo"`
	S3 struct {
		Bucket          string `yaml:"bucket"`
		Prefix          string `yaml:"prefix"`
		Region          string `yaml:"region"`
		Endpoint        string `yaml:"endpoint"`
		AccessKeyID     string `yaml:"access_key_id"`
		SecretAccessKey string `yaml:"secret_access_key"`
	} `yaml:"s3"`
	Backup struct {
		Enabled  bool   `yaml:"enabled"`
		Schedule string `yaml:"schedule"`
		Driver   string `yaml:"driver"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"backup"`
	Share struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"share"`
}

// loadYAMLConfig reads the grouped YAML file into out if present. Returns error only for invalid YAML.
func loadYAMLConfig(path string, out *AppConfig) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil // silently ignore missing file
	}
	var f fileConfig
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return err
	}

	out.AppPort = f.App.Port
	out.JWTSecret = f.App.JWTSecret
	out.SiteName = f.App.SiteName
	out.RateLimitPerMinute = f.App.RateLimitPerMinute
	out.AllowedOrigins = f.App.AllowedOrigins

	out.LogLevel = f.Log.Level
	out.LogPath = f.Log.Path
	out.GinMode = f.Log.GinMode
	out.GinPath = f.Log.GinPath
	out.LogMaxSizeMB = f.Log.MaxSizeMB
	out.LogMaxBackups = f.Log.MaxBackups
	out.LogMaxAgeDays = f.Log.MaxAgeDays
	out.LogCompress = f.Log.Compress

	out.AdminAccessCode = f.Admin.AccessCode
	out.AdminAccessCodeHash = f.Admin.AccessCodeHash
	out.AdminTokenTTLHours = f.Admin.TokenTTLHours

	out.StorageDriver = f.Storage.Driver
	out.StorageKey = f.Storage.Key
	out.SQLitePath = f.Storage.SQLitePath
	out.PersistTimeoutSec = f.Storage.PersistTimeoutSec

	out.DatabaseURI = f.MySQL.URI
	out.DBHost = f.MySQL.Host
	out.DBPort = f.MySQL.Port
	out.DBUser = f.MySQL.User
	out.DBPassword = f.MySQL.Password
	out.DBName = f.MySQL.Name

	out.RedisHost = f.Redis.Host
	out.RedisPort = f.Redis.Port
	out.RedisDB = f.Redis.DB
	out.RedisPassword = f.Redis.Password

	out.MongoURI = f.Mongo.URI
	out.MongoDatabase = f.Mongo.Database
	out.MongoCollection = f.Mongo.Collection

	out.S3Bucket = f.S3.Bucket
	out.S3Prefix = f.S3.Prefix
	out.S3Region = f.S3.Region
	out.S3Endpoint = f.S3.Endpoint
	out.S3AccessKeyID = f.S3.AccessKeyID
	out.S3SecretAccessKey = f.S3.SecretAccessKey

	out.BackupEnabled = f.Backup.Enabled
	out.BackupSchedule = f.Backup.Schedule
	out.BackupDriver = f.Backup.Driver
	out.BackupPrefix = f.Backup.Prefix

	out.ShareBaseURL = f.Share.BaseURL
	return nil
}

// applyDefaults sets sane defaults for zero-value fields.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if c.SiteName == "" {
		c.SiteName = "Live+"
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/go_gin.log"
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 60
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.AdminAccessCode == "" && c.AdminAccessCodeHash == "" {
		c.AdminAccessCode = "Live47056453"
	}
	if c.AdminTokenTTLHours == 0 {
		c.AdminTokenTTLHours = 12
	}
	if c.StorageDriver == "" {
		c.StorageDriver = "sqlite"
	}
	if c.StorageKey == "" {
		c.StorageKey = "live_plus_posts_v3"
	}
	if c.SQLitePath == "" {
		c.SQLitePath = "data/liveplus.db"
	}
	if c.PersistTimeoutSec == 0 {
		c.PersistTimeoutSec = 5
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBPort == "" {
		c.DBPort = "3306"
	}
	if c.DBUser == "" {
		c.DBUser = "root"
	}
	if c.DBName == "" {
		c.DBName = "liveplus"
	}
	if c.RedisHost == "" {
		c.RedisHost = "127.0.0.1"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.MongoURI == "" {
		c.MongoURI = "mongodb://127.0.0.1:27017"
	}
	if c.MongoDatabase == "" {
		c.MongoDatabase = "liveplus"
	}
	if c.MongoCollection == "" {
		c.MongoCollection = "kv_entries"
	}
	if c.S3Region == "" {
		c.S3Region = "auto"
	}
	if c.BackupSchedule == "" {
		c.BackupSchedule = "@every 24h"
	}
	if c.BackupDriver == "" {
		c.BackupDriver = c.StorageDriver
	}
	if c.BackupPrefix == "" {
		c.BackupPrefix = "backups/"
	}
	if c.ShareBaseURL == "" {
		c.ShareBaseURL = "http://localhost:" + c.AppPort
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
}

// applyEnvOverrides maps known environment variables onto config values when present.
func applyEnvOverrides(c *AppConfig) error {
	strs := []struct {
		env string
		dst *string
	}{
		{"APP_PORT", &c.AppPort},
		{"JWT_SECRET", &c.JWTSecret},
		{"SITE_NAME", &c.SiteName},
		{"GIN_MODE", &c.GinMode},
		{"GIN_PATH", &c.GinPath},
		{"ADMIN_ACCESS_CODE", &c.AdminAccessCode},
		{"ADMIN_ACCESS_CODE_HASH", &c.AdminAccessCodeHash},
		{"STORAGE_DRIVER", &c.StorageDriver},
		{"STORAGE_KEY", &c.StorageKey},
		{"SQLITE_PATH", &c.SQLitePath},
		{"DATABASE_URI", &c.DatabaseURI},
		{"DB_HOST", &c.DBHost},
		{"DB_PORT", &c.DBPort},
		{"DB_USER", &c.DBUser},
		{"DB_PASSWORD", &c.DBPassword},
		{"DB_NAME", &c.DBName},
		{"REDIS_HOST", &c.RedisHost},
		{"REDIS_PASSWORD", &c.RedisPassword},
		{"MONGO_URI", &c.MongoURI},
		{"MONGO_DATABASE", &c.MongoDatabase},
		{"MONGO_COLLECTION", &c.MongoCollection},
		{"S3_BUCKET", &c.S3Bucket},
		{"S3_PREFIX", &c.S3Prefix},
		{"S3_REGION", &c.S3Region},
		{"S3_ENDPOINT", &c.S3Endpoint},
		{"S3_ACCESS_KEY_ID", &c.S3AccessKeyID},
		{"S3_SECRET_ACCESS_KEY", &c.S3SecretAccessKey},
		{"BACKUP_SCHEDULE", &c.BackupSchedule},
		{"BACKUP_DRIVER", &c.BackupDriver},
		{"BACKUP_PREFIX", &c.BackupPrefix},
		{"SHARE_BASE_URL", &c.ShareBaseURL},
		{"LOG_LEVEL", &c.LogLevel},
		{"LOG_PATH", &c.LogPath},
	}
	for _, s := range strs {
		if v := getEnv(s.env, ""); v != "" {
			*s.dst = v
		}
	}

	ints := []struct {
		env string
		dst *int
	}{
		{"RATE_LIMIT_PER_MINUTE", &c.RateLimitPerMinute},
		{"ADMIN_TOKEN_TTL_HOURS", &c.AdminTokenTTLHours},
		{"PERSIST_TIMEOUT_SEC", &c.PersistTimeoutSec},
		{"REDIS_PORT", &c.RedisPort},
		{"REDIS_DB", &c.RedisDB},
		{"LOG_MAX_SIZE_MB", &c.LogMaxSizeMB},
		{"LOG_MAX_BACKUPS", &c.LogMaxBackups},
		{"LOG_MAX_AGE_DAYS", &c.LogMaxAgeDays},
	}
	for _, i := range ints {
		if v := getEnv(i.env, ""); v != "" {
			n, err := parseInt(i.env, v)
			if err != nil {
				return err
			}
			*i.dst = n
		}
	}

	if v := getEnv("BACKUP_ENABLED", ""); v != "" {
		c.BackupEnabled = v == "true"
	}
	if v := getEnv("LOG_COMPRESS", ""); v != "" {
		c.LogCompress = v == "true"
	}
	if v := getEnv("CORS_ALLOWED_ORIGINS", ""); v != "" {
		c.AllowedOrigins = readListEnv("CORS_ALLOWED_ORIGINS", c.AllowedOrigins)
	}
	return nil
}

func parseInt(key, val string) (int, error) {
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value %s for %s: %w", val, key, err)
	}
	return i, nil
}

func readListEnv(key string, defaults []string) []string {
	if raw := os.Getenv(key); raw != "" {
		return splitAndTrim(raw)
	}
	return defaults
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
