package config

import (
	"fmt"
	"starforge-server/internal/shared/utils"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Redis     RedisConfig
	Session   SessionConfig
	Frontend  FrontendConfig
	Logging   LoggingConfig
	RateLimit RateLimitConfig
	Editor    EditorConfig
	Export    ExportConfig
}

type ServerConfig struct {
	Port         string
	URL          string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type StoreConfig struct {
	Path           string
	MigrationsPath string
	MaxOpenConns   int
}

type RedisConfig struct {
	Enabled  bool
	URL      string
	Host     string
	Port     string
	Password string
	DB       int
}

type SessionConfig struct {
	JWTSecret       string
	TokenExpiration time.Duration
	CookieSecure    bool
	CookieSameSite  string
}

type FrontendConfig struct {
	URL       string
	CORSDebug bool
}

type LoggingConfig struct {
	Level      string
	Format     string
	JSONFormat bool
}

type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	BurstSize         int
}

// EditorConfig carries the scenario limits enforced by the graph model.
type EditorConfig struct {
	MaxStars         int
	MaxBodiesPerStar int
	CanvasWidth      float64
	CanvasHeight     float64
}

// ExportConfig carries the fixed parameters of the mod package pipeline.
type ExportConfig struct {
	PictureWidth         int
	PictureHeight        int
	CompatibilityVersion int
}

var GlobalConfig *Config

func Init() error {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using system environment variables")
	}

	config, err := load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := config.validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	GlobalConfig = config
	return nil
}

func load() (*Config, error) {
	config := &Config{
		Server:    loadServerConfig(),
		Store:     loadStoreConfig(),
		Redis:     loadRedisConfig(),
		Session:   loadSessionConfig(),
		Frontend:  loadFrontendConfig(),
		Logging:   loadLoggingConfig(),
		RateLimit: loadRateLimitConfig(),
		Editor:    loadEditorConfig(),
		Export:    loadExportConfig(),
	}

	return config, nil
}

func loadServerConfig() ServerConfig {
	readTimeout, _ := strconv.Atoi(utils.GetEnv("SERVER_READ_TIMEOUT_SECONDS", "15"))
	writeTimeout, _ := strconv.Atoi(utils.GetEnv("SERVER_WRITE_TIMEOUT_SECONDS", "60"))
	idleTimeout, _ := strconv.Atoi(utils.GetEnv("SERVER_IDLE_TIMEOUT_SECONDS", "60"))

	return ServerConfig{
		Port:         utils.GetEnv("SERVER_PORT", "8080"),
		URL:          utils.GetEnv("SERVER_URL", "http://localhost:8080"),
		Environment:  utils.GetEnv("ENVIRONMENT", "development"),
		ReadTimeout:  time.Duration(readTimeout) * time.Second,
		WriteTimeout: time.Duration(writeTimeout) * time.Second,
		IdleTimeout:  time.Duration(idleTimeout) * time.Second,
	}
}

func loadStoreConfig() StoreConfig {
	maxOpenConns, _ := strconv.Atoi(utils.GetEnv("STORE_MAX_OPEN_CONNS", "4"))

	return StoreConfig{
		Path:           utils.GetEnv("STORE_PATH", "starforge.db"),
		MigrationsPath: utils.GetEnv("STORE_MIGRATIONS_PATH", "migrations"),
		MaxOpenConns:   maxOpenConns,
	}
}

func loadRedisConfig() RedisConfig {
	enabled := utils.GetEnv("REDIS_ENABLED", "false") == "true"
	redisURL := utils.GetEnv("REDIS_URL", "")

	db, _ := strconv.Atoi(utils.GetEnv("REDIS_DB", "0"))

	return RedisConfig{
		Enabled:  enabled,
		URL:      redisURL,
		Host:     utils.GetEnv("REDIS_HOST", "localhost"),
		Port:     utils.GetEnv("REDIS_PORT", "6379"),
		Password: utils.GetEnv("REDIS_PASSWORD", ""),
		DB:       db,
	}
}

func loadSessionConfig() SessionConfig {
	tokenExpiration, _ := strconv.Atoi(utils.GetEnv("SESSION_EXPIRATION_HOURS", "720"))

	environment := utils.GetEnv("ENVIRONMENT", "development")
	cookieSecure := environment == "production"

	return SessionConfig{
		JWTSecret:       utils.GetEnv("SESSION_JWT_SECRET", ""),
		TokenExpiration: time.Duration(tokenExpiration) * time.Hour,
		CookieSecure:    cookieSecure,
		CookieSameSite:  utils.GetEnv("COOKIE_SAME_SITE", "lax"),
	}
}

func loadFrontendConfig() FrontendConfig {
	corsDebug := utils.GetEnv("CORS_DEBUG", "") == "true"

	return FrontendConfig{
		URL:       utils.GetEnv("FRONTEND_URL", "http://localhost:3000"),
		CORSDebug: corsDebug,
	}
}

func loadLoggingConfig() LoggingConfig {
	environment := utils.GetEnv("ENVIRONMENT", "development")
	jsonFormat := environment == "production"

	return LoggingConfig{
		Level:      utils.GetEnv("LOG_LEVEL", "debug"),
		Format:     utils.GetEnv("LOG_FORMAT", "text"),
		JSONFormat: jsonFormat,
	}
}

func loadRateLimitConfig() RateLimitConfig {
	enabled := utils.GetEnv("RATE_LIMIT_ENABLED", "true") == "true"
	requestsPerSecond, _ := strconv.ParseFloat(utils.GetEnv("RATE_LIMIT_REQUESTS_PER_SECOND", "30"), 64)
	burstSize, _ := strconv.Atoi(utils.GetEnv("RATE_LIMIT_BURST_SIZE", "60"))

	return RateLimitConfig{
		Enabled:           enabled,
		RequestsPerSecond: requestsPerSecond,
		BurstSize:         burstSize,
	}
}

func loadEditorConfig() EditorConfig {
	maxStars, _ := strconv.Atoi(utils.GetEnv("EDITOR_MAX_STARS", "15"))
	maxBodies, _ := strconv.Atoi(utils.GetEnv("EDITOR_MAX_BODIES_PER_STAR", "100"))
	canvasWidth, _ := strconv.ParseFloat(utils.GetEnv("EDITOR_CANVAS_WIDTH", "12000"), 64)
	canvasHeight, _ := strconv.ParseFloat(utils.GetEnv("EDITOR_CANVAS_HEIGHT", "12000"), 64)

	return EditorConfig{
		MaxStars:         maxStars,
		MaxBodiesPerStar: maxBodies,
		CanvasWidth:      canvasWidth,
		CanvasHeight:     canvasHeight,
	}
}

func loadExportConfig() ExportConfig {
	pictureWidth, _ := strconv.Atoi(utils.GetEnv("EXPORT_PICTURE_WIDTH", "1200"))
	pictureHeight, _ := strconv.Atoi(utils.GetEnv("EXPORT_PICTURE_HEIGHT", "675"))
	compatibilityVersion, _ := strconv.Atoi(utils.GetEnv("EXPORT_COMPATIBILITY_VERSION", "2"))

	return ExportConfig{
		PictureWidth:         pictureWidth,
		PictureHeight:        pictureHeight,
		CompatibilityVersion: compatibilityVersion,
	}
}

func (c *Config) validate() error {
	if c.Session.JWTSecret == "" {
		return fmt.Errorf("SESSION_JWT_SECRET is required")
	}

	if len(c.Session.JWTSecret) < 32 {
		return fmt.Errorf("SESSION_JWT_SECRET must be at least 32 characters long")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Server.URL == "" {
		return fmt.Errorf("SERVER_URL is required")
	}

	if c.Store.Path == "" {
		return fmt.Errorf("STORE_PATH is required")
	}

	if c.Editor.MaxStars < 1 {
		return fmt.Errorf("EDITOR_MAX_STARS must be at least 1")
	}

	if c.Editor.MaxBodiesPerStar < 1 {
		return fmt.Errorf("EDITOR_MAX_BODIES_PER_STAR must be at least 1")
	}

	if c.Export.PictureWidth < 1 || c.Export.PictureHeight < 1 {
		return fmt.Errorf("export picture dimensions must be positive")
	}

	return nil
}
