package config

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	units "github.com/docker/go-units"
	ce "github.com/file-drop/file-drop-backend/pkg/errors"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const DefaultAppName = "file-drop"

type Configuration struct {
	Server     Server
	Database   Database
	Logging    Logging
	Loaded     bool
	Uploads    Uploads
	Cloudwatch Cloudwatch
	Metrics    Metrics
	Clients    Clients `mapstructure:"clients"`
	Sentry     Sentry  `mapstructure:"sentry"`
}

type Server struct {
	Addr string
}

type Database struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	CACertPath        string `mapstructure:"ca_cert_path"`
	PoolLimit         int    `mapstructure:"pool_limit"`
	SlowQueryDuration time.Duration `mapstructure:"slow_query_duration"`
}

type Logging struct {
	Level   string
	Console bool
	Color   bool
}

type Uploads struct {
	// StoragePath is the root directory for finished artifacts.
	StoragePath string `mapstructure:"storage_path"`
	// StagingPath is the root directory for staged chunks of unfinished uploads.
	StagingPath string `mapstructure:"staging_path"`
	// ChunkSize is the client-side split size and the small/large cutoff,
	// human readable ("5MB"). The server only validates indices against it.
	ChunkSize string `mapstructure:"chunk_size"`
	// MaxRetries bounds the client's per-chunk retry loop.
	MaxRetries int `mapstructure:"max_retries"`
	// SessionMaxAge is how long an upload session may sit idle before the
	// background sweep reclaims it.
	SessionMaxAge time.Duration `mapstructure:"session_max_age"`
	// SweepInterval is the tick of the background sweeper.
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type Cloudwatch struct {
	Region  string
	Key     string
	Secret  string
	Session string
	Group   string
	Stream  string
}

type Clients struct {
	Redis Redis `mapstructure:"redis"`
}

type Redis struct {
	Host       string
	Port       int
	Username   string
	Password   string
	DB         int
	Expiration time.Duration
}

type Sentry struct {
	Dsn string
}

type Metrics struct {
	// Defines the path to the metrics server that the app should be configured to
	// listen on for metric traffic.
	Path string `mapstructure:"path"`

	// Defines the metrics port that the app should be configured to listen on for
	// metric traffic.
	Port int `mapstructure:"port"`
}

const (
	DefaultChunkSize     = "5MB"
	DefaultMaxRetries    = 3
	DefaultSessionMaxAge = 30 * time.Minute
	DefaultSweepInterval = 5 * time.Minute
)

var LoadedConfig Configuration

func Get() *Configuration {
	if !LoadedConfig.Loaded {
		Load()
	}
	return &LoadedConfig
}

func RedisUrl() string {
	return fmt.Sprintf("%s:%d", Get().Clients.Redis.Host, Get().Clients.Redis.Port)
}

// ChunkSizeBytes parses the configured human-readable chunk size.
func (u Uploads) ChunkSizeBytes() int64 {
	size, err := units.RAMInBytes(u.ChunkSize)
	if err != nil || size <= 0 {
		fallback, _ := units.RAMInBytes(DefaultChunkSize)
		log.Warn().Msgf("invalid uploads.chunk_size %q, using %s", u.ChunkSize, DefaultChunkSize)
		return fallback
	}
	return size
}

func readConfigFile(v *viper.Viper) {
	v.SetConfigName("config.yaml")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs/")
	v.AddConfigPath("../../configs/")
	v.AddConfigPath("../../../configs")

	if path, ok := os.LookupEnv("CONFIG_PATH"); ok {
		v.AddConfigPath(path)
	}
	err := v.ReadInConfig()
	if err != nil {
		log.Logger.Warn().Msgf("config.yaml file not loaded: %s", err.Error())
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("Loaded", true)
	// In viper you have to set defaults, otherwise loading from ENV doesn't work
	//   without a config file present
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", "")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "")
	v.SetDefault("database.pool_limit", 20)
	v.SetDefault("database.slow_query_duration", 2*time.Second)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", false)
	v.SetDefault("logging.color", false)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.port", 9000)

	v.SetDefault("uploads.storage_path", "./data/files")
	v.SetDefault("uploads.staging_path", "./data/staging")
	v.SetDefault("uploads.chunk_size", DefaultChunkSize)
	v.SetDefault("uploads.max_retries", DefaultMaxRetries)
	v.SetDefault("uploads.session_max_age", DefaultSessionMaxAge)
	v.SetDefault("uploads.sweep_interval", DefaultSweepInterval)

	v.SetDefault("cloudwatch.region", "")
	v.SetDefault("cloudwatch.group", "")
	v.SetDefault("cloudwatch.stream", DefaultLogwatchStream())
	v.SetDefault("cloudwatch.session", "")
	v.SetDefault("cloudwatch.secret", "")
	v.SetDefault("cloudwatch.key", "")

	v.SetDefault("clients.redis.host", "")
	v.SetDefault("clients.redis.port", "")
	v.SetDefault("clients.redis.username", "")
	v.SetDefault("clients.redis.password", "")
	v.SetDefault("clients.redis.db", 0)
	v.SetDefault("clients.redis.expiration", 1*time.Minute)

	v.SetDefault("sentry.dsn", "")
}

func Load() {
	v := viper.New()

	readConfigFile(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	err := v.Unmarshal(&LoadedConfig)
	if err != nil {
		panic(err)
	}

	if LoadedConfig.Clients.Redis.Host == "" {
		log.Warn().Msg("Caching is disabled.")
	}
}

func ProgramString() string {
	return strings.Join(os.Args, " ")
}

func CustomHTTPErrorHandler(err error, c echo.Context) {
	var code int
	var message ce.ErrorResponse

	if c.Response().Committed {
		c.Logger().Error(err)
		return
	}

	if errResp, ok := err.(ce.ErrorResponse); ok {
		code = ce.GetGeneralResponseCode(errResp)
		message = errResp
	} else if he, ok := err.(*echo.HTTPError); ok {
		errResp := ce.NewErrorResponseFromEchoError(he)
		code = errResp.Errors[0].Status
		message = errResp
	} else {
		code = http.StatusInternalServerError
		message = ce.NewErrorResponse(code, "", http.StatusText(http.StatusInternalServerError))
	}

	// Send response
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, message)
	}
	if err != nil {
		log.Logger.Error().Err(err)
	}
}
