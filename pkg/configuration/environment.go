package configuration

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/iota-uz/presence/pkg/logging"

	"github.com/caarlos0/env/v11"
	"github.com/iota-uz/utils/fs"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const Production = "production"

var singleton = sync.OnceValue(func() *Configuration {
	c := &Configuration{}
	if err := c.load([]string{".env", ".env.local"}); err != nil {
		c.Unload()
		panic(err)
	}
	return c
})

func LoadEnv(envFiles []string) (int, error) {
	existingFiles := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if fs.FileExists(file) {
			existingFiles = append(existingFiles, file)
		}
	}

	if len(existingFiles) == 0 {
		return 0, nil
	}

	return len(existingFiles), godotenv.Load(existingFiles...)
}

type DatabaseOptions struct {
	Opts     string `env:"-"`
	Name     string `env:"DB_NAME" envDefault:"presence"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
}

func (d *DatabaseOptions) ConnectionString() string {
	return d.ConnectionStringFor(d.Name)
}

// ConnectionStringFor builds a DSN against another database on the same
// server, used by the test kit for throwaway databases.
func (d *DatabaseOptions) ConnectionStringFor(dbName string) string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		d.Host, d.Port, d.User, dbName, d.Password,
	)
}

// TrackerOptions configures the time-tracker upstream (productivity feed).
type TrackerOptions struct {
	BaseURL string        `env:"TRACKER_BASE_URL" envDefault:"https://api.tracker.local/v1"`
	APIKey  string        `env:"TRACKER_API_KEY"`
	Timeout time.Duration `env:"TRACKER_TIMEOUT" envDefault:"30s"`
}

// HRSystemOptions configures the HR system upstream (organizational data).
type HRSystemOptions struct {
	BaseURL  string        `env:"HR_BASE_URL" envDefault:"https://api.hr.local/v1"`
	APIKey   string        `env:"HR_API_KEY"`
	Timeout  time.Duration `env:"HR_TIMEOUT" envDefault:"30s"`
	PageSize int           `env:"HR_PAGE_SIZE" envDefault:"100"`
}

type SyncOptions struct {
	// Lateness under this threshold still counts as present.
	LateGrace time.Duration `env:"SYNC_LATE_GRACE" envDefault:"10m"`
	// Working day length, used for the half-day leave fraction.
	WorkingDay time.Duration `env:"SYNC_WORKING_DAY" envDefault:"8h"`
}

func (s *SyncOptions) Validate() error {
	if s.LateGrace < 0 {
		return fmt.Errorf("SYNC_LATE_GRACE must be non-negative, got %s", s.LateGrace)
	}
	if s.WorkingDay <= 0 {
		return fmt.Errorf("SYNC_WORKING_DAY must be positive, got %s", s.WorkingDay)
	}
	return nil
}

type PrometheusOptions struct {
	Enabled bool   `env:"PROMETHEUS_METRICS_ENABLED" envDefault:"false"`
	Path    string `env:"PROMETHEUS_METRICS_PATH" envDefault:"/debug/prometheus"`
}

type Configuration struct {
	Database   DatabaseOptions
	Tracker    TrackerOptions
	HRSystem   HRSystemOptions
	Sync       SyncOptions
	Prometheus PrometheusOptions

	MigrationsDir    string `env:"MIGRATIONS_DIR" envDefault:"migrations"`
	GoAppEnvironment string `env:"GO_APP_ENV" envDefault:"development"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"error"`
	LogPath          string `env:"LOG_PATH" envDefault:"./logs/app.log"`

	// Default tenant used by CLI entry points until multi-tenant rollout.
	TenantID string `env:"TENANT_ID" envDefault:"00000000-0000-0000-0000-000000000001"`

	logFile *os.File
	logger  *logrus.Logger
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	switch c.LogLevel {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.ErrorLevel
	}
}

func Use() *Configuration {
	return singleton()
}

func (c *Configuration) load(envFiles []string) error {
	n, err := LoadEnv(envFiles)
	if err != nil {
		return err
	}
	if n == 0 {
		wd, _ := os.Getwd()
		log.Println("No .env files found. Tried:")
		for _, file := range envFiles {
			log.Println(filepath.Join(wd, file))
		}
	}
	if err := env.Parse(c); err != nil {
		return err
	}

	if err := c.Sync.Validate(); err != nil {
		return fmt.Errorf("sync configuration error: %w", err)
	}
	if err := c.validateUpstreams(); err != nil {
		return err
	}

	f, logger, err := logging.FileLogger(c.LogrusLogLevel(), c.LogPath)
	if err != nil {
		return err
	}
	c.logFile = f
	c.logger = logger

	c.Database.Opts = c.Database.ConnectionString()
	return nil
}

func (c *Configuration) validateUpstreams() error {
	for name, url := range map[string]string{
		"TRACKER_BASE_URL": c.Tracker.BaseURL,
		"HR_BASE_URL":      c.HRSystem.BaseURL,
	} {
		trimmed := strings.TrimSpace(url)
		if trimmed == "" {
			return fmt.Errorf("%s must not be empty", name)
		}
		if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
			return fmt.Errorf("invalid %s=%q (expected http(s) URL)", name, url)
		}
	}
	if c.HRSystem.PageSize <= 0 {
		return fmt.Errorf("HR_PAGE_SIZE must be positive, got %d", c.HRSystem.PageSize)
	}
	return nil
}

// Unload handles a graceful shutdown.
func (c *Configuration) Unload() {
	if c.logFile != nil {
		if err := c.logFile.Close(); err != nil {
			log.Printf("Failed to close log file: %v", err)
		}
	}
}
