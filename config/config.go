package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/emzola/catalog/internal/validator"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"

	StorageDisk = "disk"
	StorageS3   = "s3"
)

// Config defines the app configuration.
type Config struct {
	Server struct {
		Port int    `yaml:"port" env:"PORT" env-default:"4000"`
		Env  string `yaml:"env" env:"ENV" env-default:"development"`
	} `yaml:"server"`
	Log struct {
		Level string `yaml:"level" env:"LOGLEVEL" env-default:"info"`
	} `yaml:"log"`
	Database struct {
		Driver       string `yaml:"driver" env:"DBDRIVER" env-default:"postgres"`
		DSN          string `yaml:"dsn" env:"DSN"`
		MaxOpenConns int    `yaml:"max_open_conns" env:"MAXOPENCONNS" env-default:"25"`
		MaxIdleConns int    `yaml:"max_idle_conns" env:"MAXIDLECONNS" env-default:"25"`
		MaxIdleTime  string `yaml:"max_idle_time" env:"MAXIDLETIME" env-default:"15m"`
		AutoMigrate  bool   `yaml:"auto_migrate" env:"AUTOMIGRATE"`
	} `yaml:"database"`
	Storage struct {
		Driver        string `yaml:"driver" env:"STORAGEDRIVER" env-default:"disk"`
		Dir           string `yaml:"dir" env:"STORAGEDIR" env-default:"./uploads"`
		BaseURL       string `yaml:"base_url" env:"STORAGEBASEURL" env-default:"/thumbnails"`
		MaxUploadSize int64  `yaml:"max_upload_size" env:"MAXUPLOADSIZE" env-default:"5242880"`
	} `yaml:"storage"`
	S3 struct {
		AccessKeyID     string `yaml:"access_key_id" env:"ACCESSKEYID"`
		SecretAccessKey string `yaml:"secret_access_key" env:"SECRETACCESSKEY"`
		Region          string `yaml:"region" env:"REGION"`
		Bucket          string `yaml:"bucket" env:"BUCKET"`
		PublicURL       string `yaml:"public_url" env:"S3PUBLICURL"`
	} `yaml:"s3"`
	SMTP struct {
		Host     string `yaml:"host" env:"SMTPHOST"`
		Port     int    `yaml:"port" env:"SMTPPORT" env-default:"25"`
		Username string `yaml:"username" env:"SMTPUSERNAME"`
		Password string `yaml:"password" env:"SMTPPASSWORD"`
		Sender   string `yaml:"sender" env:"SMTPSENDER"`
	} `yaml:"smtp"`
	Notify struct {
		Recipient string `yaml:"recipient" env:"NOTIFYRECIPIENT"`
	} `yaml:"notify"`
	AMQP struct {
		URL      string `yaml:"url" env:"AMQPURL"`
		Exchange string `yaml:"exchange" env:"AMQPEXCHANGE" env-default:"library.events"`
	} `yaml:"amqp"`
	Limiter struct {
		RPS     float64 `yaml:"rps" env:"RPS" env-default:"4"`
		Burst   int     `yaml:"burst" env:"BURST" env-default:"8"`
		Enabled bool    `yaml:"enabled" env:"LENABLED" env-default:"true"`
	} `yaml:"limiter"`
	Cors struct {
		TrustedOrigins []string `yaml:"trusted_origins" env:"TRUSTEDORIGINS" env-separator:" "`
	} `yaml:"cors"`
	Metrics struct {
		Enabled bool `yaml:"enabled" env:"MENABLED"`
	} `yaml:"metrics"`
	CSRF struct {
		Key    string `yaml:"key" env:"CSRFKEY"`
		Secure bool   `yaml:"secure" env:"CSRFSECURE"`
	} `yaml:"csrf"`
}

// Decode loads variables from a .env file when one exists, then reads the
// YAML file at path. Environment variables override file values. When path
// is empty or the file does not exist, only the environment is read.
func Decode(path string) (Config, error) {
	var cfg Config
	err := godotenv.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	if path != "" {
		if _, statErr := os.Stat(path); statErr == nil {
			err = cleanenv.ReadConfig(path, &cfg)
			if err != nil {
				return cfg, fmt.Errorf("read config %s: %w", path, err)
			}
			return cfg, cfg.Validate()
		}
	}
	err = cleanenv.ReadEnv(&cfg)
	if err != nil {
		return cfg, fmt.Errorf("read env: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks that the decoded values are usable.
func (c Config) Validate() error {
	v := validator.New()
	v.Check(c.Server.Port > 0 && c.Server.Port <= 65535, "server.port must be between 1 and 65535")
	v.Check(validator.PermittedValue(c.Database.Driver, DriverPostgres, DriverSQLite), "database.driver must be postgres or sqlite3")
	v.Check(c.Database.DSN != "", "database.dsn must be provided")
	_, err := time.ParseDuration(c.Database.MaxIdleTime)
	v.Check(err == nil, "database.max_idle_time must be a duration")
	v.Check(validator.PermittedValue(c.Storage.Driver, StorageDisk, StorageS3), "storage.driver must be disk or s3")
	v.Check(c.Storage.MaxUploadSize > 0, "storage.max_upload_size must be greater than zero")
	if c.Storage.Driver == StorageS3 {
		v.Check(validator.NotEmpty(c.S3.Region, c.S3.Bucket), "s3.region and s3.bucket must be provided")
	}
	if c.Notify.Recipient != "" {
		v.Check(validator.NotEmpty(c.SMTP.Host, c.SMTP.Sender), "smtp.host and smtp.sender must be provided to send notifications")
	}
	if c.CSRF.Key != "" {
		v.Check(len(c.CSRF.Key) == 32, "csrf.key must be 32 bytes long")
	}
	if !v.Valid() {
		return errors.New("invalid config: " + strings.Join(v.Errors, "; "))
	}
	return nil
}
