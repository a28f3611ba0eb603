// Package config loads the settings of the ossctl command.
//
// YAML example:
//
//	endpoint: "oss-cn-hangzhou.aliyuncs.com"
//	accessKeyId: "LTAIEXAMPLE"
//	accessKeySecret: "secret"
//	logLevel: "debug"
//	maxIdleConns: 64
//	timeout: "30s"
//	concurrency: 5
//
// Environment overrides:
//
//	OSSIO_CONFIG            path to the YAML file; ossctl.yaml in the working directory otherwise
//	OSSIO_ENDPOINT          overrides Endpoint
//	OSSIO_ACCESS_KEY_ID     overrides AccessKeyID
//	OSSIO_ACCESS_KEY_SECRET overrides AccessKeySecret
//	OSSIO_PROFILE           overrides Profile
//	OSSIO_LOG_LEVEL         overrides LogLevel
//	OSSIO_MAX_IDLE_CONNS    overrides MaxIdleConns
//	OSSIO_TIMEOUT           overrides Timeout, as a Go duration
//
// Without a key pair the credentials come from the shared credentials and
// config files, for Profile or the default profile.
package config

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/jobstoit/ossio/errs"
	"go.yaml.in/yaml/v3"
)

// DefaultPath is read when no path is given and OSSIO_CONFIG is unset.
const DefaultPath = "ossctl.yaml"

// Config holds the client settings of ossctl.
type Config struct {
	Endpoint        string        `yaml:"endpoint"`
	AccessKeyID     string        `yaml:"accessKeyId"`
	AccessKeySecret string        `yaml:"accessKeySecret"`
	Profile         string        `yaml:"profile,omitempty"`
	LogLevel        string        `yaml:"logLevel"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	Timeout         time.Duration `yaml:"timeout,omitempty"`
	Concurrency     int           `yaml:"concurrency"`
}

// Default returns a Config with the client defaults.
func Default() Config {
	return Config{
		LogLevel:     "info",
		MaxIdleConns: 64,
		Concurrency:  5,
	}
}

// Load reads configuration from path. If path is empty, OSSIO_CONFIG and then
// DefaultPath are tried; a missing file gives Default(). Environment overrides
// are applied last.
func Load(path string) (Config, error) {
	if path == "" {
		path = os.Getenv("OSSIO_CONFIG")
	}

	if path == "" {
		path = DefaultPath
	}

	cfg := Default()

	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return Config{}, errs.FromFS("read config", err)
	default:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, errs.Wrap(errs.ErrKindConfiguration, "parse config "+path, err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("OSSIO_ENDPOINT"); v != "" {
		cfg.Endpoint = strings.TrimSpace(v)
	}
	if v := os.Getenv("OSSIO_ACCESS_KEY_ID"); v != "" {
		cfg.AccessKeyID = v
	}
	if v := os.Getenv("OSSIO_ACCESS_KEY_SECRET"); v != "" {
		cfg.AccessKeySecret = v
	}
	if v := os.Getenv("OSSIO_PROFILE"); v != "" {
		cfg.Profile = strings.TrimSpace(v)
	}
	if v := os.Getenv("OSSIO_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("OSSIO_MAX_IDLE_CONNS"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 1 {
			return errs.Newf(errs.ErrKindConfiguration, "OSSIO_MAX_IDLE_CONNS %q is not a positive number", v)
		}
		cfg.MaxIdleConns = n
	}
	if v := os.Getenv("OSSIO_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil || d < 0 {
			return errs.Newf(errs.ErrKindConfiguration, "OSSIO_TIMEOUT %q is not a duration", v)
		}
		cfg.Timeout = d
	}

	return nil
}

// Validate reports settings the client cannot start with.
func (c Config) Validate() error {
	if c.Endpoint == "" {
		return errs.New(errs.ErrKindConfiguration, "no endpoint configured")
	}

	if (c.AccessKeyID == "") != (c.AccessKeySecret == "") {
		return errs.New(errs.ErrKindConfiguration, "access key id and secret must be set together")
	}

	if _, err := c.Level(); err != nil {
		return err
	}

	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}

	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, errs.Wrap(errs.ErrKindConfiguration, "parse log level", err)
	}

	return lvl, nil
}

// Credentials returns the configured key pair, or the credentials of the
// shared profile when none is configured.
func (c Config) Credentials(ctx context.Context) (aws.CredentialsProvider, error) {
	if c.AccessKeyID != "" {
		return credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.AccessKeySecret, ""), nil
	}

	var opts []func(*awsconfig.LoadOptions) error
	if c.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(c.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConfiguration, "load shared credentials", err)
	}

	if awsCfg.Credentials == nil {
		return nil, errs.New(errs.ErrKindConfiguration, "no credentials configured")
	}

	return awsCfg.Credentials, nil
}
