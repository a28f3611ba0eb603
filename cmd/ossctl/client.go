package main

import (
	"log/slog"
	"strings"

	"github.com/jobstoit/ossio"
	"github.com/jobstoit/ossio/errs"
	"github.com/jobstoit/ossio/internal/config"
	"github.com/urfave/cli/v2"
)

// client builds the ossio client from the configuration and the global
// flags.
func (e env) client(c *cli.Context) (*ossio.Client, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	if ep := c.String("endpoint"); ep != "" {
		cfg.Endpoint = ep
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	lvl, err := cfg.Level()
	if err != nil {
		return nil, err
	}

	provider, err := cfg.Credentials(c.Context)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(e.stderr, &slog.HandlerOptions{Level: lvl}))

	opts := []ossio.Option{
		ossio.WithCredentialsProvider(provider),
		ossio.WithLogger(logger),
		ossio.WithConcurrency(cfg.Concurrency),
	}

	if cfg.MaxIdleConns > 0 {
		opts = append(opts, ossio.WithMaxIdleConnsPerHost(cfg.MaxIdleConns))
	}

	if cfg.Timeout > 0 {
		opts = append(opts, ossio.WithTimeout(cfg.Timeout))
	}

	opts = append(opts, e.opts...)

	logger.Debug("client configured", slog.String("endpoint", cfg.Endpoint))

	return ossio.New(c.Context, cfg.Endpoint, opts...)
}

// parseTarget splits BUCKET/KEY.
func parseTarget(arg string) (bucket, key string, err error) {
	bucket, key, _ = strings.Cut(strings.TrimPrefix(arg, "oss://"), "/")
	if bucket == "" || key == "" {
		return "", "", errs.Newf(errs.ErrKindInvalidArgument, "%q is not of the form BUCKET/KEY", arg)
	}

	return bucket, key, nil
}

// requireArgs checks the argument count; a negative most means no upper bound.
func requireArgs(c *cli.Context, least, most int) error {
	n := c.NArg()
	if n < least || (most >= 0 && n > most) {
		return errs.Newf(errs.ErrKindInvalidArgument, "usage: ossctl %s %s", c.Command.Name, c.Command.ArgsUsage)
	}

	return nil
}
