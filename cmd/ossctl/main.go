// Command ossctl manages buckets and objects of an OSS service.
//
// Settings are read with the internal/config package: ossctl.yaml, or the
// file named by --config or OSSIO_CONFIG, and OSSIO_* environment overrides.
// Objects are addressed as BUCKET/KEY, optionally prefixed with oss://.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jobstoit/ossio"
	"github.com/jobstoit/ossio/errs"
	"github.com/urfave/cli/v2"
)

// env holds what a command reads from and writes to. Tests replace the
// streams and add client options.
type env struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	opts   []ossio.Option
}

func main() {
	app := newApp(env{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	})

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "ossctl: %s\n", err)
		os.Exit(exitCode(err))
	}
}

func newApp(e env) *cli.App {
	return &cli.App{
		Name:      "ossctl",
		Usage:     "manage buckets and objects of an OSS service",
		Reader:    e.stdin,
		Writer:    e.stdout,
		ErrWriter: e.stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the YAML configuration file",
			},
			&cli.StringFlag{
				Name:  "endpoint",
				Usage: "service endpoint, overrides the configuration",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "buckets",
				Usage:  "list the buckets of the account",
				Flags:  []cli.Flag{&cli.StringFlag{Name: "prefix", Usage: "only buckets starting with `PREFIX`"}},
				Action: e.listBuckets,
			},
			{
				Name:      "mb",
				Usage:     "make a bucket",
				ArgsUsage: "BUCKET",
				Flags:     []cli.Flag{&cli.StringFlag{Name: "acl", Usage: "canned access control, e.g. public-read"}},
				Action:    e.makeBucket,
			},
			{
				Name:      "rb",
				Usage:     "remove a bucket",
				ArgsUsage: "BUCKET",
				Flags:     []cli.Flag{&cli.BoolFlag{Name: "force", Usage: "delete the objects of the bucket first"}},
				Action:    e.removeBucket,
			},
			{
				Name:      "ls",
				Usage:     "list the objects of a bucket",
				ArgsUsage: "BUCKET [PREFIX]",
				Action:    e.listObjects,
			},
			{
				Name:      "put",
				Usage:     "upload a file, - reads standard input",
				ArgsUsage: "FILE BUCKET/KEY",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "content-type", Usage: "content type of the object"},
					&cli.StringSliceFlag{Name: "meta", Usage: "user metadata as `NAME=VALUE`"},
				},
				Action: e.putObject,
			},
			{
				Name:      "get",
				Usage:     "download an object, to standard output without FILE",
				ArgsUsage: "BUCKET/KEY [FILE]",
				Action:    e.getObject,
			},
			{
				Name:      "head",
				Usage:     "print the headers of an object",
				ArgsUsage: "BUCKET/KEY",
				Action:    e.headObject,
			},
			{
				Name:      "rm",
				Usage:     "delete objects",
				ArgsUsage: "BUCKET/KEY...",
				Action:    e.removeObjects,
			},
			{
				Name:      "cp",
				Usage:     "copy an object within the service",
				ArgsUsage: "BUCKET/KEY BUCKET/KEY",
				Action:    e.copyObject,
			},
			{
				Name:      "sign",
				Usage:     "print a presigned URL",
				ArgsUsage: "BUCKET/KEY",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "method", Value: "GET", Usage: "HTTP method the URL is used with"},
					&cli.DurationFlag{Name: "expires", Value: ossio.DefaultExpires, Usage: "lifetime of the signature"},
					&cli.StringFlag{Name: "content-type", Usage: "content type the request is sent with"},
					&cli.BoolFlag{Name: "headers", Usage: "sign in the Authorization header instead of the URL"},
					&cli.StringSliceFlag{Name: "header", Usage: "header the request is sent with as `NAME=VALUE`"},
				},
				Action: e.signURL,
			},
		},
	}
}

// exitCode is 2 for usage and configuration errors, 3 when the service
// refused the request and 1 otherwise.
func exitCode(err error) int {
	var serr *ossio.ServiceError

	switch {
	case err == nil:
		return 0
	case errs.IsConfiguration(err), errs.IsInvalidArgument(err):
		return 2
	case errors.As(err, &serr):
		return 3
	default:
		return 1
	}
}
