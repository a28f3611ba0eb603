package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jobstoit/ossio"
	"github.com/jobstoit/ossio/errs"
	"github.com/jobstoit/ossio/sign"
	"github.com/urfave/cli/v2"
)

// signURL prints the URL on the first line, followed by the headers the
// request has to be sent with. The expiry and the names of signed x-oss-*
// headers go to stderr.
func (e env) signURL(c *cli.Context) error {
	if err := requireArgs(c, 1, 1); err != nil {
		return err
	}

	bucket, key, err := parseTarget(c.Args().First())
	if err != nil {
		return err
	}

	var header sign.Header
	if ct := c.String("content-type"); ct != "" {
		header.Set(sign.HeaderContentType, ct)
	}

	for _, kv := range c.StringSlice("header") {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			return errs.Newf(errs.ErrKindInvalidArgument, "header %q is not of the form NAME=VALUE", kv)
		}

		header.Set(name, value)
	}

	client, err := e.client(c)
	if err != nil {
		return err
	}

	signed, err := client.SignedURL(ossio.SignedURLInput{
		Method:      c.String("method"),
		Bucket:      bucket,
		Object:      key,
		Header:      header,
		SignHeaders: c.Bool("headers"),
		Expires:     c.Duration("expires"),
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(e.stdout, signed.URL)

	for name, value := range signed.Header.All() {
		fmt.Fprintf(e.stdout, "%s: %s\n", name, value)
	}

	if len(signed.SignedHeaders) > 0 {
		fmt.Fprintf(e.stderr, "signed headers: %s\n", strings.Join(signed.SignedHeaders, ", "))
	}

	if !signed.Expires.IsZero() {
		fmt.Fprintf(e.stderr, "expires %s\n", humanize.Time(signed.Expires))
	}

	return nil
}
