package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jobstoit/ossio"
	"github.com/jobstoit/ossio/errs"
	"github.com/jobstoit/ossio/sign"
	"github.com/urfave/cli/v2"
)

func (e env) putObject(c *cli.Context) error {
	if err := requireArgs(c, 2, 2); err != nil {
		return err
	}

	bucket, key, err := parseTarget(c.Args().Get(1))
	if err != nil {
		return err
	}

	var header sign.Header
	if ct := c.String("content-type"); ct != "" {
		header.Set(sign.HeaderContentType, ct)
	}

	for _, kv := range c.StringSlice("meta") {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			return errs.Newf(errs.ErrKindInvalidArgument, "metadata %q is not of the form NAME=VALUE", kv)
		}

		header.Set("x-oss-meta-"+name, value)
	}

	src := ossio.FromFile(c.Args().Get(0))
	if c.Args().Get(0) == "-" {
		src = ossio.FromReader(e.stdin, -1)
	}

	client, err := e.client(c)
	if err != nil {
		return err
	}

	res, err := client.PutObject(c.Context, ossio.PutObjectInput{
		Bucket: bucket,
		Object: key,
		Source: src,
		Header: header,
	})
	if err != nil {
		return err
	}

	if !res.OK() {
		return res.Err()
	}

	fmt.Fprintln(e.stdout, res.ObjectURL)

	return nil
}

func (e env) getObject(c *cli.Context) error {
	if err := requireArgs(c, 1, 2); err != nil {
		return err
	}

	bucket, key, err := parseTarget(c.Args().Get(0))
	if err != nil {
		return err
	}

	dst := ossio.ToWriter(e.stdout)
	if file := c.Args().Get(1); file != "" {
		dst = ossio.ToFile(file)
	}

	client, err := e.client(c)
	if err != nil {
		return err
	}

	res, err := client.GetObject(c.Context, ossio.GetObjectInput{
		Bucket: bucket,
		Object: key,
		Dest:   dst,
	})
	if err != nil {
		return err
	}

	if !res.OK() {
		return res.Err()
	}

	if c.NArg() == 2 {
		fmt.Fprintf(e.stderr, "%s written to %s\n", humanize.Bytes(uint64(res.Written)), c.Args().Get(1))
	}

	return nil
}

func (e env) headObject(c *cli.Context) error {
	if err := requireArgs(c, 1, 1); err != nil {
		return err
	}

	bucket, key, err := parseTarget(c.Args().First())
	if err != nil {
		return err
	}

	client, err := e.client(c)
	if err != nil {
		return err
	}

	res, err := client.HeadObject(c.Context, bucket, key)
	if err != nil {
		return err
	}

	if !res.OK() {
		return res.Err()
	}

	if n, err := strconv.ParseUint(res.Header.Get("Content-Length"), 10, 64); err == nil {
		fmt.Fprintf(e.stdout, "size: %s\n", humanize.Bytes(n))
	}

	for name, value := range res.Header.All() {
		fmt.Fprintf(e.stdout, "%s: %s\n", name, value)
	}

	return nil
}

// removeObjects deletes the keys bucket by bucket, in the order the buckets
// first appear.
func (e env) removeObjects(c *cli.Context) error {
	if err := requireArgs(c, 1, -1); err != nil {
		return err
	}

	var (
		order []string
		keys  = make(map[string][]string)
	)

	for _, arg := range c.Args().Slice() {
		bucket, key, err := parseTarget(arg)
		if err != nil {
			return err
		}

		if _, ok := keys[bucket]; !ok {
			order = append(order, bucket)
		}

		keys[bucket] = append(keys[bucket], key)
	}

	client, err := e.client(c)
	if err != nil {
		return err
	}

	for _, bucket := range order {
		if err := client.Bucket(bucket).Delete(c.Context, keys[bucket]...); err != nil {
			return err
		}
	}

	return nil
}

func (e env) copyObject(c *cli.Context) error {
	if err := requireArgs(c, 2, 2); err != nil {
		return err
	}

	srcBucket, srcKey, err := parseTarget(c.Args().Get(0))
	if err != nil {
		return err
	}

	dstBucket, dstKey, err := parseTarget(c.Args().Get(1))
	if err != nil {
		return err
	}

	client, err := e.client(c)
	if err != nil {
		return err
	}

	res, err := client.CopyObject(c.Context, ossio.CopyObjectInput{
		SourceBucket: srcBucket,
		SourceObject: srcKey,
		Bucket:       dstBucket,
		Object:       dstKey,
	})
	if err != nil {
		return err
	}

	if !res.OK() {
		return res.Err()
	}

	fmt.Fprintln(e.stdout, res.ObjectURL)

	return nil
}
