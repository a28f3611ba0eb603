package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jobstoit/ossio"
	"github.com/urfave/cli/v2"
)

func (e env) listBuckets(c *cli.Context) error {
	if err := requireArgs(c, 0, 0); err != nil {
		return err
	}

	client, err := e.client(c)
	if err != nil {
		return err
	}

	in := ossio.ListBucketsInput{Prefix: c.String("prefix")}
	for {
		res, err := client.ListBuckets(c.Context, in)
		if err != nil {
			return err
		}

		if !res.OK() {
			return res.Err()
		}

		for _, b := range res.Doc.Maps("ListAllMyBucketsResult", "Buckets", "Bucket") {
			fmt.Fprintf(e.stdout, "%s  %s\n", b.String("CreationDate"), b.String("Name"))
		}

		in.Marker = res.Doc.String("ListAllMyBucketsResult", "NextMarker")
		if res.Doc.String("ListAllMyBucketsResult", "IsTruncated") != "true" || in.Marker == "" {
			return nil
		}
	}
}

func (e env) makeBucket(c *cli.Context) error {
	if err := requireArgs(c, 1, 1); err != nil {
		return err
	}

	client, err := e.client(c)
	if err != nil {
		return err
	}

	res, err := client.CreateBucket(c.Context, ossio.CreateBucketInput{
		Bucket: c.Args().First(),
		ACL:    c.String("acl"),
	})
	if err != nil {
		return err
	}

	return res.Err()
}

func (e env) removeBucket(c *cli.Context) error {
	if err := requireArgs(c, 1, 1); err != nil {
		return err
	}

	client, err := e.client(c)
	if err != nil {
		return err
	}

	name := c.Args().First()

	if c.Bool("force") {
		bucket := client.Bucket(name)

		objs, err := bucket.List(c.Context, "")
		if err != nil {
			return err
		}

		keys := make([]string, len(objs))
		for i, obj := range objs {
			keys[i] = obj.Key
		}

		if err := bucket.Delete(c.Context, keys...); err != nil {
			return err
		}
	}

	res, err := client.DeleteBucket(c.Context, name)
	if err != nil {
		return err
	}

	return res.Err()
}

func (e env) listObjects(c *cli.Context) error {
	if err := requireArgs(c, 1, 2); err != nil {
		return err
	}

	client, err := e.client(c)
	if err != nil {
		return err
	}

	objs, err := client.Bucket(c.Args().Get(0)).List(c.Context, c.Args().Get(1))
	if err != nil {
		return err
	}

	var total int64
	for _, obj := range objs {
		total += obj.Size
		fmt.Fprintf(e.stdout, "%s  %9s  %s\n",
			obj.LastModified.Format(time.DateTime), humanize.Bytes(uint64(obj.Size)), obj.Key)
	}

	fmt.Fprintf(e.stderr, "%d objects, %s\n", len(objs), humanize.Bytes(uint64(total)))

	return nil
}
