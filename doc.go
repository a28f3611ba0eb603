// Package ossio is a client for object storage services that speak the OSS
// flavour of the S3 REST dialect.
//
// A Client signs every request with an access key pair and streams bodies to
// and from the service. It is created once and shared:
//
//	cli, err := ossio.New(ctx, "oss-cn-hangzhou.aliyuncs.com", ossio.WithCredentials("access-key", "secret-key"))
//
// Uploads take a Source and downloads a Destination, so bytes, files and
// streams all go through the same call:
//
//	res, err := cli.PutObject(ctx, ossio.PutObjectInput{
//	  Bucket: "my-bucket",
//	  Object: "path/to/object.txt",
//	  Source: ossio.FromFile("object.txt"),
//	})
//
//	res, err = cli.GetObject(ctx, ossio.GetObjectInput{
//	  Bucket: "my-bucket",
//	  Object: "path/to/object.txt",
//	  Dest:   ossio.ToWriter(os.Stdout),
//	})
//
// A response from the service is never an error, whatever its status. An
// error means nothing was sent, the exchange failed on the wire, or writing
// the destination failed; see the errs package for the kinds.
//
// There is a Bucket to work with io.Reader and io.Writer on objects.
// Note The writer MUST close to save the object.
//
//	bucket, err := cli.OpenBucket(ctx, "my-bucket", ossio.WithBucketCreateIfNotExists())
//
//	wr := bucket.NewWriter(ctx, "path/to/object.txt")
//	defer wr.Close()
//
//	_, err := io.WriteString(wr, "Hello world!")
//	if err != nil {
//	  return err
//	}
//
//	if err := wr.Close(); err != nil {
//	  return err
//	}
//
// SignedURL signs a request for another HTTP client, either in the URL with an
// expiration or in the Authorization and Date headers.
package ossio
