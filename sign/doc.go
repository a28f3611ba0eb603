// Package sign builds canonical request strings for the OSS REST dialect and
// signs them with an access key pair.
//
// A request is described by a Request: method, bucket, object, headers and
// ordered query parameters. CanonicalString turns it into the text that is
// signed:
//
//	VERB\n
//	Content-MD5\n
//	Content-Type\n
//	Date or Expires\n
//	x-oss-name:value\n   (one line per x-oss- header, sorted by name)
//	/bucket/object?sub-resource
//
// The signature is base64(HMAC-SHA1(secret, canonical)) and is delivered in one
// of two ways. HeaderAuth puts it in the Authorization header next to a fresh
// Date header:
//
//	Authorization: OSS <AccessKeyId>:<Signature>
//
// QuerySignature puts it in the URL together with an absolute expiration, so
// the URL can be handed to any HTTP client:
//
//	?OSSAccessKeyId=<AccessKeyId>&Expires=<epoch>&Signature=<Signature>
//
// Everything in this package is pure: the same inputs always give the same
// output, and a Signer may be shared by any number of goroutines.
package sign
