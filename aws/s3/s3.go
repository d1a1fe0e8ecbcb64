// Package s3 provides a tripkit.RawSource over the objects in an S3
// bucket/prefix, for buckets holding monthly trip dumps.
package s3

import (
	"io"
	"sync/atomic"

	"tripkit"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/pkg/errors"
)

// RawSource lists the objects under bucket/prefix at construction time and
// hands them out one reader at a time. Safe for concurrent use.
type RawSource struct {
	bucket string
	prefix string
	region string

	s3      *s3.S3
	sess    *session.Session
	objects []*s3.Object
	objIdx  *uint64
}

// NewRawSource returns a RawSource over every object under bucket/prefix in
// the given region.
func NewRawSource(region, bucket, prefix string) (*RawSource, error) {
	idx := uint64(0)
	rs := &RawSource{
		region: region,
		bucket: bucket,
		prefix: prefix,

		objIdx: &idx,
	}
	var err error
	rs.sess, err = session.NewSession(&aws.Config{
		Region: aws.String(rs.region)},
	)
	if err != nil {
		return nil, errors.Wrap(err, "getting new session")
	}
	rs.s3 = s3.New(rs.sess)
	resp, err := rs.s3.ListObjects(&s3.ListObjectsInput{Bucket: aws.String(rs.bucket), Prefix: aws.String(rs.prefix)})
	if err != nil {
		return nil, errors.Wrap(err, "listing objects")
	}
	rs.objects = resp.Contents

	return rs, nil
}

// object names the reader handed out for one S3 object.
type object struct {
	io.ReadCloser
	key string
}

func (o object) Name() string { return o.key }

// NextReader returns a reader over the next object in the bucket, or io.EOF
// once every object has been handed out.
func (rs *RawSource) NextReader() (tripkit.NamedReadCloser, error) {
	idx := atomic.AddUint64(rs.objIdx, 1) - 1
	if idx >= uint64(len(rs.objects)) {
		return nil, io.EOF
	}
	key := rs.objects[idx].Key
	resp, err := rs.s3.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(rs.bucket),
		Key:    key,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "getting object %s", *key)
	}
	return object{ReadCloser: resp.Body, key: *key}, nil
}
