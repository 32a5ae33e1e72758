package filestore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

type S3Store struct {
	Client        s3iface.S3API
	Bucket        string
	Region        string
	CloudFrontURL string
}

func NewS3Store(bucket, region, cloudFrontURL string) (*S3Store, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, err
	}

	return &S3Store{
		Client:        s3.New(sess),
		Bucket:        bucket,
		Region:        region,
		CloudFrontURL: strings.TrimRight(cloudFrontURL, "/"),
	}, nil
}

func (s *S3Store) Mode() string { return "s3" }

// KeyFromURL maps a public object URL (CloudFront or virtual-hosted S3) to
// its object key.
func (s *S3Store) KeyFromURL(uri string) (string, error) {
	if s.CloudFrontURL != "" && strings.HasPrefix(uri, s.CloudFrontURL+"/") {
		return strings.TrimPrefix(uri, s.CloudFrontURL+"/"), nil
	}

	u, err := url.Parse(uri)
	if err != nil || u.Host == "" {
		return "", ErrNotManaged
	}

	hosts := []string{
		fmt.Sprintf("%s.s3.%s.amazonaws.com", s.Bucket, s.Region),
		fmt.Sprintf("%s.s3.amazonaws.com", s.Bucket),
	}
	for _, h := range hosts {
		if u.Host == h {
			key := strings.TrimPrefix(u.Path, "/")
			if key == "" {
				return "", ErrNotManaged
			}
			return key, nil
		}
	}
	return "", ErrNotManaged
}

func (s *S3Store) Delete(ctx context.Context, uri string) error {
	key, err := s.KeyFromURL(uri)
	if err != nil {
		return err
	}

	_, err = s.Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	return err
}
