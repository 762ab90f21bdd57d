package storage

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"pulsechat/internal/pkg/logx"
)

// s3Resolver implements AvatarResolver against S3-compatible storage.
type s3Resolver struct {
	cfg     ServiceConfig
	client  *s3.Client
	presign *s3.PresignClient
}

// newS3Resolver initializes the S3 client with a custom endpoint so
// S3-compatible providers work unchanged.
func newS3Resolver(cfg ServiceConfig) (*s3Resolver, error) {
	sdkCfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKeyID,
			cfg.S3SecretAccessKey,
			"",
		)),
		config.WithRegion("auto"),
	)
	if err != nil {
		logx.Error(err, "Failed to load AWS SDK config")
		return nil, errors.New("failed to initialize S3 client configuration")
	}

	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		o.UsePathStyle = true
	})

	return &s3Resolver{
		cfg:     cfg,
		client:  client,
		presign: s3.NewPresignClient(client),
	}, nil
}

// ResolveAvatar returns a loadable URL for the given avatar reference.
// Empty references and absolute URLs are passed back unchanged; storage
// keys become presigned GET URLs.
func (r *s3Resolver) ResolveAvatar(ctx context.Context, ref string) (string, error) {
	if ref == "" || isAbsoluteURL(ref) {
		return ref, nil
	}

	resp, err := r.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &r.cfg.S3BucketName,
		Key:    &ref,
	}, s3.WithPresignExpires(r.cfg.PresignDuration))

	if err != nil {
		logx.Error(err, "Failed to presign avatar URL", "key", ref)
		return "", errors.New("failed to resolve avatar URL")
	}

	return resp.URL, nil
}
