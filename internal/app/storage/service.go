package storage

import (
	"context"
	"strings"
	"time"
)

// ServiceConfig holds the settings required to reach the object store.
type ServiceConfig struct {
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string

	// PresignDuration bounds the lifetime of resolved avatar URLs.
	PresignDuration time.Duration
}

// AvatarResolver turns an avatar reference from an identity token into a
// URL a client can load. Absolute URLs pass through; storage keys are
// resolved against the object store.
type AvatarResolver interface {
	ResolveAvatar(ctx context.Context, ref string) (string, error)
}

// NewAvatarResolver builds the S3-backed resolver.
func NewAvatarResolver(cfg ServiceConfig) (AvatarResolver, error) {
	if cfg.PresignDuration <= 0 {
		cfg.PresignDuration = 15 * time.Minute
	}
	return newS3Resolver(cfg)
}

// isAbsoluteURL reports whether ref already points at a fetchable location.
func isAbsoluteURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}
