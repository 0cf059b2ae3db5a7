package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"

	"github.com/oksasatya/go-recipe-api/pkg/helpers"
)

// GCS stores recipe images in a Google Cloud Storage bucket. Object names are
// random, so uploads are immutable and cached for a year.
type GCS struct {
	Client *gcs.Client
	Bucket string
}

func NewGCS(client *gcs.Client, bucket string) *GCS {
	return &GCS{Client: client, Bucket: bucket}
}

func (s *GCS) Save(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error) {
	if s.Client == nil || s.Bucket == "" {
		return "", errors.New("gcs not configured")
	}
	// cancelling the writer's context aborts the upload; Close alone would
	// commit whatever was written
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wc := s.Client.Bucket(s.Bucket).Object(objectPath).If(gcs.Conditions{DoesNotExist: true}).NewWriter(ctx)
	wc.ContentType = contentType
	wc.CacheControl = "public, max-age=31536000, immutable"
	wc.ChunkSize = 0 // images are small; single request upload
	if _, err := io.Copy(wc, r); err != nil {
		cancel()
		_ = wc.Close()
		return "", fmt.Errorf("upload %s: %w", objectPath, err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("upload %s: %w", objectPath, err)
	}
	return helpers.PublicURL(s.Bucket, objectPath), nil
}
