package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrBlobNotFound = errors.New("blob not found")

// GridFSBlobStore keeps large values (session images) in a GridFS bucket,
// keyed by caller-chosen ids.
type GridFSBlobStore struct {
	db   *mongo.Database
	name string
}

func NewGridFSBlobStore(db *mongo.Database, bucketName string) *GridFSBlobStore {
	return &GridFSBlobStore{db: db, name: bucketName}
}

// bucket returns a bucket bound to the context deadline. Buckets carry
// their deadlines as state, so each call gets its own.
func (g *GridFSBlobStore) bucket(ctx context.Context) (*gridfs.Bucket, error) {
	b, err := gridfs.NewBucket(g.db, options.GridFSBucket().SetName(g.name))
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := b.SetReadDeadline(deadline); err != nil {
			return nil, err
		}
		if err := b.SetWriteDeadline(deadline); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// PutBlob stores value under key, replacing any earlier file with that key.
func (g *GridFSBlobStore) PutBlob(ctx context.Context, key, value string) error {
	b, err := g.bucket(ctx)
	if err != nil {
		return err
	}
	if err := b.DeleteContext(ctx, key); err != nil && !errors.Is(err, gridfs.ErrFileNotFound) {
		return fmt.Errorf("failed to replace blob %s: %w", key, err)
	}
	if err := b.UploadFromStreamWithID(key, key, strings.NewReader(value)); err != nil {
		return fmt.Errorf("failed to upload blob %s: %w", key, err)
	}
	return nil
}

func (g *GridFSBlobStore) GetBlob(ctx context.Context, key string) (string, error) {
	b, err := g.bucket(ctx)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := b.DownloadToStream(key, &buf); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return "", fmt.Errorf("%w: %s", ErrBlobNotFound, key)
		}
		return "", fmt.Errorf("failed to download blob %s: %w", key, err)
	}
	return buf.String(), nil
}

func (g *GridFSBlobStore) DeleteBlob(ctx context.Context, key string) error {
	b, err := g.bucket(ctx)
	if err != nil {
		return err
	}
	if err := b.DeleteContext(ctx, key); err != nil && !errors.Is(err, gridfs.ErrFileNotFound) {
		return fmt.Errorf("failed to delete blob %s: %w", key, err)
	}
	return nil
}
