package stylist

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/raushankrgupta/eyewear-stylist/models"
	"github.com/raushankrgupta/eyewear-stylist/utils"
	"github.com/sirupsen/logrus"
)

// BlobStore holds the session images outside the session document.
type BlobStore interface {
	PutBlob(ctx context.Context, key, value string) error
	GetBlob(ctx context.Context, key string) (string, error)
	DeleteBlob(ctx context.Context, key string) error
}

// imageRefPrefix marks a session image field that holds a blob key.
// Uploaded images are always data URLs, so the two never collide.
const imageRefPrefix = "blob:"

type imageKeys [3]string

// ImageOffloadStore wraps a Store and moves the three session images into
// a BlobStore, leaving only their keys in the stored document. Keys are
// derived from the image content, so unchanged images are not re-uploaded
// on every save.
type ImageOffloadStore struct {
	inner Store
	blobs BlobStore
	saved *lru.Cache[string, imageKeys]
}

func NewImageOffloadStore(inner Store, blobs BlobStore, cacheSize int) (*ImageOffloadStore, error) {
	saved, err := lru.New[string, imageKeys](cacheSize)
	if err != nil {
		return nil, err
	}
	return &ImageOffloadStore{inner: inner, blobs: blobs, saved: saved}, nil
}

func imageFields(s *models.Session) [3]*string {
	return [3]*string{&s.SubjectImage, &s.ReferenceImage, &s.GeneratedImage}
}

var imageFieldNames = [3]string{"subject", "reference", "generated"}

func imageKey(sessionID, field, dataURL string) string {
	sum := sha256.Sum256([]byte(dataURL))
	return fmt.Sprintf("sessions/%s/%s-%s", sessionID, field, hex.EncodeToString(sum[:12]))
}

func (o *ImageOffloadStore) Save(ctx context.Context, session *models.Session) error {
	doc := session.Clone()
	prev, _ := o.saved.Get(session.ID)

	var keys imageKeys
	for i, field := range imageFields(doc) {
		if *field == "" {
			continue
		}
		if key, ok := strings.CutPrefix(*field, imageRefPrefix); ok {
			keys[i] = key
			continue
		}
		key := imageKey(session.ID, imageFieldNames[i], *field)
		if key != prev[i] {
			if err := o.blobs.PutBlob(ctx, key, *field); err != nil {
				return fmt.Errorf("failed to store %s image of session %s: %w", imageFieldNames[i], session.ID, err)
			}
		}
		keys[i] = key
		*field = imageRefPrefix + key
	}

	if err := o.inner.Save(ctx, doc); err != nil {
		return err
	}
	o.saved.Add(session.ID, keys)
	o.deleteStale(ctx, session.ID, prev, keys)
	return nil
}

// Load resolves blob keys back into data URLs. An image whose blob is gone
// is dropped from the session instead of failing the load.
func (o *ImageOffloadStore) Load(ctx context.Context, id string) (*models.Session, error) {
	session, err := o.inner.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	var keys imageKeys
	for i, field := range imageFields(session) {
		key, ok := strings.CutPrefix(*field, imageRefPrefix)
		if !ok {
			continue
		}
		value, err := o.blobs.GetBlob(ctx, key)
		if errors.Is(err, utils.ErrBlobNotFound) {
			logrus.WithField("session_id", id).WithField("key", key).Warn("session image missing from blob store")
			*field = ""
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load %s image of session %s: %w", imageFieldNames[i], id, err)
		}
		*field = value
		keys[i] = key
	}
	o.saved.Add(id, keys)
	return session, nil
}

func (o *ImageOffloadStore) Delete(ctx context.Context, id string) error {
	var keys imageKeys
	if stored, err := o.inner.Load(ctx, id); err == nil {
		for i, field := range imageFields(stored) {
			if key, ok := strings.CutPrefix(*field, imageRefPrefix); ok {
				keys[i] = key
			}
		}
	}
	if err := o.inner.Delete(ctx, id); err != nil {
		return err
	}
	o.saved.Remove(id)
	o.deleteStale(ctx, id, keys, imageKeys{})
	return nil
}

// deleteStale removes blobs referenced by prev but no longer by next.
func (o *ImageOffloadStore) deleteStale(ctx context.Context, sessionID string, prev, next imageKeys) {
	for _, key := range prev {
		if key == "" || key == next[0] || key == next[1] || key == next[2] {
			continue
		}
		if err := o.blobs.DeleteBlob(ctx, key); err != nil {
			logrus.WithError(err).WithField("session_id", sessionID).Warn("failed to delete stale session image")
		}
	}
}
