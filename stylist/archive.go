package stylist

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/raushankrgupta/eyewear-stylist/models"
	"github.com/raushankrgupta/eyewear-stylist/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const lookStatusCompleted = "completed"

type objectStore interface {
	UploadFile(ctx context.Context, file io.Reader, objectKey string, contentType string) (string, error)
	PresignedURL(ctx context.Context, objectKey string) (string, error)
}

// LookRepository stores archived looks.
type LookRepository interface {
	Insert(ctx context.Context, look *models.Look) error
	List(ctx context.Context, sessionID string, skip, limit int64) ([]models.Look, int64, error)
}

// LookArchive uploads generated images to object storage and records them
// so a session can browse its past looks.
type LookArchive struct {
	objects objectStore
	looks   LookRepository
	now     func() time.Time
}

func NewLookArchive(objects objectStore, looks LookRepository) *LookArchive {
	return &LookArchive{objects: objects, looks: looks, now: time.Now}
}

// GalleryPage is one page of a session's archived looks.
type GalleryPage struct {
	Looks       []models.Look `json:"images"`
	Total       int64         `json:"total"`
	CurrentPage int           `json:"current_page"`
	TotalPages  int           `json:"total_pages"`
}

func (a *LookArchive) Archive(ctx context.Context, req ArchiveRequest) error {
	data, mime, err := utils.DecodeDataURL(req.Image)
	if err != nil {
		return err
	}

	created := a.now()
	objectKey := fmt.Sprintf("generated_looks/%s/%d.png", req.SessionID, created.UnixNano())
	if _, err := a.objects.UploadFile(ctx, bytes.NewReader(data), objectKey, mime); err != nil {
		return err
	}

	look := &models.Look{
		ID:                primitive.NewObjectID(),
		SessionID:         req.SessionID,
		Mode:              req.Mode,
		Instruction:       req.Instruction,
		GeneratedImageURL: objectKey,
		Status:            lookStatusCompleted,
		CreatedAt:         created,
	}
	return a.looks.Insert(ctx, look)
}

// Gallery paging bounds; they keep (page-1)*limit far from overflowing.
const (
	MaxGalleryPage  = 10000
	MaxGalleryLimit = 100
)

// Gallery lists looks newest first with presigned image URLs. page starts at 1.
func (a *LookArchive) Gallery(ctx context.Context, sessionID string, page, limit int) (GalleryPage, error) {
	if page < 1 {
		page = 1
	}
	if page > MaxGalleryPage {
		page = MaxGalleryPage
	}
	if limit < 1 {
		limit = 10
	}
	if limit > MaxGalleryLimit {
		limit = MaxGalleryLimit
	}

	looks, total, err := a.looks.List(ctx, sessionID, int64((page-1)*limit), int64(limit))
	if err != nil {
		return GalleryPage{}, err
	}

	for i := range looks {
		if looks[i].GeneratedImageURL == "" {
			continue
		}
		// keep the key when presigning fails
		if url, err := a.objects.PresignedURL(ctx, looks[i].GeneratedImageURL); err == nil {
			looks[i].GeneratedImageURL = url
		}
	}
	if looks == nil {
		looks = []models.Look{}
	}

	totalPages := 0
	if total > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return GalleryPage{Looks: looks, Total: total, CurrentPage: page, TotalPages: totalPages}, nil
}

// MongoLookRepository keeps looks in a MongoDB collection.
type MongoLookRepository struct {
	collection *mongo.Collection
}

func NewMongoLookRepository(collection *mongo.Collection) *MongoLookRepository {
	return &MongoLookRepository{collection: collection}
}

func (r *MongoLookRepository) Insert(ctx context.Context, look *models.Look) error {
	if _, err := r.collection.InsertOne(ctx, look); err != nil {
		return fmt.Errorf("failed to save look: %w", err)
	}
	return nil
}

func (r *MongoLookRepository) List(ctx context.Context, sessionID string, skip, limit int64) ([]models.Look, int64, error) {
	filter := bson.M{"session_id": sessionID, "status": lookStatusCompleted}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count looks: %w", err)
	}

	findOptions := options.Find()
	findOptions.SetSort(bson.D{{Key: "created_at", Value: -1}}) // latest first
	findOptions.SetSkip(skip)
	findOptions.SetLimit(limit)

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch looks: %w", err)
	}
	defer cursor.Close(ctx)

	var looks []models.Look
	if err := cursor.All(ctx, &looks); err != nil {
		return nil, 0, fmt.Errorf("failed to decode looks: %w", err)
	}
	return looks, total, nil
}
