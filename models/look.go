package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Look is an archived generation result shown in the gallery
type Look struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID         string             `bson:"session_id" json:"session_id"`
	Mode              Mode               `bson:"mode" json:"mode"`
	Instruction       string             `bson:"instruction" json:"instruction"`
	GeneratedImageURL string             `bson:"generated_image_url" json:"generated_image_url"` // S3 key in the DB, presigned URL in responses
	Status            string             `bson:"status" json:"status"`                           // e.g. "completed"
	CreatedAt         time.Time          `bson:"created_at" json:"created_at"`
}
