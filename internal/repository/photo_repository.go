package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"

	"car-listing-service/internal/apperr"
	"car-listing-service/internal/metrics"
)

// PhotoRepository stores car images in a GridFS bucket.
type PhotoRepository struct {
	DB *mongo.Database
}

func NewPhotoRepository(db *mongo.Database) *PhotoRepository {
	return &PhotoRepository{DB: db}
}

func (r *PhotoRepository) UploadPhoto(ctx context.Context, file io.Reader, filename string) (_ string, err error) {
	defer metrics.ObserveStore(driver, "PhotoRepository.UploadPhoto", time.Now(), &err)
	bucket, err := gridfs.NewBucket(r.DB)
	if err != nil {
		return "", apperr.Store("PhotoRepository.UploadPhoto", err)
	}

	stream, err := bucket.OpenUploadStream(filename)
	if err != nil {
		return "", apperr.Store("PhotoRepository.UploadPhoto", err)
	}
	if dl, ok := ctx.Deadline(); ok {
		if err := stream.SetWriteDeadline(dl); err != nil {
			_ = stream.Abort()
			return "", apperr.Store("PhotoRepository.UploadPhoto", err)
		}
	}

	if _, err := io.Copy(stream, file); err != nil {
		_ = stream.Abort()
		return "", apperr.Store("PhotoRepository.UploadPhoto", err)
	}
	if err := stream.Close(); err != nil {
		return "", apperr.Store("PhotoRepository.UploadPhoto", err)
	}

	id, ok := stream.FileID.(primitive.ObjectID)
	if !ok {
		return "", apperr.Store("PhotoRepository.UploadPhoto", fmt.Errorf("unexpected file id %T", stream.FileID))
	}
	return id.Hex(), nil
}

func (r *PhotoRepository) DownloadPhoto(ctx context.Context, photoID string) (_ []byte, err error) {
	defer metrics.ObserveStore(driver, "PhotoRepository.DownloadPhoto", time.Now(), &err)
	objID, err := primitive.ObjectIDFromHex(photoID)
	if err != nil {
		return nil, apperr.NotFound("photo %s not found", photoID)
	}

	bucket, err := gridfs.NewBucket(r.DB)
	if err != nil {
		return nil, apperr.Store("PhotoRepository.DownloadPhoto", err)
	}
	stream, err := bucket.OpenDownloadStream(objID)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, apperr.NotFound("photo %s not found", photoID)
		}
		return nil, apperr.Store("PhotoRepository.DownloadPhoto", err)
	}
	defer stream.Close()
	if dl, ok := ctx.Deadline(); ok {
		if err := stream.SetReadDeadline(dl); err != nil {
			return nil, apperr.Store("PhotoRepository.DownloadPhoto", err)
		}
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, stream); err != nil {
		return nil, apperr.Store("PhotoRepository.DownloadPhoto", err)
	}
	return buf.Bytes(), nil
}
