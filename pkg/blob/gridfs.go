package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrBlobNotFound = errors.New("blob not found")

// GridFSStore keeps images in a MongoDB GridFS bucket and serves them back
// through the API. Refs are hex ObjectIDs.
type GridFSStore struct {
	bucket  *gridfs.Bucket
	baseURL string
}

// NewGridFSStore opens the "images" bucket in db. baseURL is the public API
// origin; stored images are reachable at <baseURL>/images/<ref>.
func NewGridFSStore(db *mongo.Database, baseURL string) (*GridFSStore, error) {
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName("images"))
	if err != nil {
		return nil, fmt.Errorf("failed to open gridfs bucket: %w", err)
	}
	return &GridFSStore{bucket: bucket, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

func (s *GridFSStore) Upload(ctx context.Context, data []byte, contentType string) (Object, error) {
	filename := uuid.New().String() + extension(contentType)
	opts := options.GridFSUpload().SetMetadata(bson.M{"contentType": contentType})

	stream, err := s.bucket.OpenUploadStream(filename, opts)
	if err != nil {
		return Object{}, fmt.Errorf("failed to open upload stream: %w", err)
	}
	defer stream.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = stream.SetWriteDeadline(deadline)
	}

	if _, err := stream.Write(data); err != nil {
		return Object{}, fmt.Errorf("failed to write image: %w", err)
	}
	if err := stream.Close(); err != nil {
		return Object{}, fmt.Errorf("failed to finish upload: %w", err)
	}

	id, ok := stream.FileID.(primitive.ObjectID)
	if !ok {
		return Object{}, fmt.Errorf("unexpected gridfs file id %v", stream.FileID)
	}
	ref := id.Hex()
	return Object{URL: s.baseURL + "/images/" + ref, Ref: ref}, nil
}

func (s *GridFSStore) Delete(ctx context.Context, ref string) error {
	id, err := primitive.ObjectIDFromHex(ref)
	if err != nil {
		return fmt.Errorf("invalid blob ref %q: %w", ref, err)
	}
	if err := s.bucket.DeleteContext(ctx, id); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return ErrBlobNotFound
		}
		return fmt.Errorf("failed to delete blob %s: %w", ref, err)
	}
	return nil
}

// Open returns the stored bytes and content type for ref.
func (s *GridFSStore) Open(ctx context.Context, ref string) (io.Reader, string, error) {
	id, err := primitive.ObjectIDFromHex(ref)
	if err != nil {
		return nil, "", ErrBlobNotFound
	}
	stream, err := s.bucket.OpenDownloadStream(id)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, "", ErrBlobNotFound
		}
		return nil, "", fmt.Errorf("failed to open blob %s: %w", ref, err)
	}
	defer stream.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = stream.SetReadDeadline(deadline)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, stream); err != nil {
		return nil, "", fmt.Errorf("failed to read blob %s: %w", ref, err)
	}

	contentType := "application/octet-stream"
	var meta struct {
		ContentType string `bson:"contentType"`
	}
	if raw := stream.GetFile().Metadata; raw != nil {
		if err := bson.Unmarshal(raw, &meta); err == nil && meta.ContentType != "" {
			contentType = meta.ContentType
		}
	}
	return &buf, contentType, nil
}
