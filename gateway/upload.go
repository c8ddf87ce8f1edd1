package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// StoredFile is an uploaded binary as served back to clients.
type StoredFile struct {
	Name        string
	ContentType string
	Size        int64
	Data        io.Reader
}

// Uploader stores a file and returns a durable reference URL for it.
type Uploader interface {
	Upload(ctx context.Context, filename, contentType string, r io.Reader) (string, error)
	Open(ctx context.Context, id string) (*StoredFile, error)
}

// GridFSUploader keeps uploads in a GridFS bucket and serves them under publicPrefix.
type GridFSUploader struct {
	bucket       *gridfs.Bucket
	publicPrefix string
}

func NewGridFSUploader(db *mongo.Database, bucketName, publicPrefix string) (*GridFSUploader, error) {
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName(bucketName))
	if err != nil {
		return nil, fmt.Errorf("creating gridfs bucket: %w", err)
	}
	return &GridFSUploader{bucket: bucket, publicPrefix: publicPrefix}, nil
}

func (u *GridFSUploader) Upload(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	if deadline, ok := ctx.Deadline(); ok {
		if err := u.bucket.SetWriteDeadline(deadline); err != nil {
			return "", err
		}
	}
	opts := options.GridFSUpload().SetMetadata(bson.D{
		{Key: "content_type", Value: contentType},
		{Key: "uploaded_at", Value: time.Now().UTC()},
	})
	id, err := u.bucket.UploadFromStream(filename, r, opts)
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", filename, err)
	}
	return u.publicPrefix + id.Hex(), nil
}

func (u *GridFSUploader) Open(ctx context.Context, id string) (*StoredFile, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := u.bucket.SetReadDeadline(deadline); err != nil {
			return nil, err
		}
	}
	stream, err := u.bucket.OpenDownloadStream(oid)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("opening upload: %w", err)
	}
	defer stream.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, stream); err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}

	file := stream.GetFile()
	contentType := "application/octet-stream"
	var meta struct {
		ContentType string `bson:"content_type"`
	}
	if file.Metadata != nil && bson.Unmarshal(file.Metadata, &meta) == nil && meta.ContentType != "" {
		contentType = meta.ContentType
	}
	return &StoredFile{Name: file.Name, ContentType: contentType, Size: file.Length, Data: &buf}, nil
}

// MemoryUploader keeps uploads in process memory.
type MemoryUploader struct {
	mu           sync.RWMutex
	files        map[string]memoryFile
	publicPrefix string
}

type memoryFile struct {
	name        string
	contentType string
	data        []byte
}

func NewMemoryUploader(publicPrefix string) *MemoryUploader {
	return &MemoryUploader{files: make(map[string]memoryFile), publicPrefix: publicPrefix}
}

func (u *MemoryUploader) Upload(_ context.Context, filename, contentType string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", filename, err)
	}
	id := uuid.NewString()
	u.mu.Lock()
	u.files[id] = memoryFile{name: filename, contentType: contentType, data: data}
	u.mu.Unlock()
	return u.publicPrefix + id, nil
}

func (u *MemoryUploader) Open(_ context.Context, id string) (*StoredFile, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	f, ok := u.files[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &StoredFile{
		Name:        f.name,
		ContentType: f.contentType,
		Size:        int64(len(f.data)),
		Data:        bytes.NewReader(f.data),
	}, nil
}
