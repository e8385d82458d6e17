package document

import (
	"context"
	"errors"
	"io"
	"time"
)

var ErrDuplicate = errors.New("document already exists")

// Document is an uploaded compliance file (business license, export license, identity document).
type Document struct {
	ID          string
	UserID      string
	Label       string
	FileName    string
	StoredName  string
	ContentType string
	Size        int64
	URL         string
	// Meta is the free-form JSON string sent alongside the upload.
	Meta      string
	CreatedAt time.Time
}

type Repository interface {
	Create(ctx context.Context, doc Document) error
	ListByUser(ctx context.Context, userID string) ([]Document, error)
}

// File is an attachment on its way to the upload endpoint.
type File struct {
	Name        string
	ContentType string
	Content     io.Reader
}
