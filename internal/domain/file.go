package domain

import "context"

// FileStore abstracts raw file byte storage for uploaded profile pictures.
// Save overwrites any existing object under the same key.
// Get returns ErrNotFound for unknown keys; contentType may be empty when
// the backend does not record it.
type FileStore interface {
	Save(ctx context.Context, key, contentType string, data []byte) error
	Get(ctx context.Context, key string) (data []byte, contentType string, err error)
	Delete(ctx context.Context, key string) error
}
