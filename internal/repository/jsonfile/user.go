// Package jsonfile stores users as a single JSON array on disk. Every read
// loads the whole file and every mutation rewrites it, so the file on disk
// is always a complete snapshot. All access goes through one mutex.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/msomdec/account-portal/internal/domain"
)

// record is the on-disk shape of a user. Field names match the users.json
// files written by earlier versions of the service.
type record struct {
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"password"`
	Region         string    `json:"region"`
	ProfilePicture string    `json:"profilePicture,omitempty"`
	CreatedAt      time.Time `json:"createdAt,omitzero"`
	UpdatedAt      time.Time `json:"updatedAt,omitzero"`
}

// UserRepository implements domain.UserRepository on top of a JSON file.
type UserRepository struct {
	mu   sync.Mutex
	path string
}

// Open prepares the users file at path, creating its directory and an empty
// collection when they do not exist yet.
func Open(path string) (*UserRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: create data directory: %v", domain.ErrStorage, err)
	}

	r := &UserRepository{path: path}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := r.writeAll(nil); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("%w: stat users file: %v", domain.ErrStorage, err)
	}

	// Fail fast on a corrupt file instead of at the first request.
	if _, err := r.readAll(); err != nil {
		return nil, err
	}
	return r, nil
}

// Path returns the location of the users file.
func (r *UserRepository) Path() string {
	return r.path
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.readAll()
	if err != nil {
		return err
	}

	for _, rec := range records {
		if rec.Username == user.Username {
			return domain.ErrDuplicateUsername
		}
	}
	for _, rec := range records {
		if rec.Email == user.Email {
			return domain.ErrDuplicateEmail
		}
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	records = append(records, toRecord(user))

	return r.writeAll(records)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.find(func(rec *record) bool { return rec.Username == username })
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.find(func(rec *record) bool { return rec.Email == email })
}

func (r *UserRepository) Update(ctx context.Context, username string, patch domain.UserPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.readAll()
	if err != nil {
		return err
	}

	idx := -1
	for i := range records {
		if records[i].Username == username {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.ErrNotFound
	}

	if patch.ProfilePicture != nil {
		records[idx].ProfilePicture = *patch.ProfilePicture
	}
	records[idx].UpdatedAt = time.Now().UTC()

	return r.writeAll(records)
}

func (r *UserRepository) find(match func(*record) bool) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.readAll()
	if err != nil {
		return nil, err
	}
	for i := range records {
		if match(&records[i]) {
			return toUser(&records[i]), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *UserRepository) readAll() ([]record, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("%w: read users file: %v", domain.ErrStorage, err)
	}

	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: parse users file: %v", domain.ErrStorage, err)
	}
	return records, nil
}

// writeAll replaces the users file with records. The new content is written
// to a temporary file in the same directory and renamed over the old one.
func (r *UserRepository) writeAll(records []record) error {
	if records == nil {
		records = []record{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode users: %v", domain.ErrStorage, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".users-*.json")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", domain.ErrStorage, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write users file: %v", domain.ErrStorage, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: sync users file: %v", domain.ErrStorage, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close users file: %v", domain.ErrStorage, err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("%w: replace users file: %v", domain.ErrStorage, err)
	}
	return nil
}

func toRecord(u *domain.User) record {
	return record{
		Username:       u.Username,
		Email:          u.Email,
		PasswordHash:   u.PasswordHash,
		Region:         u.Region,
		ProfilePicture: u.ProfilePicture,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func toUser(rec *record) *domain.User {
	return &domain.User{
		Username:       rec.Username,
		Email:          rec.Email,
		PasswordHash:   rec.PasswordHash,
		Region:         rec.Region,
		ProfilePicture: rec.ProfilePicture,
		CreatedAt:      rec.CreatedAt,
		UpdatedAt:      rec.UpdatedAt,
	}
}
