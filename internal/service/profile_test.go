package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/msomdec/account-portal/internal/domain"
	"github.com/msomdec/account-portal/internal/repository/memory"
	"github.com/msomdec/account-portal/internal/service"
)

func newTestProfileService(t *testing.T) (*service.ProfileService, *memory.UserRepository, *memory.FileStore) {
	t.Helper()
	users := memory.NewUserRepository()
	files := memory.NewFileStore()

	err := users.Create(context.Background(), &domain.User{
		Username:       "alice",
		Email:          "alice@example.com",
		PasswordHash:   "hash",
		Region:         "EU",
		ProfilePicture: domain.DefaultProfilePicture,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return service.NewProfileService(users, files), users, files
}

func TestProfileService_GetProfile(t *testing.T) {
	profiles, _, _ := newTestProfileService(t)
	ctx := context.Background()

	user, err := profiles.GetProfile(ctx, "alice")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if user.Email != "alice@example.com" || user.ProfilePicture != domain.DefaultProfilePicture {
		t.Fatalf("unexpected profile %+v", user)
	}

	if _, err := profiles.GetProfile(ctx, "ghost"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for unknown user, got %v", err)
	}
}

func TestProfileService_UpdateProfilePicture(t *testing.T) {
	profiles, users, files := newTestProfileService(t)
	ctx := context.Background()

	url, err := profiles.UpdateProfilePicture(ctx, "alice", "image/png", []byte("png-bytes"))
	if err != nil {
		t.Fatalf("UpdateProfilePicture: %v", err)
	}
	if url != "/uploads/profile-alice.png" {
		t.Fatalf("unexpected url %q", url)
	}

	stored, _ := users.GetByUsername(ctx, "alice")
	if stored.ProfilePicture != url {
		t.Fatalf("expected profile picture %q, got %q", url, stored.ProfilePicture)
	}

	data, contentType, err := files.Get(ctx, "profile-alice.png")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != "png-bytes" || contentType != "image/png" {
		t.Fatalf("unexpected stored file %q (%s)", data, contentType)
	}

	// A second upload with the same extension overwrites the first.
	if _, err := profiles.UpdateProfilePicture(ctx, "alice", "image/png", []byte("newer")); err != nil {
		t.Fatalf("second upload: %v", err)
	}
	if files.Len() != 1 {
		t.Fatalf("expected 1 stored file, got %d", files.Len())
	}
	data, _, _ = files.Get(ctx, "profile-alice.png")
	if string(data) != "newer" {
		t.Fatalf("expected overwritten bytes, got %q", data)
	}
}

func TestProfileService_UpdateProfilePicture_Rejections(t *testing.T) {
	profiles, users, files := newTestProfileService(t)
	ctx := context.Background()

	tests := []struct {
		name        string
		contentType string
		size        int
		want        string
	}{
		{"not an image", "text/plain", 10, "Only image files are allowed."},
		{"html", "text/html; charset=utf-8", 10, "Only image files are allowed."},
		{"svg", "image/svg+xml", 10, "Only image files are allowed."},
		{"bmp", "image/bmp", 10, "Only image files are allowed."},
		{"too large", "image/png", service.MaxProfilePictureSize + 1, "File exceeds the 5MB limit."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := profiles.UpdateProfilePicture(ctx, "alice", tt.contentType, make([]byte, tt.size))
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if msg := domain.Message(err, ""); msg != tt.want {
				t.Fatalf("expected message %q, got %q", tt.want, msg)
			}
		})
	}

	// Exactly the limit is accepted.
	if _, err := profiles.UpdateProfilePicture(ctx, "alice", "image/png", make([]byte, service.MaxProfilePictureSize)); err != nil {
		t.Fatalf("upload at the limit: %v", err)
	}

	stored, _ := users.GetByUsername(ctx, "alice")
	if stored.ProfilePicture != "/uploads/profile-alice.png" {
		t.Fatalf("unexpected profile picture %q", stored.ProfilePicture)
	}
	if files.Len() != 1 {
		t.Fatalf("expected only the accepted upload to be stored, got %d", files.Len())
	}
}

func TestProfileService_UpdateProfilePicture_UnknownUser(t *testing.T) {
	profiles, _, files := newTestProfileService(t)

	_, err := profiles.UpdateProfilePicture(context.Background(), "ghost", "image/png", []byte("x"))
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if files.Len() != 0 {
		t.Fatalf("expected the stored file to be cleaned up, got %d files", files.Len())
	}
}

func TestProfilePictureKey(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
		ok          bool
	}{
		{"image/png", "profile-alice.png", true},
		{"image/jpeg", "profile-alice.jpg", true},
		{"image/gif", "profile-alice.gif", true},
		{"image/webp", "profile-alice.webp", true},
		{"image/svg+xml", "", false},
		{"text/html; charset=utf-8", "", false},
		{"application/octet-stream", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			got, ok := service.ProfilePictureKey("alice", tt.contentType)
			if ok != tt.ok || got != tt.want {
				t.Fatalf("expected (%q, %v), got (%q, %v)", tt.want, tt.ok, got, ok)
			}
		})
	}
}
