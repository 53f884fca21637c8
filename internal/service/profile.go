package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/msomdec/account-portal/internal/domain"
)

// MaxProfilePictureSize is the largest accepted upload.
const MaxProfilePictureSize = 5 * 1024 * 1024 // 5MB

// UploadURLPrefix is the public path under which stored files are served.
const UploadURLPrefix = "/uploads/"

// imageExtensions lists the accepted image types and the extension each is
// stored under.
var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ImageExtension returns the storage extension for an accepted image type.
func ImageExtension(contentType string) (string, bool) {
	ext, ok := imageExtensions[contentType]
	return ext, ok
}

// ProfileService serves the authenticated user's own profile and replaces
// their profile picture.
type ProfileService struct {
	users domain.UserRepository
	files domain.FileStore
}

// NewProfileService creates a new ProfileService.
func NewProfileService(users domain.UserRepository, files domain.FileStore) *ProfileService {
	return &ProfileService{users: users, files: files}
}

// GetProfile re-reads the user from the store. A session whose username no
// longer resolves is treated as unauthenticated.
func (s *ProfileService) GetProfile(ctx context.Context, username string) (domain.PublicUser, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.PublicUser{}, domain.ErrUnauthorized
		}
		return domain.PublicUser{}, fmt.Errorf("get user: %w", err)
	}
	return user.Public(), nil
}

// UpdateProfilePicture validates and stores an image as the user's profile
// picture and returns its public URL. contentType must be the type detected
// from data. Each user has one storage key per image type, so a new upload
// overwrites the previous one.
func (s *ProfileService) UpdateProfilePicture(ctx context.Context, username, contentType string, data []byte) (string, error) {
	key, ok := ProfilePictureKey(username, contentType)
	if !ok {
		return "", domain.NewError(domain.ErrInvalidInput, "Only image files are allowed.")
	}
	if len(data) > MaxProfilePictureSize {
		return "", domain.NewError(domain.ErrInvalidInput, "File exceeds the 5MB limit.")
	}

	if err := s.files.Save(ctx, key, contentType, data); err != nil {
		return "", fmt.Errorf("save file: %w", err)
	}

	url := UploadURLPrefix + key
	if err := s.users.Update(ctx, username, domain.UserPatch{ProfilePicture: &url}); err != nil {
		// Best-effort cleanup of the stored file.
		s.files.Delete(ctx, key)
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrUnauthorized
		}
		return "", fmt.Errorf("update user: %w", err)
	}

	return url, nil
}

// ProfilePictureKey derives the storage key for a user's picture from its
// detected content type. It reports false for types that are not accepted
// images.
func ProfilePictureKey(username, contentType string) (string, bool) {
	ext, ok := ImageExtension(contentType)
	if !ok {
		return "", false
	}
	return "profile-" + username + ext, true
}
