package handler

import (
	_ "embed"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/msomdec/account-portal/internal/domain"
	"github.com/msomdec/account-portal/internal/service"
)

// ProfilePictureField is the multipart field holding the uploaded image.
const ProfilePictureField = "profilePicture"

// defaultAvatarName is served from the binary when the store lacks it.
const defaultAvatarName = "avatar.png"

// maxUploadBody leaves room for multipart framing around the image.
const maxUploadBody = service.MaxProfilePictureSize + 1<<20

//go:embed static/avatar.png
var defaultAvatar []byte

// ProfileHandler serves the caller's profile, accepts profile picture
// uploads and serves stored uploads.
type ProfileHandler struct {
	profiles *service.ProfileService
	files    domain.FileStore
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profiles *service.ProfileService, files domain.FileStore) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, files: files}
}

// HandleProfile returns the authenticated user.
// GET /profile
// Response: {"username":"...","email":"...","region":"...","profilePicture":"..."}
func (h *ProfileHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	username := UsernameFromContext(r.Context())
	if username == "" {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.profiles.GetProfile(r.Context(), username)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			writeMessage(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		writeInternalError(w, r, "get profile", err)
		return
	}

	writeJSON(w, http.StatusOK, toUserDTO(user))
}

// HandleUpload stores a new profile picture for the authenticated user.
// POST /upload-profile-picture (multipart, field "profilePicture")
// Response: {"message":"Profile picture uploaded successfully","imageUrl":"..."}
func (h *ProfileHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	username := UsernameFromContext(r.Context())
	if username == "" {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(maxUploadBody); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeMessage(w, http.StatusBadRequest, "File exceeds the 5MB limit.")
			return
		}
		writeMessage(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile(ProfilePictureField)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeInternalError(w, r, "read upload", err)
		return
	}

	// Detect content type from file bytes; the part header and file name
	// are client-controlled.
	contentType := http.DetectContentType(data)

	url, err := h.profiles.UpdateProfilePicture(r.Context(), username, contentType, data)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnauthorized):
			writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		case errors.Is(err, domain.ErrInvalidInput):
			writeMessage(w, http.StatusBadRequest, domain.Message(err, "Invalid file."))
		default:
			writeInternalError(w, r, "upload profile picture", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Message:  "Profile picture uploaded successfully",
		ImageURL: url,
	})
}

// HandleServeUpload serves stored upload bytes.
// GET /uploads/{name}
func (h *ProfileHandler) HandleServeUpload(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	data, _, err := h.files.Get(r.Context(), name)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound) && name == defaultAvatarName:
			data = defaultAvatar
		case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrInvalidInput):
			writeMessage(w, http.StatusNotFound, "Not found.")
			return
		default:
			writeInternalError(w, r, "serve upload", err)
			return
		}
	}

	// Only serve bytes that really are an accepted image type, whatever the
	// stored name or type says.
	contentType := http.DetectContentType(data)
	if _, ok := service.ImageExtension(contentType); !ok {
		writeMessage(w, http.StatusNotFound, "Not found.")
		return
	}

	// Names are reused across uploads, so clients must revalidate.
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Security-Policy", "default-src 'none'; sandbox")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}
