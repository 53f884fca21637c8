package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5/middleware"
)

// maxFormBody caps the size of register and login request bodies.
const maxFormBody = 1 << 20 // 1MB

var errUnsupportedBody = errors.New("unsupported request body")

// writeJSON sends a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("write JSON response", "error", err)
	}
}

// writeMessage sends a JSON body of the form {"message": "..."}.
func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// writeInternalError logs err with the request ID and sends a generic 500.
func writeInternalError(w http.ResponseWriter, r *http.Request, action string, err error) {
	slog.Error(action, "error", err, "request_id", middleware.GetReqID(r.Context()))
	writeMessage(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
}

// formBinder is implemented by request types that can also be filled from
// url-encoded or multipart form values.
type formBinder interface {
	bindForm(values url.Values)
}

// readRequest decodes a JSON or form-encoded request body into dst.
// A missing Content-Type is treated as JSON.
func readRequest(w http.ResponseWriter, r *http.Request, dst formBinder) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBody)

	mediaType := "application/json"
	if ct := r.Header.Get("Content-Type"); ct != "" {
		parsed, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return err
		}
		mediaType = parsed
	}

	switch mediaType {
	case "application/json":
		return json.NewDecoder(r.Body).Decode(dst)
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return err
		}
		dst.bindForm(r.PostForm)
		return nil
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxFormBody); err != nil {
			return err
		}
		dst.bindForm(r.PostForm)
		return nil
	}
	return errUnsupportedBody
}
