package upload

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ErrNoFile is returned when the multipart form carries no "file" field.
var ErrNoFile = errors.New("no file in request")

// Handler accepts uploads and serves stored files back.
type Handler struct {
	store   FileStore
	maxSize int64
}

// NewHandler creates a Handler storing at most maxSize bytes per upload.
func NewHandler(store FileStore, maxSize int64) *Handler {
	return &Handler{store: store, maxSize: maxSize}
}

// UploadResponse is the payload for POST /upload. URL is the retrievable
// location a send_file event should reference.
type UploadResponse struct {
	Filename    string `json:"filename"`
	OriginalURL string `json:"originalUrl"`
	URL         string `json:"url"`
}

// Upload stores the "file" field of a multipart form and responds with the
// stored name and its URL. Failures surface to this request only; nothing
// is broadcast and no message is appended.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, ErrNoFile.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	stored, err := h.store.Save(header.Filename, file)
	if err != nil {
		log.Printf("upload failed: %v", err)
		http.Error(w, "upload failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(UploadResponse{
		Filename:    stored,
		OriginalURL: "/uploads/" + header.Filename,
		URL:         "/uploads/" + stored,
	})
}

// Serve streams a stored file back to the client.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	f, err := h.store.Open(name)
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		log.Printf("serve %s: %v", name, err)
	}
}
