package handlers

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"lms-backend/internal/models"
	"lms-backend/internal/services"
	"lms-backend/internal/storage"
)

const maxUploadSize = 100 * 1024 * 1024 // 100MB

type UploadHandler struct {
	store storage.FileStore
}

func NewUploadHandler(store storage.FileStore) *UploadHandler {
	return &UploadHandler{store: store}
}

// Upload stores one multipart "file" and reports the URL and the content
// block type it can be embedded as.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > maxUploadSize {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("FILE_TOO_LARGE", "File size exceeds 100MB limit", r))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "No file provided", r))
		return
	}
	defer file.Close()

	// Read first 512 bytes for magic byte check
	buf := make([]byte, 512)
	n, _ := file.Read(buf)
	mimeType := http.DetectContentType(buf[:n])

	blockType, ok := blockTypeFor(mimeType, header.Filename)
	if !ok {
		writeJSON(w, http.StatusUnsupportedMediaType, errorResp("UNSUPPORTED_FORMAT", "File type not supported", r))
		return
	}

	if blockType == models.BlockTypePDF {
		if _, err := services.InspectPDF(file, header.Size); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResp("INVALID_PDF", "The PDF could not be read", r))
			return
		}
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		handleServiceError(w, r, err)
		return
	}

	url, err := h.store.Store(r.Context(), file, header.Size, mimeType, header.Filename)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"url":          url,
		"content_type": mimeType,
		"size":         header.Size,
		"block_type":   blockType,
	})
}

// blockTypeFor maps a sniffed MIME type to a content block type. Plain
// text and markdown files map to markdown blocks.
func blockTypeFor(mime, filename string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(filename))

	switch {
	case mime == "application/pdf":
		return models.BlockTypePDF, true
	case strings.HasPrefix(mime, "image/"):
		return models.BlockTypeImage, true
	case mime == "video/mp4" || mime == "video/webm":
		return models.BlockTypeVideo, true
	case strings.HasPrefix(mime, "text/plain") && (ext == ".md" || ext == ".txt"):
		return models.BlockTypeMarkdown, true
	case mime == "application/octet-stream" && (ext == ".mp4" || ext == ".m4v"):
		return models.BlockTypeVideo, true
	}
	return "", false
}
