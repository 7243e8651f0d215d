package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

const maxUploadBytes = 32 << 20

// UploadFile handles POST /api/messages/upload. The stored path is what
// a file message later carries as its fileUrl. The content type is
// sniffed from the bytes, not trusted from the client.
func (h *Handler) UploadFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	dir := filepath.Join(h.uploadDir, fmt.Sprintf("%d", time.Now().UnixMilli()))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		h.fail(w, "creating upload directory", err)
		return
	}
	path := filepath.Join(dir, filepath.Base(header.Filename))

	dst, err := os.Create(path)
	if err != nil {
		h.fail(w, "creating upload file", err)
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		h.fail(w, "writing upload file", err)
		return
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		h.log.Warn("Content type detection failed", "path", path, "error", err)
	}
	contentType := ""
	if mtype != nil {
		contentType = mtype.String()
	}

	h.respond(w, http.StatusOK, map[string]any{
		"filePath":    path,
		"contentType": contentType,
	})
}
