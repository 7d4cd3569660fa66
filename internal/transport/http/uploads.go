package http

import (
	"github.com/gabriel-vasile/mimetype"
	"github.com/gorilla/mux"
	"github.com/hashicorp/go-hclog"
	"github.com/saddiabu4/telegram-web-app-backend/internal/blob"
	"io"
	"net/http"
)

// Uploads serves images kept by the local blob store
type Uploads struct {
	log   hclog.Logger
	store *blob.Local
}

func NewUploads(l hclog.Logger, s *blob.Local) *Uploads {
	return &Uploads{log: l, store: s}
}

// GetFile handles GET /uploads/{filename}
func (u *Uploads) GetFile(rw http.ResponseWriter, r *http.Request) {
	fn := mux.Vars(r)["filename"]

	file, err := u.store.Open(fn)
	if err != nil {
		u.log.Debug("Unable to open file", "filename", fn, "error", err)
		http.Error(rw, "File not found", http.StatusNotFound)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil || info.IsDir() {
		http.Error(rw, "File not found", http.StatusNotFound)
		return
	}

	// Determine the content type from the bytes, not the name
	mt, err := mimetype.DetectReader(file)
	if err != nil {
		u.log.Error("Unable to detect content type", "filename", fn, "error", err)
		rw.Header().Set("Content-Type", "application/octet-stream")
	} else {
		rw.Header().Set("Content-Type", mt.String())
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		u.log.Error("Unable to rewind file", "filename", fn, "error", err)
		http.Error(rw, "Unable to serve the file", http.StatusInternalServerError)
		return
	}

	rw.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeContent(rw, r, fn, info.ModTime(), file)
}
