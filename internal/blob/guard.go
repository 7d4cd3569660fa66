package blob

import (
	"bytes"
	"context"
	"fmt"
	"github.com/gabriel-vasile/mimetype"
	"github.com/saddiabu4/telegram-web-app-backend/internal/domain"
	"io"
	"path/filepath"
	"strings"
)

// DefaultMaxBytes is the upload limit used when none is configured.
const DefaultMaxBytes = 5 << 20

var allowedExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

var allowedTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// declaredAliases are non-standard JPEG types some clients send
var declaredAliases = map[string]bool{
	"image/jpg":   true,
	"image/pjpeg": true,
}

// Guard rejects anything that is not a small image before it reaches the
// wrapped Store.
type Guard struct {
	next     Store
	maxBytes int64
}

func NewGuard(next Store, maxBytes int64) *Guard {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Guard{next: next, maxBytes: maxBytes}
}

func (g *Guard) Save(ctx context.Context, u Upload) (Object, error) {
	ext := strings.ToLower(filepath.Ext(u.Filename))
	if !allowedExtensions[ext] {
		return Object{}, fmt.Errorf("extension %q: %w", ext, domain.ErrUnsupportedMediaType)
	}
	if !declaredTypeAllowed(u.ContentType) {
		return Object{}, fmt.Errorf("content type %q: %w", u.ContentType, domain.ErrUnsupportedMediaType)
	}

	data, err := io.ReadAll(io.LimitReader(u.Body, g.maxBytes+1))
	if err != nil {
		return Object{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > g.maxBytes {
		return Object{}, domain.ErrPayloadTooLarge
	}

	detected := mimetype.Detect(data)
	if !isAllowedType(detected) {
		return Object{}, fmt.Errorf("detected %s: %w", detected.String(), domain.ErrUnsupportedMediaType)
	}

	u.ContentType = detected.String()
	u.Body = bytes.NewReader(data)
	return g.next.Save(ctx, u)
}

func (g *Guard) Delete(ctx context.Context, key string) error {
	return g.next.Delete(ctx, key)
}

// declaredTypeAllowed accepts an empty or generic declaration; the sniffed
// type decides in that case.
func declaredTypeAllowed(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(strings.SplitN(ct, ";", 2)[0]))
	if ct == "" || ct == "application/octet-stream" || declaredAliases[ct] {
		return true
	}
	for _, t := range allowedTypes {
		if ct == t {
			return true
		}
	}
	return false
}

func isAllowedType(m *mimetype.MIME) bool {
	for _, t := range allowedTypes {
		if m.Is(t) {
			return true
		}
	}
	return false
}
