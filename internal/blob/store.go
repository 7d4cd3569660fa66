package blob

import (
	"context"
	"io"
)

// Upload is an image submitted by a client.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// Object describes a stored blob. Key is what the backend needs to delete
// it again, Ref is the value exposed to clients as the product image.
type Object struct {
	Key string
	Ref string
}

// Store is the byte storage behind product images.
type Store interface {
	Save(ctx context.Context, u Upload) (Object, error)
	Delete(ctx context.Context, key string) error
}
