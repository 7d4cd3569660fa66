package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/saddiabu4/telegram-web-app-backend/internal/blob"
	"github.com/saddiabu4/telegram-web-app-backend/internal/domain"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
)

const (
	// room for the text fields and multipart framing around the image
	formOverhead = 1 << 20
	// multipart parts above this size spill to temporary files
	formMemory = 1 << 20
	imageField = "image"
)

var productFields = []string{"name", "description", "price"}

// productForm holds the product fields present in a request. A key is in
// values only when the client sent it.
type productForm struct {
	values map[string]string
	image  *blob.Upload
	closer io.Closer
	mf     *multipart.Form
}

func (f *productForm) Close() {
	if f.closer != nil {
		f.closer.Close()
	}
	if f.mf != nil {
		f.mf.RemoveAll()
	}
}

// readProductForm accepts multipart, urlencoded and JSON bodies.
func readProductForm(w http.ResponseWriter, r *http.Request, maxBody int64) (*productForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	form := &productForm{values: map[string]string{}}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		if err := form.readJSON(r.Body); err != nil {
			return nil, err
		}
		return form, nil

	case "multipart/form-data":
		if err := r.ParseMultipartForm(formMemory); err != nil {
			return nil, wrapBodyError(err)
		}
		form.mf = r.MultipartForm
		for _, key := range productFields {
			if vs, ok := r.MultipartForm.Value[key]; ok && len(vs) > 0 {
				form.values[key] = vs[0]
			}
		}
		if files := r.MultipartForm.File[imageField]; len(files) > 0 {
			fh := files[0]
			file, err := fh.Open()
			if err != nil {
				form.Close()
				return nil, fmt.Errorf("open uploaded file: %w", err)
			}
			form.closer = file
			form.image = &blob.Upload{
				Filename:    fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Body:        file,
			}
		}
		return form, nil

	default:
		if err := r.ParseForm(); err != nil {
			return nil, wrapBodyError(err)
		}
		for _, key := range productFields {
			if vs, ok := r.PostForm[key]; ok && len(vs) > 0 {
				form.values[key] = vs[0]
			}
		}
		return form, nil
	}
}

func (f *productForm) readJSON(body io.Reader) error {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return wrapBodyError(err)
	}

	for _, key := range productFields {
		msg, ok := raw[key]
		if !ok || string(msg) == "null" {
			continue
		}
		var s string
		if err := json.Unmarshal(msg, &s); err == nil {
			f.values[key] = s
			continue
		}
		var n float64
		if err := json.Unmarshal(msg, &n); err == nil {
			f.values[key] = strconv.FormatFloat(n, 'f', -1, 64)
			continue
		}
		return fmt.Errorf("%w: %s must be a string or a number", errBadRequest, key)
	}
	return nil
}

// wrapBodyError keeps size errors recognisable and marks the rest as 400
func wrapBodyError(err error) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return err
	}
	// some readers flatten the size error into text
	if strings.Contains(err.Error(), "request body too large") {
		return domain.ErrPayloadTooLarge
	}
	return fmt.Errorf("%w: %v", errBadRequest, err)
}
