package blob

import (
	"context"
	"fmt"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/hashicorp/go-hclog"
	"net/url"
	"path"
	"regexp"
	"strings"
)

const (
	CloudinaryFolder         = "cosmetic-shop"
	CloudinaryTransformation = "c_limit,w_800,h_800"
)

// Cloudinary stores images in a Cloudinary folder. Keys are public ids and
// refs are secure delivery URLs.
type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
	log    hclog.Logger
}

func NewCloudinary(cloudName, apiKey, apiSecret string, log hclog.Logger) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("configure cloudinary: %w", err)
	}
	return &Cloudinary{cld: cld, folder: CloudinaryFolder, log: log}, nil
}

func (c *Cloudinary) Save(ctx context.Context, u Upload) (Object, error) {
	res, err := c.cld.Upload.Upload(ctx, u.Body, uploader.UploadParams{
		Folder:         c.folder,
		Transformation: CloudinaryTransformation,
		ResourceType:   "image",
	})
	if err != nil {
		return Object{}, fmt.Errorf("cloudinary upload: %w", err)
	}
	if res.Error.Message != "" {
		return Object{}, fmt.Errorf("cloudinary upload: %s", res.Error.Message)
	}

	c.log.Debug("Uploaded image", "public_id", res.PublicID)
	return Object{Key: res.PublicID, Ref: res.SecureURL}, nil
}

// Delete destroys the asset. A full URL is accepted for records written
// before public ids were stored.
func (c *Cloudinary) Delete(ctx context.Context, key string) error {
	publicID := key
	if strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://") {
		id, ok := PublicIDFromURL(key)
		if !ok {
			c.log.Warn("Unable to derive public id from image URL", "url", key)
			return fmt.Errorf("no public id in %q", key)
		}
		publicID = id
	}

	res, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: "image",
	})
	if err != nil {
		return fmt.Errorf("cloudinary destroy: %w", err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy: %s", res.Error.Message)
	}
	if res.Result != "ok" && res.Result != "not found" {
		return fmt.Errorf("cloudinary destroy: unexpected result %q", res.Result)
	}
	return nil
}

var versionSegment = regexp.MustCompile(`^v\d+$`)

// PublicIDFromURL recovers the public id from a delivery URL such as
// https://res.cloudinary.com/demo/image/upload/v1712/cosmetic-shop/abc.jpg
func PublicIDFromURL(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}

	_, rest, found := strings.Cut(u.Path, "/upload/")
	if !found {
		return "", false
	}

	segments := strings.Split(strings.Trim(rest, "/"), "/")
	// transformations come before the version segment
	for i, s := range segments {
		if versionSegment.MatchString(s) {
			segments = segments[i+1:]
			break
		}
	}
	if len(segments) == 0 || segments[0] == "" {
		return "", false
	}

	id := strings.Join(segments, "/")
	id = strings.TrimSuffix(id, path.Ext(id))
	if id == "" {
		return "", false
	}
	return id, true
}
