package domain

import "time"

// Product represents a catalog item
//
// swagger:model
type Product struct {
	// The ID of the product
	//
	// required: true
	// example: 665f1c2ab7e4a1d2c3b4a5f6
	ID string `json:"id"`

	// The name of the product
	//
	// required: true
	// example: Lip Balm
	Name string `json:"name"`

	// The description of the product
	//
	// required: false
	// example: Shea butter lip balm
	Description string `json:"description"`

	// The price of the product
	//
	// required: true
	// min: 0
	// example: 9.99
	Price float64 `json:"price"`

	// Image reference: a local filename or a remote URL
	//
	// required: false
	Image string `json:"image,omitempty"`

	// Blob store key backing Image
	//
	// required: false
	ImageID string `json:"imageId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasImage reports whether the product references a stored blob.
func (p *Product) HasImage() bool {
	return p.Image != "" || p.ImageID != ""
}

// ImageKey returns the blob store key for the product image. Records written
// before the key was stored separately fall back to the image reference.
func (p *Product) ImageKey() string {
	if p.ImageID != "" {
		return p.ImageID
	}
	return p.Image
}

// ProductInput carries the fields accepted when a product is created.
type ProductInput struct {
	Name        string   `form:"name" validate:"notblank"`
	Description string   `form:"description"`
	Price       *float64 `form:"price" validate:"required,gte=0"`
}

// ProductPatch carries a partial update. A nil field is left untouched, a
// non-nil field is applied even when it holds the zero value.
type ProductPatch struct {
	Name        *string  `form:"name" validate:"omitnil,notblank"`
	Description *string  `form:"description"`
	Price       *float64 `form:"price" validate:"omitnil,gte=0"`
}

// Empty reports whether the patch changes no field.
func (p ProductPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil
}

// Apply copies the present fields onto product.
func (p ProductPatch) Apply(product *Product) {
	if p.Name != nil {
		product.Name = *p.Name
	}
	if p.Description != nil {
		product.Description = *p.Description
	}
	if p.Price != nil {
		product.Price = *p.Price
	}
}
