package http

import (
	"github.com/gorilla/mux"
	"github.com/hashicorp/go-hclog"
	"github.com/saddiabu4/telegram-web-app-backend/internal/domain"
	"github.com/saddiabu4/telegram-web-app-backend/internal/service"
	"net/http"
)

type ProductHandler struct {
	productService service.ProductService
	responder      *Responder
	logger         hclog.Logger
	maxBody        int64
}

// NewProductHandler builds the catalog handlers. maxUpload bounds the
// image; request bodies may carry a little more for the other fields.
func NewProductHandler(ps service.ProductService, responder *Responder, maxUpload int64, log hclog.Logger) *ProductHandler {
	return &ProductHandler{
		productService: ps,
		responder:      responder,
		logger:         log,
		maxBody:        maxUpload + formOverhead,
	}
}

// GetProducts handles GET /api/products
//
// swagger:route GET /api/products products listProducts
//
// Returns all products, newest first.
//
// Responses:
//
//	200: productsResponse
//	500: internalErrorResponse
func (h *ProductHandler) GetProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.productService.List(r.Context())
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	h.responder.JSON(w, http.StatusOK, products)
}

// GetProduct handles GET /api/products/{id}
//
// swagger:route GET /api/products/{id} products getProduct
//
// Returns a product by ID.
//
// Responses:
//
//	200: productResponse
//	404: errorResponse
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	product, err := h.productService.Get(r.Context(), id)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	h.responder.JSON(w, http.StatusOK, product)
}

// AddProduct handles POST /api/products
//
// swagger:route POST /api/products products addProduct
//
// Creates a product with an optional image.
//
// Security:
//
//	bearer:
//
// Responses:
//
//	201: productResponse
//	400: validationErrorResponse
//	401: errorResponse
//	413: errorResponse
//	415: errorResponse
//	500: internalErrorResponse
func (h *ProductHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	form, err := readProductForm(w, r, h.maxBody)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	defer form.Close()

	input := domain.ProductInput{
		Name:        form.values["name"],
		Description: form.values["description"],
	}
	if raw, ok := form.values["price"]; ok {
		price, err := domain.ParsePrice(raw)
		if err != nil {
			h.responder.Error(w, r, err)
			return
		}
		input.Price = &price
	}

	product, err := h.productService.Create(r.Context(), input, form.image)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	h.logger.Info("Product created", "id", product.ID, "name", product.Name)
	h.responder.JSON(w, http.StatusCreated, product)
}

// UpdateProduct handles PUT /api/products/{id}
//
// swagger:route PUT /api/products/{id} products updateProduct
//
// Updates the fields present in the form. A new image replaces the old one.
//
// Security:
//
//	bearer:
//
// Responses:
//
//	200: productResponse
//	400: validationErrorResponse
//	401: errorResponse
//	404: errorResponse
//	413: errorResponse
//	415: errorResponse
//	500: internalErrorResponse
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	form, err := readProductForm(w, r, h.maxBody)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	defer form.Close()

	var patch domain.ProductPatch
	if v, ok := form.values["name"]; ok {
		patch.Name = &v
	}
	if v, ok := form.values["description"]; ok {
		patch.Description = &v
	}
	if raw, ok := form.values["price"]; ok {
		price, err := domain.ParsePrice(raw)
		if err != nil {
			h.responder.Error(w, r, err)
			return
		}
		patch.Price = &price
	}

	product, err := h.productService.Update(r.Context(), id, patch, form.image)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	h.logger.Info("Product updated", "id", product.ID)
	h.responder.JSON(w, http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/products/{id}
//
// swagger:route DELETE /api/products/{id} products deleteProduct
//
// Deletes a product and its image.
//
// Security:
//
//	bearer:
//
// Responses:
//
//	200: messageResponse
//	401: errorResponse
//	404: errorResponse
//	500: internalErrorResponse
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.productService.Delete(r.Context(), id); err != nil {
		h.responder.Error(w, r, err)
		return
	}

	h.logger.Info("Product deleted", "id", id)
	h.responder.Message(w, http.StatusOK, "Deleted successfully")
}
