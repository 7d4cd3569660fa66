// Package classification of Cosmetic Shop API
//
// # Documentation for the Cosmetic Shop API
//
// Schemes: http, https
// BasePath: /
// Version: 1.0.0
//
// Consumes:
// - application/json
// - multipart/form-data
//
// Produces:
// - application/json
//
// SecurityDefinitions:
// bearer:
//
//	type: apiKey
//	name: Authorization
//	in: header
//
// swagger:meta
package http

import (
	_ "embed"
	"github.com/go-openapi/runtime/middleware"
	"github.com/saddiabu4/telegram-web-app-backend/internal/domain"
	"net/http"
)

//go:embed swagger.yaml
var swaggerSpec []byte

// NOTE: the wrappers below only describe responses for the generated spec

// Generic error message
// swagger:response errorResponse
type errorResponseWrapper struct {
	// Description of the error
	// in: body
	Body ErrorResponse
}

// Validation errors per field
// swagger:response validationErrorResponse
type validationErrorResponseWrapper struct {
	// in: body
	Body ValidationError
}

// Unexpected server failure
// swagger:response internalErrorResponse
type internalErrorResponseWrapper struct {
	// in: body
	Body InternalErrorResponse
}

// A list of products, newest first
// swagger:response productsResponse
type productsResponseWrapper struct {
	// in: body
	Body []domain.Product
}

// Data structure representing a single product
// swagger:response productResponse
type productResponseWrapper struct {
	// in: body
	Body domain.Product
}

// Confirmation message
// swagger:response messageResponse
type messageResponseWrapper struct {
	// in: body
	Body ErrorResponse
}

// Session token
// swagger:response tokenResponse
type tokenResponseWrapper struct {
	// in: body
	Body TokenResponse
}

// swagger:parameters getProduct deleteProduct updateProduct
type productIDParamsWrapper struct {
	// The ID of the product
	// in: path
	// required: true
	ID string `json:"id"`
}

// swagger:parameters register login
type credentialsParamsWrapper struct {
	// in: body
	// required: true
	Body domain.Credentials
}

// ErrorResponse carries a human readable message
//
// swagger:model
type ErrorResponse struct {
	// required: true
	Message string `json:"message"`
}

// ValidationError lists the rejected fields
//
// swagger:model
type ValidationError struct {
	// required: true
	Message string `json:"message"`
	// required: true
	Errors domain.ValidationErrors `json:"errors"`
}

// InternalErrorResponse is returned for 5xx failures
//
// swagger:model
type InternalErrorResponse struct {
	Error string `json:"error"`
}

// TokenResponse holds a signed session token
//
// swagger:model
type TokenResponse struct {
	// required: true
	Token string `json:"token"`
}

// SwaggerSpec serves the embedded OpenAPI document
func SwaggerSpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.Write(swaggerSpec)
}

// Docs renders the Redoc UI for the embedded document
func Docs() http.Handler {
	return middleware.Redoc(middleware.RedocOpts{SpecURL: "/swagger.yaml", Path: "docs"}, nil)
}
