package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/saddiabu4/telegram-web-app-backend/internal/auth"
	"github.com/saddiabu4/telegram-web-app-backend/internal/blob"
	"github.com/saddiabu4/telegram-web-app-backend/internal/domain"
	"github.com/saddiabu4/telegram-web-app-backend/internal/events"
	"github.com/saddiabu4/telegram-web-app-backend/internal/metrics"
	"github.com/saddiabu4/telegram-web-app-backend/internal/repository"
	"github.com/saddiabu4/telegram-web-app-backend/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOrigin = "https://telegram-web-app-frontend.vercel.app"

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)

type testServer struct {
	handler http.Handler
	local   *blob.Local
	limiter *RateLimiter
}

func newTestServer(t *testing.T, maxUpload int64, rateMax int) *testServer {
	t.Helper()
	log := hclog.NewNullLogger()
	m := metrics.New()
	validation := domain.NewValidation()
	store := repository.NewMemoryStore()

	local, err := blob.NewLocal(t.TempDir(), maxUpload)
	require.NoError(t, err)
	blobs := blob.NewGuard(local, maxUpload)

	authService := auth.NewService(store.Users(), auth.NewTokens("test-secret", auth.TokenTTL), validation, log)
	productService := service.NewProductService(store.Products(), blobs, validation, events.NewEventBus[any](), m, log)

	responder := NewResponder(log, false)
	limiter := NewRateLimiter(rateMax, 15*time.Minute)
	mw := NewMiddleware(log, authService, responder, m, limiter)

	h := NewRouter(RouterConfig{
		Products:    NewProductHandler(productService, responder, maxUpload, log),
		Auth:        NewAuthHandler(authService, responder, log),
		Middleware:  mw,
		Uploads:     NewUploads(log, local),
		Metrics:     m.Handler(),
		CORSOrigins: []string{"http://localhost:5173", testOrigin},
		Logger:      log,
	})
	return &testServer{handler: h, local: local, limiter: limiter}
}

func (s *testServer) do(r *http.Request) *httptest.ResponseRecorder {
	rw := httptest.NewRecorder()
	s.handler.ServeHTTP(rw, r)
	return rw
}

func jsonRequest(method, path string, body interface{}) *http.Request {
	b, _ := json.Marshal(body)
	r := httptest.NewRequest(method, path, bytes.NewReader(b))
	r.Header.Set("Content-Type", "application/json")
	return r
}

type filePart struct {
	name        string
	contentType string
	data        []byte
}

func multipartRequest(t *testing.T, method, path, token string, fields map[string]string, file *filePart) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="%s"`, file.name))
		h.Set("Content-Type", file.contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(file.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(method, path, &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

func decode(t *testing.T, rw *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rw.Body).Decode(v), rw.Body.String())
}

func login(t *testing.T, s *testServer) string {
	t.Helper()
	creds := map[string]string{"email": "a@x.com", "password": "secret"}
	rw := s.do(jsonRequest(http.MethodPost, "/api/auth/register", creds))
	require.Equal(t, http.StatusOK, rw.Code, rw.Body.String())

	rw = s.do(jsonRequest(http.MethodPost, "/api/auth/login", creds))
	require.Equal(t, http.StatusOK, rw.Code, rw.Body.String())
	var tok TokenResponse
	decode(t, rw, &tok)
	require.NotEmpty(t, tok.Token)
	return tok.Token
}

func listProducts(t *testing.T, s *testServer) []domain.Product {
	t.Helper()
	rw := s.do(httptest.NewRequest(http.MethodGet, "/api/products", nil))
	require.Equal(t, http.StatusOK, rw.Code)
	var products []domain.Product
	decode(t, rw, &products)
	return products
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t, blob.DefaultMaxBytes, 1000)
	creds := map[string]string{"email": "a@x.com", "password": "secret"}

	rw := s.do(jsonRequest(http.MethodPost, "/api/auth/register", creds))
	require.Equal(t, http.StatusOK, rw.Code)
	var msg ErrorResponse
	decode(t, rw, &msg)
	assert.Equal(t, "Admin created successfully", msg.Message)

	rw = s.do(jsonRequest(http.MethodPost, "/api/auth/register", creds))
	assert.Equal(t, http.StatusBadRequest, rw.Code)
	decode(t, rw, &msg)
	assert.Equal(t, "User already exists", msg.Message)

	rw = s.do(jsonRequest(http.MethodPost, "/api/auth/login", creds))
	require.Equal(t, http.StatusOK, rw.Code)
	var tok TokenResponse
	decode(t, rw, &tok)

	claims, err := auth.NewTokens("test-secret", auth.TokenTTL).Verify(tok.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, claims.Role)

	rw = s.do(jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{"email": "a@x.com", "password": "wrong"}))
	assert.Equal(t, http.StatusBadRequest, rw.Code)
	decode(t, rw, &msg)
	assert.Equal(t, "Invalid email or password", msg.Message)

	rw = s.do(jsonRequest(http.MethodPost, "/api/auth/register", map[string]string{"email": "nope"}))
	assert.Equal(t, http.StatusBadRequest, rw.Code)
	var verr ValidationError
	decode(t, rw, &verr)
	assert.NotEmpty(t, verr.Errors)

	bad := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("{"))
	assert.Equal(t, http.StatusBadRequest, s.do(bad).Code)
}

func TestCreateAndListProduct(t *testing.T) {
	s := newTestServer(t, blob.DefaultMaxBytes, 1000)
	token := login(t, s)

	rw := s.do(multipartRequest(t, http.MethodPost, "/api/products", token,
		map[string]string{"name": "Face Cream", "price": "19.5"}, nil))
	require.Equal(t, http.StatusCreated, rw.Code, rw.Body.String())

	rw = s.do(multipartRequest(t, http.MethodPost, "/api/products", token,
		map[string]string{"name": "Lip Balm", "description": "soft", "price": "9.99"},
		&filePart{name: "balm.png", contentType: "image/png", data: pngBytes}))
	require.Equal(t, http.StatusCreated, rw.Code, rw.Body.String())

	var created domain.Product
	decode(t, rw, &created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 9.99, created.Price)
	assert.NotEmpty(t, created.Image)

	products := listProducts(t, s)
	require.Len(t, products, 2)
	assert.Equal(t, "Lip Balm", products[0].Name)

	rw = s.do(httptest.NewRequest(http.MethodGet, "/api/products/"+created.ID, nil))
	require.Equal(t, http.StatusOK, rw.Code)
	var got domain.Product
	decode(t, rw, &got)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "soft", got.Description)

	// the stored image is served back with a sniffed type
	rw = s.do(httptest.NewRequest(http.MethodGet, "/uploads/"+created.Image, nil))
	require.Equal(t, http.StatusOK, rw.Code)
	assert.Equal(t, "image/png", rw.Header().Get("Content-Type"))
	body, _ := io.ReadAll(rw.Body)
	assert.Equal(t, pngBytes, body)
}

func TestCreateAcceptsJSON(t *testing.T) {
	s := newTestServer(t, blob.DefaultMaxBytes, 1000)
	token := login(t, s)

	r := jsonRequest(http.MethodPost, "/api/products", map[string]interface{}{"name": "Lip Balm", "price": 9.99})
	r.Header.Set("Authorization", token)
	rw := s.do(r)
	require.Equal(t, http.StatusCreated, rw.Code, rw.Body.String())

	var p domain.Product
	decode(t, rw, &p)
	assert.Equal(t, 9.99, p.Price)
}

func TestCreateRejects(t *testing.T) {
	testCases := []struct {
		name   string
		fields map[string]string
		file   *filePart
		status int
	}{
		{"missing name", map[string]string{"price": "1"}, nil, http.StatusBadRequest},
		{"missing price", map[string]string{"name": "Lip Balm"}, nil, http.StatusBadRequest},
		{"unparseable price", map[string]string{"name": "Lip Balm", "price": "cheap"}, nil, http.StatusBadRequest},
		{"negative price", map[string]string{"name": "Lip Balm", "price": "-1"}, nil, http.StatusBadRequest},
		{"text file", map[string]string{"name": "Lip Balm", "price": "1"},
			&filePart{name: "notes.txt", contentType: "text/plain", data: []byte("hello")}, http.StatusUnsupportedMediaType},
		{"disguised text", map[string]string{"name": "Lip Balm", "price": "1"},
			&filePart{name: "photo.png", contentType: "image/png", data: []byte("hello there")}, http.StatusUnsupportedMediaType},
		{"oversize image", map[string]string{"name": "Lip Balm", "price": "1"},
			&filePart{name: "big.png", contentType: "image/png", data: append(append([]byte{}, pngBytes...), make([]byte, 4096)...)}, http.StatusRequestEntityTooLarge},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t, 1024, 1000)
			token := login(t, s)

			rw := s.do(multipartRequest(t, http.MethodPost, "/api/products", token, tc.fields, tc.file))
			assert.Equal(t, tc.status, rw.Code, rw.Body.String())
			assert.Empty(t, listProducts(t, s))
		})
	}
}

func TestCreateAcceptsJPGContentType(t *testing.T) {
	s := newTestServer(t, blob.DefaultMaxBytes, 1000)
	token := login(t, s)

	jfif := append([]byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00"), make([]byte, 64)...)
	rw := s.do(multipartRequest(t, http.MethodPost, "/api/products", token,
		map[string]string{"name": "Rose Cream", "price": "12"},
		&filePart{name: "a.jpg", contentType: "image/jpg", data: jfif}))
	require.Equal(t, http.StatusCreated, rw.Code, rw.Body.String())

	var p domain.Product
	decode(t, rw, &p)
	assert.Equal(t, ".jpg", filepath.Ext(p.Image))
}

func TestMutationsRequireToken(t *testing.T) {
	s := newTestServer(t, blob.DefaultMaxBytes, 1000)
	token := login(t, s)

	rw := s.do(multipartRequest(t, http.MethodPost, "/api/products", token, map[string]string{"name": "Lip Balm", "price": "9.99"}, nil))
	require.Equal(t, http.StatusCreated, rw.Code)
	var p domain.Product
	decode(t, rw, &p)

	for _, tok := range []string{"", "garbage", "Bearer not.a.jwt"} {
		requests := []*http.Request{
			multipartRequest(t, http.MethodPost, "/api/products", "", map[string]string{"name": "X", "price": "1"}, nil),
			multipartRequest(t, http.MethodPut, "/api/products/"+p.ID, "", map[string]string{"name": "X"}, nil),
			httptest.NewRequest(http.MethodDelete, "/api/products/"+p.ID, nil),
		}
		for _, r := range requests {
			if tok != "" {
				r.Header.Set("Authorization", tok)
			}
			rw := s.do(r)
			assert.Equal(t, http.StatusUnauthorized, rw.Code, "%s %s", r.Method, r.URL.Path)
		}
	}

	products := listProducts(t, s)
	require.Len(t, products, 1)
	assert.Equal(t, "Lip Balm", products[0].Name)
}

func TestUpdateAndDelete(t *testing.T) {
	s := newTestServer(t, blob.DefaultMaxBytes, 1000)
	token := login(t, s)

	rw := s.do(multipartRequest(t, http.MethodPost, "/api/products", token,
		map[string]string{"name": "Lip Balm", "description": "soft", "price": "9.99"},
		&filePart{name: "a.png", contentType: "image/png", data: pngBytes}))
	require.Equal(t, http.StatusCreated, rw.Code)
	var p domain.Product
	decode(t, rw, &p)

	// explicit zero price, other fields untouched
	rw = s.do(multipartRequest(t, http.MethodPut, "/api/products/"+p.ID, token, map[string]string{"price": "0"}, nil))
	require.Equal(t, http.StatusOK, rw.Code, rw.Body.String())
	var u domain.Product
	decode(t, rw, &u)
	assert.Equal(t, 0.0, u.Price)
	assert.Equal(t, "Lip Balm", u.Name)
	assert.Equal(t, "soft", u.Description)
	assert.Equal(t, p.Image, u.Image)

	// new image replaces the old file
	rw = s.do(multipartRequest(t, http.MethodPut, "/api/products/"+p.ID, token, nil,
		&filePart{name: "b.png", contentType: "image/png", data: pngBytes}))
	require.Equal(t, http.StatusOK, rw.Code, rw.Body.String())
	decode(t, rw, &u)
	assert.NotEqual(t, p.Image, u.Image)
	assert.Equal(t, http.StatusNotFound, s.do(httptest.NewRequest(http.MethodGet, "/uploads/"+p.Image, nil)).Code)
	assert.Equal(t, http.StatusOK, s.do(httptest.NewRequest(http.MethodGet, "/uploads/"+u.Image, nil)).Code)

	rw = s.do(multipartRequest(t, http.MethodPut, "/api/products/missing", token, map[string]string{"name": "X"}, nil))
	assert.Equal(t, http.StatusNotFound, rw.Code)

	del := func() *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodDelete, "/api/products/"+p.ID, nil)
		r.Header.Set("Authorization", "Bearer "+token)
		return s.do(r)
	}
	rw = del()
	require.Equal(t, http.StatusOK, rw.Code)
	var msg ErrorResponse
	decode(t, rw, &msg)
	assert.Equal(t, "Deleted successfully", msg.Message)

	assert.Equal(t, http.StatusNotFound, del().Code)
	assert.Equal(t, http.StatusNotFound, s.do(httptest.NewRequest(http.MethodGet, "/api/products/"+p.ID, nil)).Code)
	assert.Equal(t, http.StatusNotFound, s.do(httptest.NewRequest(http.MethodGet, "/uploads/"+u.Image, nil)).Code)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, blob.DefaultMaxBytes, 100)

	for i := 0; i < 100; i++ {
		rw := s.do(httptest.NewRequest(http.MethodGet, "/api/products", nil))
		require.Equal(t, http.StatusOK, rw.Code, "request %d", i+1)
	}

	rw := s.do(httptest.NewRequest(http.MethodGet, "/api/products", nil))
	assert.Equal(t, http.StatusTooManyRequests, rw.Code)
	assert.JSONEq(t, `{"error":"Too many requests, please try again later."}`, rw.Body.String())
	assert.NotEmpty(t, rw.Header().Get("Retry-After"))
	assert.Equal(t, "100", rw.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rw.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rw.Header().Get("X-RateLimit-Reset"))

	// other clients and non-API paths are unaffected
	other := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	other.RemoteAddr = "10.0.0.2:4000"
	assert.Equal(t, http.StatusOK, s.do(other).Code)
	assert.Equal(t, http.StatusOK, s.do(httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)
}

func TestRateLimiterWindowResets(t *testing.T) {
	ctx := context.Background()
	l := NewRateLimiter(2, 300*time.Millisecond)

	d, err := l.Allow(ctx, "a")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 2, d.Limit)
	assert.Equal(t, 1, d.Remaining)

	d, err = l.Allow(ctx, "a")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = l.Allow(ctx, "a")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)

	// other keys keep their own window
	d, err = l.Allow(ctx, "b")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	time.Sleep(400 * time.Millisecond)
	d, err = l.Allow(ctx, "a")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	var disabled *RateLimiter
	d, err = disabled.Allow(ctx, "a")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Nil(t, NewRateLimiter(0, time.Minute))
}

func TestAmbientEndpoints(t *testing.T) {
	s := newTestServer(t, blob.DefaultMaxBytes, 1000)

	rw := s.do(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rw.Code)
	assert.Equal(t, banner, rw.Body.String())
	assert.NotEmpty(t, rw.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rw.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "cross-origin", rw.Header().Get("Cross-Origin-Resource-Policy"))

	rw = s.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.JSONEq(t, `{"status":"ok"}`, rw.Body.String())

	rw = s.do(httptest.NewRequest(http.MethodGet, "/swagger.yaml", nil))
	assert.Equal(t, http.StatusOK, rw.Code)
	assert.Contains(t, rw.Body.String(), "/api/products")

	rw = s.do(httptest.NewRequest(http.MethodGet, "/docs", nil))
	assert.Equal(t, http.StatusOK, rw.Code)
	assert.Contains(t, rw.Body.String(), "/swagger.yaml")

	rw = s.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rw.Code)
	assert.Contains(t, rw.Body.String(), "shop_http_requests_total")
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, blob.DefaultMaxBytes, 1000)

	r := httptest.NewRequest(http.MethodOptions, "/api/products", nil)
	r.Header.Set("Origin", testOrigin)
	r.Header.Set("Access-Control-Request-Method", "POST")
	r.Header.Set("Access-Control-Request-Headers", "Authorization")
	rw := s.do(r)
	assert.Equal(t, http.StatusOK, rw.Code)
	assert.Equal(t, testOrigin, rw.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rw.Header().Get("Access-Control-Allow-Credentials"))

	r = httptest.NewRequest(http.MethodGet, "/api/products", nil)
	r.Header.Set("Origin", "https://evil.example.com")
	rw = s.do(r)
	assert.Empty(t, rw.Header().Get("Access-Control-Allow-Origin"))
}

func TestResponderHidesInternalErrors(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/products", nil)

	rw := httptest.NewRecorder()
	NewResponder(hclog.NewNullLogger(), false).Error(rw, r, errors.New("connection refused"))
	assert.Equal(t, http.StatusInternalServerError, rw.Code)
	assert.JSONEq(t, `{"error":"Server error"}`, rw.Body.String())

	rw = httptest.NewRecorder()
	NewResponder(hclog.NewNullLogger(), true).Error(rw, r, errors.New("connection refused"))
	assert.JSONEq(t, `{"error":"connection refused"}`, rw.Body.String())
}
