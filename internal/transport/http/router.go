package http

import (
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/hashicorp/go-hclog"
	websocketTransport "github.com/saddiabu4/telegram-web-app-backend/internal/transport/websocket"
	"net/http"
)

const banner = "Cosmetic MiniApp API is running..."

// RouterConfig collects what NewRouter wires together.
type RouterConfig struct {
	Products   *ProductHandler
	Auth       *AuthHandler
	Middleware *Middleware
	WebSocket  *websocketTransport.Handler
	// Uploads is nil when images are stored remotely
	Uploads     *Uploads
	Metrics     http.Handler
	CORSOrigins []string
	TrustProxy  bool
	Logger      hclog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	router := mux.NewRouter()
	mw := cfg.Middleware

	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(banner))
	}).Methods("GET")
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		mw.Responder.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")
	if cfg.Metrics != nil {
		router.Handle("/metrics", cfg.Metrics).Methods("GET")
	}
	router.HandleFunc("/swagger.yaml", SwaggerSpec).Methods("GET")
	router.Handle("/docs", Docs()).Methods("GET")
	if cfg.WebSocket != nil {
		router.HandleFunc("/ws", cfg.WebSocket.HandleWebSocket).Methods("GET")
	}
	if cfg.Uploads != nil {
		router.Handle("/uploads/{filename}", handlers.CompressHandler(http.HandlerFunc(cfg.Uploads.GetFile))).Methods("GET", "HEAD")
	}

	api := router.PathPrefix("/api").Subrouter()

	// Public routes
	api.HandleFunc("/auth/register", cfg.Auth.Register).Methods("POST")
	api.HandleFunc("/auth/login", cfg.Auth.Login).Methods("POST")
	api.HandleFunc("/products", cfg.Products.GetProducts).Methods("GET")
	api.HandleFunc("/products/{id}", cfg.Products.GetProduct).Methods("GET")

	// Mutations need a session token, checked before the body is read
	protected := api.Methods("POST", "PUT", "DELETE").Subrouter()
	protected.Use(mw.AuthMiddleware)
	protected.HandleFunc("/products", cfg.Products.AddProduct).Methods("POST")
	protected.HandleFunc("/products/{id}", cfg.Products.UpdateProduct).Methods("PUT")
	protected.HandleFunc("/products/{id}", cfg.Products.DeleteProduct).Methods("DELETE")

	cors := handlers.CORS(
		handlers.AllowedOrigins(cfg.CORSOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Requested-With"}),
		handlers.ExposedHeaders([]string{"X-Request-ID"}),
		handlers.AllowCredentials(),
		handlers.OptionStatusCode(http.StatusOK),
	)

	// outermost last
	var h http.Handler = router
	h = mw.RateLimitMiddleware(h)
	h = cors(h)
	h = mw.SecurityHeaders(h)
	h = mw.LoggingMiddleware(h)
	if cfg.TrustProxy {
		h = handlers.ProxyHeaders(h)
	}
	recoveryLog := cfg.Logger.StandardLogger(&hclog.StandardLoggerOptions{ForceLevel: hclog.Error})
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLog), handlers.PrintRecoveryStack(true))(h)

	return h
}
