package config

import (
	"errors"
	"fmt"
	"github.com/nicholasjackson/env"
	"strconv"
	"strings"
	"time"
)

// Environment variables
var (
	bindAddress = env.String("BIND_ADDRESS", false,
		"", "Bind address for the server, defaults to :PORT")
	port = env.String("PORT", false,
		"5000", "Port used when BIND_ADDRESS is empty")
	logLevel = env.String("LOG_LEVEL", false,
		"info", "Log output level for the server [trace, debug, info, warn, error]")
	logFormat = env.String("LOG_FORMAT", false,
		"text", "Log output format [text, json]")
	appEnv = env.String("APP_ENV", false,
		"", "development exposes internal error messages, defaults to production")
	nodeEnv = env.String("NODE_ENV", false,
		"", "Alias for APP_ENV")
	databaseURL = env.String("DATABASE_URL", false,
		"", "mongodb:// URI, sqlite://path or *.db file; empty keeps data in memory")
	mongoURI = env.String("MONGO_URI", false,
		"", "Alias for DATABASE_URL")
	mongoDatabase = env.String("MONGO_DATABASE", false,
		"cosmetic_shop", "MongoDB database name")
	jwtSecret = env.String("JWT_SECRET", false,
		"", "Secret used to sign session tokens")
	webAppURL = env.String("WEBAPP_URL", false,
		"http://localhost:5173", "Storefront base URL opened from the bot")
	publicURL = env.String("PUBLIC_URL", false,
		"http://localhost:5000", "Public base URL of this server, used for local image links")
	botToken = env.String("BOT_TOKEN", false,
		"", "Telegram bot token; the bot is disabled when empty")
	clientURL = env.String("CLIENT_URL", false,
		"http://localhost:5173", "Allowed CORS origin")
	corsOrigins = env.String("CORS_ORIGINS", false,
		"https://telegram-web-app-frontend.vercel.app", "Comma separated extra CORS origins")
	uploadDir = env.String("UPLOAD_DIR", false,
		"uploads", "Directory for locally stored images")
	maxUploadBytes = env.Int("MAX_UPLOAD_BYTES", false,
		5<<20, "Maximum image size in bytes")
	cloudName = env.String("CLOUDINARY_CLOUD_NAME", false,
		"", "Cloudinary cloud name")
	cloudKey = env.String("CLOUDINARY_API_KEY", false,
		"", "Cloudinary API key")
	cloudSecret = env.String("CLOUDINARY_API_SECRET", false,
		"", "Cloudinary API secret")
	rateLimitMax = env.Int("RATE_LIMIT_MAX", false,
		100, "Requests allowed per client and window on /api/")
	rateLimitWindow = env.String("RATE_LIMIT_WINDOW", false,
		"15m", "Rate limit window")
	trustProxy = env.String("TRUST_PROXY", false,
		"false", "Take the client address from X-Forwarded-For")
)

// ErrMissingJWTSecret is returned by Validate when no signing secret is set.
var ErrMissingJWTSecret = errors.New("JWT_SECRET is required")

// Error reports one unusable setting.
type Error struct {
	Var    string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Var, e.Reason)
}

type Cloudinary struct {
	CloudName string
	APIKey    string
	APISecret string
}

// Enabled reports whether all three credentials are set.
func (c Cloudinary) Enabled() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

// Config is the resolved process configuration.
type Config struct {
	BindAddress     string
	LogLevel        string
	LogFormat       string
	Env             string
	DatabaseURL     string
	MongoDatabase   string
	JWTSecret       string
	WebAppURL       string
	PublicURL       string
	BotToken        string
	CORSOrigins     []string
	UploadDir       string
	MaxUploadBytes  int64
	Cloudinary      Cloudinary
	RateLimitMax    int
	RateLimitWindow time.Duration
	TrustProxy      bool
}

// values mirrors the raw environment before it is interpreted
type values struct {
	bindAddress, port, logLevel, logFormat, appEnv     string
	nodeEnv                                            string
	databaseURL, mongoURI, mongoDatabase, jwtSecret    string
	webAppURL, publicURL, botToken, clientURL, origins string
	uploadDir                                          string
	maxUploadBytes                                     int
	cloudName, cloudKey, cloudSecret                   string
	rateLimitMax                                       int
	rateLimitWindow, trustProxy                        string
}

// Load parses the environment. The result still needs Validate.
func Load() (*Config, error) {
	if err := env.Parse(); err != nil {
		return nil, err
	}

	return build(values{
		bindAddress:     *bindAddress,
		port:            *port,
		logLevel:        *logLevel,
		logFormat:       *logFormat,
		appEnv:          *appEnv,
		nodeEnv:         *nodeEnv,
		databaseURL:     *databaseURL,
		mongoURI:        *mongoURI,
		mongoDatabase:   *mongoDatabase,
		jwtSecret:       *jwtSecret,
		webAppURL:       *webAppURL,
		publicURL:       *publicURL,
		botToken:        *botToken,
		clientURL:       *clientURL,
		origins:         *corsOrigins,
		uploadDir:       *uploadDir,
		maxUploadBytes:  *maxUploadBytes,
		cloudName:       *cloudName,
		cloudKey:        *cloudKey,
		cloudSecret:     *cloudSecret,
		rateLimitMax:    *rateLimitMax,
		rateLimitWindow: *rateLimitWindow,
		trustProxy:      *trustProxy,
	})
}

func build(v values) (*Config, error) {
	window, err := time.ParseDuration(strings.TrimSpace(v.rateLimitWindow))
	if err != nil || window <= 0 {
		return nil, &Error{Var: "RATE_LIMIT_WINDOW", Reason: fmt.Sprintf("%q is not a positive duration", v.rateLimitWindow)}
	}

	trust, err := strconv.ParseBool(strings.TrimSpace(v.trustProxy))
	if err != nil {
		return nil, &Error{Var: "TRUST_PROXY", Reason: fmt.Sprintf("%q is not a boolean", v.trustProxy)}
	}

	addr := strings.TrimSpace(v.bindAddress)
	if addr == "" {
		addr = ":" + strings.TrimSpace(v.port)
	}

	mode := strings.ToLower(strings.TrimSpace(v.appEnv))
	if mode == "" {
		mode = strings.ToLower(strings.TrimSpace(v.nodeEnv))
	}
	if mode == "" {
		mode = "production"
	}

	dbURL := strings.TrimSpace(v.databaseURL)
	if dbURL == "" {
		dbURL = strings.TrimSpace(v.mongoURI)
	}

	return &Config{
		BindAddress:     addr,
		LogLevel:        strings.ToLower(strings.TrimSpace(v.logLevel)),
		LogFormat:       strings.ToLower(strings.TrimSpace(v.logFormat)),
		Env:             mode,
		DatabaseURL:     dbURL,
		MongoDatabase:   strings.TrimSpace(v.mongoDatabase),
		JWTSecret:       v.jwtSecret,
		WebAppURL:       strings.TrimRight(strings.TrimSpace(v.webAppURL), "/"),
		PublicURL:       strings.TrimRight(strings.TrimSpace(v.publicURL), "/"),
		BotToken:        strings.TrimSpace(v.botToken),
		CORSOrigins:     splitOrigins(v.clientURL, v.origins),
		UploadDir:       strings.TrimSpace(v.uploadDir),
		MaxUploadBytes:  int64(v.maxUploadBytes),
		Cloudinary:      Cloudinary{CloudName: v.cloudName, APIKey: v.cloudKey, APISecret: v.cloudSecret},
		RateLimitMax:    v.rateLimitMax,
		RateLimitWindow: window,
		TrustProxy:      trust,
	}, nil
}

// splitOrigins merges the comma separated lists and drops duplicates
func splitOrigins(lists ...string) []string {
	seen := map[string]bool{}
	var out []string
	for _, list := range lists {
		for _, o := range strings.Split(list, ",") {
			o = strings.TrimRight(strings.TrimSpace(o), "/")
			if o == "" || seen[o] {
				continue
			}
			seen[o] = true
			out = append(out, o)
		}
	}
	return out
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return ErrMissingJWTSecret
	}
	if c.MaxUploadBytes <= 0 {
		return &Error{Var: "MAX_UPLOAD_BYTES", Reason: "must be positive"}
	}
	if c.RateLimitMax <= 0 {
		return &Error{Var: "RATE_LIMIT_MAX", Reason: "must be positive"}
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return &Error{Var: "LOG_FORMAT", Reason: fmt.Sprintf("%q is neither text nor json", c.LogFormat)}
	}
	if c.UploadDir == "" && !c.Cloudinary.Enabled() {
		return &Error{Var: "UPLOAD_DIR", Reason: "required when Cloudinary is not configured"}
	}
	return nil
}

// Development reports whether internal error details may be shown.
func (c *Config) Development() bool {
	return c.Env == "development"
}
