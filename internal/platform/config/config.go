package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	defaultEnvFile      = ".env"
	defaultPort         = "8080"
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 120 * time.Second

	defaultCartNamespace  = "p9-cart"
	defaultCartCookieName = "p9_cart"
	defaultCartStateDir   = "var/cart"

	defaultSessionCookieName = "p9_admin_session"
	defaultTemplatesDir      = "templates"
	defaultPublicDir         = "public"
	defaultContentFile       = "content/site.yaml"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server    ServerConfig
	Firebase  FirebaseConfig
	Firestore FirestoreConfig
	Storage   StorageConfig
	Cart      CartConfig
	Session   SessionConfig
	Site      SiteConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// FirebaseConfig stores Firebase project settings for magic-link auth.
type FirebaseConfig struct {
	ProjectID       string
	CredentialsFile string
}

// FirestoreConfig stores database parameters.
type FirestoreConfig struct {
	ProjectID    string
	EmulatorHost string
}

// StorageConfig names the product image bucket.
type StorageConfig struct {
	ProductImagesBucket string
	// PublicBaseURL overrides the default https://storage.googleapis.com/<bucket>
	// prefix for served image URLs.
	PublicBaseURL string
}

// CartConfig controls the cart persistence slot.
type CartConfig struct {
	Namespace  string
	CookieName string
	// StateDir is where the file persister keeps slots when Firestore is not
	// configured.
	StateDir string
}

// SessionConfig configures the signed admin session cookie.
type SessionConfig struct {
	CookieName string
	HashKey    string
	BlockKey   string
	Secure     bool
}

// SiteConfig groups presentation settings.
type SiteConfig struct {
	BaseURL      string
	TemplatesDir string
	PublicDir    string
	ContentFile  string
	Dev          bool
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values
// in the map take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided
// maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the application configuration by combining defaults, .env
// overrides, and environment variables.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	// Cloud Run style fallback for the port.
	port := stringWithDefault(lookup, "SHOP_SERVER_PORT", "")
	if port == "" {
		port = stringWithDefault(lookup, "PORT", defaultPort)
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         port,
			ReadTimeout:  durationWithDefault(lookup, "SHOP_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "SHOP_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "SHOP_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Firebase: FirebaseConfig{
			ProjectID:       stringWithDefault(lookup, "SHOP_FIREBASE_PROJECT_ID", ""),
			CredentialsFile: stringWithDefault(lookup, "SHOP_FIREBASE_CREDENTIALS_FILE", ""),
		},
		Firestore: FirestoreConfig{
			ProjectID:    stringWithDefault(lookup, "SHOP_FIRESTORE_PROJECT_ID", ""),
			EmulatorHost: stringWithDefault(lookup, "SHOP_FIRESTORE_EMULATOR_HOST", ""),
		},
		Storage: StorageConfig{
			ProductImagesBucket: stringWithDefault(lookup, "SHOP_STORAGE_PRODUCTS_BUCKET", ""),
			PublicBaseURL:       stringWithDefault(lookup, "SHOP_STORAGE_PUBLIC_BASE_URL", ""),
		},
		Cart: CartConfig{
			Namespace:  stringWithDefault(lookup, "SHOP_CART_NAMESPACE", defaultCartNamespace),
			CookieName: stringWithDefault(lookup, "SHOP_CART_COOKIE_NAME", defaultCartCookieName),
			StateDir:   stringWithDefault(lookup, "SHOP_CART_STATE_DIR", defaultCartStateDir),
		},
		Session: SessionConfig{
			CookieName: stringWithDefault(lookup, "SHOP_SESSION_COOKIE_NAME", defaultSessionCookieName),
			HashKey:    stringWithDefault(lookup, "SHOP_SESSION_HASH_KEY", ""),
			BlockKey:   stringWithDefault(lookup, "SHOP_SESSION_BLOCK_KEY", ""),
			Secure:     boolWithDefault(lookup, "SHOP_SESSION_COOKIE_SECURE", true),
		},
		Site: SiteConfig{
			BaseURL:      strings.TrimRight(stringWithDefault(lookup, "SHOP_SITE_BASE_URL", ""), "/"),
			TemplatesDir: stringWithDefault(lookup, "SHOP_SITE_TEMPLATES_DIR", defaultTemplatesDir),
			PublicDir:    stringWithDefault(lookup, "SHOP_SITE_PUBLIC_DIR", defaultPublicDir),
			ContentFile:  stringWithDefault(lookup, "SHOP_SITE_CONTENT_FILE", defaultContentFile),
			Dev:          boolWithDefault(lookup, "SHOP_SITE_DEV", false),
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var missing []string

	if strings.TrimSpace(c.Server.Port) == "" {
		missing = append(missing, "Server.Port")
	}
	if strings.TrimSpace(c.Session.HashKey) == "" {
		missing = append(missing, "Session.HashKey")
	}
	// The admin surface needs an auth backend; the public catalog needs a
	// database. Both resolve through the same project when only one is set.
	if strings.TrimSpace(c.Firestore.ProjectID) == "" && strings.TrimSpace(c.Firebase.ProjectID) == "" {
		missing = append(missing, "Firestore.ProjectID")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

// FirestoreProjectID resolves the Firestore project, falling back to the
// Firebase project when unset.
func (c Config) FirestoreProjectID() string {
	if id := strings.TrimSpace(c.Firestore.ProjectID); id != "" {
		return id
	}
	return strings.TrimSpace(c.Firebase.ProjectID)
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "export ") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		if key == "" {
			continue
		}
		value := strings.TrimSpace(parts[1])
		value = strings.Trim(value, `"'`)
		values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && value != "" {
		return value
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}
