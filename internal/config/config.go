package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Netflix/go-env"

	"github.com/information-sharing-networks/pass-issuer/internal/crypto"
	"github.com/information-sharing-networks/pass-issuer/internal/database"
)

// Environment variables with defaults
type IssuerEnvironment struct {

	// http server settings
	Environment           string        `env:"ENVIRONMENT,default=dev"`
	Host                  string        `env:"HOST,default=0.0.0.0"`
	Port                  int           `env:"PORT,default=8080"`
	LogLevel              string        `env:"LOG_LEVEL,default=debug"`
	ServerShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT,default=10s"`
	ReadTimeout           time.Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout          time.Duration `env:"WRITE_TIMEOUT,default=15s"`
	IdleTimeout           time.Duration `env:"IDLE_TIMEOUT,default=60s"`
	RateLimitRPS          int32         `env:"RATE_LIMIT_RPS,default=100"`
	RateLimitBurst        int32         `env:"RATE_LIMIT_BURST,default=200"`
	MaxRequestSize        int64         `env:"MAX_REQUEST_SIZE,default=1048576"`

	// database settings - the in-memory ledger is used when DATABASE_URL is empty
	DatabaseURL         string        `env:"DATABASE_URL"`
	DBMaxConnections    int32         `env:"DB_MAX_CONNECTIONS,default=4"`
	DBMinConnections    int32         `env:"DB_MIN_CONNECTIONS,default=0"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME,default=60m"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME,default=30m"`
	DBConnectTimeout    time.Duration `env:"DB_CONNECT_TIMEOUT,default=5s"`
	DatabasePingTimeout time.Duration `env:"DATABASE_PING_TIMEOUT,default=10s"`

	// registry (document store) settings
	RegistryAddress string `env:"REGISTRY_ADDRESS,default=0x8c9460deDCBe881ddaE1681c3aa48d6eEC723160"`

	// signing settings
	SigningKeyDir      string `env:"SIGNING_KEY_DIR,default=keys"`
	SigningKeyFile     string `env:"SIGNING_KEY_FILE"`
	SigningAlgorithm   string `env:"SIGNING_ALGORITHM,default=EdDSA"`
	VerificationMethod string `env:"VERIFICATION_METHOD"`

	// encryption settings
	ScryptN               int `env:"SCRYPT_N,default=16384"`
	ScryptR               int `env:"SCRYPT_R,default=8"`
	ScryptP               int `env:"SCRYPT_P,default=1"`
	EncryptionConcurrency int `env:"ENCRYPTION_CONCURRENCY,default=4"`

	// EncryptionPassword is the default password for passctl encrypt/decrypt/run (--password overrides it)
	EncryptionPassword string `env:"ENCRYPTION_PASSWORD"`

	// verification links attached to sample passes
	VerifyBaseURL  string `env:"VERIFY_BASE_URL,default=https://action.openattestation.com/"`
	StorageBaseURL string `env:"STORAGE_BASE_URL,default=https://passes.example.com/passes"`

	// blob store settings
	BlobBackend     string `env:"BLOB_BACKEND,default=localfs"`
	BlobDir         string `env:"BLOB_DIR,default=blobs"`
	BucketName      string `env:"BUCKET_NAME"`
	AWSRegion       string `env:"AWS_REGION,default=ap-southeast-1"`
	AWSAccessID     string `env:"AWS_ACCESS_ID"`
	AWSAccessSecret string `env:"AWS_ACCESS_SECRET"`
	S3Endpoint      string `env:"S3_ENDPOINT"`

	// verification key settings
	IssuerRegistryPath string `env:"ISSUER_REGISTRY_PATH"`
	ManualKeysDir      string `env:"MANUAL_KEYS_DIR"`

	// JWK cache settings
	SkipJWKCache       bool          `env:"SKIP_JWK_CACHE,default=false"`
	JWKCacheMinRefresh time.Duration `env:"JWK_CACHE_MIN_REFRESH,default=10m"`
	JWKCacheMaxRefresh time.Duration `env:"JWK_CACHE_MAX_REFRESH,default=12h"`
	KeyManagerTimeout  time.Duration `env:"KEY_MANAGER_TIMEOUT,default=10s"`
}

var validEnvs = map[string]bool{
	"dev":     true,
	"test":    true,
	"prod":    true,
	"staging": true,
}

var validBlobBackends = map[string]bool{
	"localfs": true,
	"s3":      true,
}

// NewIssuerConfig loads environment variables and returns an IssuerEnvironment struct that contains the values
func NewIssuerConfig() (*IssuerEnvironment, error) {
	var cfg IssuerEnvironment

	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal environment variables: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ScryptParams returns the configured key derivation parameters.
func (c *IssuerEnvironment) ScryptParams() crypto.ScryptParams {
	return crypto.ScryptParams{N: c.ScryptN, R: c.ScryptR, P: c.ScryptP}
}

// PoolConfig returns the database pool settings.
func (c *IssuerEnvironment) PoolConfig() database.PoolConfig {
	return database.PoolConfig{
		URL:             c.DatabaseURL,
		MaxConns:        c.DBMaxConnections,
		MinConns:        c.DBMinConnections,
		MaxConnLifetime: c.DBMaxConnLifetime,
		MaxConnIdleTime: c.DBMaxConnIdleTime,
		ConnectTimeout:  c.DBConnectTimeout,
		PingTimeout:     c.DatabasePingTimeout,
	}
}

// validateConfig checks for invalid env variables
func validateConfig(cfg *IssuerEnvironment) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}
	if !validEnvs[cfg.Environment] {
		return fmt.Errorf("invalid ENVIRONMENT: %s", cfg.Environment)
	}

	// Validate database pool configuration
	if cfg.DBMaxConnections < 1 {
		return fmt.Errorf("DB_MAX_CONNECTIONS must be at least 1")
	}
	if cfg.DBMinConnections < 0 {
		return fmt.Errorf("DB_MIN_CONNECTIONS must be 0 or greater")
	}
	if cfg.DBMinConnections > cfg.DBMaxConnections {
		return fmt.Errorf("DB_MIN_CONNECTIONS (%d) cannot be greater than DB_MAX_CONNECTIONS (%d)",
			cfg.DBMinConnections, cfg.DBMaxConnections)
	}

	if cfg.RegistryAddress == "" {
		return fmt.Errorf("REGISTRY_ADDRESS must not be empty")
	}

	if _, err := crypto.ParseAlgorithm(cfg.SigningAlgorithm); err != nil {
		return fmt.Errorf("invalid SIGNING_ALGORITHM: %w", err)
	}

	if err := cfg.ScryptParams().Validate(); err != nil {
		return fmt.Errorf("invalid SCRYPT_N/SCRYPT_R/SCRYPT_P: %w", err)
	}
	if cfg.EncryptionConcurrency < 1 {
		return fmt.Errorf("ENCRYPTION_CONCURRENCY must be at least 1")
	}

	if !validBlobBackends[cfg.BlobBackend] {
		return fmt.Errorf("invalid BLOB_BACKEND: %s (use localfs or s3)", cfg.BlobBackend)
	}
	if cfg.BlobBackend == "s3" && cfg.BucketName == "" {
		return fmt.Errorf("BUCKET_NAME is required when BLOB_BACKEND is s3")
	}
	if (cfg.AWSAccessID == "") != (cfg.AWSAccessSecret == "") {
		return fmt.Errorf("AWS_ACCESS_ID and AWS_ACCESS_SECRET must be set together")
	}

	if !strings.Contains(cfg.VerifyBaseURL, "://") || !strings.Contains(cfg.StorageBaseURL, "://") {
		return fmt.Errorf("VERIFY_BASE_URL and STORAGE_BASE_URL must be absolute urls")
	}

	if cfg.MaxRequestSize < 1 {
		return fmt.Errorf("MAX_REQUEST_SIZE must be positive")
	}

	return nil
}
