package cli

// app.go builds the collaborators shared by the commands from the loaded configuration.

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/information-sharing-networks/pass-issuer/internal/blob"
	"github.com/information-sharing-networks/pass-issuer/internal/blob/localfs"
	"github.com/information-sharing-networks/pass-issuer/internal/blob/s3"
	"github.com/information-sharing-networks/pass-issuer/internal/database"
	"github.com/information-sharing-networks/pass-issuer/internal/ledger/memory"
	"github.com/information-sharing-networks/pass-issuer/internal/ledger/postgres"
	"github.com/information-sharing-networks/pass-issuer/internal/registry"
	"github.com/information-sharing-networks/pass-issuer/internal/signing"
	"github.com/information-sharing-networks/pass-issuer/internal/verify"
)

// registryHandle is a registry client and the pool behind it, if any.
type registryHandle struct {
	client *registry.Client
	pool   *pgxpool.Pool
}

func (h *registryHandle) Close() {
	if h.pool != nil {
		h.pool.Close()
	}
}

// openRegistry connects the registry client to the Postgres ledger when DATABASE_URL is set,
// and to an in-memory ledger otherwise.
func openRegistry(ctx context.Context) (*registryHandle, error) {
	if cfg.DatabaseURL == "" {
		appLogger.Warn("DATABASE_URL not set: using the in-memory ledger, state is lost on exit",
			slog.String("registry", cfg.RegistryAddress))
		client, err := registry.NewClient(memory.New(cfg.RegistryAddress), appLogger)
		if err != nil {
			return nil, err
		}
		return &registryHandle{client: client}, nil
	}

	pool, err := database.Connect(ctx, cfg.PoolConfig())
	if err != nil {
		return nil, err
	}
	appLogger.Info("connected to PostgreSQL")

	ledger, err := postgres.New(pool, cfg.RegistryAddress, appLogger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	client, err := registry.NewClient(ledger, appLogger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return &registryHandle{client: client, pool: pool}, nil
}

// loadIssuerKey reads SIGNING_KEY_FILE from SIGNING_KEY_DIR and checks it matches SIGNING_ALGORITHM.
func loadIssuerKey() (*signing.IssuerKey, error) {
	if cfg.SigningKeyFile == "" {
		return nil, fmt.Errorf("SIGNING_KEY_FILE is not set")
	}

	key, err := signing.LoadIssuerKey(cfg.SigningKeyDir, cfg.SigningKeyFile)
	if err != nil {
		return nil, err
	}
	if string(key.Signer.Algorithm()) != cfg.SigningAlgorithm {
		return nil, fmt.Errorf("signing key %s is %s but SIGNING_ALGORITHM is %s", cfg.SigningKeyFile, key.Signer.Algorithm(), cfg.SigningAlgorithm)
	}

	appLogger.Debug("signing key loaded",
		slog.String("kid", key.Signer.KeyID()),
		slog.String("algorithm", string(key.Signer.Algorithm())))

	return key, nil
}

// openBlobStore returns the store selected by BLOB_BACKEND.
func openBlobStore() (blob.Store, error) {
	switch cfg.BlobBackend {
	case "s3":
		return s3.New(s3.Config{
			Bucket:          cfg.BucketName,
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSAccessID,
			SecretAccessKey: cfg.AWSAccessSecret,
			Endpoint:        cfg.S3Endpoint,
		})
	default:
		return localfs.New(cfg.BlobDir)
	}
}

// newVerifier builds a verifier over client.
//
// Issuer keys come from the issuer registry when ISSUER_REGISTRY_PATH is set. Otherwise the
// configured signing key is trusted, so passes issued by this instance can be checked. With
// neither, the issuer identity check is skipped.
func newVerifier(ctx context.Context, client *registry.Client) (*verify.Verifier, error) {
	if cfg.IssuerRegistryPath != "" {
		kmCtx, cancel := context.WithTimeout(ctx, cfg.KeyManagerTimeout)
		defer cancel()

		km, err := signing.NewKeyManager(kmCtx, &signing.KeyManagerConfig{
			RegistryPath:               cfg.IssuerRegistryPath,
			ManualKeysDir:              cfg.ManualKeysDir,
			SkipJWKCache:               cfg.SkipJWKCache,
			JWKCacheMinRefreshInterval: cfg.JWKCacheMinRefresh,
			JWKCacheMaxRefreshInterval: cfg.JWKCacheMaxRefresh,
		}, appLogger)
		if err != nil {
			return nil, err
		}
		return verify.New(client, km, km, appLogger), nil
	}

	if cfg.SigningKeyFile != "" {
		key, err := loadIssuerKey()
		if err != nil {
			return nil, err
		}
		keys := signing.StaticKeys{key.Signer.KeyID(): key.PublicKey}
		return verify.New(client, keys, nil, appLogger), nil
	}

	appLogger.Warn("no ISSUER_REGISTRY_PATH or SIGNING_KEY_FILE: issuer signatures will not be checked")
	return verify.New(client, nil, nil, appLogger), nil
}

// password returns the --password flag value, falling back to ENCRYPTION_PASSWORD.
func password(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if cfg.EncryptionPassword != "" {
		return cfg.EncryptionPassword, nil
	}
	return "", fmt.Errorf("no password: use --password or set ENCRYPTION_PASSWORD")
}

// printJSON writes v to w as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

