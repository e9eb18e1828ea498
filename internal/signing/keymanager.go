// keymanager.go handles discovering, caching and looking up the public keys used to verify pass proofs
//
// The keymanager supports two ways of configuring issuer public keys:
//   - JWKS endpoint: the keymanager fetches the issuer's public keys from its JWKS endpoint
//   - Manual key: public keys received out-of-band are loaded from the configured directory at startup
//
// # manual keys
// Manual keys are loaded at startup and are not refreshed. Each file holds a single public key:
// a JWK (.jwk, .jwks, .jwks.json) for EdDSA/RS256 issuers or a PEM (.pem) for Dilithium3 issuers.
//
// # issuer registry
// Keys are mapped to an issuer by looking up the kid in the issuer registry, a CSV file with the columns
//
//	Name,Identity,JWKSEndpoint,ManualKeyID
//
// Identity is the base of the verification method the issuer writes into its proofs (for example a DID).
// Each issuer sets either a JWKS endpoint or a manual key id, never both.
// Keys of issuers not in the registry are not loaded, and proofs signed with them are rejected.
package signing

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/lestrrat-go/httprc/v3"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jws"

	"github.com/information-sharing-networks/pass-issuer/internal/crypto"
)

// Issuer is a trusted pass issuer from the issuer registry.
type Issuer struct {
	// Name is the display name of the issuer (e.g. "Immigration & Checkpoints Authority")
	Name string

	// Identity is the verification method base used in the issuer's proofs (e.g. "did:ethr:0xC5f1...")
	Identity string

	// JWKSEndpoint is the full URL of the issuer's JWK set
	JWKSEndpoint string

	// ManualKeyID is the kid of the manually configured public key for this issuer.
	ManualKeyID string
}

// PublicKeyInfo is a public key and the issuer it belongs to.
type PublicKeyInfo struct {
	Issuer *Issuer

	// Key is the raw public key: ed25519.PublicKey, *rsa.PublicKey or *mode3.PublicKey
	Key any

	KeyID string
}

// KeyManager manages issuer public keys for proof verification.
type KeyManager struct {
	// issuers is keyed by issuer name
	issuers map[string]*Issuer

	// manualKeys is keyed by kid
	manualKeys map[string]*PublicKeyInfo

	// jwkCache is the auto-refreshing cache for remote JWK sets.
	jwkCache *jwk.Cache

	logger *slog.Logger

	mu sync.RWMutex

	config *KeyManagerConfig
}

// KeyManagerConfig holds configuration for the KeyManager.
type KeyManagerConfig struct {
	// RegistryPath is the issuer registry CSV file.
	RegistryPath string

	// ManualKeysDir is the directory containing manually configured public keys (optional).
	ManualKeysDir string

	// SkipJWKCache disables JWK cache initialization (useful for testing)
	SkipJWKCache bool

	JWKCacheMinRefreshInterval time.Duration
	JWKCacheMaxRefreshInterval time.Duration
}

// NewKeyManager creates a KeyManager, loading the issuer registry and any manual keys.
func NewKeyManager(ctx context.Context, config *KeyManagerConfig, logger *slog.Logger) (*KeyManager, error) {
	if config == nil {
		return nil, NewConfigurationError("config is nil")
	}
	if logger == nil {
		return nil, NewConfigurationError("logger cannot be nil")
	}
	if config.RegistryPath == "" {
		return nil, NewConfigurationError("issuer registry path is required")
	}

	km := &KeyManager{
		config:     config,
		issuers:    make(map[string]*Issuer),
		manualKeys: make(map[string]*PublicKeyInfo),
		logger:     logger,
	}

	logger.Info("initializing KeyManager",
		slog.String("ISSUER_REGISTRY_PATH", config.RegistryPath),
		slog.Bool("SKIP_JWK_CACHE", config.SkipJWKCache))

	if err := km.loadIssuers(); err != nil {
		return nil, WrapConfigurationError(err, "failed to load issuer registry")
	}
	km.logger.Info("issuer registry loaded", slog.Int("issuers", len(km.issuers)))

	if config.ManualKeysDir != "" {
		if err := km.loadManualKeys(); err != nil {
			return nil, WrapConfigurationError(err, "failed to load manual keys")
		}
		km.logger.Info("manual keys loaded", slog.Int("keys", len(km.manualKeys)))
	}

	if !config.SkipJWKCache {
		if err := km.initJWKCache(ctx); err != nil {
			return nil, WrapConfigurationError(err, "failed to init JWK cache")
		}
		km.logger.Debug("JWK cache initialized")
	} else {
		km.logger.Info("JWK cache initialization skipped")
	}

	return km, nil
}

// loadIssuers reads the issuer registry CSV (Name,Identity,JWKSEndpoint,ManualKeyID).
func (k *KeyManager) loadIssuers() error {
	data, err := os.ReadFile(k.config.RegistryPath)
	if err != nil {
		return err
	}

	reader := csv.NewReader(bytes.NewReader(data))
	records, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to parse registry csv: %w", err)
	}

	for _, record := range records {
		if len(record) > 0 && record[0] == "Name" {
			continue
		}
		if len(record) != 4 {
			return fmt.Errorf("invalid registry record: %v", record)
		}

		name, identity, jwksEndpoint, manualKeyID := record[0], record[1], record[2], record[3]
		if name == "" {
			return fmt.Errorf("invalid registry record - name not set: %v", record)
		}
		if identity == "" {
			return fmt.Errorf("invalid registry record - identity not set: %v", record)
		}
		if jwksEndpoint == "" && manualKeyID == "" {
			return fmt.Errorf("invalid registry record - no jwks_endpoint or manual_key_id: %v", record)
		}
		if jwksEndpoint != "" && manualKeyID != "" {
			return fmt.Errorf("invalid registry record - both jwks_endpoint and manual_key_id set: %v", record)
		}
		if jwksEndpoint != "" {
			u, err := url.Parse(jwksEndpoint)
			if err != nil || u.Scheme == "" || u.Host == "" {
				return fmt.Errorf("invalid registry record - invalid url: %v", record)
			}
		}
		if k.issuers[name] != nil {
			return fmt.Errorf("duplicate issuer in registry: %s", name)
		}

		k.issuers[name] = &Issuer{
			Name:         name,
			Identity:     identity,
			JWKSEndpoint: jwksEndpoint,
			ManualKeyID:  manualKeyID,
		}
	}

	return nil
}

// loadManualKeys loads the single-key public key files in the manual keys directory.
// Unreadable files and keys of unregistered issuers are skipped with a log entry.
func (k *KeyManager) loadManualKeys() error {
	dir := k.config.ManualKeysDir
	k.logger.Info("loading manual keys", slog.String("dir", dir))

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return NewConfigurationError(fmt.Sprintf("specified manual keys directory (%v) does not exist", dir))
		}
		return err
	}
	if !info.IsDir() {
		return NewConfigurationError(fmt.Sprintf("manual keys path is not a directory: %s", dir))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		filename := entry.Name()

		isKeyFile := strings.HasSuffix(filename, ".jwk") ||
			strings.HasSuffix(filename, ".jwks") ||
			strings.HasSuffix(filename, ".jwks.json") ||
			strings.HasSuffix(filename, ".pem")
		if !isKeyFile {
			k.logger.Debug("skipping: non-key file", slog.String("file", filename))
			continue
		}

		pub, keyID, err := crypto.ReadPublicKeyFile(dir, filename)
		if err != nil {
			k.logger.Error("skipping: failed to read manual key file",
				slog.String("file", filename),
				slog.String("error", err.Error()))
			continue
		}

		var issuer *Issuer
		for _, candidate := range k.issuers {
			if candidate.ManualKeyID == keyID {
				issuer = candidate
				break
			}
		}
		if issuer == nil {
			k.logger.Warn("skipping: kid not found in the issuer registry",
				slog.String("file", filename),
				slog.String("kid", keyID))
			continue
		}

		k.manualKeys[keyID] = &PublicKeyInfo{Issuer: issuer, Key: pub, KeyID: keyID}

		k.logger.Info("public key loaded to keymanager",
			slog.String("file", filename),
			slog.String("kid", keyID),
			slog.String("issuer", issuer.Name),
			slog.String("key_type", fmt.Sprintf("%T", pub)))
	}

	return nil
}

// initJWKCache registers every issuer JWKS endpoint with an auto-refreshing JWK cache.
// Key sets are fetched in the background so startup does not block on remote issuers.
func (k *KeyManager) initJWKCache(ctx context.Context) error {
	client := httprc.NewClient()

	cache, err := jwk.NewCache(ctx, client)
	if err != nil {
		return fmt.Errorf("failed to create JWK cache: %w", err)
	}
	k.jwkCache = cache

	successCount := 0
	for _, issuer := range k.issuers {
		if issuer.JWKSEndpoint == "" {
			continue
		}

		err := k.jwkCache.Register(ctx, issuer.JWKSEndpoint,
			jwk.WithMinInterval(k.config.JWKCacheMinRefreshInterval),
			jwk.WithMaxInterval(k.config.JWKCacheMaxRefreshInterval),
			jwk.WithWaitReady(false),
		)
		if err != nil {
			k.logger.Warn("failed to register JWK endpoint",
				slog.String("issuer", issuer.Name),
				slog.String("jwk_url", issuer.JWKSEndpoint),
				slog.String("error", err.Error()))
			continue
		}

		successCount++
		k.logger.Info("registered JWK endpoint for background fetch",
			slog.String("issuer", issuer.Name),
			slog.String("jwk_url", issuer.JWKSEndpoint))
	}

	k.logger.Info("JWK cache initialization complete",
		slog.Int("endpoints_registered", successCount))

	return nil
}

// FetchKeys implements jws.KeyProvider so JWS proofs can be verified with jws.WithKeyProvider.
// The key is looked up by the kid in the protected header.
func (k *KeyManager) FetchKeys(ctx context.Context, sink jws.KeySink, sig *jws.Signature, msg *jws.Message) error {
	kid, ok := sig.ProtectedHeaders().KeyID()
	if !ok || kid == "" {
		return NewInvalidSignatureError("kid is required in JWS header")
	}

	alg, ok := sig.ProtectedHeaders().Algorithm()
	if !ok {
		return NewInvalidSignatureError("alg is required in JWS header")
	}

	info, err := k.GetKey(ctx, kid)
	if err != nil {
		return err
	}

	sink.Key(alg, info.Key)
	return nil
}

// PublicKey implements KeyResolver.
func (k *KeyManager) PublicKey(ctx context.Context, keyID string) (any, error) {
	info, err := k.GetKey(ctx, keyID)
	if err != nil {
		return nil, err
	}
	return info.Key, nil
}

// GetKey retrieves a public key and its issuer by kid, checking manual keys first and then
// the cached JWK sets of the registered issuers.
func (k *KeyManager) GetKey(ctx context.Context, keyID string) (*PublicKeyInfo, error) {
	if keyID == "" {
		return nil, NewKeyNotFoundError("kid is required")
	}

	k.mu.RLock()
	if info, exists := k.manualKeys[keyID]; exists {
		k.mu.RUnlock()
		return info, nil
	}
	k.mu.RUnlock()

	if k.jwkCache != nil {
		for _, issuer := range k.issuers {
			if issuer.JWKSEndpoint == "" {
				continue
			}

			keySet, err := k.jwkCache.Lookup(ctx, issuer.JWKSEndpoint)
			if err != nil {
				k.logger.Debug("failed to lookup JWK set from cache",
					slog.String("issuer", issuer.Name),
					slog.String("jwk_url", issuer.JWKSEndpoint),
					slog.String("error", err.Error()))
				continue
			}

			key, found := keySet.LookupKeyID(keyID)
			if !found {
				continue
			}

			pub, err := crypto.JWKToPublicKey(key)
			if err != nil {
				return nil, err
			}
			alg, err := crypto.JWKAlgorithm(key)
			if err != nil {
				return nil, err
			}

			k.logger.Debug("found remote key",
				slog.String("kid", keyID),
				slog.String("issuer", issuer.Name),
				slog.String("algorithm", string(alg)))

			return &PublicKeyInfo{Issuer: issuer, Key: pub, KeyID: keyID}, nil
		}
	}

	return nil, NewKeyNotFoundError(fmt.Sprintf("key not found: %s", keyID))
}

// LookupIssuerByKeyID returns the registered issuer that owns the given key.
func (k *KeyManager) LookupIssuerByKeyID(ctx context.Context, keyID string) (*Issuer, error) {
	info, err := k.GetKey(ctx, keyID)
	if err != nil {
		return nil, err
	}
	return info.Issuer, nil
}
