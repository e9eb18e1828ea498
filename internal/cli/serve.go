package cli

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/spf13/cobra"

	"github.com/information-sharing-networks/pass-issuer/internal/crypto"
	"github.com/information-sharing-networks/pass-issuer/internal/database"
	"github.com/information-sharing-networks/pass-issuer/internal/server"
	"github.com/information-sharing-networks/pass-issuer/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the verification HTTP service",
	Long: `Serve hash status lookups and pass verification over HTTP.

  GET  /v1/hashes/{hash}/status   document store state of a target hash
  POST /v1/verify                 verify a signed pass
  GET  /.well-known/jwks.json     the issuer public key (Ed25519 and RSA signing keys only)

With --admin the unauthenticated /admin/v1/hashes/issue and /admin/v1/hashes/revoke endpoints
are also mounted. Use them in development only.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	serveAdmin   bool
	serveMigrate bool
)

func init() {
	serveCmd.Flags().BoolVar(&serveAdmin, "admin", false, "Mount the admin issue and revoke endpoints")
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "Apply database migrations before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	appLogger.Info("Configuration loaded",
		slog.String("ENVIRONMENT", cfg.Environment),
		slog.String("HOST", cfg.Host),
		slog.Int("PORT", cfg.Port),
		slog.String("LOG_LEVEL", cfg.LogLevel),
		slog.Bool("DATABASE_URL_SET", cfg.DatabaseURL != ""),
		slog.String("REGISTRY_ADDRESS", cfg.RegistryAddress),
		slog.String("ISSUER_REGISTRY_PATH", cfg.IssuerRegistryPath),
		slog.String("SIGNING_KEY_FILE", cfg.SigningKeyFile),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handle, err := openRegistry(ctx)
	if err != nil {
		return err
	}

	if serveMigrate && handle.pool != nil {
		if err := database.Migrate(ctx, handle.pool); err != nil {
			handle.Close()
			return err
		}
	}

	verifier, err := newVerifier(ctx, handle.client)
	if err != nil {
		handle.Close()
		return err
	}

	jwkSet, err := issuerJWKSet()
	if err != nil {
		handle.Close()
		return err
	}

	appLogger.Info("Starting server", slog.String("version", version.Get().Version))

	srv, err := server.NewServer(cfg, server.Dependencies{
		Registry:    handle.client,
		Verifier:    verifier,
		Pool:        handle.pool,
		JWKSet:      jwkSet,
		EnableAdmin: serveAdmin,
	}, appLogger)
	if err != nil {
		handle.Close()
		return err
	}
	defer srv.DatabaseShutdown()

	if err := srv.Start(ctx); err != nil {
		appLogger.Error("Server error", slog.String("error", err.Error()))
		return err
	}

	appLogger.Info("server shutdown complete")
	return nil
}

// issuerJWKSet returns the public half of the signing key as a JWK set, or nil when there is
// no signing key or it has no JWK form.
func issuerJWKSet() (jwk.Set, error) {
	if cfg.SigningKeyFile == "" {
		return nil, nil
	}
	key, err := loadIssuerKey()
	if err != nil {
		return nil, err
	}
	if key.Signer.Algorithm() == crypto.AlgorithmDilithium3 {
		appLogger.Info("Dilithium3 signing key has no JWK form: jwks endpoint disabled")
		return nil, nil
	}
	return crypto.PublicJWKSet(key.PrivateKey, key.Signer.KeyID())
}
