package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/information-sharing-networks/pass-issuer/internal/document"
	"github.com/information-sharing-networks/pass-issuer/internal/pipeline"
)

var encryptCmd = &cobra.Command{
	Use:   "encrypt <signed-dir>",
	Short: "Encrypt signed passes and upload them to the blob store",
	Long: `Encrypt every signed pass in signed-dir with the key from its verification URL, seal
the result in a password envelope and upload it to the blob store (BLOB_BACKEND) under the
verification URI path.

Passes are processed concurrently (ENCRYPTION_CONCURRENCY). A pass that fails to encrypt is
reported and never uploaded; the others are unaffected.`,
	Args: cobra.ExactArgs(1),
	RunE: runEncrypt,
}

var (
	encryptPassword string
	encryptNoUpload bool
)

func init() {
	encryptCmd.Flags().StringVar(&encryptPassword, "password", "", "Envelope password (default: ENCRYPTION_PASSWORD)")
	encryptCmd.Flags().BoolVar(&encryptNoUpload, "no-upload", false, "Encrypt only, do not upload")
}

func runEncrypt(cmd *cobra.Command, args []string) error {
	pw, err := password(encryptPassword)
	if err != nil {
		return err
	}

	files, err := document.ReadDocuments[document.SignedWrappedDocument](args[0])
	if err != nil {
		return err
	}
	signed := make([]*document.SignedWrappedDocument, len(files))
	for i := range files {
		signed[i] = &files[i].Document
	}

	pcfg := pipeline.Config{
		Password:              pw,
		Scrypt:                cfg.ScryptParams(),
		EncryptionConcurrency: cfg.EncryptionConcurrency,
	}
	if !encryptNoUpload {
		if pcfg.Store, err = openBlobStore(); err != nil {
			return err
		}
	}

	p, err := pipeline.New(pcfg, appLogger)
	if err != nil {
		return err
	}

	items := p.EncryptAndUpload(cmd.Context(), signed)

	failed := 0
	for _, item := range items {
		if item.Err != nil {
			failed++
		}
	}
	appLogger.Info("documents encrypted",
		slog.Int("count", len(items)),
		slog.Int("failed", failed),
		slog.String("blob_backend", cfg.BlobBackend))

	if err := printJSON(cmd.OutOrStdout(), items); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(items))
	}
	return nil
}
