package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/information-sharing-networks/pass-issuer/internal/document"
	"github.com/information-sharing-networks/pass-issuer/internal/signing"
)

var signCmd = &cobra.Command{
	Use:   "sign <wrapped-dir> <out-dir>",
	Short: "Sign wrapped documents with the issuer key",
	Long: `Sign the target hash of every wrapped document in wrapped-dir with the key in
SIGNING_KEY_DIR/SIGNING_KEY_FILE and write the signed documents to out-dir.

The proof's verification method is VERIFICATION_METHOD#<kid>.`,
	Args: cobra.ExactArgs(2),
	RunE: runSign,
}

func runSign(cmd *cobra.Command, args []string) error {
	key, err := loadIssuerKey()
	if err != nil {
		return err
	}

	files, err := document.ReadDocuments[document.WrappedDocument](args[0])
	if err != nil {
		return err
	}
	docs := make([]*document.WrappedDocument, len(files))
	for i := range files {
		docs[i] = &files[i].Document
	}

	signed, err := signing.SignDocuments(cmd.Context(), docs, key.Signer, cfg.VerificationMethod)
	if err != nil {
		return err
	}

	names, err := document.WriteDocuments(args[1], signed)
	if err != nil {
		return err
	}

	appLogger.Info("documents signed",
		slog.Int("count", len(signed)),
		slog.String("kid", key.Signer.KeyID()),
		slog.String("algorithm", string(key.Signer.Algorithm())))

	out := make([]wrappedFile, len(signed))
	for i, s := range signed {
		out[i] = wrappedFile{File: names[i], TargetHash: s.CanonicalTargetHash()}
	}
	return printJSON(cmd.OutOrStdout(), out)
}
