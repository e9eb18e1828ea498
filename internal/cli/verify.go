package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/information-sharing-networks/pass-issuer/internal/document"
	"github.com/information-sharing-networks/pass-issuer/internal/verify"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <signed-file>...",
	Short: "Verify signed passes",
	Long: `Check each signed pass and print a report with one fragment per check:

  DOCUMENT_INTEGRITY  the target hash and merkle proof match the pass data
  DOCUMENT_STATUS     the target hash is issued and not revoked
  ISSUER_IDENTITY     every proof verifies against the issuer key

Issuer keys come from ISSUER_REGISTRY_PATH, or the configured signing key when no issuer
registry is set. The command fails when any pass is invalid.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runVerify,
}

type verifyOutput struct {
	File string `json:"file"`
	*verify.Report
}

func runVerify(cmd *cobra.Command, args []string) error {
	handle, err := openRegistry(cmd.Context())
	if err != nil {
		return err
	}
	defer handle.Close()

	verifier, err := newVerifier(cmd.Context(), handle.client)
	if err != nil {
		return err
	}

	out := make([]verifyOutput, 0, len(args))
	invalid := 0
	for _, path := range args {
		doc, err := document.ReadDocument[document.SignedWrappedDocument](path)
		if err != nil {
			return err
		}
		report, err := verifier.Verify(cmd.Context(), &doc)
		if err != nil {
			return err
		}
		if !report.Valid {
			invalid++
		}
		out = append(out, verifyOutput{File: path, Report: report})
	}

	if err := printJSON(cmd.OutOrStdout(), out); err != nil {
		return err
	}
	if invalid > 0 {
		return fmt.Errorf("%d of %d documents are invalid", invalid, len(args))
	}
	return nil
}
