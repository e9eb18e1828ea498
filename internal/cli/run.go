package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/information-sharing-networks/pass-issuer/internal/document"
	"github.com/information-sharing-networks/pass-issuer/internal/pass"
	"github.com/information-sharing-networks/pass-issuer/internal/pipeline"
	"github.com/information-sharing-networks/pass-issuer/internal/registry"
)

var runCmd = &cobra.Command{
	Use:   "run [raw-dir] <out-dir>",
	Short: "Wrap, sign, encrypt, upload and issue a batch of passes",
	Long: `Run every issuance stage over one batch: wrap, sign, write the signed passes to out-dir,
then (with a password) encrypt and upload them, and (with --issue) record the target hashes
of the signed passes in the document store with a single ledger call. Passes that fail to sign
are reported and skipped by the later stages.

Raw passes are read from raw-dir, or generated with --sample as in passctl wrap.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runRun,
}

var (
	runSample    string
	runCount     int
	runProofType string
	runPassword  string
	runIssue     bool
)

func init() {
	runCmd.Flags().StringVar(&runSample, "sample", "", "Generate sample passes of this kind (ltvp or stp) instead of reading raw-dir")
	runCmd.Flags().IntVar(&runCount, "count", 1, "Number of sample passes")
	runCmd.Flags().StringVar(&runProofType, "proof-type", string(pass.IdentityProofDNSTxt), "Sample issuer identity proof (DNS-TXT or DNS-DID)")
	runCmd.Flags().StringVar(&runPassword, "password", "", "Envelope password (default: ENCRYPTION_PASSWORD); encryption is skipped when neither is set")
	runCmd.Flags().BoolVar(&runIssue, "issue", false, "Issue the target hashes after signing")
}

type runOutput struct {
	*pipeline.Result
	Files []string         `json:"files"`
	Issue *registry.Result `json:"issue,omitempty"`
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var (
		raws   []document.RawDocument
		outDir string
		err    error
	)
	if runSample != "" {
		if len(args) != 1 {
			return fmt.Errorf("--sample takes only <out-dir>")
		}
		outDir = args[0]
		raws, err = samplePasses(pass.Kind(runSample), pass.IdentityProofType(runProofType), runCount, "")
	} else {
		if len(args) != 2 {
			return fmt.Errorf("raw-dir and out-dir are required")
		}
		outDir = args[1]
		raws, err = readRawDocuments(args[0])
	}
	if err != nil {
		return err
	}

	key, err := loadIssuerKey()
	if err != nil {
		return err
	}

	pcfg := pipeline.Config{
		Signer:                key.Signer,
		Identity:              cfg.VerificationMethod,
		Scrypt:                cfg.ScryptParams(),
		EncryptionConcurrency: cfg.EncryptionConcurrency,
	}
	if pw, err := password(runPassword); err == nil {
		pcfg.Password = pw
		if pcfg.Store, err = openBlobStore(); err != nil {
			return err
		}
	} else {
		appLogger.Info("no password configured, skipping encryption")
	}

	p, err := pipeline.New(pcfg, appLogger)
	if err != nil {
		return err
	}

	result, err := p.Run(ctx, raws)
	if err != nil {
		return err
	}

	out := runOutput{Result: result}
	if out.Files, err = document.WriteDocuments(outDir, result.Signed()); err != nil {
		return err
	}

	if runIssue {
		handle, err := openRegistry(ctx)
		if err != nil {
			return err
		}
		defer handle.Close()

		hashes := make([]string, 0, len(result.Items))
		for _, item := range result.Items {
			if item.Signed != nil {
				hashes = append(hashes, item.TargetHash)
			}
		}
		if out.Issue, err = handle.client.Issue(ctx, hashes...); err != nil {
			return err
		}
	}

	appLogger.Info("batch complete",
		slog.Int("count", len(result.Items)),
		slog.Int("failed", result.Failed()),
		slog.String("merkle_root", result.MerkleRoot),
		slog.Bool("issued", out.Issue != nil))

	if err := printJSON(cmd.OutOrStdout(), out); err != nil {
		return err
	}
	if n := result.Failed(); n > 0 {
		return fmt.Errorf("%d of %d documents failed to sign, encrypt or upload", n, len(result.Items))
	}
	return nil
}
