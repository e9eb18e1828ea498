package cli

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/information-sharing-networks/pass-issuer/internal/document"
	"github.com/information-sharing-networks/pass-issuer/internal/pass"
)

var wrapCmd = &cobra.Command{
	Use:   "wrap [raw-dir] <out-dir>",
	Short: "Salt, hash and merkle-wrap a batch of raw passes",
	Long: `Wrap every JSON document in raw-dir as one batch and write one wrapped document per
file to out-dir. The batch merkle root is printed.

With --sample, raw-dir is omitted and sample passes from the sandbox issuer are generated,
each with a fresh verification URL (VERIFY_BASE_URL, STORAGE_BASE_URL).

Examples:
  passctl wrap ./raw ./wrapped
  passctl wrap --sample ltvp --count 3 --proof-type DNS-DID ./wrapped`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runWrap,
}

var (
	wrapSample       string
	wrapCount        int
	wrapProofType    string
	wrapProfileImage string
)

func init() {
	wrapCmd.Flags().StringVar(&wrapSample, "sample", "", "Generate sample passes of this kind (ltvp or stp) instead of reading raw-dir")
	wrapCmd.Flags().IntVar(&wrapCount, "count", 1, "Number of sample passes")
	wrapCmd.Flags().StringVar(&wrapProofType, "proof-type", string(pass.IdentityProofDNSTxt), "Sample issuer identity proof (DNS-TXT or DNS-DID)")
	wrapCmd.Flags().StringVar(&wrapProfileImage, "profile-image", "", "Image file embedded in each sample pass")
}

type wrapOutput struct {
	MerkleRoot string        `json:"merkleRoot"`
	Documents  []wrappedFile `json:"documents"`
}

type wrappedFile struct {
	File       string `json:"file"`
	TargetHash string `json:"targetHash"`
}

func runWrap(cmd *cobra.Command, args []string) error {
	var (
		raws   []document.RawDocument
		outDir string
		err    error
	)

	if wrapSample != "" {
		if len(args) != 1 {
			return fmt.Errorf("--sample takes only <out-dir>")
		}
		outDir = args[0]
		raws, err = samplePasses(pass.Kind(wrapSample), pass.IdentityProofType(wrapProofType), wrapCount, wrapProfileImage)
		if err != nil {
			return err
		}
	} else {
		if len(args) != 2 {
			return fmt.Errorf("raw-dir and out-dir are required")
		}
		outDir = args[1]
		raws, err = readRawDocuments(args[0])
		if err != nil {
			return err
		}
	}

	wrapped, root, err := document.WrapDocuments(cmd.Context(), raws)
	if err != nil {
		return err
	}

	names, err := document.WriteDocuments(outDir, wrapped)
	if err != nil {
		return err
	}

	appLogger.Info("documents wrapped",
		slog.Int("count", len(wrapped)),
		slog.String("merkle_root", root),
		slog.String("out_dir", outDir))

	out := wrapOutput{MerkleRoot: root, Documents: make([]wrappedFile, len(wrapped))}
	for i, w := range wrapped {
		out.Documents[i] = wrappedFile{File: names[i], TargetHash: w.CanonicalTargetHash()}
	}
	return printJSON(cmd.OutOrStdout(), out)
}

func readRawDocuments(dir string) ([]document.RawDocument, error) {
	files, err := document.ReadDocuments[document.RawDocument](dir)
	if err != nil {
		return nil, err
	}
	raws := make([]document.RawDocument, len(files))
	for i, f := range files {
		raws[i] = f.Document
	}
	return raws, nil
}

func samplePasses(kind pass.Kind, proofType pass.IdentityProofType, count int, profileImage string) ([]document.RawDocument, error) {
	if count < 1 {
		return nil, fmt.Errorf("--count must be at least 1")
	}

	raws := make([]document.RawDocument, 0, count)
	for range count {
		p, err := pass.Sample(proofType, kind)
		if err != nil {
			return nil, err
		}
		if profileImage != "" {
			if err := p.SetProfileImage(profileImage); err != nil {
				return nil, err
			}
		}
		if _, err := p.AttachVerificationURL(cfg.VerifyBaseURL, cfg.StorageBaseURL, uuid.NewString()); err != nil {
			return nil, err
		}
		raw, err := p.RawDocument()
		if err != nil {
			return nil, err
		}
		raws = append(raws, raw)
	}
	return raws, nil
}
