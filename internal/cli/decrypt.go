package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/information-sharing-networks/pass-issuer/internal/blob"
	"github.com/information-sharing-networks/pass-issuer/internal/document"
	"github.com/information-sharing-networks/pass-issuer/internal/encryption"
)

var decryptCmd = &cobra.Command{
	Use:   "decrypt",
	Short: "Fetch and decrypt an encrypted pass",
	Long: `Fetch a password envelope from the blob store and decrypt the signed pass inside it.

The storage key and document key are read from --url (a pass verification URL). Alternatively
give --key and --document-key, or read the envelope from a local --envelope file.

Examples:
  passctl decrypt --url 'https://action.openattestation.com/?q=...#{"key":"..."}' --password p@ss
  passctl decrypt --envelope ./envelope.json --document-key 5f2b... --password p@ss --out ./decrypted`,
	Args: cobra.NoArgs,
	RunE: runDecrypt,
}

var (
	decryptURL          string
	decryptKey          string
	decryptDocumentKey  string
	decryptEnvelopeFile string
	decryptCID          string
	decryptPassword     string
	decryptOutDir       string
)

func init() {
	decryptCmd.Flags().StringVar(&decryptURL, "url", "", "Pass verification URL")
	decryptCmd.Flags().StringVar(&decryptKey, "key", "", "Blob storage key")
	decryptCmd.Flags().StringVar(&decryptDocumentKey, "document-key", "", "Hex document key")
	decryptCmd.Flags().StringVar(&decryptEnvelopeFile, "envelope", "", "Read the envelope from this file instead of the blob store")
	decryptCmd.Flags().StringVar(&decryptCID, "cid", "", "Expected content id of the envelope (from the upload receipt)")
	decryptCmd.Flags().StringVar(&decryptPassword, "password", "", "Envelope password (default: ENCRYPTION_PASSWORD)")
	decryptCmd.Flags().StringVar(&decryptOutDir, "out", "", "Write the decrypted pass to this folder instead of stdout")
	decryptCmd.MarkFlagsMutuallyExclusive("url", "key")
	decryptCmd.MarkFlagsMutuallyExclusive("url", "document-key")
}

func runDecrypt(cmd *cobra.Command, args []string) error {
	pw, err := password(decryptPassword)
	if err != nil {
		return err
	}

	storageKey, documentKey := decryptKey, decryptDocumentKey
	if decryptURL != "" {
		link, err := encryption.ParseVerificationURL(decryptURL)
		if err != nil {
			return err
		}
		if storageKey, err = link.StorageKey(); err != nil {
			return err
		}
		documentKey = link.Key
	}
	if documentKey == "" {
		return fmt.Errorf("a document key is required: use --url or --document-key")
	}

	var content []byte
	if decryptEnvelopeFile != "" {
		content, err = os.ReadFile(decryptEnvelopeFile)
		if err != nil {
			return fmt.Errorf("failed to read envelope: %w", err)
		}
	} else {
		if storageKey == "" {
			return fmt.Errorf("a storage key is required: use --url, --key or --envelope")
		}
		store, err := openBlobStore()
		if err != nil {
			return err
		}
		if content, err = store.Get(cmd.Context(), storageKey); err != nil {
			return err
		}
	}

	if decryptCID != "" {
		if err := blob.VerifyContent(content, decryptCID); err != nil {
			return err
		}
	}

	var env encryption.Envelope
	if err := json.Unmarshal(content, &env); err != nil {
		return encryption.WrapMalformedEnvelopeError(err, "envelope is not valid JSON")
	}

	signed, err := encryption.DecryptDocument(cmd.Context(), &env, pw, documentKey, cfg.ScryptParams())
	if err != nil {
		return err
	}

	if decryptOutDir == "" {
		return printJSON(cmd.OutOrStdout(), signed)
	}
	names, err := document.WriteDocuments(decryptOutDir, []*document.SignedWrappedDocument{signed})
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), wrappedFile{File: names[0], TargetHash: signed.CanonicalTargetHash()})
}
