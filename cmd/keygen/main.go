// keygen generates issuer signing keys: Ed25519 or RSA key pairs in JWK format, or
// Dilithium3 key pairs in PEM format.
package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	passcrypto "github.com/information-sharing-networks/pass-issuer/internal/crypto"
	"github.com/information-sharing-networks/pass-issuer/internal/version"
)

// file naming convention - name.public.jwk and name.private.jwk (name.public.pem and name.private.pem for dilithium3)
const (
	publicKeyFileNameFormat  = "%s.public.%s"
	privateKeyFileNameFormat = "%s.private.%s"
)

var (
	name      string
	outputDir string
	keyType   string
	rsaSize   int
	kid       string
)

func main() {
	rootCmd := &cobra.Command{
		Use:               "keygen",
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		Short:             "Signing key generator for pass issuers",
		Long:              "Generate Ed25519 or RSA key pairs in JWK format, or Dilithium3 key pairs in PEM format, for signing passes",
	}

	v := version.Get()
	rootCmd.Version = fmt.Sprintf("%s (built %s, commit %s)", v.Version, v.BuildDate, v.GitCommit)

	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a new key pair",
		Long: `Generate a new key pair for an issuer.

The private key file is passed to passctl with SIGNING_KEY_DIR and SIGNING_KEY_FILE.
The public key file is published to verifiers (or placed in their MANUAL_KEYS_DIR).`,
		RunE: runGenerate,
	}

	generateCmd.Flags().StringVarP(&name, "name", "n", "", "Key file name prefix (e.g., ica) [required]")
	generateCmd.Flags().StringVarP(&keyType, "type", "t", "ed25519", "Key type: ed25519, rsa or dilithium3")
	generateCmd.Flags().StringVarP(&outputDir, "outputdir", "o", "", "Output directory for generated keys [required]")
	generateCmd.Flags().IntVarP(&rsaSize, "size", "s", 4096, "RSA key size in bits (2048 or 4096, default: 4096)")
	generateCmd.Flags().StringVarP(&kid, "kid", "k", "", "Key ID (default: derived from the public key)")
	_ = generateCmd.MarkFlagRequired("name")
	_ = generateCmd.MarkFlagRequired("outputdir")

	rootCmd.AddCommand(generateCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	switch keyType {
	case "ed25519", "rsa", "dilithium3":
	default:
		return fmt.Errorf("invalid key type: %s (must be 'ed25519', 'rsa' or 'dilithium3')", keyType)
	}

	if keyType == "rsa" && rsaSize != 2048 && rsaSize != 4096 {
		return fmt.Errorf("invalid RSA key size: %d (must be 2048 or 4096)", rsaSize)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	switch keyType {
	case "rsa":
		return generateRSAKeys()
	case "dilithium3":
		return generateDilithium3Keys()
	default:
		return generateEd25519Keys()
	}
}

func keyIDFor(publicKey any) (string, error) {
	if kid != "" {
		return kid, nil
	}
	keyID, err := passcrypto.KeyIDFromPublicKey(publicKey)
	if err != nil {
		return "", fmt.Errorf("failed to generate key ID: %w", err)
	}
	return keyID, nil
}

func saveJWKPair(privateKey, publicKey any) error {
	keyID, err := keyIDFor(publicKey)
	if err != nil {
		return err
	}

	publicFile := fmt.Sprintf(publicKeyFileNameFormat, name, "jwk")
	if err := passcrypto.SaveKeyToJWKFile(publicKey, keyID, outputDir, publicFile); err != nil {
		return fmt.Errorf("failed to save public key: %w", err)
	}
	fmt.Printf("✓ Public JWK:  %s/%s (kid: %s)\n", outputDir, publicFile, keyID)

	privateFile := fmt.Sprintf(privateKeyFileNameFormat, name, "jwk")
	if err := passcrypto.SaveKeyToJWKFile(privateKey, keyID, outputDir, privateFile); err != nil {
		return fmt.Errorf("failed to save private key: %w", err)
	}
	fmt.Printf("✓ Private JWK: %s/%s (kid: %s)\n", outputDir, privateFile, keyID)

	return nil
}

func generateRSAKeys() error {
	fmt.Printf("Generating %d-bit RSA key pair: %s\n", rsaSize, name)

	privateKey, err := passcrypto.GenerateRSAKeyPair(rsaSize)
	if err != nil {
		return fmt.Errorf("failed to generate RSA key: %w", err)
	}

	return saveJWKPair(privateKey, &privateKey.PublicKey)
}

func generateEd25519Keys() error {
	fmt.Printf("Generating Ed25519 key pair: %s\n", name)

	privateKey, err := passcrypto.GenerateEd25519KeyPair()
	if err != nil {
		return fmt.Errorf("failed to generate Ed25519 key: %w", err)
	}

	return saveJWKPair(privateKey, privateKey.Public().(ed25519.PublicKey))
}

func generateDilithium3Keys() error {
	fmt.Printf("Generating Dilithium3 key pair: %s\n", name)

	publicKey, privateKey, err := passcrypto.GenerateDilithium3KeyPair(rand.Reader)
	if err != nil {
		return fmt.Errorf("failed to generate Dilithium3 key: %w", err)
	}

	keyID, err := keyIDFor(publicKey)
	if err != nil {
		return err
	}

	publicFile := fmt.Sprintf(publicKeyFileNameFormat, name, "pem")
	if err := passcrypto.SaveDilithium3KeyToPEMFile(publicKey, keyID, outputDir, publicFile); err != nil {
		return fmt.Errorf("failed to save public key: %w", err)
	}
	fmt.Printf("✓ Public PEM:  %s/%s (kid: %s)\n", outputDir, publicFile, keyID)

	privateFile := fmt.Sprintf(privateKeyFileNameFormat, name, "pem")
	if err := passcrypto.SaveDilithium3KeyToPEMFile(privateKey, keyID, outputDir, privateFile); err != nil {
		return fmt.Errorf("failed to save private key: %w", err)
	}
	fmt.Printf("✓ Private PEM: %s/%s (kid: %s)\n", outputDir, privateFile, keyID)

	return nil
}
