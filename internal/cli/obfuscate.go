package cli

import (
	"github.com/spf13/cobra"

	"github.com/information-sharing-networks/pass-issuer/internal/document"
)

var obfuscateCmd = &cobra.Command{
	Use:   "obfuscate <signed-file> <out-dir>",
	Short: "Remove fields from a signed pass without invalidating it",
	Long: `Remove the named fields from a signed pass. Their leaf digests are kept in
privacy.obfuscatedData so the target hash, merkle proof and signatures stay valid.

Example:
  passctl obfuscate ./signed/3f9a0c1b2d4e.json ./shared --field recipient.fin --field recipient.dob`,
	Args: cobra.ExactArgs(2),
	RunE: runObfuscate,
}

var obfuscateFields []string

func init() {
	obfuscateCmd.Flags().StringSliceVar(&obfuscateFields, "field", nil, "Dotted path of a field to remove (repeatable)")
	_ = obfuscateCmd.MarkFlagRequired("field")
	rootCmd.AddCommand(obfuscateCmd)
}

func runObfuscate(cmd *cobra.Command, args []string) error {
	signed, err := document.ReadDocument[document.SignedWrappedDocument](args[0])
	if err != nil {
		return err
	}

	obfuscated, err := document.Obfuscate(&signed.WrappedDocument, obfuscateFields...)
	if err != nil {
		return err
	}
	out := &document.SignedWrappedDocument{WrappedDocument: *obfuscated, Proof: signed.Proof}

	names, err := document.WriteDocuments(args[1], []*document.SignedWrappedDocument{out})
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), wrappedFile{File: names[0], TargetHash: out.CanonicalTargetHash()})
}
