package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/information-sharing-networks/pass-issuer/internal/registry"
)

var issueCmd = &cobra.Command{
	Use:   "issue [hash...]",
	Short: "Record target hashes as issued",
	Long: `Record target hashes as issued in the document store at REGISTRY_ADDRESS.

Hashes are given as arguments or read from the signed passes in --dir. Duplicates are
submitted once; more than one unique hash is committed atomically with a single bulk call.
Each hash is read back after the submission and its state printed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSubmit(cmd, args, registry.TransitionIssue, issueDir)
	},
}

var revokeCmd = &cobra.Command{
	Use:   "revoke [hash...]",
	Short: "Record issued target hashes as revoked",
	Long: `Record target hashes as revoked in the document store at REGISTRY_ADDRESS.

Revoking a hash that was never issued, or is already revoked, is rejected by the ledger and
no hash in the submission changes state.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSubmit(cmd, args, registry.TransitionRevoke, revokeDir)
	},
}

var (
	issueDir  string
	revokeDir string
)

func init() {
	issueCmd.Flags().StringVar(&issueDir, "dir", "", "Folder of wrapped or signed passes to issue")
	revokeCmd.Flags().StringVar(&revokeDir, "dir", "", "Folder of wrapped or signed passes to revoke")
}

func runSubmit(cmd *cobra.Command, args []string, transition registry.Transition, dir string) error {
	if (dir == "") == (len(args) == 0) {
		return fmt.Errorf("give either hashes or --dir")
	}

	handle, err := openRegistry(cmd.Context())
	if err != nil {
		return err
	}
	defer handle.Close()

	var result *registry.Result
	switch {
	case dir != "" && transition == registry.TransitionIssue:
		result, err = handle.client.IssueFolder(cmd.Context(), dir)
	case dir != "":
		result, err = handle.client.RevokeFolder(cmd.Context(), dir)
	case transition == registry.TransitionIssue:
		result, err = handle.client.Issue(cmd.Context(), args...)
	default:
		result, err = handle.client.Revoke(cmd.Context(), args...)
	}

	var rejection *registry.LedgerRejectionError
	if errors.As(err, &rejection) {
		return fmt.Errorf("%s rejected for %v: %s", rejection.Transition, rejection.Hashes, rejection.Reason)
	}
	if result != nil {
		if perr := printJSON(cmd.OutOrStdout(), result); perr != nil {
			return perr
		}
	}
	return err
}
