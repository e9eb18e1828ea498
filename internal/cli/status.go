package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/information-sharing-networks/pass-issuer/internal/api"
	"github.com/information-sharing-networks/pass-issuer/internal/registry"
)

var statusCmd = &cobra.Command{
	Use:   "status [hash...]",
	Short: "Show the document store state of target hashes",
	Long:  `Read whether each target hash is issued and whether it is revoked. Hashes are given as arguments or read from --dir.`,
	RunE:  runStatus,
}

var statusDir string

func init() {
	statusCmd.Flags().StringVar(&statusDir, "dir", "", "Folder of wrapped or signed passes")
}

func runStatus(cmd *cobra.Command, args []string) error {
	hashes := args
	if statusDir != "" {
		folder, err := registry.HashesInFolder(statusDir)
		if err != nil {
			return err
		}
		hashes = append(hashes, folder...)
	}
	if len(hashes) == 0 {
		return fmt.Errorf("give hashes or --dir")
	}

	handle, err := openRegistry(cmd.Context())
	if err != nil {
		return err
	}
	defer handle.Close()

	statuses, err := handle.client.Status(cmd.Context(), hashes...)
	if err != nil {
		return err
	}

	out := make([]api.HashStatusResponse, len(statuses))
	for i, s := range statuses {
		out[i] = api.NewHashStatusResponse(handle.client.Address(), s)
	}
	return printJSON(cmd.OutOrStdout(), out)
}
