// Package cli implements passctl, the pass issuer command line.
//
// Every command loads the IssuerEnvironment from environment variables before it runs.
// Commands that touch the document store use Postgres when DATABASE_URL is set and an
// in-memory ledger otherwise.
package cli

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/information-sharing-networks/pass-issuer/internal/config"
	"github.com/information-sharing-networks/pass-issuer/internal/logger"
	"github.com/information-sharing-networks/pass-issuer/internal/version"
)

var (
	cfg       *config.IssuerEnvironment
	appLogger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:               "passctl",
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	Short:             "Pass issuer CLI",
	Long: `passctl wraps, signs, encrypts and issues verifiable passes.

A typical issuance:
  passctl wrap --sample ltvp --count 3 ./wrapped
  passctl sign ./wrapped ./signed
  passctl encrypt ./signed --password p@ss
  passctl issue --dir ./signed`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.NewIssuerConfig()
		if err != nil {
			log.Printf("failed to load configuration: %v", err.Error())
			return err
		}

		appLogger = logger.InitLogger(logger.ParseLogLevel(cfg.LogLevel), cfg.Environment)
		return nil
	},
}

func Execute() {
	v := version.Get()
	rootCmd.Version = fmt.Sprintf("%s (built %s, commit %s)", v.Version, v.BuildDate, v.GitCommit)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(wrapCmd)
	rootCmd.AddCommand(signCmd)
	rootCmd.AddCommand(encryptCmd)
	rootCmd.AddCommand(decryptCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(issueCmd)
	rootCmd.AddCommand(revokeCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(serveCmd)
}
