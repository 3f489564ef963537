package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// DebugFlagName enables debug logging; the DEBUG environment variable has
// the same effect.
const DebugFlagName = "debug"

// NewRootCmd creates the root command with version info and subcommands.
func NewRootCmd(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pmctl",
		Short: "pmctl bootstraps a local platform-mesh development environment",
		Long: `pmctl bootstraps a local platform-mesh development environment: it creates ` +
			`or reuses a kind or k3d cluster, generates locally-trusted TLS certificates, ` +
			`and installs the platform add-ons (Flux, KRO, OCM, the platform-mesh ` +
			`operator, and Keycloak).`,
		RunE:         handleRootRunE,
		SilenceUsage: true,
	}

	cmd.Version = fmt.Sprintf("%s (Built on %s from Git SHA %s)", version, date, commit)

	cmd.PersistentFlags().Bool(DebugFlagName, false, "Enable debug logging")

	cmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		configureLogging(cmd)
	}

	cmd.AddCommand(NewCheckCmd())
	cmd.AddCommand(NewUpCmd())
	cmd.AddCommand(NewDownCmd())
	cmd.AddCommand(NewStatusCmd())

	return cmd
}

func handleRootRunE(cmd *cobra.Command, _ []string) error {
	err := cmd.Help()
	if err != nil {
		return fmt.Errorf("display help: %w", err)
	}

	return nil
}

// configureLogging raises the logrus level when --debug or the DEBUG
// environment variable is set.
func configureLogging(cmd *cobra.Command) {
	debug, err := cmd.Flags().GetBool(DebugFlagName)
	if err != nil {
		debug = false
	}

	if !debug {
		if parsed, parseErr := strconv.ParseBool(os.Getenv("DEBUG")); parseErr == nil {
			debug = parsed
		}
	}

	if debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
}
