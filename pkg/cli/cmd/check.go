package cmd

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/platform-mesh/bootstrap/pkg/apis/bootstrap/v1alpha1"
	"github.com/platform-mesh/bootstrap/pkg/config"
	"github.com/platform-mesh/bootstrap/pkg/svc/checker"
	"github.com/platform-mesh/bootstrap/pkg/ui/notify"
	"github.com/platform-mesh/bootstrap/pkg/ui/timer"
)

// NewCheckCmd creates the check command, which verifies local prerequisites
// without touching any cluster.
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "check",
		Short:        "Verify local prerequisites",
		Long:         `Verify that a container engine is reachable, the CPU architecture is supported, and the kubeconfig location is writable.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	cfgManager := config.NewCommandManager(cmd, config.DefaultFieldSelectors())

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		cfg, err := cfgManager.LoadConfigSilent()
		if err != nil {
			return err
		}

		tmr := timer.New()
		tmr.Start()

		writer := cmd.OutOrStdout()
		notify.Titlef(writer, "🔍", "Check prerequisites...")

		err = runChecks(cmd.Context(), writer, cfg)
		if err != nil {
			return err
		}

		notify.SuccessWithTimerf(writer, tmr, "all checks passed")

		return nil
	}

	return cmd
}

// runChecks executes all prerequisite checks and prints one line per check.
// All checks run even when earlier ones fail, so every problem is reported
// in a single pass.
func runChecks(ctx context.Context, writer io.Writer, cfg *v1alpha1.Bootstrap) error {
	runner := checker.NewRunner(
		checker.ContainerEngineCheck(),
		checker.ArchitectureCheck(),
		checker.KubeconfigWritableCheck(cfg.Spec.Cluster.Kubeconfig),
	)

	results, err := runner.Run(ctx)
	reportCheckResults(writer, results)

	return err
}

func reportCheckResults(writer io.Writer, results []checker.Result) {
	for _, result := range results {
		if result.Failed() {
			notify.Errorf(writer, "%s: %v", result.Name, result.Err)

			if result.Hint != "" {
				notify.Infof(writer, "%s", result.Hint)
			}

			continue
		}

		if result.Detail != "" {
			notify.Successf(writer, "%s: %s", result.Name, result.Detail)

			continue
		}

		notify.Successf(writer, "%s", result.Name)
	}
}
