package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/platform-mesh/bootstrap/pkg/apis/bootstrap/v1alpha1"
	"github.com/platform-mesh/bootstrap/pkg/config"
	"github.com/platform-mesh/bootstrap/pkg/fsutil"
	"github.com/platform-mesh/bootstrap/pkg/svc/detector"
	"github.com/platform-mesh/bootstrap/pkg/svc/installer"
	exampledatainstaller "github.com/platform-mesh/bootstrap/pkg/svc/installer/exampledata"
	fluxinstaller "github.com/platform-mesh/bootstrap/pkg/svc/installer/flux"
	keycloakinstaller "github.com/platform-mesh/bootstrap/pkg/svc/installer/keycloak"
	kroinstaller "github.com/platform-mesh/bootstrap/pkg/svc/installer/kro"
	ocminstaller "github.com/platform-mesh/bootstrap/pkg/svc/installer/ocm"
	operatorinstaller "github.com/platform-mesh/bootstrap/pkg/svc/installer/operator"
	"github.com/platform-mesh/bootstrap/pkg/svc/installer/versions"
	webhookinstaller "github.com/platform-mesh/bootstrap/pkg/svc/installer/webhook"
	clusterprovisioner "github.com/platform-mesh/bootstrap/pkg/svc/provisioner/cluster"
	k3dprovisioner "github.com/platform-mesh/bootstrap/pkg/svc/provisioner/cluster/k3d"
	kindprovisioner "github.com/platform-mesh/bootstrap/pkg/svc/provisioner/cluster/kind"
	"github.com/platform-mesh/bootstrap/pkg/ui/notify"
	"github.com/platform-mesh/bootstrap/pkg/ui/timer"
)

// KeepClusterFlagName uninstalls the platform add-ons but leaves the
// cluster itself running.
const KeepClusterFlagName = "keep-cluster"

// NewDownCmd creates the down command, which tears the environment down.
func NewDownCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Tear down the platform-mesh environment",
		Long: `Delete the bootstrap cluster. With --keep-cluster, only the platform ` +
			`add-ons are uninstalled and the cluster keeps running.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	cfgManager := config.NewCommandManager(cmd, config.DefaultFieldSelectors())
	cmd.Flags().Bool(KeepClusterFlagName, false, "Uninstall add-ons but keep the cluster")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		cfg, err := cfgManager.LoadConfigSilent()
		if err != nil {
			return err
		}

		keepCluster, err := cmd.Flags().GetBool(KeepClusterFlagName)
		if err != nil {
			keepCluster = false
		}

		return runDown(cmd.Context(), cmd.OutOrStdout(), cfg, keepCluster, defaultClientFactories())
	}

	return cmd
}

func runDown(
	ctx context.Context,
	writer io.Writer,
	cfg *v1alpha1.Bootstrap,
	keepCluster bool,
	factories clientFactories,
) error {
	tmr := timer.New()
	tmr.Start()

	notify.Titlef(writer, "🔥", "Tear down platform-mesh...")

	kubeconfig, err := fsutil.ExpandHomePath(cfg.Spec.Cluster.Kubeconfig)
	if err != nil {
		return fmt.Errorf("resolve kubeconfig path: %w", err)
	}

	name := cfg.Spec.Cluster.Name
	kindProvisioner := kindprovisioner.NewKindClusterProvisioner(
		kindprovisioner.DefaultClusterConfig(name),
		kubeconfig,
	)
	k3dProvisioner := k3dprovisioner.NewK3dClusterProvisioner(name)

	decision, err := detector.NewClusterDetector(kindProvisioner, k3dProvisioner, name).Detect(ctx)
	if err != nil {
		return err
	}

	if decision.CreateNeeded() {
		notify.Infof(writer, "no cluster named '%s' found, nothing to tear down", name)

		return nil
	}

	if keepCluster {
		err = uninstallAddOns(ctx, writer, cfg, kubeconfig, decision, factories)
		if err != nil {
			return err
		}

		notify.SuccessWithTimerf(writer, tmr, "add-ons removed, cluster '%s' kept", name)

		return nil
	}

	provisioner := clusterprovisioner.ClusterProvisioner(kindProvisioner)
	if decision.Action == detector.ActionReuseK3d {
		provisioner = k3dProvisioner
	}

	notify.Activityf(writer, "deleting %s cluster '%s'", decision.Distribution, decision.ClusterName)

	err = provisioner.Delete(ctx, decision.ClusterName)
	if err != nil {
		if errors.Is(err, clusterprovisioner.ErrClusterNotFound) {
			notify.Infof(writer, "cluster '%s' already gone", decision.ClusterName)

			return nil
		}

		return fmt.Errorf("delete cluster: %w", err)
	}

	notify.SuccessWithTimerf(writer, tmr, "cluster '%s' deleted", decision.ClusterName)

	return nil
}

// uninstallAddOns removes the platform add-ons in reverse install order.
// Releases that are already gone are skipped silently by the installers.
func uninstallAddOns(
	ctx context.Context,
	writer io.Writer,
	cfg *v1alpha1.Bootstrap,
	kubeconfig string,
	decision *detector.Decision,
	factories clientFactories,
) error {
	helmClient, err := factories.helm(kubeconfig, decision.Context)
	if err != nil {
		return fmt.Errorf("create helm client: %w", err)
	}

	clientset, err := factories.clientset(kubeconfig, decision.Context)
	if err != nil {
		return fmt.Errorf("create kubernetes client: %w", err)
	}

	resolver := versions.NewResolver(cfg.Spec.Channel, cfg.Spec.Cached)
	waitTimeout := cfg.Spec.WaitTimeout.Duration

	certsDir, err := fsutil.ExpandHomePath(cfg.Spec.Certs.Directory)
	if err != nil {
		return fmt.Errorf("resolve certs directory: %w", err)
	}

	type namedInstaller struct {
		name      string
		installer installer.Installer
	}

	uninstalls := []namedInstaller{
		{"keycloak", keycloakinstaller.NewInstaller(helmClient, resolver, waitTimeout, cfg.Spec.Cached)},
		{"webhook certificates", webhookinstaller.NewInstaller(clientset, certsDir)},
		{"platform-mesh-operator", operatorinstaller.NewInstaller(helmClient, resolver, waitTimeout)},
		{"ocm-controller", ocminstaller.NewInstaller(helmClient, resolver, waitTimeout)},
		{"kro", kroinstaller.NewInstaller(helmClient, resolver, waitTimeout)},
		{"flux-operator", fluxinstaller.NewInstaller(helmClient, resolver, waitTimeout)},
	}

	if cfg.Spec.ExampleData {
		restConfig, restErr := factories.restConfig(kubeconfig, decision.Context)
		if restErr != nil {
			return fmt.Errorf("build rest config: %w", restErr)
		}

		fluxClient, fluxErr := factories.flux(restConfig)
		if fluxErr != nil {
			return fmt.Errorf("create flux client: %w", fluxErr)
		}

		uninstalls = append(
			[]namedInstaller{{"example data", exampledatainstaller.NewInstaller(fluxClient)}},
			uninstalls...,
		)
	}

	for _, entry := range uninstalls {
		notify.Activityf(writer, "uninstalling %s", entry.name)

		err = entry.installer.Uninstall(ctx)
		if err != nil {
			return fmt.Errorf("uninstall %s: %w", entry.name, err)
		}
	}

	return nil
}
