package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/platform-mesh/bootstrap/pkg/apis/bootstrap/v1alpha1"
	"github.com/platform-mesh/bootstrap/pkg/client/helm"
	"github.com/platform-mesh/bootstrap/pkg/config"
	"github.com/platform-mesh/bootstrap/pkg/fsutil"
	"github.com/platform-mesh/bootstrap/pkg/svc/detector"
	fluxinstaller "github.com/platform-mesh/bootstrap/pkg/svc/installer/flux"
	keycloakinstaller "github.com/platform-mesh/bootstrap/pkg/svc/installer/keycloak"
	kroinstaller "github.com/platform-mesh/bootstrap/pkg/svc/installer/kro"
	ocminstaller "github.com/platform-mesh/bootstrap/pkg/svc/installer/ocm"
	operatorinstaller "github.com/platform-mesh/bootstrap/pkg/svc/installer/operator"
	webhookinstaller "github.com/platform-mesh/bootstrap/pkg/svc/installer/webhook"
	k3dprovisioner "github.com/platform-mesh/bootstrap/pkg/svc/provisioner/cluster/k3d"
	kindprovisioner "github.com/platform-mesh/bootstrap/pkg/svc/provisioner/cluster/kind"
	"github.com/platform-mesh/bootstrap/pkg/ui/notify"
)

// component names one installed add-on release for status reporting.
type component struct {
	name      string
	release   string
	namespace string
}

func statusComponents() []component {
	return []component{
		{"flux-operator", fluxinstaller.ReleaseName, fluxinstaller.Namespace},
		{"kro", kroinstaller.ReleaseName, kroinstaller.Namespace},
		{"ocm-controller", ocminstaller.ReleaseName, ocminstaller.Namespace},
		{"platform-mesh-operator", operatorinstaller.ReleaseName, operatorinstaller.Namespace},
		{"keycloak", keycloakinstaller.ReleaseName, keycloakinstaller.Namespace},
	}
}

// NewStatusCmd creates the status command, a read-only report of the
// detected cluster and the platform add-on releases.
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "status",
		Short:        "Report cluster and add-on status",
		Long:         `Report which cluster the bootstrap targets and the state of each platform add-on release. Read-only.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	cfgManager := config.NewCommandManager(cmd, config.DefaultFieldSelectors())

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		cfg, err := cfgManager.LoadConfigSilent()
		if err != nil {
			return err
		}

		return runStatus(cmd.Context(), cmd.OutOrStdout(), cfg, defaultClientFactories())
	}

	return cmd
}

func runStatus(
	ctx context.Context,
	writer io.Writer,
	cfg *v1alpha1.Bootstrap,
	factories clientFactories,
) error {
	notify.Titlef(writer, "📋", "Platform-mesh status...")

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
		notify.Infof(writer, "no cluster named '%s' found", name)

		return nil
	}

	notify.Infof(
		writer,
		"cluster: %s (%s, context %s)",
		decision.ClusterName,
		decision.Distribution,
		decision.Context,
	)

	helmClient, err := factories.helm(kubeconfig, decision.Context)
	if err != nil {
		return fmt.Errorf("create helm client: %w", err)
	}

	reportReleases(ctx, writer, helmClient)

	reportWebhookMaterial(ctx, writer, kubeconfig, decision, factories)

	return nil
}

// reportReleases prints one line per platform add-on release. Missing
// releases are reported, not treated as errors.
func reportReleases(ctx context.Context, writer io.Writer, helmClient helm.Interface) {
	for _, component := range statusComponents() {
		release, err := helmClient.GetRelease(ctx, component.release, component.namespace)

		switch {
		case errors.Is(err, helm.ErrReleaseNotFound):
			notify.Warningf(writer, "%s: not installed", component.name)
		case err != nil:
			notify.Errorf(writer, "%s: %v", component.name, err)
		default:
			notify.Successf(
				writer,
				"%s: %s (chart %s, revision %d)",
				component.name,
				release.Status,
				release.Chart,
				release.Revision,
			)
		}
	}
}

func reportWebhookMaterial(
	ctx context.Context,
	writer io.Writer,
	kubeconfig string,
	decision *detector.Decision,
	factories clientFactories,
) {
	clientset, err := factories.clientset(kubeconfig, decision.Context)
	if err != nil {
		notify.Errorf(writer, "webhook certificates: %v", err)

		return
	}

	_, err = clientset.CoreV1().
		Secrets(webhookinstaller.Namespace).
		Get(ctx, webhookinstaller.TLSSecretName, metav1.GetOptions{})
	if err != nil {
		notify.Warningf(writer, "webhook certificates: secret %s/%s not found",
			webhookinstaller.Namespace, webhookinstaller.TLSSecretName)

		return
	}

	notify.Successf(writer, "webhook certificates: secret %s/%s present",
		webhookinstaller.Namespace, webhookinstaller.TLSSecretName)
}
