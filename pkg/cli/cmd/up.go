package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	ctrlclient "sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/platform-mesh/bootstrap/pkg/apis/bootstrap/v1alpha1"
	"github.com/platform-mesh/bootstrap/pkg/certs"
	"github.com/platform-mesh/bootstrap/pkg/client/helm"
	"github.com/platform-mesh/bootstrap/pkg/config"
	"github.com/platform-mesh/bootstrap/pkg/fsutil"
	"github.com/platform-mesh/bootstrap/pkg/k8s"
	"github.com/platform-mesh/bootstrap/pkg/k8s/readiness"
	"github.com/platform-mesh/bootstrap/pkg/svc/detector"
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

// clientFactories builds the cluster-facing clients once the target
// kubeconfig context is known. Injected for testability.
type clientFactories struct {
	helm       func(kubeconfig, kubeContext string) (helm.Interface, error)
	clientset  func(kubeconfig, kubeContext string) (kubernetes.Interface, error)
	restConfig func(kubeconfig, kubeContext string) (*rest.Config, error)
	flux       func(restConfig *rest.Config) (ctrlclient.Client, error)
}

func defaultClientFactories() clientFactories {
	return clientFactories{
		helm: func(kubeconfig, kubeContext string) (helm.Interface, error) {
			return helm.NewClient(kubeconfig, kubeContext)
		},
		clientset: func(kubeconfig, kubeContext string) (kubernetes.Interface, error) {
			return k8s.NewClientset(kubeconfig, kubeContext)
		},
		restConfig: k8s.BuildRESTConfig,
		flux:       k8s.NewFluxClient,
	}
}

// NewUpCmd creates the up command, which bootstraps the full platform-mesh
// environment.
func NewUpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "up",
		Short: "Bootstrap the platform-mesh environment",
		Long: `Bootstrap the platform-mesh environment: verify prerequisites, create or ` +
			`reuse a local cluster, generate TLS certificates, and install the platform ` +
			`add-ons in order.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	cfgManager := config.NewCommandManager(cmd, config.DefaultFieldSelectors())

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		tmr := timer.New()
		tmr.Start()

		cfg, err := cfgManager.LoadConfig(tmr)
		if err != nil {
			return err
		}

		return runUp(cmd.Context(), cmd.OutOrStdout(), cfg, tmr, defaultClientFactories())
	}

	return cmd
}

// runUp executes the bootstrap sequence. The sequence is linear and fails
// fast: each stage must complete before the next starts.
func runUp(
	ctx context.Context,
	writer io.Writer,
	cfg *v1alpha1.Bootstrap,
	tmr timer.Timer,
	factories clientFactories,
) error {
	tmr.NewStage()
	notify.Titlef(writer, "🔍", "Check prerequisites...")

	err := runChecks(ctx, writer, cfg)
	if err != nil {
		return err
	}

	notify.SuccessWithTimerf(writer, tmr, "prerequisites ok")

	kubeconfig, err := fsutil.ExpandHomePath(cfg.Spec.Cluster.Kubeconfig)
	if err != nil {
		return fmt.Errorf("resolve kubeconfig path: %w", err)
	}

	tmr.NewStage()
	notify.Titlef(writer, "🚀", "Provision cluster...")

	decision, err := resolveCluster(ctx, writer, cfg, kubeconfig)
	if err != nil {
		return err
	}

	clientset, err := factories.clientset(kubeconfig, decision.Context)
	if err != nil {
		return fmt.Errorf("create kubernetes client: %w", err)
	}

	waitTimeout := cfg.Spec.WaitTimeout.Duration

	notify.Activityf(writer, "waiting for the API server")

	err = readiness.WaitForAPIServerReady(ctx, clientset, waitTimeout)
	if err != nil {
		return fmt.Errorf("wait for api server: %w", err)
	}

	notify.Activityf(writer, "waiting for a ready node")

	err = readiness.WaitForNodeReady(ctx, clientset, waitTimeout)
	if err != nil {
		return fmt.Errorf("wait for node: %w", err)
	}

	notify.SuccessWithTimerf(writer, tmr, "cluster '%s' ready", decision.ClusterName)

	tmr.NewStage()
	notify.Titlef(writer, "🔐", "Generate certificates...")

	certsDir, err := generateCertificates(writer, cfg)
	if err != nil {
		return err
	}

	notify.SuccessWithTimerf(writer, tmr, "certificates ready in %s", certsDir)

	tmr.NewStage()
	notify.Titlef(writer, "📦", "Install add-ons...")

	restConfig, err := factories.restConfig(kubeconfig, decision.Context)
	if err != nil {
		return fmt.Errorf("build rest config: %w", err)
	}

	helmClient, err := factories.helm(kubeconfig, decision.Context)
	if err != nil {
		return fmt.Errorf("create helm client: %w", err)
	}

	steps, err := installSequence(cfg, certsDir, installClients{
		helm:      helmClient,
		clientset: clientset,
		restCfg:   restConfig,
		fluxClient: func() (ctrlclient.Client, error) {
			return factories.flux(restConfig)
		},
	})
	if err != nil {
		return err
	}

	err = runSteps(ctx, writer, steps)
	if err != nil {
		return err
	}

	notify.SuccessWithTimerf(writer, tmr, "add-ons installed")
	notify.Successf(writer, "platform-mesh environment ready")

	return nil
}

// resolveCluster decides which cluster to use and creates one when none is
// available. A running k3d cluster is preferred over an existing kind
// cluster, which is preferred over creating a new kind cluster.
func resolveCluster(
	ctx context.Context,
	writer io.Writer,
	cfg *v1alpha1.Bootstrap,
	kubeconfig string,
) (*detector.Decision, error) {
	name := cfg.Spec.Cluster.Name
	kindProvisioner := kindprovisioner.NewKindClusterProvisioner(
		kindprovisioner.DefaultClusterConfig(name),
		kubeconfig,
	)
	k3dProvisioner := k3dprovisioner.NewK3dClusterProvisioner(name)

	var (
		decision *detector.Decision
		err      error
	)

	// An explicitly configured distribution bypasses auto-detection.
	if distribution := cfg.Spec.Cluster.Distribution; distribution != "" {
		decision, err = decisionForDistribution(
			ctx,
			distribution,
			name,
			kindProvisioner,
			k3dProvisioner,
		)
	} else {
		decision, err = detector.NewClusterDetector(kindProvisioner, k3dProvisioner, name).Detect(ctx)
	}

	if err != nil {
		return nil, err
	}

	if cfg.Spec.Cluster.Context != "" {
		decision.Context = cfg.Spec.Cluster.Context
	}

	if !decision.CreateNeeded() {
		notify.Activityf(
			writer,
			"reusing existing %s cluster '%s'",
			decision.Distribution,
			decision.ClusterName,
		)

		return decision, nil
	}

	notify.Activityf(writer, "creating %s cluster '%s'", decision.Distribution, decision.ClusterName)

	provisioner := clusterprovisioner.ClusterProvisioner(kindProvisioner)
	if decision.Action == detector.ActionCreateK3d {
		provisioner = k3dProvisioner
	}

	err = provisioner.Create(ctx, decision.ClusterName)
	if err != nil {
		return nil, fmt.Errorf("create %s cluster: %w", decision.Distribution, err)
	}

	return decision, nil
}

// decisionForDistribution maps an explicitly configured distribution onto a
// decision, reusing the cluster when it already exists.
func decisionForDistribution(
	ctx context.Context,
	distribution v1alpha1.Distribution,
	name string,
	kindProvisioner clusterprovisioner.ClusterProvisioner,
	k3dProvisioner clusterprovisioner.ClusterProvisioner,
) (*detector.Decision, error) {
	provisioner := kindProvisioner
	reuse, create := detector.ActionReuseKind, detector.ActionCreateKind

	if distribution == v1alpha1.DistributionK3d {
		provisioner = k3dProvisioner
		reuse, create = detector.ActionReuseK3d, detector.ActionCreateK3d
	}

	exists, err := provisioner.Exists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("check for existing %s cluster: %w", distribution, err)
	}

	action := create
	if exists {
		action = reuse
	}

	return &detector.Decision{
		Action:       action,
		Distribution: distribution,
		ClusterName:  name,
		Context:      distribution.ContextName(name),
	}, nil
}

// generateCertificates ensures the local CA and issues the server
// certificate for the platform domains. Both operations are idempotent.
func generateCertificates(writer io.Writer, cfg *v1alpha1.Bootstrap) (string, error) {
	certsDir, err := fsutil.ExpandHomePath(cfg.Spec.Certs.Directory)
	if err != nil {
		return "", fmt.Errorf("resolve certs directory: %w", err)
	}

	notify.Activityf(writer, "ensuring local certificate authority")

	authority, err := certs.EnsureCA(certsDir)
	if err != nil {
		return "", fmt.Errorf("ensure certificate authority: %w", err)
	}

	notify.Activityf(writer, "issuing server certificate")

	err = authority.IssueServerCert(certsDir, cfg.Spec.Certs.Domains)
	if err != nil {
		return "", fmt.Errorf("issue server certificate: %w", err)
	}

	return certsDir, nil
}

// installClients bundles the cluster clients consumed by the install steps.
type installClients struct {
	helm       helm.Interface
	clientset  kubernetes.Interface
	restCfg    *rest.Config
	fluxClient func() (ctrlclient.Client, error)
}

// installStep is one add-on installation: install, then wait for readiness.
type installStep struct {
	name    string
	install func(ctx context.Context) error
	wait    func(ctx context.Context) error
}

// installSequence builds the fixed, ordered add-on sequence. The order is
// load-bearing: Flux and KRO must serve their CRDs before the platform
// operator starts, and the webhook TLS material must exist before Keycloak
// references it.
func installSequence(
	cfg *v1alpha1.Bootstrap,
	certsDir string,
	clients installClients,
) ([]installStep, error) {
	resolver := versions.NewResolver(cfg.Spec.Channel, cfg.Spec.Cached)
	waitTimeout := cfg.Spec.WaitTimeout.Duration

	steps := []installStep{
		fluxStep(clients, resolver, waitTimeout),
		kroStep(clients, resolver, waitTimeout),
		ocmStep(clients, resolver, waitTimeout),
		operatorStep(clients, resolver, waitTimeout),
		webhookStep(clients, certsDir),
		keycloakStep(clients, resolver, waitTimeout, cfg.Spec.Cached),
	}

	if cfg.Spec.ExampleData {
		step, err := exampleDataStep(clients, waitTimeout)
		if err != nil {
			return nil, err
		}

		steps = append(steps, step)
	}

	return steps, nil
}

func fluxStep(
	clients installClients,
	resolver *versions.Resolver,
	waitTimeout time.Duration,
) installStep {
	installer := fluxinstaller.NewInstaller(clients.helm, resolver, waitTimeout)

	return installStep{
		name:    "flux-operator",
		install: installer.Install,
		wait: func(ctx context.Context) error {
			return readiness.WaitForDeploymentReady(
				ctx,
				clients.clientset,
				fluxinstaller.Namespace,
				fluxinstaller.DeploymentName,
				waitTimeout,
			)
		},
	}
}

func kroStep(
	clients installClients,
	resolver *versions.Resolver,
	waitTimeout time.Duration,
) installStep {
	installer := kroinstaller.NewInstaller(clients.helm, resolver, waitTimeout)

	return installStep{
		name:    "kro",
		install: installer.Install,
		wait: func(ctx context.Context) error {
			err := readiness.WaitForDeploymentReady(
				ctx,
				clients.clientset,
				kroinstaller.Namespace,
				kroinstaller.DeploymentName,
				waitTimeout,
			)
			if err != nil {
				return err
			}

			return readiness.WaitForCRDEstablished(
				ctx,
				clients.restCfg,
				kroinstaller.CRDName,
				waitTimeout,
			)
		},
	}
}

func ocmStep(
	clients installClients,
	resolver *versions.Resolver,
	waitTimeout time.Duration,
) installStep {
	installer := ocminstaller.NewInstaller(clients.helm, resolver, waitTimeout)

	return installStep{
		name:    "ocm-controller",
		install: installer.Install,
		wait: func(ctx context.Context) error {
			return readiness.WaitForDeploymentReady(
				ctx,
				clients.clientset,
				ocminstaller.Namespace,
				ocminstaller.DeploymentName,
				waitTimeout,
			)
		},
	}
}

func operatorStep(
	clients installClients,
	resolver *versions.Resolver,
	waitTimeout time.Duration,
) installStep {
	installer := operatorinstaller.NewInstaller(clients.helm, resolver, waitTimeout)

	return installStep{
		name:    "platform-mesh-operator",
		install: installer.Install,
		wait: func(ctx context.Context) error {
			return readiness.WaitForDeploymentReady(
				ctx,
				clients.clientset,
				operatorinstaller.Namespace,
				operatorinstaller.DeploymentName,
				waitTimeout,
			)
		},
	}
}

func webhookStep(clients installClients, certsDir string) installStep {
	installer := webhookinstaller.NewInstaller(clients.clientset, certsDir)

	return installStep{
		name:    "webhook certificates",
		install: installer.Install,
	}
}

func keycloakStep(
	clients installClients,
	resolver *versions.Resolver,
	waitTimeout time.Duration,
	cached bool,
) installStep {
	installer := keycloakinstaller.NewInstaller(clients.helm, resolver, waitTimeout, cached)

	return installStep{
		name:    "keycloak",
		install: installer.Install,
		wait: func(ctx context.Context) error {
			return readiness.WaitForStatefulSetReady(
				ctx,
				clients.clientset,
				keycloakinstaller.Namespace,
				keycloakinstaller.StatefulSetName,
				waitTimeout,
			)
		},
	}
}

func exampleDataStep(clients installClients, waitTimeout time.Duration) (installStep, error) {
	fluxClient, err := clients.fluxClient()
	if err != nil {
		return installStep{}, fmt.Errorf("create flux client: %w", err)
	}

	installer := exampledatainstaller.NewInstaller(fluxClient)

	return installStep{
		name:    "example data",
		install: installer.Install,
		wait: func(ctx context.Context) error {
			for _, obj := range exampledatainstaller.WaitObjects() {
				err := readiness.WaitForFluxObjectReady(ctx, fluxClient, obj, waitTimeout)
				if err != nil {
					return fmt.Errorf("wait for %s: %w", obj.GetName(), err)
				}
			}

			return nil
		},
	}, nil
}

// runSteps executes the install steps in order, stopping at the first
// failure.
func runSteps(ctx context.Context, writer io.Writer, steps []installStep) error {
	for _, step := range steps {
		notify.Activityf(writer, "installing %s", step.name)

		err := step.install(ctx)
		if err != nil {
			return fmt.Errorf("install %s: %w", step.name, err)
		}

		if step.wait != nil {
			notify.Activityf(writer, "waiting for %s", step.name)

			err = step.wait(ctx)
			if err != nil {
				return fmt.Errorf("wait for %s: %w", step.name, err)
			}
		}

		notify.Successf(writer, "%s installed", step.name)
	}

	return nil
}
