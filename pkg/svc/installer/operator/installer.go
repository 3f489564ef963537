// Package operatorinstaller installs the platform-mesh operator via its OCI
// Helm chart.
package operatorinstaller

import (
	"context"
	"fmt"
	"time"

	"github.com/platform-mesh/bootstrap/pkg/client/helm"
	"github.com/platform-mesh/bootstrap/pkg/svc/installer/internal/helmutil"
	"github.com/platform-mesh/bootstrap/pkg/svc/installer/versions"
)

const (
	// Namespace is where the platform-mesh operator is installed.
	Namespace = "platform-mesh-system"
	// DeploymentName is the operator deployment to wait on after install.
	DeploymentName = "platform-mesh-operator"

	// ReleaseName is the Helm release name.
	ReleaseName = "platform-mesh-operator"
	chartRef    = "oci://ghcr.io/platform-mesh/helm-charts/platform-mesh-operator"
)

// Installer installs the platform-mesh operator.
type Installer struct {
	client   helm.Interface
	resolver *versions.Resolver
	timeout  time.Duration
}

// NewInstaller creates a new operator installer instance.
func NewInstaller(
	client helm.Interface,
	resolver *versions.Resolver,
	timeout time.Duration,
) *Installer {
	return &Installer{
		client:   client,
		resolver: resolver,
		timeout:  timeout,
	}
}

// Install installs or upgrades the platform-mesh operator.
func (i *Installer) Install(ctx context.Context) error {
	version, err := helmutil.ResolveVersion(
		ctx, i.client, i.resolver, versions.ComponentOperator, chartRef)
	if err != nil {
		return fmt.Errorf("install platform-mesh operator: %w", err)
	}

	err = helmutil.InstallOrUpgrade(ctx, i.client, &helm.ChartSpec{
		ReleaseName:     ReleaseName,
		ChartName:       chartRef,
		Namespace:       Namespace,
		Version:         version,
		CreateNamespace: true,
		Wait:            true,
		Timeout:         i.timeout,
	})
	if err != nil {
		return fmt.Errorf("install platform-mesh operator: %w", err)
	}

	return nil
}

// Uninstall removes the platform-mesh operator release.
func (i *Installer) Uninstall(ctx context.Context) error {
	err := i.client.UninstallRelease(ctx, ReleaseName, Namespace)
	if err != nil {
		return fmt.Errorf("uninstall platform-mesh operator: %w", err)
	}

	return nil
}
