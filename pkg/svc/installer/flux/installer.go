// Package fluxinstaller installs the Flux operator via its OCI Helm chart.
package fluxinstaller

import (
	"context"
	"fmt"
	"time"

	"github.com/platform-mesh/bootstrap/pkg/client/helm"
	"github.com/platform-mesh/bootstrap/pkg/svc/installer/internal/helmutil"
	"github.com/platform-mesh/bootstrap/pkg/svc/installer/versions"
)

const (
	// Namespace is where the Flux operator is installed.
	Namespace = "flux-system"
	// DeploymentName is the operator deployment to wait on after install.
	DeploymentName = "flux-operator"

	// ReleaseName is the Helm release name.
	ReleaseName = "flux-operator"
	chartRef    = "oci://ghcr.io/controlplaneio-fluxcd/charts/flux-operator"
)

// Installer installs the Flux operator.
type Installer struct {
	client   helm.Interface
	resolver *versions.Resolver
	timeout  time.Duration
}

// NewInstaller creates a new Flux installer instance.
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

// Install installs or upgrades the Flux operator.
func (i *Installer) Install(ctx context.Context) error {
	version, err := helmutil.ResolveVersion(ctx, i.client, i.resolver, versions.ComponentFlux, chartRef)
	if err != nil {
		return fmt.Errorf("install flux operator: %w", err)
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
		return fmt.Errorf("install flux operator: %w", err)
	}

	return nil
}

// Uninstall removes the Flux operator release.
func (i *Installer) Uninstall(ctx context.Context) error {
	err := i.client.UninstallRelease(ctx, ReleaseName, Namespace)
	if err != nil {
		return fmt.Errorf("uninstall flux operator: %w", err)
	}

	return nil
}
