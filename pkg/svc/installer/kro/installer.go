// Package kroinstaller installs KRO via its OCI Helm chart.
package kroinstaller

import (
	"context"
	"fmt"
	"time"

	"github.com/platform-mesh/bootstrap/pkg/client/helm"
	"github.com/platform-mesh/bootstrap/pkg/svc/installer/internal/helmutil"
	"github.com/platform-mesh/bootstrap/pkg/svc/installer/versions"
)

const (
	// Namespace is where KRO is installed.
	Namespace = "kro-system"
	// DeploymentName is the KRO deployment to wait on after install.
	DeploymentName = "kro"
	// CRDName is the CRD that must reach the Established condition before
	// resource graph definitions can be applied.
	CRDName = "resourcegraphdefinitions.kro.run"

	// ReleaseName is the Helm release name.
	ReleaseName = "kro"
	chartRef    = "oci://ghcr.io/kro-run/kro/kro"
)

// Installer installs KRO.
type Installer struct {
	client   helm.Interface
	resolver *versions.Resolver
	timeout  time.Duration
}

// NewInstaller creates a new KRO installer instance.
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

// Install installs or upgrades KRO.
func (i *Installer) Install(ctx context.Context) error {
	version, err := helmutil.ResolveVersion(ctx, i.client, i.resolver, versions.ComponentKRO, chartRef)
	if err != nil {
		return fmt.Errorf("install kro: %w", err)
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
		return fmt.Errorf("install kro: %w", err)
	}

	return nil
}

// Uninstall removes the KRO release.
func (i *Installer) Uninstall(ctx context.Context) error {
	err := i.client.UninstallRelease(ctx, ReleaseName, Namespace)
	if err != nil {
		return fmt.Errorf("uninstall kro: %w", err)
	}

	return nil
}
