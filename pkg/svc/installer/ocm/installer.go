// Package ocminstaller installs the OCM controller via its OCI Helm chart.
package ocminstaller

import (
	"context"
	"fmt"
	"time"

	"github.com/platform-mesh/bootstrap/pkg/client/helm"
	"github.com/platform-mesh/bootstrap/pkg/svc/installer/internal/helmutil"
	"github.com/platform-mesh/bootstrap/pkg/svc/installer/versions"
)

const (
	// Namespace is where the OCM controller is installed.
	Namespace = "ocm-system"
	// DeploymentName is the controller deployment to wait on after install.
	DeploymentName = "ocm-controller"

	// ReleaseName is the Helm release name.
	ReleaseName = "ocm-controller"
	chartRef    = "oci://ghcr.io/open-component-model/helm/ocm-controller"
)

// Installer installs the OCM controller.
type Installer struct {
	client   helm.Interface
	resolver *versions.Resolver
	timeout  time.Duration
}

// NewInstaller creates a new OCM installer instance.
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

// Install installs or upgrades the OCM controller.
func (i *Installer) Install(ctx context.Context) error {
	version, err := helmutil.ResolveVersion(ctx, i.client, i.resolver, versions.ComponentOCM, chartRef)
	if err != nil {
		return fmt.Errorf("install ocm controller: %w", err)
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
		return fmt.Errorf("install ocm controller: %w", err)
	}

	return nil
}

// Uninstall removes the OCM controller release.
func (i *Installer) Uninstall(ctx context.Context) error {
	err := i.client.UninstallRelease(ctx, ReleaseName, Namespace)
	if err != nil {
		return fmt.Errorf("uninstall ocm controller: %w", err)
	}

	return nil
}
