// Package helmutil holds shared helpers for the Helm-backed installers.
package helmutil

import (
	"context"
	"fmt"
	"strings"

	"github.com/platform-mesh/bootstrap/pkg/client/helm"
	"github.com/platform-mesh/bootstrap/pkg/svc/installer/versions"
)

const ociPrefix = "oci://"

// ResolveVersion turns the component's channel selector into a concrete
// chart version. OCI ranges are resolved against the registry's tag list;
// classic repository ranges are handed to Helm, which resolves them against
// the repository index.
func ResolveVersion(
	ctx context.Context,
	client helm.Interface,
	resolver *versions.Resolver,
	component versions.Component,
	chartRef string,
) (string, error) {
	selector, err := resolver.Selector(component)
	if err != nil {
		return "", fmt.Errorf("select version for %s: %w", component, err)
	}

	if !selector.Resolve || !strings.HasPrefix(chartRef, ociPrefix) {
		return selector.Version, nil
	}

	tags, err := client.ChartVersions(ctx, chartRef)
	if err != nil {
		return "", fmt.Errorf("list versions for %s: %w", component, err)
	}

	version, err := resolver.Highest(tags)
	if err != nil {
		return "", fmt.Errorf("pick version for %s: %w", component, err)
	}

	return version, nil
}

// InstallOrUpgrade runs the chart operation under a context deadline longer
// than the Helm timeout, so Helm's own wait is not cut short.
func InstallOrUpgrade(ctx context.Context, client helm.Interface, spec *helm.ChartSpec) error {
	timeout := spec.Timeout
	if timeout == 0 {
		timeout = helm.DefaultTimeout
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout+helm.ContextTimeoutBuffer)
	defer cancel()

	_, err := client.InstallOrUpgradeChart(timeoutCtx, spec)
	if err != nil {
		return fmt.Errorf("install chart %q: %w", spec.ChartName, err)
	}

	return nil
}
