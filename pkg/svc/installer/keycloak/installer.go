// Package keycloakinstaller installs Keycloak from the Bitnami chart
// repository, with its ingress terminating TLS on the locally issued
// certificate.
package keycloakinstaller

import (
	"context"
	"fmt"
	"time"

	"github.com/platform-mesh/bootstrap/pkg/client/helm"
	"github.com/platform-mesh/bootstrap/pkg/svc/installer/internal/helmutil"
	"github.com/platform-mesh/bootstrap/pkg/svc/installer/versions"
	webhookinstaller "github.com/platform-mesh/bootstrap/pkg/svc/installer/webhook"
)

const (
	// Namespace is where Keycloak is installed.
	Namespace = "platform-mesh-system"
	// StatefulSetName is the Keycloak StatefulSet to wait on after install.
	StatefulSetName = "keycloak"
	// Hostname is the local ingress hostname for Keycloak.
	Hostname = "keycloak.dev.local"

	// ReleaseName is the Helm release name.
	ReleaseName = "keycloak"
	chartName   = "keycloak"
	repoName    = "bitnami"
	repoURL     = "https://charts.bitnami.com/bitnami"
)

// Installer installs Keycloak.
type Installer struct {
	client   helm.Interface
	resolver *versions.Resolver
	timeout  time.Duration
	cached   bool
}

// NewInstaller creates a new Keycloak installer instance. When cached is
// set, the repository index refresh is skipped and the locally cached index
// is used.
func NewInstaller(
	client helm.Interface,
	resolver *versions.Resolver,
	timeout time.Duration,
	cached bool,
) *Installer {
	return &Installer{
		client:   client,
		resolver: resolver,
		timeout:  timeout,
		cached:   cached,
	}
}

// Install registers the Bitnami repository and installs or upgrades
// Keycloak. Version ranges from the latest and prerelease channels are
// resolved by Helm against the repository index.
func (i *Installer) Install(ctx context.Context) error {
	if !i.cached {
		err := i.client.AddRepository(ctx, &helm.RepositoryEntry{
			Name: repoName,
			URL:  repoURL,
		})
		if err != nil {
			return fmt.Errorf("add bitnami repository: %w", err)
		}
	}

	version, err := helmutil.ResolveVersion(
		ctx, i.client, i.resolver, versions.ComponentKeycloak, chartName)
	if err != nil {
		return fmt.Errorf("install keycloak: %w", err)
	}

	err = helmutil.InstallOrUpgrade(ctx, i.client, &helm.ChartSpec{
		ReleaseName:     ReleaseName,
		ChartName:       chartName,
		Namespace:       Namespace,
		Version:         version,
		RepoURL:         repoURL,
		CreateNamespace: true,
		Wait:            true,
		Timeout:         i.timeout,
		ValuesYaml:      i.valuesYaml(),
	})
	if err != nil {
		return fmt.Errorf("install keycloak: %w", err)
	}

	return nil
}

// Uninstall removes the Keycloak release.
func (i *Installer) Uninstall(ctx context.Context) error {
	err := i.client.UninstallRelease(ctx, ReleaseName, Namespace)
	if err != nil {
		return fmt.Errorf("uninstall keycloak: %w", err)
	}

	return nil
}

func (i *Installer) valuesYaml() string {
	return fmt.Sprintf(`proxy: edge
production: false
ingress:
  enabled: true
  ingressClassName: nginx
  hostname: %s
  tls: false
  extraTls:
    - hosts:
        - %s
      secretName: %s
`, Hostname, Hostname, webhookinstaller.TLSSecretName)
}
