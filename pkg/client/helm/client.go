// Package helm wraps the Helm v4 SDK behind a small interface covering the
// chart operations the bootstrap needs: install-or-upgrade, uninstall,
// release inspection, and repository registration.
package helm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	helmv4action "helm.sh/helm/v4/pkg/action"
	helmv4loader "helm.sh/helm/v4/pkg/chart/loader"
	chartv2 "helm.sh/helm/v4/pkg/chart/v2"
	helmv4cli "helm.sh/helm/v4/pkg/cli"
	helmv4getter "helm.sh/helm/v4/pkg/getter"
	helmv4kube "helm.sh/helm/v4/pkg/kube"
	helmv4registry "helm.sh/helm/v4/pkg/registry"
	releasev1 "helm.sh/helm/v4/pkg/release/v1"
	repov1 "helm.sh/helm/v4/pkg/repo/v1"
	helmv4strvals "helm.sh/helm/v4/pkg/strvals"
	"sigs.k8s.io/yaml"
)

const (
	// DefaultTimeout is the fallback timeout for chart operations.
	DefaultTimeout = 5 * time.Minute

	// ContextTimeoutBuffer is the additional time added to the Helm timeout
	// so the Go context doesn't cancel while Helm's kstatus wait is running.
	ContextTimeoutBuffer = 5 * time.Minute

	repoDirMode  = 0o750
	repoFileMode = 0o640
)

var (
	errReleaseNameRequired     = errors.New("helm: release name is required")
	errRepositoryEntryRequired = errors.New("helm: repository entry is required")
	errRepositoryNameRequired  = errors.New("helm: repository name is required")
	errRepositoryConfigUnset   = errors.New("helm: repository config path is not set")
	errRepositoryCacheUnset    = errors.New("helm: repository cache path is not set")
	errChartSpecRequired       = errors.New("helm: chart spec is required")

	// ErrReleaseNotFound is returned by GetRelease when no release exists
	// under the given name and namespace.
	ErrReleaseNotFound = errors.New("helm: release not found")
)

// ChartSpec describes a chart operation. ChartName may be a repository
// reference ("repo/chart" together with RepoURL), a local path, or an OCI
// reference ("oci://...").
type ChartSpec struct {
	ReleaseName string
	ChartName   string
	Namespace   string
	Version     string

	CreateNamespace bool
	Wait            bool
	Timeout         time.Duration

	ValuesYaml string
	SetValues  map[string]string

	RepoURL string
}

// RepositoryEntry describes a Helm repository to register locally before
// chart operations against it.
type RepositoryEntry struct {
	Name      string
	URL       string
	Username  string
	Password  string
	PlainHTTP bool
}

// ReleaseInfo captures release metadata after an operation.
type ReleaseInfo struct {
	Name       string
	Namespace  string
	Revision   int
	Status     string
	Chart      string
	AppVersion string
	Updated    time.Time
}

// Interface defines the Helm functionality required by the bootstrap.
//
//go:generate mockery --name=Interface --output=. --filename=mocks.go
type Interface interface {
	InstallOrUpgradeChart(ctx context.Context, spec *ChartSpec) (*ReleaseInfo, error)
	UninstallRelease(ctx context.Context, releaseName, namespace string) error
	GetRelease(ctx context.Context, releaseName, namespace string) (*ReleaseInfo, error)
	AddRepository(ctx context.Context, entry *RepositoryEntry) error
	ChartVersions(ctx context.Context, chartRef string) ([]string, error)
}

// Client is the default Helm v4 backed implementation.
type Client struct {
	actionConfig   *helmv4action.Configuration
	settings       *helmv4cli.EnvSettings
	registryClient *helmv4registry.Client
}

var _ Interface = (*Client)(nil)

// NewClient creates a Helm client bound to the given kubeconfig and context.
func NewClient(kubeConfig, kubeContext string) (*Client, error) {
	settings := helmv4cli.New()
	if kubeConfig != "" {
		settings.KubeConfig = kubeConfig
	}

	if kubeContext != "" {
		settings.KubeContext = kubeContext
	}

	registryClient, err := helmv4registry.NewClient()
	if err != nil {
		return nil, fmt.Errorf("create helm registry client: %w", err)
	}

	actionConfig := new(helmv4action.Configuration)

	initErr := actionConfig.Init(
		settings.RESTClientGetter(),
		settings.Namespace(),
		os.Getenv("HELM_DRIVER"),
	)
	if initErr != nil {
		return nil, fmt.Errorf("initialize helm action config: %w", initErr)
	}

	actionConfig.RegistryClient = registryClient

	return &Client{
		actionConfig:   actionConfig,
		settings:       settings,
		registryClient: registryClient,
	}, nil
}

// InstallOrUpgradeChart upgrades a release when it exists and installs it
// otherwise.
func (c *Client) InstallOrUpgradeChart(ctx context.Context, spec *ChartSpec) (*ReleaseInfo, error) {
	if spec == nil {
		return nil, errChartSpecRequired
	}

	cleanup, err := c.switchNamespace(spec.Namespace)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	histClient := helmv4action.NewHistory(c.actionConfig)
	histClient.Max = 1

	var rel *releasev1.Release

	releases, histErr := histClient.Run(spec.ReleaseName)
	if histErr == nil && len(releases) > 0 {
		rel, err = c.upgradeRelease(ctx, spec)
	} else {
		rel, err = c.installRelease(ctx, spec)
	}

	if err != nil {
		return nil, err
	}

	return releaseToInfo(rel), nil
}

// UninstallRelease removes a release by name within the given namespace.
// A release that does not exist is not an error.
func (c *Client) UninstallRelease(_ context.Context, releaseName, namespace string) error {
	if releaseName == "" {
		return errReleaseNameRequired
	}

	cleanup, err := c.switchNamespace(namespace)
	if err != nil {
		return err
	}
	defer cleanup()

	client := helmv4action.NewUninstall(c.actionConfig)
	client.KeepHistory = false

	_, uninstallErr := client.Run(releaseName)
	if uninstallErr != nil {
		if strings.Contains(uninstallErr.Error(), "not found") {
			return nil
		}

		return fmt.Errorf("uninstall release %q: %w", releaseName, uninstallErr)
	}

	return nil
}

// GetRelease returns metadata for the latest revision of a release.
func (c *Client) GetRelease(_ context.Context, releaseName, namespace string) (*ReleaseInfo, error) {
	if releaseName == "" {
		return nil, errReleaseNameRequired
	}

	cleanup, err := c.switchNamespace(namespace)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	client := helmv4action.NewGet(c.actionConfig)

	releaser, getErr := client.Run(releaseName)
	if getErr != nil {
		if strings.Contains(getErr.Error(), "not found") {
			return nil, fmt.Errorf("%w: %s/%s", ErrReleaseNotFound, namespace, releaseName)
		}

		return nil, fmt.Errorf("get release %q: %w", releaseName, getErr)
	}

	rel, err := assertRelease(releaser)
	if err != nil {
		return nil, err
	}

	return releaseToInfo(rel), nil
}

// ChartVersions lists the version tags published for an OCI chart
// reference, with or without the "oci://" scheme prefix.
func (c *Client) ChartVersions(ctx context.Context, chartRef string) ([]string, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("chart versions context cancelled: %w", ctxErr)
	}

	ref := strings.TrimPrefix(chartRef, fmt.Sprintf("%s://", helmv4registry.OCIScheme))

	tags, err := c.registryClient.Tags(ref)
	if err != nil {
		return nil, fmt.Errorf("list tags for chart %q: %w", chartRef, err)
	}

	return tags, nil
}

// AddRepository registers a Helm repository and refreshes its index.
func (c *Client) AddRepository(ctx context.Context, entry *RepositoryEntry) error {
	if entry == nil {
		return errRepositoryEntryRequired
	}

	if entry.Name == "" {
		return errRepositoryNameRequired
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("add repository context cancelled: %w", ctxErr)
	}

	repoFile, err := ensureRepositoryConfig(c.settings)
	if err != nil {
		return err
	}

	repoCache, err := ensureRepositoryCache(c.settings)
	if err != nil {
		return err
	}

	repositoryFile := loadOrInitRepositoryFile(repoFile)

	repoEntry := &repov1.Entry{
		Name:     entry.Name,
		URL:      entry.URL,
		Username: entry.Username,
		Password: entry.Password,
	}

	chartRepository, err := repov1.NewChartRepository(repoEntry, helmv4getter.All(c.settings))
	if err != nil {
		return fmt.Errorf("create chart repository: %w", err)
	}

	chartRepository.CachePath = repoCache

	if _, err := chartRepository.DownloadIndexFile(); err != nil {
		return fmt.Errorf("download repository index for %q: %w", entry.Name, err)
	}

	repositoryFile.Update(repoEntry)

	if err := repositoryFile.WriteFile(repoFile, repoFileMode); err != nil {
		return fmt.Errorf("write repository file: %w", err)
	}

	return nil
}

func (c *Client) installRelease(ctx context.Context, spec *ChartSpec) (*releasev1.Release, error) {
	client := helmv4action.NewInstall(c.actionConfig)
	client.ReleaseName = spec.ReleaseName
	client.Namespace = spec.Namespace
	client.CreateNamespace = spec.CreateNamespace
	client.Version = spec.Version
	client.Timeout = spec.Timeout

	if client.Timeout == 0 {
		client.Timeout = DefaultTimeout
	}

	if spec.Wait {
		client.WaitStrategy = helmv4kube.StatusWatcherStrategy
	}

	client.ChartPathOptions.RepoURL = spec.RepoURL
	client.SetRegistryClient(c.registryClient)

	chart, err := c.locateAndLoadChart(spec, &client.ChartPathOptions)
	if err != nil {
		return nil, err
	}

	vals, err := buildValues(spec)
	if err != nil {
		return nil, err
	}

	releaser, err := client.RunWithContext(ctx, chart, vals)
	if err != nil {
		return nil, fmt.Errorf("install release %q: %w", spec.ReleaseName, err)
	}

	return assertRelease(releaser)
}

func (c *Client) upgradeRelease(ctx context.Context, spec *ChartSpec) (*releasev1.Release, error) {
	client := helmv4action.NewUpgrade(c.actionConfig)
	client.Namespace = spec.Namespace
	client.Version = spec.Version
	client.Timeout = spec.Timeout

	if client.Timeout == 0 {
		client.Timeout = DefaultTimeout
	}

	if spec.Wait {
		client.WaitStrategy = helmv4kube.StatusWatcherStrategy
	}

	client.ChartPathOptions.RepoURL = spec.RepoURL
	client.SetRegistryClient(c.registryClient)

	chart, err := c.locateAndLoadChart(spec, &client.ChartPathOptions)
	if err != nil {
		return nil, err
	}

	vals, err := buildValues(spec)
	if err != nil {
		return nil, err
	}

	releaser, err := client.RunWithContext(ctx, spec.ReleaseName, chart, vals)
	if err != nil {
		return nil, fmt.Errorf("upgrade release %q: %w", spec.ReleaseName, err)
	}

	return assertRelease(releaser)
}

func (c *Client) locateAndLoadChart(
	spec *ChartSpec,
	pathOptions *helmv4action.ChartPathOptions,
) (*chartv2.Chart, error) {
	chartPath, err := pathOptions.LocateChart(spec.ChartName, c.settings)
	if err != nil {
		return nil, fmt.Errorf("locate chart %q: %w", spec.ChartName, err)
	}

	chartInterface, err := helmv4loader.Load(chartPath)
	if err != nil {
		return nil, fmt.Errorf("load chart %q: %w", chartPath, err)
	}

	chart, ok := chartInterface.(*chartv2.Chart)
	if !ok {
		return nil, fmt.Errorf("unexpected chart type: %T", chartInterface)
	}

	return chart, nil
}

func buildValues(spec *ChartSpec) (map[string]interface{}, error) {
	base := map[string]interface{}{}

	if spec.ValuesYaml != "" {
		if err := yaml.Unmarshal([]byte(spec.ValuesYaml), &base); err != nil {
			return nil, fmt.Errorf("parse chart values: %w", err)
		}
	}

	for key, val := range spec.SetValues {
		if err := helmv4strvals.ParseInto(fmt.Sprintf("%s=%s", key, val), base); err != nil {
			return nil, fmt.Errorf("parse set value %s=%s: %w", key, val, err)
		}
	}

	return base, nil
}

func ensureRepositoryConfig(settings *helmv4cli.EnvSettings) (string, error) {
	repoFile := settings.RepositoryConfig
	if repoFile == "" {
		return "", errRepositoryConfigUnset
	}

	if err := os.MkdirAll(filepath.Dir(repoFile), repoDirMode); err != nil {
		return "", fmt.Errorf("create repository directory: %w", err)
	}

	return repoFile, nil
}

func ensureRepositoryCache(settings *helmv4cli.EnvSettings) (string, error) {
	repoCache := settings.RepositoryCache
	if repoCache == "" {
		return "", errRepositoryCacheUnset
	}

	if err := os.MkdirAll(repoCache, repoDirMode); err != nil {
		return "", fmt.Errorf("create repository cache directory: %w", err)
	}

	return repoCache, nil
}

func loadOrInitRepositoryFile(repoFile string) *repov1.File {
	repositoryFile, err := repov1.LoadFile(repoFile)
	if err != nil {
		return repov1.NewFile()
	}

	return repositoryFile
}

func (c *Client) switchNamespace(namespace string) (func(), error) {
	if namespace == "" || c.settings.Namespace() == namespace {
		return func() {}, nil
	}

	previousNamespace := c.settings.Namespace()
	c.settings.SetNamespace(namespace)

	reinitErr := c.actionConfig.Init(
		c.settings.RESTClientGetter(),
		namespace,
		os.Getenv("HELM_DRIVER"),
	)
	if reinitErr != nil {
		c.settings.SetNamespace(previousNamespace)

		return nil, fmt.Errorf("set helm namespace %q: %w", namespace, reinitErr)
	}

	return func() {
		c.settings.SetNamespace(previousNamespace)
		_ = c.actionConfig.Init(
			c.settings.RESTClientGetter(),
			previousNamespace,
			os.Getenv("HELM_DRIVER"),
		)
	}, nil
}

func assertRelease(releaser interface{}) (*releasev1.Release, error) {
	rel, ok := releaser.(*releasev1.Release)
	if !ok {
		return nil, fmt.Errorf("unexpected release type: %T", releaser)
	}

	return rel, nil
}

func releaseToInfo(rel *releasev1.Release) *ReleaseInfo {
	if rel == nil {
		return nil
	}

	return &ReleaseInfo{
		Name:       rel.Name,
		Namespace:  rel.Namespace,
		Revision:   rel.Version,
		Status:     rel.Info.Status.String(),
		Chart:      rel.Chart.Metadata.Name,
		AppVersion: rel.Chart.Metadata.AppVersion,
		Updated:    rel.Info.LastDeployed,
	}
}
