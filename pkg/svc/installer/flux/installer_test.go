package fluxinstaller_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/platform-mesh/bootstrap/pkg/apis/bootstrap/v1alpha1"
	"github.com/platform-mesh/bootstrap/pkg/client/helm"
	fluxinstaller "github.com/platform-mesh/bootstrap/pkg/svc/installer/flux"
	"github.com/platform-mesh/bootstrap/pkg/svc/installer/versions"
)

var errInstallFailed = errors.New("install failed")

func TestInstallStableChannel(t *testing.T) {
	t.Parallel()

	helmClient := helm.NewMockInterface()
	helmClient.On("InstallOrUpgradeChart", mock.Anything, mock.MatchedBy(func(spec *helm.ChartSpec) bool {
		return spec.ReleaseName == "flux-operator" &&
			spec.Namespace == fluxinstaller.Namespace &&
			spec.Wait &&
			spec.CreateNamespace &&
			spec.Version != ""
	})).Return(&helm.ReleaseInfo{Name: "flux-operator"}, nil)

	installer := fluxinstaller.NewInstaller(
		helmClient,
		versions.NewResolver(v1alpha1.ChannelStable, false),
		0,
	)

	err := installer.Install(context.Background())

	require.NoError(t, err)
	helmClient.AssertExpectations(t)
	helmClient.AssertNotCalled(t, "ChartVersions", mock.Anything, mock.Anything)
}

func TestInstallLatestChannelResolvesTags(t *testing.T) {
	t.Parallel()

	helmClient := helm.NewMockInterface()
	helmClient.On("ChartVersions", mock.Anything, mock.Anything).
		Return([]string{"0.18.0", "0.20.0", "0.21.0-rc.1"}, nil)
	helmClient.On("InstallOrUpgradeChart", mock.Anything, mock.MatchedBy(func(spec *helm.ChartSpec) bool {
		return spec.Version == "0.20.0"
	})).Return(&helm.ReleaseInfo{Name: "flux-operator"}, nil)

	installer := fluxinstaller.NewInstaller(
		helmClient,
		versions.NewResolver(v1alpha1.ChannelLatest, false),
		0,
	)

	err := installer.Install(context.Background())

	require.NoError(t, err)
	helmClient.AssertExpectations(t)
}

func TestInstallPrereleaseChannelAdmitsPrereleases(t *testing.T) {
	t.Parallel()

	helmClient := helm.NewMockInterface()
	helmClient.On("ChartVersions", mock.Anything, mock.Anything).
		Return([]string{"0.20.0", "0.21.0-rc.1"}, nil)
	helmClient.On("InstallOrUpgradeChart", mock.Anything, mock.MatchedBy(func(spec *helm.ChartSpec) bool {
		return spec.Version == "0.21.0-rc.1"
	})).Return(&helm.ReleaseInfo{Name: "flux-operator"}, nil)

	installer := fluxinstaller.NewInstaller(
		helmClient,
		versions.NewResolver(v1alpha1.ChannelPrerelease, false),
		0,
	)

	err := installer.Install(context.Background())

	require.NoError(t, err)
	helmClient.AssertExpectations(t)
}

func TestInstallError(t *testing.T) {
	t.Parallel()

	helmClient := helm.NewMockInterface()
	helmClient.On("InstallOrUpgradeChart", mock.Anything, mock.Anything).
		Return(nil, errInstallFailed)

	installer := fluxinstaller.NewInstaller(
		helmClient,
		versions.NewResolver(v1alpha1.ChannelStable, false),
		0,
	)

	err := installer.Install(context.Background())

	require.ErrorIs(t, err, errInstallFailed)
}

func TestUninstall(t *testing.T) {
	t.Parallel()

	helmClient := helm.NewMockInterface()
	helmClient.On("UninstallRelease", mock.Anything, "flux-operator", fluxinstaller.Namespace).
		Return(nil)

	installer := fluxinstaller.NewInstaller(
		helmClient,
		versions.NewResolver(v1alpha1.ChannelStable, false),
		0,
	)

	err := installer.Uninstall(context.Background())

	require.NoError(t, err)
	helmClient.AssertExpectations(t)
	assert.Equal(t, "flux-system", fluxinstaller.Namespace)
}
