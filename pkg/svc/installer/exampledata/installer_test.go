package exampledatainstaller_test

import (
	"context"
	"testing"

	helmv2 "github.com/fluxcd/helm-controller/api/v2"
	kustomizev1 "github.com/fluxcd/kustomize-controller/api/v1"
	sourcev1 "github.com/fluxcd/source-controller/api/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	exampledatainstaller "github.com/platform-mesh/bootstrap/pkg/svc/installer/exampledata"
)

func newScheme(t *testing.T) *runtime.Scheme {
	t.Helper()

	scheme := runtime.NewScheme()
	require.NoError(t, sourcev1.AddToScheme(scheme))
	require.NoError(t, kustomizev1.AddToScheme(scheme))
	require.NoError(t, helmv2.AddToScheme(scheme))

	return scheme
}

func TestInstallCreatesFluxObjects(t *testing.T) {
	t.Parallel()

	kubeClient := fake.NewClientBuilder().WithScheme(newScheme(t)).Build()
	installer := exampledatainstaller.NewInstaller(kubeClient)

	err := installer.Install(context.Background())
	require.NoError(t, err)

	repo := &sourcev1.OCIRepository{}
	err = kubeClient.Get(context.Background(), types.NamespacedName{
		Namespace: exampledatainstaller.Namespace,
		Name:      exampledatainstaller.OCIRepositoryName,
	}, repo)
	require.NoError(t, err)
	assert.Equal(t, "latest", repo.Spec.Reference.Tag)

	kustomization := &kustomizev1.Kustomization{}
	err = kubeClient.Get(context.Background(), types.NamespacedName{
		Namespace: exampledatainstaller.Namespace,
		Name:      exampledatainstaller.KustomizationName,
	}, kustomization)
	require.NoError(t, err)
	assert.Equal(t, sourcev1.OCIRepositoryKind, kustomization.Spec.SourceRef.Kind)
	assert.True(t, kustomization.Spec.Prune)

	helmRelease := &helmv2.HelmRelease{}
	err = kubeClient.Get(context.Background(), types.NamespacedName{
		Namespace: exampledatainstaller.Namespace,
		Name:      exampledatainstaller.HelmReleaseName,
	}, helmRelease)
	require.NoError(t, err)
	require.NotNil(t, helmRelease.Spec.ChartRef)
	assert.Equal(t, exampledatainstaller.ChartRepositoryName, helmRelease.Spec.ChartRef.Name)
}

func TestInstallIsIdempotent(t *testing.T) {
	t.Parallel()

	kubeClient := fake.NewClientBuilder().WithScheme(newScheme(t)).Build()
	installer := exampledatainstaller.NewInstaller(kubeClient)

	require.NoError(t, installer.Install(context.Background()))
	require.NoError(t, installer.Install(context.Background()))
}

func TestUninstallRemovesObjects(t *testing.T) {
	t.Parallel()

	kubeClient := fake.NewClientBuilder().WithScheme(newScheme(t)).Build()
	installer := exampledatainstaller.NewInstaller(kubeClient)

	require.NoError(t, installer.Install(context.Background()))
	require.NoError(t, installer.Uninstall(context.Background()))

	repo := &sourcev1.OCIRepository{}
	err := kubeClient.Get(context.Background(), types.NamespacedName{
		Namespace: exampledatainstaller.Namespace,
		Name:      exampledatainstaller.OCIRepositoryName,
	}, repo)
	require.Error(t, err)
}

func TestUninstallMissingObjects(t *testing.T) {
	t.Parallel()

	kubeClient := fake.NewClientBuilder().WithScheme(newScheme(t)).Build()
	installer := exampledatainstaller.NewInstaller(kubeClient)

	err := installer.Uninstall(context.Background())

	require.NoError(t, err)
}

func TestWaitObjectsCoverAppliedObjects(t *testing.T) {
	t.Parallel()

	objects := exampledatainstaller.WaitObjects()

	require.Len(t, objects, 4)

	for _, obj := range objects {
		assert.Equal(t, exampledatainstaller.Namespace, obj.GetNamespace())
		assert.NotEmpty(t, obj.GetName())
	}
}
