// Package exampledatainstaller seeds the cluster with the example content
// set: a Flux OCIRepository for the example artifacts, a Kustomization that
// applies them, and a HelmRelease for the demo portal chart.
package exampledatainstaller

import (
	"context"
	"fmt"
	"time"

	helmv2 "github.com/fluxcd/helm-controller/api/v2"
	kustomizev1 "github.com/fluxcd/kustomize-controller/api/v1"
	sourcev1 "github.com/fluxcd/source-controller/api/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/platform-mesh/bootstrap/pkg/k8s/readiness"
)

const (
	// Namespace is where the example data objects are created.
	Namespace = "platform-mesh-system"
	// OCIRepositoryName is the source for the example manifests.
	OCIRepositoryName = "platform-mesh-example-data"
	// ChartRepositoryName is the source for the demo portal chart.
	ChartRepositoryName = "platform-mesh-example-portal"
	// KustomizationName applies the example manifests.
	KustomizationName = "platform-mesh-example-data"
	// HelmReleaseName deploys the demo portal.
	HelmReleaseName = "example-portal"

	dataArtifactURL  = "oci://ghcr.io/platform-mesh/example-data"
	chartArtifactURL = "oci://ghcr.io/platform-mesh/charts/example-portal"

	syncInterval = 5 * time.Minute
)

// Installer creates the example data objects through a controller-runtime
// client whose scheme covers the Flux APIs.
type Installer struct {
	kubeClient client.Client
}

// NewInstaller creates a new example data installer instance.
func NewInstaller(kubeClient client.Client) *Installer {
	return &Installer{kubeClient: kubeClient}
}

// Install creates or updates the example data objects. Reconciliation
// readiness is observed separately via WaitObjects.
func (i *Installer) Install(ctx context.Context) error {
	for _, obj := range i.desiredObjects() {
		if err := i.apply(ctx, obj); err != nil {
			return fmt.Errorf("apply example data %s/%s: %w",
				obj.GetObjectKind().GroupVersionKind().Kind, obj.GetName(), err)
		}
	}

	return nil
}

// Uninstall deletes the example data objects. Missing objects are not an
// error.
func (i *Installer) Uninstall(ctx context.Context) error {
	for _, obj := range i.desiredObjects() {
		err := i.kubeClient.Delete(ctx, obj)
		if err != nil && !apierrors.IsNotFound(err) {
			return fmt.Errorf("delete example data %s: %w", obj.GetName(), err)
		}
	}

	return nil
}

// WaitObjects returns the created objects as readiness targets, in apply
// order.
func WaitObjects() []readiness.FluxObject {
	return []readiness.FluxObject{
		&sourcev1.OCIRepository{ObjectMeta: objectMeta(OCIRepositoryName)},
		&sourcev1.OCIRepository{ObjectMeta: objectMeta(ChartRepositoryName)},
		&kustomizev1.Kustomization{ObjectMeta: objectMeta(KustomizationName)},
		&helmv2.HelmRelease{ObjectMeta: objectMeta(HelmReleaseName)},
	}
}

func (i *Installer) desiredObjects() []client.Object {
	return []client.Object{
		&sourcev1.OCIRepository{
			ObjectMeta: objectMeta(OCIRepositoryName),
			Spec: sourcev1.OCIRepositorySpec{
				URL:      dataArtifactURL,
				Interval: interval(),
				Reference: &sourcev1.OCIRepositoryRef{
					Tag: "latest",
				},
			},
		},
		&sourcev1.OCIRepository{
			ObjectMeta: objectMeta(ChartRepositoryName),
			Spec: sourcev1.OCIRepositorySpec{
				URL:      chartArtifactURL,
				Interval: interval(),
				Reference: &sourcev1.OCIRepositoryRef{
					Tag: "latest",
				},
			},
		},
		&kustomizev1.Kustomization{
			ObjectMeta: objectMeta(KustomizationName),
			Spec: kustomizev1.KustomizationSpec{
				Interval: interval(),
				Path:     "./",
				Prune:    true,
				Wait:     true,
				SourceRef: kustomizev1.CrossNamespaceSourceReference{
					Kind: sourcev1.OCIRepositoryKind,
					Name: OCIRepositoryName,
				},
			},
		},
		&helmv2.HelmRelease{
			ObjectMeta: objectMeta(HelmReleaseName),
			Spec: helmv2.HelmReleaseSpec{
				Interval:    interval(),
				ReleaseName: HelmReleaseName,
				ChartRef: &helmv2.CrossNamespaceSourceReference{
					Kind: sourcev1.OCIRepositoryKind,
					Name: ChartRepositoryName,
				},
			},
		},
	}
}

func (i *Installer) apply(ctx context.Context, desired client.Object) error {
	err := i.kubeClient.Create(ctx, desired)
	if err == nil {
		return nil
	}

	if !apierrors.IsAlreadyExists(err) {
		return fmt.Errorf("create: %w", err)
	}

	current, ok := desired.DeepCopyObject().(client.Object)
	if !ok {
		return fmt.Errorf("unexpected object type %T", desired)
	}

	getErr := i.kubeClient.Get(ctx, client.ObjectKeyFromObject(desired), current)
	if getErr != nil {
		return fmt.Errorf("get existing: %w", getErr)
	}

	desired.SetResourceVersion(current.GetResourceVersion())

	updateErr := i.kubeClient.Update(ctx, desired)
	if updateErr != nil {
		return fmt.Errorf("update: %w", updateErr)
	}

	return nil
}

func objectMeta(name string) metav1.ObjectMeta {
	return metav1.ObjectMeta{
		Name:      name,
		Namespace: Namespace,
	}
}

func interval() metav1.Duration {
	return metav1.Duration{Duration: syncInterval}
}
