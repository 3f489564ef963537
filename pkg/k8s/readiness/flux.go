package readiness

import (
	"context"
	"time"

	fluxmeta "github.com/fluxcd/pkg/apis/meta"
	apimeta "k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// FluxObject is any Flux API object that exposes its status conditions
// (OCIRepository, Kustomization, HelmRelease).
type FluxObject interface {
	client.Object
	GetConditions() []metav1.Condition
}

// WaitForFluxObjectReady polls until the Flux object reports the Ready
// condition with status True. The object is refreshed in place on every
// probe.
func WaitForFluxObjectReady(
	ctx context.Context,
	kubeClient client.Client,
	obj FluxObject,
	deadline time.Duration,
) error {
	key := client.ObjectKeyFromObject(obj)

	return PollForReadiness(ctx, deadline, func(ctx context.Context) (bool, error) {
		err := kubeClient.Get(ctx, key, obj)
		if err != nil {
			return false, nil //nolint:nilerr // returning nil to continue polling
		}

		return apimeta.IsStatusConditionTrue(obj.GetConditions(), fluxmeta.ReadyCondition), nil
	})
}
