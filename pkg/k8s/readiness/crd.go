package readiness

import (
	"context"
	"time"

	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	apiextensionsclient "k8s.io/apiextensions-apiserver/pkg/client/clientset/clientset"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/rest"
)

// WaitForCRDEstablished polls until the named CustomResourceDefinition has
// condition Established=True. Add-ons that register CRDs (KRO, OCM, Flux)
// cannot serve custom resources before this point.
func WaitForCRDEstablished(
	ctx context.Context,
	restConfig *rest.Config,
	crdName string,
	deadline time.Duration,
) error {
	client, err := apiextensionsclient.NewForConfig(restConfig)
	if err != nil {
		return err
	}

	return PollForReadiness(ctx, deadline, func(ctx context.Context) (bool, error) {
		crd, err := client.ApiextensionsV1().
			CustomResourceDefinitions().
			Get(ctx, crdName, metav1.GetOptions{})
		if err != nil {
			return false, nil //nolint:nilerr // returning nil to continue polling
		}

		return isCRDEstablished(crd), nil
	})
}

func isCRDEstablished(crd *apiextensionsv1.CustomResourceDefinition) bool {
	for _, cond := range crd.Status.Conditions {
		if cond.Type == apiextensionsv1.Established {
			return cond.Status == apiextensionsv1.ConditionTrue
		}
	}

	return false
}
