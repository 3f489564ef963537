package readiness

import (
	"context"
	"fmt"
	"time"

	"k8s.io/client-go/kubernetes"
)

// Resource type identifiers accepted by Check.Type.
const (
	// CheckDeployment waits for a Deployment to have its desired replicas available.
	CheckDeployment = "deployment"
	// CheckStatefulSet waits for a StatefulSet to have its desired replicas ready.
	CheckStatefulSet = "statefulset"
	// CheckNode waits for at least one node to report Ready.
	CheckNode = "node"
)

// Check identifies a single Kubernetes resource whose readiness should be
// awaited.
type Check struct {
	Type      string
	Namespace string
	Name      string
}

// WaitForMultipleResources waits for every check to pass, in order. Each
// check receives the full timeout; the install sequence is linear and
// blocking, so the caller only ever waits for one resource at a time.
func WaitForMultipleResources(
	ctx context.Context,
	clientset kubernetes.Interface,
	checks []Check,
	timeout time.Duration,
) error {
	for _, check := range checks {
		err := waitForCheck(ctx, clientset, check, timeout)
		if err != nil {
			return fmt.Errorf(
				"wait for %s %s/%s: %w",
				check.Type, check.Namespace, check.Name, err,
			)
		}
	}

	return nil
}

func waitForCheck(
	ctx context.Context,
	clientset kubernetes.Interface,
	check Check,
	timeout time.Duration,
) error {
	switch check.Type {
	case CheckDeployment:
		return WaitForDeploymentReady(ctx, clientset, check.Namespace, check.Name, timeout)
	case CheckStatefulSet:
		return WaitForStatefulSetReady(ctx, clientset, check.Namespace, check.Name, timeout)
	case CheckNode:
		return WaitForNodeReady(ctx, clientset, timeout)
	default:
		return fmt.Errorf("%w: %s", errUnknownResourceType, check.Type)
	}
}
