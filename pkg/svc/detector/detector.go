// Package detector decides which local cluster the bootstrap should target:
// an already-running k3d cluster, an existing kind cluster, or a fresh kind
// cluster that still has to be created.
package detector

import (
	"context"
	"fmt"
	"slices"

	"github.com/platform-mesh/bootstrap/pkg/apis/bootstrap/v1alpha1"
)

// Action describes how the detected cluster is obtained.
type Action string

const (
	// ActionReuseK3d reuses a running k3d cluster.
	ActionReuseK3d Action = "reuse-k3d"
	// ActionReuseKind reuses an existing kind cluster.
	ActionReuseKind Action = "reuse-kind"
	// ActionCreateKind creates a new kind cluster.
	ActionCreateKind Action = "create-kind"
	// ActionCreateK3d creates a new k3d cluster. Detection never produces
	// it; it only applies when the distribution is configured explicitly.
	ActionCreateK3d Action = "create-k3d"
)

// Decision is the outcome of cluster detection. The actions are mutually
// exclusive; exactly one applies per run.
type Decision struct {
	Action       Action
	Distribution v1alpha1.Distribution
	ClusterName  string
	Context      string
}

// CreateNeeded reports whether a cluster still has to be created.
func (d *Decision) CreateNeeded() bool {
	return d.Action == ActionCreateKind || d.Action == ActionCreateK3d
}

// kindLister lists existing kind clusters.
type kindLister interface {
	List(ctx context.Context) ([]string, error)
}

// k3dRunningLister lists running k3d clusters.
type k3dRunningLister interface {
	ListRunning(ctx context.Context) ([]string, error)
}

// ClusterDetector probes both distributions and picks the target cluster.
type ClusterDetector struct {
	kindClusters kindLister
	k3dClusters  k3dRunningLister
	clusterName  string
}

// NewClusterDetector constructs a detector over the given cluster listers.
// clusterName is the name used both to match existing kind clusters and to
// name a newly created one.
func NewClusterDetector(
	kindClusters kindLister,
	k3dClusters k3dRunningLister,
	clusterName string,
) *ClusterDetector {
	return &ClusterDetector{
		kindClusters: kindClusters,
		k3dClusters:  k3dClusters,
		clusterName:  clusterName,
	}
}

// Detect evaluates the branches in precedence order: a running k3d cluster
// wins over an existing kind cluster, which wins over creating a new one.
// When several k3d clusters are running, the configured name is preferred
// and the lexicographically first is the fallback, keeping repeated runs
// deterministic.
func (d *ClusterDetector) Detect(ctx context.Context) (*Decision, error) {
	running, err := d.k3dClusters.ListRunning(ctx)
	if err != nil {
		return nil, fmt.Errorf("detect running k3d clusters: %w", err)
	}

	if len(running) > 0 {
		name := running[0]
		if slices.Contains(running, d.clusterName) {
			name = d.clusterName
		}

		return &Decision{
			Action:       ActionReuseK3d,
			Distribution: v1alpha1.DistributionK3d,
			ClusterName:  name,
			Context:      v1alpha1.DistributionK3d.ContextName(name),
		}, nil
	}

	existing, err := d.kindClusters.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("detect existing kind clusters: %w", err)
	}

	action := ActionCreateKind
	if slices.Contains(existing, d.clusterName) {
		action = ActionReuseKind
	}

	return &Decision{
		Action:       action,
		Distribution: v1alpha1.DistributionKind,
		ClusterName:  d.clusterName,
		Context:      v1alpha1.DistributionKind.ContextName(d.clusterName),
	}, nil
}
