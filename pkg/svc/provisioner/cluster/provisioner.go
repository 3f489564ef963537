// Package clusterprovisioner defines the lifecycle contract shared by the
// kind and k3d cluster provisioners.
package clusterprovisioner

import (
	"context"
	"errors"
)

// ErrClusterNotFound is returned when an operation targets a cluster that
// does not exist.
var ErrClusterNotFound = errors.New("cluster not found")

// ClusterProvisioner manages the lifecycle of a local Kubernetes cluster.
type ClusterProvisioner interface {
	// Create creates a cluster. If name is non-empty it targets that name,
	// otherwise the provisioner's configured default.
	Create(ctx context.Context, name string) error

	// Delete deletes a cluster by name or the configured default when name
	// is empty. Returns ErrClusterNotFound when the cluster does not exist.
	Delete(ctx context.Context, name string) error

	// List lists the names of all clusters known to the distribution.
	List(ctx context.Context) ([]string, error)

	// Exists checks whether a cluster exists by name or the configured
	// default when name is empty.
	Exists(ctx context.Context, name string) (bool, error)
}

// RunningLister is an optional interface for provisioners that can report
// which of their clusters are currently running, not merely created. Kind
// does not distinguish the two, k3d does.
type RunningLister interface {
	// ListRunning lists the names of clusters with at least one running
	// server node, sorted lexicographically.
	ListRunning(ctx context.Context) ([]string, error)
}
