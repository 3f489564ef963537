// Package k3dprovisioner provisions k3d clusters through k3d's embedded
// Cobra commands and queries cluster state through the k3d client SDK.
package k3dprovisioner

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"
	"sync"

	clustercommand "github.com/k3d-io/k3d/v5/cmd/cluster"
	k3dclient "github.com/k3d-io/k3d/v5/pkg/client"
	"github.com/k3d-io/k3d/v5/pkg/runtimes"
	k3dtypes "github.com/k3d-io/k3d/v5/pkg/types"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/platform-mesh/bootstrap/pkg/cmd/runner"
	clusterprovisioner "github.com/platform-mesh/bootstrap/pkg/svc/provisioner/cluster"
)

// logrusConfigOnce ensures logrus is configured exactly once to avoid data
// races. k3d logs through the global logrus logger.
var logrusConfigOnce sync.Once //nolint:gochecknoglobals // Required for one-time logrus initialization

// clusterListFunc matches the k3d SDK's ClusterList signature, injectable
// for tests.
type clusterListFunc func(ctx context.Context, runtime runtimes.Runtime) ([]*k3dtypes.Cluster, error)

// K3dClusterProvisioner executes k3d lifecycle commands via Cobra.
type K3dClusterProvisioner struct {
	clusterName  string
	runner       runner.CommandRunner
	listClusters clusterListFunc
}

var (
	_ clusterprovisioner.ClusterProvisioner = (*K3dClusterProvisioner)(nil)
	_ clusterprovisioner.RunningLister      = (*K3dClusterProvisioner)(nil)
)

// NewK3dClusterProvisioner constructs a command-backed provisioner with the
// given default cluster name.
func NewK3dClusterProvisioner(clusterName string) *K3dClusterProvisioner {
	logrusConfigOnce.Do(func() {
		logrus.SetOutput(os.Stdout)
		logrus.SetFormatter(&logrus.TextFormatter{
			ForceColors:     true,
			FullTimestamp:   false,
			TimestampFormat: "2006-01-02T15:04:05Z",
		})

		if logrus.GetLevel() < logrus.InfoLevel {
			logrus.SetLevel(logrus.InfoLevel)
		}
	})

	return &K3dClusterProvisioner{
		clusterName:  clusterName,
		runner:       runner.NewCobraCommandRunner(nil, nil),
		listClusters: k3dclient.ClusterList,
	}
}

// NewK3dClusterProvisionerWithDeps constructs a provisioner with explicit
// dependencies for testing purposes.
func NewK3dClusterProvisionerWithDeps(
	clusterName string,
	commandRunner runner.CommandRunner,
	listClusters clusterListFunc,
) *K3dClusterProvisioner {
	return &K3dClusterProvisioner{
		clusterName:  clusterName,
		runner:       commandRunner,
		listClusters: listClusters,
	}
}

// Create provisions a k3d cluster using the native Cobra command.
func (k *K3dClusterProvisioner) Create(ctx context.Context, name string) error {
	return k.runLifecycleCommand(ctx, clustercommand.NewCmdClusterCreate, name, "cluster create")
}

// Delete removes a k3d cluster via the Cobra command. Returns
// ErrClusterNotFound when the cluster does not exist.
func (k *K3dClusterProvisioner) Delete(ctx context.Context, name string) error {
	exists, err := k.Exists(ctx, name)
	if err != nil {
		return fmt.Errorf("check cluster existence: %w", err)
	}

	if !exists {
		return fmt.Errorf("%w: %s", clusterprovisioner.ErrClusterNotFound, k.resolveName(name))
	}

	return k.runLifecycleCommand(ctx, clustercommand.NewCmdClusterDelete, name, "cluster delete")
}

// List returns the names of all k3d clusters via the client SDK.
func (k *K3dClusterProvisioner) List(ctx context.Context) ([]string, error) {
	clusters, err := k.listClusters(ctx, runtimes.SelectedRuntime)
	if err != nil {
		return nil, fmt.Errorf("list k3d clusters: %w", err)
	}

	names := make([]string, 0, len(clusters))
	for _, cluster := range clusters {
		names = append(names, cluster.Name)
	}

	sort.Strings(names)

	return names, nil
}

// ListRunning returns the names of k3d clusters with at least one running
// server node, sorted for deterministic selection.
func (k *K3dClusterProvisioner) ListRunning(ctx context.Context) ([]string, error) {
	clusters, err := k.listClusters(ctx, runtimes.SelectedRuntime)
	if err != nil {
		return nil, fmt.Errorf("list k3d clusters: %w", err)
	}

	var names []string

	for _, cluster := range clusters {
		if _, running := cluster.ServerCountRunning(); running > 0 {
			names = append(names, cluster.Name)
		}
	}

	sort.Strings(names)

	return names, nil
}

// Exists returns whether the target cluster is present.
func (k *K3dClusterProvisioner) Exists(ctx context.Context, name string) (bool, error) {
	clusters, err := k.List(ctx)
	if err != nil {
		return false, err
	}

	target := k.resolveName(name)
	if target == "" {
		return false, nil
	}

	return slices.Contains(clusters, target), nil
}

func (k *K3dClusterProvisioner) resolveName(name string) string {
	if strings.TrimSpace(name) != "" {
		return name
	}

	return k.clusterName
}

func (k *K3dClusterProvisioner) runLifecycleCommand(
	ctx context.Context,
	builder func() *cobra.Command,
	name string,
	errorPrefix string,
) error {
	cmd := builder()

	var args []string

	if target := k.resolveName(name); target != "" {
		args = append(args, target)
	}

	_, runErr := k.runner.Run(ctx, cmd, args)
	if runErr != nil {
		return fmt.Errorf("%s: %w", errorPrefix, runErr)
	}

	return nil
}
