package k3dprovisioner_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/k3d-io/k3d/v5/pkg/runtimes"
	k3dtypes "github.com/k3d-io/k3d/v5/pkg/types"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/platform-mesh/bootstrap/pkg/cmd/runner"
	clusterprovisioner "github.com/platform-mesh/bootstrap/pkg/svc/provisioner/cluster"
	k3dprovisioner "github.com/platform-mesh/bootstrap/pkg/svc/provisioner/cluster/k3d"
)

var errListFailed = errors.New("list failed")

type mockCommandRunner struct {
	mock.Mock

	lastArgs []string
}

func (m *mockCommandRunner) Run(
	_ context.Context,
	_ *cobra.Command,
	args []string,
) (runner.CommandResult, error) {
	callArgs := m.Called()

	m.lastArgs = append([]string(nil), args...)

	err := callArgs.Error(0)
	if err != nil {
		return runner.CommandResult{}, fmt.Errorf("mock run error: %w", err)
	}

	return runner.CommandResult{}, nil
}

func fakeCluster(name string, serverRunning bool) *k3dtypes.Cluster {
	return &k3dtypes.Cluster{
		Name: name,
		Nodes: []*k3dtypes.Node{
			{
				Name:  name + "-server-0",
				Role:  k3dtypes.ServerRole,
				State: k3dtypes.NodeState{Running: serverRunning},
			},
		},
	}
}

func staticClusterList(
	clusters ...*k3dtypes.Cluster,
) func(context.Context, runtimes.Runtime) ([]*k3dtypes.Cluster, error) {
	return func(_ context.Context, _ runtimes.Runtime) ([]*k3dtypes.Cluster, error) {
		return clusters, nil
	}
}

func TestListSortsNames(t *testing.T) {
	t.Parallel()

	provisioner := k3dprovisioner.NewK3dClusterProvisionerWithDeps(
		"platform-mesh",
		&mockCommandRunner{},
		staticClusterList(fakeCluster("zeta", true), fakeCluster("alpha", false)),
	)

	names, err := provisioner.List(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, names)
}

func TestListRunningFiltersStoppedClusters(t *testing.T) {
	t.Parallel()

	provisioner := k3dprovisioner.NewK3dClusterProvisionerWithDeps(
		"platform-mesh",
		&mockCommandRunner{},
		staticClusterList(
			fakeCluster("stopped", false),
			fakeCluster("running-b", true),
			fakeCluster("running-a", true),
		),
	)

	names, err := provisioner.ListRunning(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"running-a", "running-b"}, names)
}

func TestListError(t *testing.T) {
	t.Parallel()

	provisioner := k3dprovisioner.NewK3dClusterProvisionerWithDeps(
		"platform-mesh",
		&mockCommandRunner{},
		func(_ context.Context, _ runtimes.Runtime) ([]*k3dtypes.Cluster, error) {
			return nil, errListFailed
		},
	)

	_, err := provisioner.List(context.Background())

	require.ErrorIs(t, err, errListFailed)
}

func TestExistsUsesDefaultName(t *testing.T) {
	t.Parallel()

	provisioner := k3dprovisioner.NewK3dClusterProvisionerWithDeps(
		"platform-mesh",
		&mockCommandRunner{},
		staticClusterList(fakeCluster("platform-mesh", true)),
	)

	exists, err := provisioner.Exists(context.Background(), "")

	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDeleteMissingCluster(t *testing.T) {
	t.Parallel()

	provisioner := k3dprovisioner.NewK3dClusterProvisionerWithDeps(
		"platform-mesh",
		&mockCommandRunner{},
		staticClusterList(),
	)

	err := provisioner.Delete(context.Background(), "missing")

	require.ErrorIs(t, err, clusterprovisioner.ErrClusterNotFound)
}

func TestDeletePassesClusterName(t *testing.T) {
	t.Parallel()

	mockRunner := &mockCommandRunner{}
	mockRunner.On("Run").Return(nil)

	provisioner := k3dprovisioner.NewK3dClusterProvisionerWithDeps(
		"platform-mesh",
		mockRunner,
		staticClusterList(fakeCluster("platform-mesh", true)),
	)

	err := provisioner.Delete(context.Background(), "")

	require.NoError(t, err)
	assert.Contains(t, mockRunner.lastArgs, "platform-mesh")
}
