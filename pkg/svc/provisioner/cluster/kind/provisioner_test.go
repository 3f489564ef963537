package kindprovisioner_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/kind/pkg/apis/config/v1alpha4"

	"github.com/platform-mesh/bootstrap/pkg/cmd/runner"
	clusterprovisioner "github.com/platform-mesh/bootstrap/pkg/svc/provisioner/cluster"
	kindprovisioner "github.com/platform-mesh/bootstrap/pkg/svc/provisioner/cluster/kind"
)

var (
	errCreateClusterFailed = errors.New("create cluster failed")
	errListClustersFailed  = errors.New("list clusters failed")
)

// mockCommandRunner is a test helper that mocks the command runner.
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

	result, ok := callArgs.Get(0).(runner.CommandResult)
	if !ok {
		result = runner.CommandResult{}
	}

	err := callArgs.Error(1)
	if err != nil {
		return result, fmt.Errorf("mock run error: %w", err)
	}

	return result, nil
}

func newProvisionerForTest(t *testing.T) (*kindprovisioner.KindClusterProvisioner, *mockCommandRunner) {
	t.Helper()

	mockRunner := &mockCommandRunner{}
	provisioner := kindprovisioner.NewKindClusterProvisionerWithRunner(
		kindprovisioner.DefaultClusterConfig("platform-mesh"),
		"~/.kube/config",
		mockRunner,
	)

	return provisioner, mockRunner
}

func TestCreateSuccess(t *testing.T) {
	t.Parallel()

	provisioner, mockRunner := newProvisionerForTest(t)
	mockRunner.On("Run").Return(runner.CommandResult{}, nil)

	err := provisioner.Create(context.Background(), "")

	require.NoError(t, err)
	assert.Contains(t, mockRunner.lastArgs, "--name")
	assert.Contains(t, mockRunner.lastArgs, "platform-mesh")
	assert.Contains(t, mockRunner.lastArgs, "--config")
}

func TestCreateUsesProvidedName(t *testing.T) {
	t.Parallel()

	provisioner, mockRunner := newProvisionerForTest(t)
	mockRunner.On("Run").Return(runner.CommandResult{}, nil)

	err := provisioner.Create(context.Background(), "custom-cluster")

	require.NoError(t, err)
	assert.Contains(t, mockRunner.lastArgs, "custom-cluster")
}

func TestCreateErrorCreateFailed(t *testing.T) {
	t.Parallel()

	provisioner, mockRunner := newProvisionerForTest(t)
	mockRunner.On("Run").Return(runner.CommandResult{}, errCreateClusterFailed)

	err := provisioner.Create(context.Background(), "my-cluster")

	require.ErrorIs(t, err, errCreateClusterFailed)
}

func TestListParsesClusterNames(t *testing.T) {
	t.Parallel()

	provisioner, mockRunner := newProvisionerForTest(t)
	mockRunner.On("Run").Return(
		runner.CommandResult{Stdout: "platform-mesh\nother-cluster\n"},
		nil,
	)

	clusters, err := provisioner.List(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"platform-mesh", "other-cluster"}, clusters)
}

func TestListIgnoresNoClustersMessage(t *testing.T) {
	t.Parallel()

	provisioner, mockRunner := newProvisionerForTest(t)
	mockRunner.On("Run").Return(
		runner.CommandResult{Stdout: "No kind clusters found.\n"},
		nil,
	)

	clusters, err := provisioner.List(context.Background())

	require.NoError(t, err)
	assert.Empty(t, clusters)
}

func TestExists(t *testing.T) {
	t.Parallel()

	provisioner, mockRunner := newProvisionerForTest(t)
	mockRunner.On("Run").Return(runner.CommandResult{Stdout: "platform-mesh\n"}, nil)

	exists, err := provisioner.Exists(context.Background(), "")

	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = provisioner.Exists(context.Background(), "missing")

	require.NoError(t, err)
	assert.False(t, exists)
}

func TestExistsListError(t *testing.T) {
	t.Parallel()

	provisioner, mockRunner := newProvisionerForTest(t)
	mockRunner.On("Run").Return(runner.CommandResult{}, errListClustersFailed)

	_, err := provisioner.Exists(context.Background(), "platform-mesh")

	require.ErrorIs(t, err, errListClustersFailed)
}

func TestDeleteMissingCluster(t *testing.T) {
	t.Parallel()

	provisioner, mockRunner := newProvisionerForTest(t)
	mockRunner.On("Run").Return(runner.CommandResult{Stdout: "other\n"}, nil)

	err := provisioner.Delete(context.Background(), "platform-mesh")

	require.ErrorIs(t, err, clusterprovisioner.ErrClusterNotFound)
}

func TestDeleteIncludesKubeconfigFlag(t *testing.T) {
	t.Parallel()

	provisioner, mockRunner := newProvisionerForTest(t)
	mockRunner.On("Run").Return(runner.CommandResult{Stdout: "platform-mesh\n"}, nil)

	err := provisioner.Delete(context.Background(), "")

	require.NoError(t, err)
	assert.Contains(t, mockRunner.lastArgs, "--kubeconfig")
}

func TestDefaultClusterConfigMapsIngressPorts(t *testing.T) {
	t.Parallel()

	config := kindprovisioner.DefaultClusterConfig("platform-mesh")

	require.Len(t, config.Nodes, 1)
	assert.Equal(t, v1alpha4.ControlPlaneRole, config.Nodes[0].Role)

	ports := make([]int32, 0, len(config.Nodes[0].ExtraPortMappings))
	for _, mapping := range config.Nodes[0].ExtraPortMappings {
		ports = append(ports, mapping.HostPort)
	}

	assert.ElementsMatch(t, []int32{80, 443}, ports)
}
