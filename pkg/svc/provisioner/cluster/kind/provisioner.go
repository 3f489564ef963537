// Package kindprovisioner provisions kind clusters through kind's embedded
// Cobra commands.
package kindprovisioner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"slices"

	"sigs.k8s.io/kind/pkg/apis/config/v1alpha4"
	kindcmd "sigs.k8s.io/kind/pkg/cmd"
	createcluster "sigs.k8s.io/kind/pkg/cmd/kind/create/cluster"
	deletecluster "sigs.k8s.io/kind/pkg/cmd/kind/delete/cluster"
	getclusters "sigs.k8s.io/kind/pkg/cmd/kind/get/clusters"
	"sigs.k8s.io/yaml"

	"github.com/platform-mesh/bootstrap/pkg/cmd/runner"
	"github.com/platform-mesh/bootstrap/pkg/fsutil"
	clusterprovisioner "github.com/platform-mesh/bootstrap/pkg/svc/provisioner/cluster"
)

const configFilePerms = 0o600

// KindClusterProvisioner provisions kind clusters via kind's Cobra commands
// executed through a CommandRunner.
type KindClusterProvisioner struct {
	kindConfig *v1alpha4.Cluster
	kubeConfig string
	runner     runner.CommandRunner
}

var _ clusterprovisioner.ClusterProvisioner = (*KindClusterProvisioner)(nil)

// NewKindClusterProvisioner constructs a provisioner for the given kind
// cluster config and kubeconfig path.
func NewKindClusterProvisioner(
	kindConfig *v1alpha4.Cluster,
	kubeConfig string,
) *KindClusterProvisioner {
	return NewKindClusterProvisionerWithRunner(
		kindConfig,
		kubeConfig,
		runner.NewCobraCommandRunner(os.Stdout, os.Stderr),
	)
}

// NewKindClusterProvisionerWithRunner constructs a provisioner with an
// explicit command runner for testing purposes.
func NewKindClusterProvisionerWithRunner(
	kindConfig *v1alpha4.Cluster,
	kubeConfig string,
	commandRunner runner.CommandRunner,
) *KindClusterProvisioner {
	return &KindClusterProvisioner{
		kindConfig: kindConfig,
		kubeConfig: kubeConfig,
		runner:     commandRunner,
	}
}

// Create creates a kind cluster using kind's Cobra command. The in-memory
// cluster config is serialized to a temp file since the command only accepts
// configuration from disk.
func (k *KindClusterProvisioner) Create(ctx context.Context, name string) error {
	target := setName(name, k.kindConfig.Name)

	tmpFile, err := os.CreateTemp("", "kind-config-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp config file: %w", err)
	}

	defer func() { _ = tmpFile.Close() }()
	defer func() { _ = os.Remove(tmpFile.Name()) }()

	configYAML, err := yaml.Marshal(k.kindConfig)
	if err != nil {
		return fmt.Errorf("marshal kind config: %w", err)
	}

	err = os.WriteFile(tmpFile.Name(), configYAML, configFilePerms)
	if err != nil {
		return fmt.Errorf("write temp config file: %w", err)
	}

	logger := &streamLogger{writer: os.Stdout}
	streams := kindcmd.IOStreams{
		Out:    os.Stdout,
		ErrOut: os.Stderr,
	}

	cmd := createcluster.NewCommand(logger, streams)

	args := []string{"--name", target, "--config", tmpFile.Name()}

	_, err = k.runner.Run(ctx, cmd, args)
	if err != nil {
		return fmt.Errorf("create kind cluster: %w", err)
	}

	return nil
}

// Delete deletes a kind cluster using kind's Cobra command. Returns
// ErrClusterNotFound when the cluster does not exist.
func (k *KindClusterProvisioner) Delete(ctx context.Context, name string) error {
	target := setName(name, k.kindConfig.Name)

	exists, err := k.Exists(ctx, target)
	if err != nil {
		return fmt.Errorf("check cluster existence: %w", err)
	}

	if !exists {
		return fmt.Errorf("%w: %s", clusterprovisioner.ErrClusterNotFound, target)
	}

	kubeconfigPath, err := fsutil.ExpandHomePath(k.kubeConfig)
	if err != nil {
		return fmt.Errorf("expand kubeconfig path: %w", err)
	}

	logger := &streamLogger{writer: os.Stdout}
	streams := kindcmd.IOStreams{
		Out:    os.Stdout,
		ErrOut: os.Stderr,
	}

	cmd := deletecluster.NewCommand(logger, streams)

	args := []string{"--name", target}
	if kubeconfigPath != "" {
		args = append(args, "--kubeconfig", kubeconfigPath)
	}

	_, err = k.runner.Run(ctx, cmd, args)
	if err != nil {
		return fmt.Errorf("delete kind cluster: %w", err)
	}

	return nil
}

// List returns all kind clusters using kind's Cobra command.
func (k *KindClusterProvisioner) List(ctx context.Context) ([]string, error) {
	var outBuf bytes.Buffer

	// Kind's get clusters command writes names to streams.Out directly, not
	// through cmd.SetOut, so the buffer is the primary source. The runner's
	// captured stdout is the fallback for mocked runners in tests.
	logger := &streamLogger{writer: &outBuf}
	streams := kindcmd.IOStreams{
		Out:    &outBuf,
		ErrOut: io.Discard,
	}

	cmd := getclusters.NewCommand(logger, streams)

	result, err := k.runner.Run(ctx, cmd, []string{})
	if err != nil {
		return nil, fmt.Errorf("list kind clusters: %w", err)
	}

	const noKindClustersMsg = "No kind clusters found."

	output := outBuf.Bytes()
	if len(output) == 0 {
		output = []byte(result.Stdout)
	}

	var clusters []string

	for _, line := range bytes.Split(output, []byte("\n")) {
		name := string(bytes.TrimSpace(line))
		if name != "" && name != noKindClustersMsg {
			clusters = append(clusters, name)
		}
	}

	return clusters, nil
}

// Exists checks if a kind cluster exists.
func (k *KindClusterProvisioner) Exists(ctx context.Context, name string) (bool, error) {
	clusters, err := k.List(ctx)
	if err != nil {
		return false, fmt.Errorf("list kind clusters: %w", err)
	}

	target := setName(name, k.kindConfig.Name)

	return slices.Contains(clusters, target), nil
}

func setName(name string, kindConfigName string) string {
	if name == "" {
		return kindConfigName
	}

	return name
}
