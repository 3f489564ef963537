package checker

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/platform-mesh/bootstrap/pkg/client/docker"
	"github.com/platform-mesh/bootstrap/pkg/fsutil"
)

var (
	// ErrUnsupportedArchitecture is returned for CPU architectures without
	// published platform-mesh images.
	ErrUnsupportedArchitecture = errors.New("unsupported CPU architecture")

	// ErrKubeconfigNotWritable is returned when the kubeconfig's directory
	// rejects writes.
	ErrKubeconfigNotWritable = errors.New("kubeconfig directory not writable")
)

var supportedArchitectures = map[string]struct{}{
	"amd64": {},
	"arm64": {},
}

// ContainerEngineCheck verifies that a Docker-compatible engine answers on
// the configured socket. On success the detail names the engine that
// responded (docker or podman).
func ContainerEngineCheck() Check {
	return Check{
		Name: "container engine",
		Hint: "start Docker Desktop, Docker Engine, or a Podman machine with the docker socket enabled",
		Run: func(ctx context.Context) (string, error) {
			apiClient, err := docker.GetDockerClient()
			if err != nil {
				return "", fmt.Errorf("create docker client: %w", err)
			}

			defer func() { _ = apiClient.Close() }()

			engine, err := docker.DetectEngine(ctx, apiClient)
			if err != nil {
				return "", fmt.Errorf("reach container engine: %w", err)
			}

			return string(engine), nil
		},
	}
}

// ArchitectureCheck verifies the CPU architecture has published images.
func ArchitectureCheck() Check {
	return architectureCheck(runtime.GOARCH)
}

func architectureCheck(goarch string) Check {
	return Check{
		Name: "cpu architecture",
		Hint: "platform-mesh images are published for amd64 and arm64 only",
		Run: func(_ context.Context) (string, error) {
			if _, ok := supportedArchitectures[goarch]; !ok {
				return "", fmt.Errorf("%w: %s", ErrUnsupportedArchitecture, goarch)
			}

			return goarch, nil
		},
	}
}

// KubeconfigWritableCheck verifies the kubeconfig's directory can be written,
// since cluster creation merges the new context into it.
func KubeconfigWritableCheck(kubeconfigPath string) Check {
	return Check{
		Name: "kubeconfig writable",
		Hint: "ensure the kubeconfig directory exists and is writable by the current user",
		Run: func(_ context.Context) (string, error) {
			expanded, err := fsutil.ExpandHomePath(kubeconfigPath)
			if err != nil {
				return "", fmt.Errorf("expand kubeconfig path: %w", err)
			}

			if !fsutil.IsDirWritable(expanded) {
				return "", fmt.Errorf("%w: %s", ErrKubeconfigNotWritable, filepath.Dir(expanded))
			}

			return "", nil
		},
	}
}
