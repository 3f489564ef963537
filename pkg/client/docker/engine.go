// Package docker wraps Docker API client construction and container engine
// detection for the environment checker.
package docker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/client"
)

// Engine identifies which container engine answered on the Docker API socket.
type Engine string

const (
	// EngineDocker is the Docker daemon.
	EngineDocker Engine = "docker"
	// EnginePodman is Podman's Docker-compatible API service.
	EnginePodman Engine = "podman"
	// EngineUnknown is an engine that speaks the Docker API but could not be
	// identified.
	EngineUnknown Engine = "unknown"
)

// ErrAPIClientNil is returned when apiClient is nil.
var ErrAPIClientNil = errors.New("apiClient cannot be nil")

// GetDockerClient creates a Docker client using environment configuration.
// DOCKER_HOST is honored, so a Podman socket works transparently.
func GetDockerClient() (client.APIClient, error) {
	dockerClient, err := client.NewClientWithOpts(
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	return dockerClient, nil
}

// DetectEngine pings the container engine and identifies it. An error means
// no engine is reachable on the configured socket.
func DetectEngine(ctx context.Context, apiClient client.APIClient) (Engine, error) {
	if apiClient == nil {
		return "", ErrAPIClientNil
	}

	_, err := apiClient.Ping(ctx)
	if err != nil {
		return "", fmt.Errorf("container engine is not reachable: %w", err)
	}

	version, err := apiClient.ServerVersion(ctx)
	if err != nil {
		// Ping succeeded, so an engine is present even if it refuses the
		// version call.
		return EngineUnknown, nil //nolint:nilerr
	}

	return classifyEngine(version), nil
}

func classifyEngine(version types.Version) Engine {
	for _, component := range version.Components {
		if strings.Contains(strings.ToLower(component.Name), "podman") {
			return EnginePodman
		}
	}

	if strings.Contains(strings.ToLower(version.Platform.Name), "podman") {
		return EnginePodman
	}

	return EngineDocker
}
