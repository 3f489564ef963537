package docker_test

import (
	"context"
	"testing"

	"github.com/docker/docker/api/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platform-mesh/bootstrap/pkg/client/docker"
)

func TestDetectEngineRejectsNilClient(t *testing.T) {
	t.Parallel()

	_, err := docker.DetectEngine(context.Background(), nil)

	require.ErrorIs(t, err, docker.ErrAPIClientNil)
}

func TestClassifyEngine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		version types.Version
		want    docker.Engine
	}{
		{
			name: "docker engine",
			version: types.Version{
				Platform: struct{ Name string }{Name: "Docker Engine - Community"},
				Components: []types.ComponentVersion{
					{Name: "Engine", Version: "28.0.0"},
				},
			},
			want: docker.EngineDocker,
		},
		{
			name: "podman component",
			version: types.Version{
				Components: []types.ComponentVersion{
					{Name: "Podman Engine", Version: "5.0.0"},
				},
			},
			want: docker.EnginePodman,
		},
		{
			name: "podman platform",
			version: types.Version{
				Platform: struct{ Name string }{Name: "Podman/5.0.0"},
			},
			want: docker.EnginePodman,
		},
		{
			name:    "empty version defaults to docker",
			version: types.Version{},
			want:    docker.EngineDocker,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, testCase.want, docker.ClassifyEngine(testCase.version))
		})
	}
}
