package docker

import "github.com/docker/docker/api/types"

// ClassifyEngine exposes classifyEngine for testing.
func ClassifyEngine(version types.Version) Engine {
	return classifyEngine(version)
}
