// Package versions maps release channels to chart version selectors for the
// platform add-ons.
//
// The stable channel pins each component to a known-good version. The latest
// and prerelease channels select the highest matching version from the chart
// registry at install time; prerelease additionally admits pre-release
// semvers.
package versions

import (
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/platform-mesh/bootstrap/pkg/apis/bootstrap/v1alpha1"
)

// Component identifies a versioned platform add-on.
type Component string

const (
	// ComponentFlux is the Flux operator chart.
	ComponentFlux Component = "flux-operator"
	// ComponentKRO is the KRO chart.
	ComponentKRO Component = "kro"
	// ComponentOCM is the OCM controller chart.
	ComponentOCM Component = "ocm-controller"
	// ComponentOperator is the platform-mesh operator chart.
	ComponentOperator Component = "platform-mesh-operator"
	// ComponentKeycloak is the Bitnami Keycloak chart.
	ComponentKeycloak Component = "keycloak"
)

const (
	// rangeReleased matches the highest released version, excluding
	// prereleases per semver range semantics.
	rangeReleased = "*"
	// rangePrerelease matches the highest version including prereleases.
	rangePrerelease = ">0.0.0-0"
)

var (
	// ErrUnknownComponent is returned for components without a pinned
	// version.
	ErrUnknownComponent = errors.New("unknown component")
	// ErrNoVersionAdmitted is returned when no candidate version passes the
	// channel filter.
	ErrNoVersionAdmitted = errors.New("no version admitted by channel")
)

// pinned holds the stable-channel chart versions, bumped together as a
// tested set.
var pinned = map[Component]string{ //nolint:gochecknoglobals // static version table
	ComponentFlux:     "0.19.0",
	ComponentKRO:      "0.3.0",
	ComponentOCM:      "0.2.3",
	ComponentOperator: "0.1.0",
	ComponentKeycloak: "24.4.11",
}

// Selector describes how a chart version is chosen. When Resolve is false,
// Version is an exact version. When Resolve is true, Version is a semver
// range and the caller picks a concrete version from the registry's tags
// via Highest.
type Selector struct {
	Version string
	Resolve bool
}

// Resolver selects chart versions according to the configured channel.
// When cached is set, the pinned versions are used on every channel so no
// registry lookup is needed.
type Resolver struct {
	channel v1alpha1.Channel
	cached  bool
}

// NewResolver constructs a Resolver for the given channel.
func NewResolver(channel v1alpha1.Channel, cached bool) *Resolver {
	return &Resolver{channel: channel, cached: cached}
}

// Selector returns the version selector for the component.
func (r *Resolver) Selector(component Component) (Selector, error) {
	pinnedVersion, ok := pinned[component]
	if !ok {
		return Selector{}, fmt.Errorf("%w: %s", ErrUnknownComponent, component)
	}

	if r.cached || r.channel == v1alpha1.ChannelStable || r.channel == "" {
		if _, err := semver.NewVersion(pinnedVersion); err != nil {
			return Selector{}, fmt.Errorf("pinned version %q for %s: %w", pinnedVersion, component, err)
		}

		return Selector{Version: pinnedVersion}, nil
	}

	if r.channel == v1alpha1.ChannelPrerelease {
		return Selector{Version: rangePrerelease, Resolve: true}, nil
	}

	return Selector{Version: rangeReleased, Resolve: true}, nil
}

// Admits reports whether the channel accepts the given version string.
// Invalid semvers are rejected on every channel.
func (r *Resolver) Admits(version string) bool {
	parsed, err := semver.NewVersion(version)
	if err != nil {
		return false
	}

	if parsed.Prerelease() != "" {
		return r.channel == v1alpha1.ChannelPrerelease && !r.cached
	}

	return true
}

// Highest returns the highest candidate version the channel admits, using
// semver ordering. Candidates the channel rejects are skipped.
func (r *Resolver) Highest(candidates []string) (string, error) {
	var highest *semver.Version

	for _, candidate := range candidates {
		if !r.Admits(candidate) {
			continue
		}

		parsed, err := semver.NewVersion(candidate)
		if err != nil {
			continue
		}

		if highest == nil || parsed.GreaterThan(highest) {
			highest = parsed
		}
	}

	if highest == nil {
		return "", fmt.Errorf("%w: %s", ErrNoVersionAdmitted, r.channel)
	}

	return highest.Original(), nil
}
