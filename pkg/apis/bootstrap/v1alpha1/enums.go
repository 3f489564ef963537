package v1alpha1

import (
	"fmt"
	"slices"
	"strings"
)

// --- Distribution ---

// Distribution selects the local cluster tooling backing the environment.
type Distribution string

const (
	// DistributionKind provisions clusters with kind (Kubernetes in Docker).
	DistributionKind Distribution = "Kind"
	// DistributionK3d provisions clusters with k3d (K3s in Docker).
	DistributionK3d Distribution = "K3d"
)

// ValidDistributions returns all supported distributions.
func ValidDistributions() []Distribution {
	return []Distribution{DistributionKind, DistributionK3d}
}

// Set for Distribution (pflag.Value interface).
func (d *Distribution) Set(value string) error {
	for _, dist := range ValidDistributions() {
		if strings.EqualFold(value, string(dist)) {
			*d = dist

			return nil
		}
	}

	return fmt.Errorf(
		"%w: %s (valid options: %s, %s)",
		ErrInvalidDistribution,
		value,
		DistributionKind,
		DistributionK3d,
	)
}

// IsValid checks if the distribution value is supported.
func (d *Distribution) IsValid() bool {
	return slices.Contains(ValidDistributions(), *d)
}

// String returns the string representation of the Distribution.
func (d *Distribution) String() string {
	return string(*d)
}

// Type returns the type of the Distribution.
func (d *Distribution) Type() string {
	return "Distribution"
}

// UnmarshalText decodes a Distribution from config files and environment
// variables, case-insensitively.
func (d *Distribution) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*d = ""

		return nil
	}

	return d.Set(string(text))
}

// ContextName returns the kubeconfig context name for a given cluster name.
// Each distribution has its own context naming convention:
//   - Kind: kind-<name>
//   - K3d: k3d-<name>
//
// Returns empty string if name is empty.
func (d Distribution) ContextName(clusterName string) string {
	if clusterName == "" {
		return ""
	}

	switch d {
	case DistributionKind:
		return "kind-" + clusterName
	case DistributionK3d:
		return "k3d-" + clusterName
	default:
		return ""
	}
}

// --- Channel ---

// Channel selects which add-on chart versions the bootstrap installs.
type Channel string

const (
	// ChannelStable installs the pinned, known-good chart versions.
	ChannelStable Channel = "Stable"
	// ChannelLatest installs the newest stable chart versions.
	ChannelLatest Channel = "Latest"
	// ChannelPrerelease installs the newest versions including prereleases.
	ChannelPrerelease Channel = "Prerelease"
)

// ValidChannels returns all supported release channels.
func ValidChannels() []Channel {
	return []Channel{ChannelStable, ChannelLatest, ChannelPrerelease}
}

// Set for Channel (pflag.Value interface).
func (c *Channel) Set(value string) error {
	for _, channel := range ValidChannels() {
		if strings.EqualFold(value, string(channel)) {
			*c = channel

			return nil
		}
	}

	return fmt.Errorf(
		"%w: %s (valid options: %s, %s, %s)",
		ErrInvalidChannel,
		value,
		ChannelStable,
		ChannelLatest,
		ChannelPrerelease,
	)
}

// UnmarshalText decodes a Channel from config files and environment
// variables, case-insensitively.
func (c *Channel) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*c = ""

		return nil
	}

	return c.Set(string(text))
}

// IsValid checks if the channel value is supported.
func (c *Channel) IsValid() bool {
	return slices.Contains(ValidChannels(), *c)
}

// String returns the string representation of the Channel.
func (c *Channel) String() string {
	return string(*c)
}

// Type returns the type of the Channel.
func (c *Channel) Type() string {
	return "Channel"
}
