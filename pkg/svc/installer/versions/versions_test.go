package versions_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platform-mesh/bootstrap/pkg/apis/bootstrap/v1alpha1"
	"github.com/platform-mesh/bootstrap/pkg/svc/installer/versions"
)

func TestSelectorStableChannelPins(t *testing.T) {
	t.Parallel()

	resolver := versions.NewResolver(v1alpha1.ChannelStable, false)

	selector, err := resolver.Selector(versions.ComponentFlux)

	require.NoError(t, err)
	assert.False(t, selector.Resolve)
	assert.NotEmpty(t, selector.Version)
}

func TestSelectorLatestChannelResolves(t *testing.T) {
	t.Parallel()

	resolver := versions.NewResolver(v1alpha1.ChannelLatest, false)

	selector, err := resolver.Selector(versions.ComponentKRO)

	require.NoError(t, err)
	assert.True(t, selector.Resolve)
	assert.Equal(t, "*", selector.Version)
}

func TestSelectorPrereleaseChannelResolves(t *testing.T) {
	t.Parallel()

	resolver := versions.NewResolver(v1alpha1.ChannelPrerelease, false)

	selector, err := resolver.Selector(versions.ComponentOperator)

	require.NoError(t, err)
	assert.True(t, selector.Resolve)
	assert.Equal(t, ">0.0.0-0", selector.Version)
}

func TestSelectorCachedForcesPinned(t *testing.T) {
	t.Parallel()

	resolver := versions.NewResolver(v1alpha1.ChannelLatest, true)

	selector, err := resolver.Selector(versions.ComponentKeycloak)

	require.NoError(t, err)
	assert.False(t, selector.Resolve)
}

func TestSelectorUnknownComponent(t *testing.T) {
	t.Parallel()

	resolver := versions.NewResolver(v1alpha1.ChannelStable, false)

	_, err := resolver.Selector(versions.Component("nonexistent"))

	require.ErrorIs(t, err, versions.ErrUnknownComponent)
}

func TestAdmits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		channel v1alpha1.Channel
		version string
		want    bool
	}{
		{name: "stable admits release", channel: v1alpha1.ChannelStable, version: "1.2.3", want: true},
		{name: "stable rejects prerelease", channel: v1alpha1.ChannelStable, version: "1.2.3-rc.1", want: false},
		{name: "latest rejects prerelease", channel: v1alpha1.ChannelLatest, version: "2.0.0-beta.1", want: false},
		{name: "prerelease admits prerelease", channel: v1alpha1.ChannelPrerelease, version: "2.0.0-beta.1", want: true},
		{name: "prerelease admits release", channel: v1alpha1.ChannelPrerelease, version: "2.0.0", want: true},
		{name: "invalid semver rejected", channel: v1alpha1.ChannelPrerelease, version: "not-a-version", want: false},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			resolver := versions.NewResolver(testCase.channel, false)

			assert.Equal(t, testCase.want, resolver.Admits(testCase.version))
		})
	}
}

func TestHighest(t *testing.T) {
	t.Parallel()

	candidates := []string{"0.9.0", "1.0.0", "1.1.0-rc.1", "0.10.0"}

	latest := versions.NewResolver(v1alpha1.ChannelLatest, false)
	prerelease := versions.NewResolver(v1alpha1.ChannelPrerelease, false)

	version, err := latest.Highest(candidates)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", version)

	version, err = prerelease.Highest(candidates)
	require.NoError(t, err)
	assert.Equal(t, "1.1.0-rc.1", version)
}

func TestHighestNoneAdmitted(t *testing.T) {
	t.Parallel()

	latest := versions.NewResolver(v1alpha1.ChannelLatest, false)

	_, err := latest.Highest([]string{"1.0.0-rc.1", "garbage"})

	require.ErrorIs(t, err, versions.ErrNoVersionAdmitted)
}
