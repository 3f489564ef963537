package cmd

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/platform-mesh/bootstrap/pkg/client/helm"
)

func TestStatusComponentsCoverAllAddOns(t *testing.T) {
	t.Parallel()

	names := make([]string, 0, len(statusComponents()))
	for _, component := range statusComponents() {
		names = append(names, component.name)
	}

	assert.Equal(t, []string{
		"flux-operator",
		"kro",
		"ocm-controller",
		"platform-mesh-operator",
		"keycloak",
	}, names)
}

func TestReportReleases(t *testing.T) {
	t.Parallel()

	helmClient := helm.NewMockInterface()

	helmClient.On("GetRelease", mock.Anything, "flux-operator", "flux-system").
		Return(&helm.ReleaseInfo{
			Name:     "flux-operator",
			Status:   "deployed",
			Chart:    "flux-operator-0.19.0",
			Revision: 1,
		}, nil)
	helmClient.On("GetRelease", mock.Anything, "kro", "kro-system").
		Return(nil, fmt.Errorf("%w: kro-system/kro", helm.ErrReleaseNotFound))
	helmClient.On("GetRelease", mock.Anything, "ocm-controller", "ocm-system").
		Return(nil, errUpTest)
	helmClient.On("GetRelease", mock.Anything, "platform-mesh-operator", "platform-mesh-system").
		Return(&helm.ReleaseInfo{Status: "deployed"}, nil)
	helmClient.On("GetRelease", mock.Anything, "keycloak", "platform-mesh-system").
		Return(&helm.ReleaseInfo{Status: "deployed"}, nil)

	var out bytes.Buffer

	reportReleases(context.Background(), &out, helmClient)

	output := out.String()
	assert.Contains(t, output, "✔ flux-operator: deployed (chart flux-operator-0.19.0, revision 1)")
	assert.Contains(t, output, "⚠ kro: not installed")
	assert.Contains(t, output, "✗ ocm-controller: boom")

	helmClient.AssertExpectations(t)
}
