package helm

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockInterface is a mock implementation of the Interface for testing.
type MockInterface struct {
	mock.Mock
}

// NewMockInterface creates a new MockInterface instance.
func NewMockInterface() *MockInterface {
	return &MockInterface{}
}

var _ Interface = (*MockInterface)(nil)

// InstallOrUpgradeChart mocks installing or upgrading a chart.
func (m *MockInterface) InstallOrUpgradeChart(
	ctx context.Context,
	spec *ChartSpec,
) (*ReleaseInfo, error) {
	args := m.Called(ctx, spec)

	result, ok := args.Get(0).(*ReleaseInfo)
	if !ok {
		return nil, args.Error(1) //nolint:wrapcheck // Mock function, wrapping not needed
	}

	return result, args.Error(1) //nolint:wrapcheck // Mock function, wrapping not needed
}

// UninstallRelease mocks uninstalling a release.
func (m *MockInterface) UninstallRelease(ctx context.Context, releaseName, namespace string) error {
	args := m.Called(ctx, releaseName, namespace)

	return args.Error(0) //nolint:wrapcheck // Mock function, wrapping not needed
}

// GetRelease mocks fetching release metadata.
func (m *MockInterface) GetRelease(
	ctx context.Context,
	releaseName, namespace string,
) (*ReleaseInfo, error) {
	args := m.Called(ctx, releaseName, namespace)

	result, ok := args.Get(0).(*ReleaseInfo)
	if !ok {
		return nil, args.Error(1) //nolint:wrapcheck // Mock function, wrapping not needed
	}

	return result, args.Error(1) //nolint:wrapcheck // Mock function, wrapping not needed
}

// ChartVersions mocks listing OCI chart version tags.
func (m *MockInterface) ChartVersions(ctx context.Context, chartRef string) ([]string, error) {
	args := m.Called(ctx, chartRef)

	result, ok := args.Get(0).([]string)
	if !ok {
		return nil, args.Error(1) //nolint:wrapcheck // Mock function, wrapping not needed
	}

	return result, args.Error(1) //nolint:wrapcheck // Mock function, wrapping not needed
}

// AddRepository mocks registering a Helm repository.
func (m *MockInterface) AddRepository(ctx context.Context, entry *RepositoryEntry) error {
	args := m.Called(ctx, entry)

	return args.Error(0) //nolint:wrapcheck // Mock function, wrapping not needed
}
