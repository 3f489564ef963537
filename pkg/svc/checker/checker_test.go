package checker_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platform-mesh/bootstrap/pkg/svc/checker"
)

var errBoom = errors.New("boom")

func passingCheck(name string) checker.Check {
	return checker.Check{
		Name: name,
		Run:  func(_ context.Context) (string, error) { return "", nil },
	}
}

func failingCheck(name string) checker.Check {
	return checker.Check{
		Name: name,
		Run:  func(_ context.Context) (string, error) { return "", errBoom },
	}
}

func detailedCheck(name, detail string) checker.Check {
	return checker.Check{
		Name: name,
		Run:  func(_ context.Context) (string, error) { return detail, nil },
	}
}

func TestRunAllPassing(t *testing.T) {
	t.Parallel()

	runner := checker.NewRunner(passingCheck("one"), passingCheck("two"))

	results, err := runner.Run(context.Background())

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "one", results[0].Name)
	assert.Equal(t, "two", results[1].Name)
	assert.False(t, results[0].Failed())
	assert.False(t, results[1].Failed())
}

func TestRunReportsAllFailures(t *testing.T) {
	t.Parallel()

	runner := checker.NewRunner(failingCheck("one"), passingCheck("two"), failingCheck("three"))

	results, err := runner.Run(context.Background())

	require.ErrorIs(t, err, checker.ErrChecksFailed)
	assert.ErrorContains(t, err, "2 of 3 checks failed")
	require.Len(t, results, 3)
	assert.True(t, results[0].Failed())
	assert.False(t, results[1].Failed())
	assert.True(t, results[2].Failed())
	assert.ErrorIs(t, results[0].Err, errBoom)
}

func TestRunKeepsRegistrationOrder(t *testing.T) {
	t.Parallel()

	runner := checker.NewRunner(passingCheck("a"), failingCheck("b"), passingCheck("c"))

	results, err := runner.Run(context.Background())

	require.Error(t, err)

	names := make([]string, 0, len(results))
	for _, result := range results {
		names = append(names, result.Name)
	}

	assert.Equal(t, []string{"a", "b", "c"}, names)
}

func TestRunCarriesCheckDetail(t *testing.T) {
	t.Parallel()

	runner := checker.NewRunner(detailedCheck("container engine", "podman"), passingCheck("plain"))

	results, err := runner.Run(context.Background())

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "podman", results[0].Detail)
	assert.Empty(t, results[1].Detail)
}

func TestRunNoChecks(t *testing.T) {
	t.Parallel()

	results, err := checker.NewRunner().Run(context.Background())

	require.NoError(t, err)
	assert.Empty(t, results)
}
