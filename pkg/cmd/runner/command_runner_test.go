package runner_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platform-mesh/bootstrap/pkg/cmd/runner"
)

func newEchoCommand() *cobra.Command {
	return &cobra.Command{
		Use: "echo",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				cmd.Println(arg)
			}

			return nil
		},
	}
}

func TestRunCapturesAndStreamsStdout(t *testing.T) {
	t.Parallel()

	var stream bytes.Buffer

	cmdRunner := runner.NewCobraCommandRunner(&stream, nil)

	result, err := cmdRunner.Run(context.Background(), newEchoCommand(), []string{"hello"})
	require.NoError(t, err)

	assert.Contains(t, result.Stdout, "hello")
	assert.Contains(t, stream.String(), "hello")
}

func TestRunReturnsWrappedCommandError(t *testing.T) {
	t.Parallel()

	failing := &cobra.Command{
		Use: "fail",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.Println("partial output")

			return assert.AnError
		},
	}

	var stream bytes.Buffer

	cmdRunner := runner.NewCobraCommandRunner(&stream, &stream)

	result, err := cmdRunner.Run(context.Background(), failing, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "command execution failed")
	assert.Contains(t, result.Stdout, "partial output")
}

func TestRunPassesContext(t *testing.T) {
	t.Parallel()

	var got context.Context

	probe := &cobra.Command{
		Use: "probe",
		RunE: func(cmd *cobra.Command, _ []string) error {
			got = cmd.Context()

			return nil
		},
	}

	type ctxKey struct{}

	ctx := context.WithValue(context.Background(), ctxKey{}, "value")

	cmdRunner := runner.NewCobraCommandRunner(&bytes.Buffer{}, &bytes.Buffer{})

	_, err := cmdRunner.Run(ctx, probe, nil)
	require.NoError(t, err)

	assert.Equal(t, "value", got.Value(ctxKey{}))
}
