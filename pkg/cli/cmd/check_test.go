package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/platform-mesh/bootstrap/pkg/svc/checker"
)

func TestReportCheckResults(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	reportCheckResults(&out, []checker.Result{
		{Name: "container engine", Detail: "podman"},
		{Name: "kubeconfig writable"},
		{Name: "cpu architecture", Hint: "use an amd64 or arm64 machine", Err: errUpTest},
	})

	output := out.String()
	assert.Contains(t, output, "✔ container engine: podman")
	assert.Contains(t, output, "✔ kubeconfig writable")
	assert.Contains(t, output, "✗ cpu architecture: boom")
	assert.Contains(t, output, "ℹ use an amd64 or arm64 machine")
}
