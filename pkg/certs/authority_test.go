package certs_test

import (
	"crypto/x509"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platform-mesh/bootstrap/pkg/certs"
)

func TestEnsureCACreatesMaterial(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	authority, err := certs.EnsureCA(dir)
	require.NoError(t, err)
	require.NotNil(t, authority)

	assert.FileExists(t, filepath.Join(dir, certs.CAFileName))
	assert.FileExists(t, filepath.Join(dir, certs.CAKeyFileName))

	keyInfo, err := os.Stat(filepath.Join(dir, certs.CAKeyFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), keyInfo.Mode().Perm())
}

func TestEnsureCAIsIdempotent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	first, err := certs.EnsureCA(dir)
	require.NoError(t, err)

	second, err := certs.EnsureCA(dir)
	require.NoError(t, err)

	// The same CA must be reused so issued certificates stay trusted.
	assert.Equal(t, first.IssuedAt(), second.IssuedAt())
}

func TestIssueServerCertSignsRequestedDomains(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	domains := []string{"portal.dev.local", "*.portal.dev.local", "localhost"}

	authority, err := certs.EnsureCA(dir)
	require.NoError(t, err)

	require.NoError(t, authority.IssueServerCert(dir, domains))

	cert, err := certs.LoadServerCert(dir)
	require.NoError(t, err)

	assert.NoError(t, cert.VerifyHostname("portal.dev.local"))
	assert.NoError(t, cert.VerifyHostname("keycloak.portal.dev.local"))
	assert.Error(t, cert.VerifyHostname("example.com"))
}

func TestIssueServerCertChainsToCA(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	authority, err := certs.EnsureCA(dir)
	require.NoError(t, err)

	require.NoError(t, authority.IssueServerCert(dir, []string{"portal.dev.local"}))

	caPEM, err := authority.CertPEM()
	require.NoError(t, err)

	pool := x509.NewCertPool()
	require.True(t, pool.AppendCertsFromPEM(caPEM))

	cert, err := certs.LoadServerCert(dir)
	require.NoError(t, err)

	_, err = cert.Verify(x509.VerifyOptions{
		Roots:   pool,
		DNSName: "portal.dev.local",
	})
	require.NoError(t, err)
}

func TestIssueServerCertReusesValidCertificate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	domains := []string{"portal.dev.local"}

	authority, err := certs.EnsureCA(dir)
	require.NoError(t, err)

	require.NoError(t, authority.IssueServerCert(dir, domains))

	first, err := certs.LoadServerCert(dir)
	require.NoError(t, err)

	require.NoError(t, authority.IssueServerCert(dir, domains))

	second, err := certs.LoadServerCert(dir)
	require.NoError(t, err)

	assert.Equal(t, first.SerialNumber, second.SerialNumber)
}

func TestIssueServerCertRegeneratesForNewDomains(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	authority, err := certs.EnsureCA(dir)
	require.NoError(t, err)

	require.NoError(t, authority.IssueServerCert(dir, []string{"portal.dev.local"}))

	first, err := certs.LoadServerCert(dir)
	require.NoError(t, err)

	require.NoError(t, authority.IssueServerCert(dir, []string{"keycloak.dev.local"}))

	second, err := certs.LoadServerCert(dir)
	require.NoError(t, err)

	assert.NotEqual(t, first.SerialNumber, second.SerialNumber)
	assert.NoError(t, second.VerifyHostname("keycloak.dev.local"))
}

func TestLoadServerCertFailsWithoutIssuedCert(t *testing.T) {
	t.Parallel()

	_, err := certs.LoadServerCert(t.TempDir())

	require.Error(t, err)
}
