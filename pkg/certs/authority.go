// Package certs generates locally-trusted TLS material for the bootstrap
// environment: a root CA plus a SAN server certificate for the platform
// ingress domains.
package certs

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"time"

	"github.com/platform-mesh/bootstrap/pkg/fsutil"
)

// Filenames written into the certificate directory.
const (
	// CAFileName is the root CA certificate file.
	CAFileName = "rootCA.pem"
	// CAKeyFileName is the root CA private key file.
	CAKeyFileName = "rootCA-key.pem"
	// CertFileName is the server certificate file.
	CertFileName = "tls.crt"
	// KeyFileName is the server private key file.
	KeyFileName = "tls.key"
)

const (
	caValidity = 10 * 365 * 24 * time.Hour
	// Leaf validity typical for locally-trusted development certificates.
	leafValidity = 825 * 24 * time.Hour
	// renewalWindow forces regeneration of material close to expiry.
	renewalWindow = 30 * 24 * time.Hour

	dirMode     = 0o750
	certMode    = 0o644
	privKeyMode = 0o600

	serialBits = 128
)

var (
	errCertNotYetIssued = errors.New("certificate has not been issued")
	errKeyTypeMismatch  = errors.New("private key is not an ECDSA key")
	errNoPEMData        = errors.New("no PEM data found")
)

// Authority is a local root CA able to issue server certificates.
type Authority struct {
	cert *x509.Certificate
	key  *ecdsa.PrivateKey
}

// EnsureCA loads the root CA from dir, creating a fresh one when no usable
// material exists. The operation is idempotent: a valid existing CA is
// reused so previously-issued certificates stay trusted.
func EnsureCA(dir string) (*Authority, error) {
	err := fsutil.EnsureDir(dir, dirMode)
	if err != nil {
		return nil, err
	}

	authority, err := loadCA(dir)
	if err == nil && time.Until(authority.cert.NotAfter) > renewalWindow {
		return authority, nil
	}

	return createCA(dir)
}

// IssuedAt returns the CA certificate's validity start.
func (a *Authority) IssuedAt() time.Time {
	return a.cert.NotBefore
}

// CertPEM returns the PEM-encoded CA certificate.
func (a *Authority) CertPEM() ([]byte, error) {
	return encodeCertPEM(a.cert.Raw)
}

// IssueServerCert issues (or reuses) a server certificate for the given DNS
// names, writing tls.crt and tls.key into dir. A previously-issued
// certificate is reused when it is signed by this CA, covers every domain,
// and is not close to expiry.
func (a *Authority) IssueServerCert(dir string, domains []string) error {
	if reusable := a.existingCertCovers(dir, domains); reusable {
		return nil
	}

	serial, err := randomSerial()
	if err != nil {
		return err
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("generate server key: %w", err)
	}

	template := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			Organization:       []string{"platform-mesh development certificate"},
			OrganizationalUnit: []string{"platform-mesh bootstrap"},
		},
		NotBefore:   time.Now().Add(-time.Hour),
		NotAfter:    time.Now().Add(leafValidity),
		KeyUsage:    x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		DNSNames:    domains,
	}

	certDER, err := x509.CreateCertificate(rand.Reader, template, a.cert, &key.PublicKey, a.key)
	if err != nil {
		return fmt.Errorf("sign server certificate: %w", err)
	}

	err = writeCertAndKey(
		filepath.Join(dir, CertFileName),
		filepath.Join(dir, KeyFileName),
		certDER,
		key,
	)
	if err != nil {
		return err
	}

	return nil
}

// LoadServerCert reads the issued server certificate from dir.
func LoadServerCert(dir string) (*x509.Certificate, error) {
	certPEM, err := os.ReadFile(filepath.Join(dir, CertFileName))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errCertNotYetIssued, err)
	}

	return parseCertPEM(certPEM)
}

// --- internals ---

func loadCA(dir string) (*Authority, error) {
	certPEM, err := os.ReadFile(filepath.Join(dir, CAFileName))
	if err != nil {
		return nil, fmt.Errorf("read CA certificate: %w", err)
	}

	keyPEM, err := os.ReadFile(filepath.Join(dir, CAKeyFileName))
	if err != nil {
		return nil, fmt.Errorf("read CA key: %w", err)
	}

	cert, err := parseCertPEM(certPEM)
	if err != nil {
		return nil, err
	}

	key, err := parseKeyPEM(keyPEM)
	if err != nil {
		return nil, err
	}

	return &Authority{cert: cert, key: key}, nil
}

func createCA(dir string) (*Authority, error) {
	serial, err := randomSerial()
	if err != nil {
		return nil, err
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate CA key: %w", err)
	}

	template := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			Organization:       []string{"platform-mesh development CA"},
			OrganizationalUnit: []string{"platform-mesh bootstrap"},
			CommonName:         "platform-mesh local development CA",
		},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(caValidity),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
		MaxPathLen:            0,
		MaxPathLenZero:        true,
	}

	certDER, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return nil, fmt.Errorf("self-sign CA certificate: %w", err)
	}

	err = writeCertAndKey(
		filepath.Join(dir, CAFileName),
		filepath.Join(dir, CAKeyFileName),
		certDER,
		key,
	)
	if err != nil {
		return nil, err
	}

	cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		return nil, fmt.Errorf("parse generated CA certificate: %w", err)
	}

	return &Authority{cert: cert, key: key}, nil
}

// existingCertCovers reports whether a previously-issued server certificate
// can be reused for the requested domains.
func (a *Authority) existingCertCovers(dir string, domains []string) bool {
	cert, err := LoadServerCert(dir)
	if err != nil {
		return false
	}

	if err := cert.CheckSignatureFrom(a.cert); err != nil {
		return false
	}

	if time.Until(cert.NotAfter) <= renewalWindow {
		return false
	}

	for _, domain := range domains {
		if err := cert.VerifyHostname(domain); err != nil {
			return false
		}
	}

	return true
}

func randomSerial() (*big.Int, error) {
	limit := new(big.Int).Lsh(big.NewInt(1), serialBits)

	serial, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return nil, fmt.Errorf("generate certificate serial: %w", err)
	}

	return serial, nil
}

func writeCertAndKey(certPath, keyPath string, certDER []byte, key *ecdsa.PrivateKey) error {
	certPEM, err := encodeCertPEM(certDER)
	if err != nil {
		return err
	}

	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return fmt.Errorf("marshal private key: %w", err)
	}

	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})

	err = os.WriteFile(certPath, certPEM, certMode)
	if err != nil {
		return fmt.Errorf("write certificate %s: %w", certPath, err)
	}

	err = os.WriteFile(keyPath, keyPEM, privKeyMode)
	if err != nil {
		return fmt.Errorf("write private key %s: %w", keyPath, err)
	}

	return nil
}

func encodeCertPEM(certDER []byte) ([]byte, error) {
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})
	if certPEM == nil {
		return nil, errors.New("encode certificate PEM")
	}

	return certPEM, nil
}

func parseCertPEM(certPEM []byte) (*x509.Certificate, error) {
	block, _ := pem.Decode(certPEM)
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, errNoPEMData
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse certificate: %w", err)
	}

	return cert, nil
}

func parseKeyPEM(keyPEM []byte) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return nil, errNoPEMData
	}

	key, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		parsed, pkcs8Err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if pkcs8Err != nil {
			return nil, fmt.Errorf("parse private key: %w", err)
		}

		ecKey, ok := parsed.(*ecdsa.PrivateKey)
		if !ok {
			return nil, errKeyTypeMismatch
		}

		return ecKey, nil
	}

	return key, nil
}
