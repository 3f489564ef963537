// Package webhookinstaller pushes the locally generated TLS material into
// the cluster: a TLS Secret consumed by the operator webhooks and the
// ingress, and a ConfigMap distributing the root CA for trust.
package webhookinstaller

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/platform-mesh/bootstrap/pkg/certs"
)

const (
	// Namespace is where the TLS material is published.
	Namespace = "platform-mesh-system"
	// TLSSecretName is the kubernetes.io/tls Secret holding the server
	// certificate and key.
	TLSSecretName = "platform-mesh-tls"
	// CAConfigMapName is the ConfigMap distributing the root CA.
	CAConfigMapName = "platform-mesh-ca"

	// caConfigMapKey is the ConfigMap key holding the CA PEM.
	caConfigMapKey = "ca.crt"
)

// Installer publishes certificate material from a local directory.
type Installer struct {
	clientset kubernetes.Interface
	certsDir  string
}

// NewInstaller creates a webhook certificate installer reading PEM material
// from certsDir.
func NewInstaller(clientset kubernetes.Interface, certsDir string) *Installer {
	return &Installer{
		clientset: clientset,
		certsDir:  certsDir,
	}
}

// Install creates or updates the TLS Secret and CA ConfigMap from the
// certificate files on disk.
func (i *Installer) Install(ctx context.Context) error {
	certPEM, err := os.ReadFile(filepath.Join(i.certsDir, certs.CertFileName))
	if err != nil {
		return fmt.Errorf("read server certificate: %w", err)
	}

	keyPEM, err := os.ReadFile(filepath.Join(i.certsDir, certs.KeyFileName))
	if err != nil {
		return fmt.Errorf("read server key: %w", err)
	}

	caPEM, err := os.ReadFile(filepath.Join(i.certsDir, certs.CAFileName))
	if err != nil {
		return fmt.Errorf("read root CA: %w", err)
	}

	if err := i.ensureNamespace(ctx); err != nil {
		return err
	}

	if err := i.applySecret(ctx, certPEM, keyPEM); err != nil {
		return err
	}

	return i.applyConfigMap(ctx, caPEM)
}

// Uninstall removes the TLS Secret and CA ConfigMap. Missing objects are
// not an error.
func (i *Installer) Uninstall(ctx context.Context) error {
	err := i.clientset.CoreV1().Secrets(Namespace).
		Delete(ctx, TLSSecretName, metav1.DeleteOptions{})
	if err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("delete secret %s: %w", TLSSecretName, err)
	}

	err = i.clientset.CoreV1().ConfigMaps(Namespace).
		Delete(ctx, CAConfigMapName, metav1.DeleteOptions{})
	if err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("delete configmap %s: %w", CAConfigMapName, err)
	}

	return nil
}

func (i *Installer) ensureNamespace(ctx context.Context) error {
	namespace := &corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{Name: Namespace},
	}

	_, err := i.clientset.CoreV1().Namespaces().Create(ctx, namespace, metav1.CreateOptions{})
	if err != nil && !apierrors.IsAlreadyExists(err) {
		return fmt.Errorf("ensure namespace %s: %w", Namespace, err)
	}

	return nil
}

func (i *Installer) applySecret(ctx context.Context, certPEM, keyPEM []byte) error {
	secret := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      TLSSecretName,
			Namespace: Namespace,
		},
		Type: corev1.SecretTypeTLS,
		Data: map[string][]byte{
			corev1.TLSCertKey:       certPEM,
			corev1.TLSPrivateKeyKey: keyPEM,
		},
	}

	_, err := i.clientset.CoreV1().Secrets(Namespace).Create(ctx, secret, metav1.CreateOptions{})
	if apierrors.IsAlreadyExists(err) {
		_, err = i.clientset.CoreV1().Secrets(Namespace).Update(ctx, secret, metav1.UpdateOptions{})
	}

	if err != nil {
		return fmt.Errorf("apply secret %s: %w", TLSSecretName, err)
	}

	return nil
}

func (i *Installer) applyConfigMap(ctx context.Context, caPEM []byte) error {
	configMap := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name:      CAConfigMapName,
			Namespace: Namespace,
		},
		Data: map[string]string{
			caConfigMapKey: string(caPEM),
		},
	}

	_, err := i.clientset.CoreV1().ConfigMaps(Namespace).Create(ctx, configMap, metav1.CreateOptions{})
	if apierrors.IsAlreadyExists(err) {
		_, err = i.clientset.CoreV1().ConfigMaps(Namespace).Update(ctx, configMap, metav1.UpdateOptions{})
	}

	if err != nil {
		return fmt.Errorf("apply configmap %s: %w", CAConfigMapName, err)
	}

	return nil
}
