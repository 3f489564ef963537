package v1alpha1

import (
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// Defaults applied by NewBootstrap.
const (
	// DefaultClusterName is the cluster name the bootstrap creates or reuses.
	DefaultClusterName = "platform-mesh"
	// DefaultKubeconfig is the kubeconfig path updated by cluster creation.
	DefaultKubeconfig = "~/.kube/config"
	// DefaultCertsDirectory receives the generated CA and server certificates.
	DefaultCertsDirectory = ".secret/certs"
	// DefaultWaitTimeout bounds each install-and-wait step.
	DefaultWaitTimeout = 5 * time.Minute
)

// DefaultCertDomains returns the DNS names placed in the generated server
// certificate.
func DefaultCertDomains() []string {
	return []string{
		"portal.dev.local",
		"*.portal.dev.local",
		"keycloak.dev.local",
		"localhost",
	}
}

// NewBootstrap creates a Bootstrap configuration populated with defaults.
func NewBootstrap(opts ...Option) *Bootstrap {
	bootstrap := &Bootstrap{
		TypeMeta: metav1.TypeMeta{
			Kind:       Kind,
			APIVersion: APIVersion,
		},
		Spec: Spec{
			Cluster: ClusterSpec{
				Name:       DefaultClusterName,
				Kubeconfig: DefaultKubeconfig,
			},
			Certs: CertsSpec{
				Directory: DefaultCertsDirectory,
				Domains:   DefaultCertDomains(),
			},
			Channel:     ChannelStable,
			WaitTimeout: metav1.Duration{Duration: DefaultWaitTimeout},
		},
	}

	for _, opt := range opts {
		opt(bootstrap)
	}

	return bootstrap
}

// Option mutates a Bootstrap during construction.
type Option func(*Bootstrap)

// WithClusterName sets the cluster name.
func WithClusterName(name string) Option {
	return func(b *Bootstrap) {
		b.Spec.Cluster.Name = name
	}
}

// WithDistribution sets the cluster distribution.
func WithDistribution(distribution Distribution) Option {
	return func(b *Bootstrap) {
		b.Spec.Cluster.Distribution = distribution
	}
}

// WithChannel sets the release channel.
func WithChannel(channel Channel) Option {
	return func(b *Bootstrap) {
		b.Spec.Channel = channel
	}
}

// WithWaitTimeout sets the per-step readiness timeout.
func WithWaitTimeout(timeout time.Duration) Option {
	return func(b *Bootstrap) {
		b.Spec.WaitTimeout = metav1.Duration{Duration: timeout}
	}
}

// WithExampleData toggles example data installation.
func WithExampleData(enabled bool) Option {
	return func(b *Bootstrap) {
		b.Spec.ExampleData = enabled
	}
}
