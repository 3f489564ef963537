package v1alpha1

import metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

const (
	// Group is the API group for platform-mesh bootstrap configurations.
	Group = "bootstrap.platform-mesh.io"
	// Version is the API version for platform-mesh bootstrap configurations.
	Version = "v1alpha1"
	// Kind is the kind for bootstrap configurations.
	Kind = "Bootstrap"
	// APIVersion is the full API version string.
	APIVersion = Group + "/" + Version
)

// Bootstrap represents a local platform-mesh environment configuration,
// including API metadata and the desired state of the environment.
type Bootstrap struct {
	metav1.TypeMeta `json:",inline" mapstructure:",squash"`

	Spec Spec `json:"spec,omitzero" mapstructure:"spec,omitempty"`
}

// Spec defines the desired state of a local platform-mesh environment.
type Spec struct {
	Cluster     ClusterSpec `json:"cluster,omitzero"`
	Certs       CertsSpec   `json:"certs,omitzero"`
	Channel     Channel     `json:"channel,omitzero"`
	ExampleData bool        `json:"exampleData,omitzero"`
	Cached      bool        `json:"cached,omitzero"`
	// WaitTimeout bounds every install-and-wait step. Overridable via the
	// KUBECTL_WAIT_TIMEOUT environment variable.
	WaitTimeout metav1.Duration `json:"waitTimeout,omitzero"`
}

// ClusterSpec defines which local cluster backs the environment.
type ClusterSpec struct {
	// Name is the cluster name. A pre-existing kind cluster with this name
	// is reused instead of creating a new one.
	Name string `default:"platform-mesh" json:"name,omitzero"`
	// Distribution selects the local cluster tooling (Kind or K3d).
	// Left empty, the distribution is auto-detected from running clusters.
	Distribution Distribution `json:"distribution,omitzero"`
	// Kubeconfig is the path to the kubeconfig file updated by cluster
	// creation.
	Kubeconfig string `default:"~/.kube/config" json:"kubeconfig,omitzero"`
	// Context is the kubeconfig context to target. Derived from the
	// distribution and cluster name when empty.
	Context string `json:"context,omitzero"`
}

// CertsSpec defines where locally-trusted TLS material is generated.
type CertsSpec struct {
	// Directory receives the CA and server certificate files.
	Directory string `default:".secret/certs" json:"directory,omitzero"`
	// Domains are the DNS names placed in the server certificate.
	Domains []string `json:"domains,omitzero"`
}
