package config

import (
	"github.com/platform-mesh/bootstrap/pkg/apis/bootstrap/v1alpha1"
)

// FieldSelector binds one Bootstrap field to a CLI flag.
type FieldSelector struct {
	// Selector returns a pointer to the field inside the config.
	Selector func(*v1alpha1.Bootstrap) any
	// FlagName is the CLI flag bound to the field.
	FlagName string
	// Description is the flag help text.
	Description string
}

// ClusterNameFieldSelector binds the cluster name.
func ClusterNameFieldSelector() FieldSelector {
	return FieldSelector{
		Selector:    func(b *v1alpha1.Bootstrap) any { return &b.Spec.Cluster.Name },
		FlagName:    "name",
		Description: "Name of the cluster to create or reuse",
	}
}

// DistributionFieldSelector binds the cluster distribution.
func DistributionFieldSelector() FieldSelector {
	return FieldSelector{
		Selector:    func(b *v1alpha1.Bootstrap) any { return &b.Spec.Cluster.Distribution },
		FlagName:    "distribution",
		Description: "Cluster distribution to use (Kind or K3d, auto-detected when empty)",
	}
}

// KubeconfigFieldSelector binds the kubeconfig path.
func KubeconfigFieldSelector() FieldSelector {
	return FieldSelector{
		Selector:    func(b *v1alpha1.Bootstrap) any { return &b.Spec.Cluster.Kubeconfig },
		FlagName:    "kubeconfig",
		Description: "Path to the kubeconfig file",
	}
}

// ContextFieldSelector binds the kubeconfig context.
func ContextFieldSelector() FieldSelector {
	return FieldSelector{
		Selector:    func(b *v1alpha1.Bootstrap) any { return &b.Spec.Cluster.Context },
		FlagName:    "context",
		Description: "Kubeconfig context to target (derived from the cluster when empty)",
	}
}

// CertsDirectoryFieldSelector binds the certificate output directory.
func CertsDirectoryFieldSelector() FieldSelector {
	return FieldSelector{
		Selector:    func(b *v1alpha1.Bootstrap) any { return &b.Spec.Certs.Directory },
		FlagName:    "certs-dir",
		Description: "Directory for the generated CA and server certificates",
	}
}

// WaitTimeoutFieldSelector binds the per-step readiness timeout.
func WaitTimeoutFieldSelector() FieldSelector {
	return FieldSelector{
		Selector:    func(b *v1alpha1.Bootstrap) any { return &b.Spec.WaitTimeout },
		FlagName:    "timeout",
		Description: "Timeout for each install-and-wait step",
	}
}

// CachedFieldSelector binds the cached toggle.
func CachedFieldSelector() FieldSelector {
	return FieldSelector{
		Selector:    func(b *v1alpha1.Bootstrap) any { return &b.Spec.Cached },
		FlagName:    "cached",
		Description: "Use cached chart versions and repository indexes, skipping registry lookups",
	}
}

// ExampleDataFieldSelector binds the example data toggle.
func ExampleDataFieldSelector() FieldSelector {
	return FieldSelector{
		Selector:    func(b *v1alpha1.Bootstrap) any { return &b.Spec.ExampleData },
		FlagName:    "example-data",
		Description: "Install the example content set after the platform add-ons",
	}
}

// DefaultFieldSelectors returns the field selectors shared by the bootstrap
// commands.
func DefaultFieldSelectors() []FieldSelector {
	return []FieldSelector{
		ClusterNameFieldSelector(),
		DistributionFieldSelector(),
		KubeconfigFieldSelector(),
		ContextFieldSelector(),
		CertsDirectoryFieldSelector(),
		WaitTimeoutFieldSelector(),
		CachedFieldSelector(),
		ExampleDataFieldSelector(),
	}
}
