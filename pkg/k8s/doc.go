// Package k8s provides Kubernetes client construction helpers shared by the
// bootstrap installers and readiness checks.
package k8s
