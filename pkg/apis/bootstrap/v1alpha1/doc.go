// Package v1alpha1 defines the Bootstrap configuration API for the
// platform-mesh bootstrap CLI.
//
// The Bootstrap kind describes a local development environment: which
// cluster distribution backs it, which release channel the platform
// add-ons are installed from, and where generated TLS material lives.
package v1alpha1
