// Package readiness provides Kubernetes resource readiness polling utilities.
//
// This package offers reusable utilities for waiting until Kubernetes
// resources become ready. It supports deployments, statefulsets, nodes, CRDs,
// the API server, and Flux objects, and provides a generic polling mechanism
// that can be extended.
//
// Key features:
//   - Generic polling mechanism (PollForReadiness)
//   - Deployment readiness polling (WaitForDeploymentReady)
//   - StatefulSet readiness polling (WaitForStatefulSetReady)
//   - Node readiness polling (WaitForNodeReady)
//   - CRD establishment polling (WaitForCRDEstablished)
//   - API server readiness polling (WaitForAPIServerReady)
//   - Multi-resource coordination (WaitForMultipleResources)
package readiness
