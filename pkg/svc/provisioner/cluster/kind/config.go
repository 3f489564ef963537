package kindprovisioner

import (
	"sigs.k8s.io/kind/pkg/apis/config/v1alpha4"
)

const ingressReadyPatch = `kind: InitConfiguration
nodeRegistration:
  kubeletExtraArgs:
    node-labels: "ingress-ready=true"
`

// DefaultClusterConfig returns a single-node kind cluster config with host
// ports 80 and 443 mapped onto the control plane, so the in-cluster ingress
// gateway is reachable on localhost.
func DefaultClusterConfig(name string) *v1alpha4.Cluster {
	return &v1alpha4.Cluster{
		TypeMeta: v1alpha4.TypeMeta{
			Kind:       "Cluster",
			APIVersion: "kind.x-k8s.io/v1alpha4",
		},
		Name: name,
		Nodes: []v1alpha4.Node{
			{
				Role:                 v1alpha4.ControlPlaneRole,
				KubeadmConfigPatches: []string{ingressReadyPatch},
				ExtraPortMappings: []v1alpha4.PortMapping{
					{
						ContainerPort: 80,
						HostPort:      80,
						Protocol:      v1alpha4.PortMappingProtocolTCP,
					},
					{
						ContainerPort: 443,
						HostPort:      443,
						Protocol:      v1alpha4.PortMappingProtocolTCP,
					},
				},
			},
		},
	}
}
