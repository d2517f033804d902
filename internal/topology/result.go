package topology

// Identifiers maps resource addresses to the IDs a provisioner assigned.
type Identifiers map[string]string

type SubnetOutput struct {
	SubnetID         string `json:"subnet_id" yaml:"subnet_id"`
	AvailabilityZone string `json:"availability_zone" yaml:"availability_zone"`
}

type Result struct {
	NetworkID      string                  `json:"network_id" yaml:"network_id"`
	PublicSubnets  map[string]SubnetOutput `json:"public_subnets" yaml:"public_subnets"`
	PrivateSubnets map[string]SubnetOutput `json:"private_subnets" yaml:"private_subnets"`
}

// Result projects the topology onto its outputs. Resources missing from ids
// project with an empty ID.
func (t *Topology) Result(ids Identifiers) Result {
	result := Result{
		NetworkID:      ids[NetworkAddress],
		PublicSubnets:  make(map[string]SubnetOutput),
		PrivateSubnets: make(map[string]SubnetOutput),
	}
	for key, subnet := range t.Subnets {
		output := SubnetOutput{
			SubnetID:         ids[SubnetAddress(key)],
			AvailabilityZone: subnet.AvailabilityZone,
		}
		if subnet.IsPublic {
			result.PublicSubnets[key] = output
		} else {
			result.PrivateSubnets[key] = output
		}
	}
	return result
}

// RouteID names a route by its table and destination, since routes carry no
// identifier of their own.
func RouteID(routeTableID string, destination string) string {
	return routeTableID + "_" + destination
}
