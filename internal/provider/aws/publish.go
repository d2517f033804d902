package aws

import (
	"context"
	"fmt"
	"path"
	"slices"
	"sort"

	"github.com/emergingrobotics/vpcgen/internal/config"
	"github.com/emergingrobotics/vpcgen/internal/log"
	"github.com/emergingrobotics/vpcgen/internal/topology"
)

// OutputParameters lays the outputs out as SSM parameter names under prefix:
// <prefix>/network_id, <prefix>/public_subnets/<key>/subnet_id and so on.
func OutputParameters(prefix string, result topology.Result) map[string]string {
	parameters := map[string]string{
		path.Join(prefix, "network_id"): result.NetworkID,
	}
	for partition, subnets := range map[string]map[string]topology.SubnetOutput{
		"public_subnets":  result.PublicSubnets,
		"private_subnets": result.PrivateSubnets,
	} {
		for key, subnet := range subnets {
			parameters[path.Join(prefix, partition, key, "subnet_id")] = subnet.SubnetID
			if subnet.AvailabilityZone != "" {
				parameters[path.Join(prefix, partition, key, "availability_zone")] = subnet.AvailabilityZone
			}
		}
	}
	return parameters
}

func (p *Provider) PublishOutputs(context context.Context, prefix string, result topology.Result, state *config.State) error {
	parameters := OutputParameters(prefix, result)
	names := make([]string, 0, len(parameters))
	for name := range parameters {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := p.SSM.PutParameter(context, name, parameters[name]); err != nil {
			return fmt.Errorf("failed to publish %s: %w", name, err)
		}
		if !slices.Contains(state.PublishedParameters, name) {
			state.PublishedParameters = append(state.PublishedParameters, name)
		}
		log.Debug("Output published", "parameter", name, "value", parameters[name])
	}
	return nil
}
