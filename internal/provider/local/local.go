// Package local realizes topologies without a cloud account by assigning
// synthetic, AWS-shaped identifiers.
package local

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/emergingrobotics/vpcgen/internal/config"
	"github.com/emergingrobotics/vpcgen/internal/log"
	"github.com/emergingrobotics/vpcgen/internal/topology"
)

var idPrefixes = map[topology.Kind]string{
	topology.KindNetwork:               "vpc",
	topology.KindSubnet:                "subnet",
	topology.KindInternetGateway:       "igw",
	topology.KindRouteTable:            "rtb",
	topology.KindRouteTableAssociation: "rtbassoc",
}

type Provider struct {
	NewID func(prefix string) string
	Now   func() time.Time
}

func New() *Provider {
	return &Provider{NewID: RandomID, Now: time.Now}
}

func (p *Provider) Name() string {
	return "local"
}

// RandomID returns prefix-<17 hex characters>, the shape EC2 uses for IDs.
func RandomID(prefix string) string {
	return prefix + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:17]
}

func (p *Provider) Apply(context context.Context, _ *config.Config, network *topology.Topology, state *config.State) error {
	for _, resource := range network.Resources() {
		if err := context.Err(); err != nil {
			return fmt.Errorf("apply interrupted before %s: %w", resource.Address, err)
		}
		if _, exists := state.Resources[resource.Address]; exists {
			continue
		}

		id, err := p.identify(resource, state)
		if err != nil {
			return err
		}
		state.Record(resource.Address, id)
		log.Debug("Resource created", "provider", p.Name(), "address", resource.Address, "id", id)
	}
	state.MarkApplied(p.Now())
	return nil
}

func (p *Provider) identify(resource topology.Resource, state *config.State) (string, error) {
	if resource.Kind == topology.KindRoute {
		routeTableID, exists := state.Resources[topology.RouteTableAddress]
		if !exists {
			return "", fmt.Errorf("route %s applied before its route table", resource.Address)
		}
		return topology.RouteID(routeTableID, resource.Attributes["destination"]), nil
	}
	prefix, exists := idPrefixes[resource.Kind]
	if !exists {
		return "", fmt.Errorf("unsupported resource kind %q at %s", resource.Kind, resource.Address)
	}
	return p.NewID(prefix), nil
}

func (p *Provider) Destroy(_ context.Context, state *config.State) error {
	for address, id := range state.Resources {
		log.Debug("Resource deleted", "provider", p.Name(), "address", address, "id", id)
	}
	state.Resources = make(topology.Identifiers)
	return nil
}
