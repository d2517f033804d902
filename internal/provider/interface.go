package provider

import (
	"context"

	"github.com/emergingrobotics/vpcgen/internal/config"
	"github.com/emergingrobotics/vpcgen/internal/topology"
)

// Provisioner realizes a generated topology and records every assigned ID in
// state as soon as it is known, so a failed Apply can still be destroyed.
type Provisioner interface {
	Name() string
	Apply(context context.Context, definition *config.Config, network *topology.Topology, state *config.State) error
	Destroy(context context.Context, state *config.State) error
}
