// Package topology derives the resource graph of a network (VPC) from a
// network address block and a set of subnet definitions.
package topology

import (
	"fmt"
	"net/netip"
	"sort"
)

const (
	NetworkAddress         = "network"
	InternetGatewayAddress = "internet_gateway"
	RouteTableAddress      = "route_table.public"
	DefaultRouteAddress    = "route.public_default"
)

var DefaultRouteDestination = netip.MustParsePrefix("0.0.0.0/0")

type NetworkConfig struct {
	AddressBlock string `json:"address_block" yaml:"address_block"`
	Name         string `json:"name,omitempty" yaml:"name,omitempty"`
}

type SubnetSpec struct {
	AddressBlock     string `json:"address_block" yaml:"address_block"`
	AvailabilityZone string `json:"availability_zone" yaml:"availability_zone"`
	IsPublic         bool   `json:"is_public,omitempty" yaml:"is_public,omitempty"`
}

type Network struct {
	Name         string
	AddressBlock netip.Prefix
}

type Subnet struct {
	Key              string
	AddressBlock     netip.Prefix
	AvailabilityZone string
	IsPublic         bool
}

type InternetGateway struct {
	Network string
}

type Route struct {
	Destination netip.Prefix
	Target      string
}

type RouteTable struct {
	Network string
	Routes  []Route
}

type RouteTableAssociation struct {
	SubnetKey  string
	Subnet     string
	RouteTable string
}

// PublicRouting groups the resources that exist only when at least one
// subnet is public. A nil *PublicRouting means none of them exist.
type PublicRouting struct {
	InternetGateway InternetGateway
	RouteTable      RouteTable
	Associations    []RouteTableAssociation
}

type Topology struct {
	Network  Network
	Subnets  map[string]Subnet
	Public   *PublicRouting
	warnings []string
}

func SubnetAddress(key string) string {
	return "subnet." + key
}

func AssociationAddress(key string) string {
	return "route_table_association." + key
}

// Generate validates every address block and derives the full topology.
// Any invalid block aborts the whole evaluation with *InvalidConfigError.
func Generate(network NetworkConfig, subnets map[string]SubnetSpec) (*Topology, error) {
	networkBlock, err := parseBlock("network.address_block", network.AddressBlock)
	if err != nil {
		return nil, err
	}

	keys := sortedKeys(subnets)
	blocks := make(map[string]netip.Prefix, len(subnets))
	for _, key := range keys {
		block, err := parseBlock(fmt.Sprintf("subnets.%s.address_block", key), subnets[key].AddressBlock)
		if err != nil {
			return nil, err
		}
		blocks[key] = block
	}

	topology := &Topology{
		Network: Network{
			Name:         network.Name,
			AddressBlock: networkBlock.Masked(),
		},
		Subnets: make(map[string]Subnet, len(subnets)),
	}
	topology.warnNonCanonical("network", networkBlock)

	hasPublic := false
	for _, key := range keys {
		spec := subnets[key]
		topology.warnNonCanonical(SubnetAddress(key), blocks[key])
		topology.Subnets[key] = Subnet{
			Key:              key,
			AddressBlock:     blocks[key].Masked(),
			AvailabilityZone: spec.AvailabilityZone,
			IsPublic:         spec.IsPublic,
		}
		if spec.IsPublic {
			hasPublic = true
		}
	}

	if hasPublic {
		routing := &PublicRouting{
			InternetGateway: InternetGateway{Network: NetworkAddress},
			RouteTable: RouteTable{
				Network: NetworkAddress,
				Routes: []Route{
					{Destination: DefaultRouteDestination, Target: InternetGatewayAddress},
				},
			},
		}
		for _, key := range keys {
			if !subnets[key].IsPublic {
				continue
			}
			routing.Associations = append(routing.Associations, RouteTableAssociation{
				SubnetKey:  key,
				Subnet:     SubnetAddress(key),
				RouteTable: RouteTableAddress,
			})
		}
		topology.Public = routing
	}

	topology.checkPlacement(keys)
	return topology, nil
}

func parseBlock(field string, value string) (netip.Prefix, error) {
	block, err := netip.ParsePrefix(value)
	if err != nil {
		return netip.Prefix{}, &InvalidConfigError{Field: field, Value: value, Err: err}
	}
	return block, nil
}

func (t *Topology) HasPublic() bool {
	return t.Public != nil
}

func (t *Topology) SubnetKeys() []string {
	return sortedKeys(t.Subnets)
}

// Warnings lists findings that do not block generation, such as subnets
// placed outside the network block.
func (t *Topology) Warnings() []string {
	return append([]string(nil), t.warnings...)
}

func (t *Topology) warnNonCanonical(address string, block netip.Prefix) {
	if block != block.Masked() {
		t.warnings = append(t.warnings, fmt.Sprintf("%s: address block %s has host bits set, using %s", address, block, block.Masked()))
	}
}

func (t *Topology) checkPlacement(keys []string) {
	networkBlock := t.Network.AddressBlock
	for i, key := range keys {
		block := t.Subnets[key].AddressBlock
		if !contains(networkBlock, block) {
			t.warnings = append(t.warnings, fmt.Sprintf("%s: address block %s is not inside network block %s", SubnetAddress(key), block, networkBlock))
		}
		for _, other := range keys[i+1:] {
			if block.Overlaps(t.Subnets[other].AddressBlock) {
				t.warnings = append(t.warnings, fmt.Sprintf("%s: address block %s overlaps %s (%s)", SubnetAddress(key), block, SubnetAddress(other), t.Subnets[other].AddressBlock))
			}
		}
	}
}

func contains(outer netip.Prefix, inner netip.Prefix) bool {
	return outer.Bits() <= inner.Bits() && outer.Contains(inner.Addr())
}

func sortedKeys[V any](values map[string]V) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
