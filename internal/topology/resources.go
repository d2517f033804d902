package topology

import "strconv"

type Kind string

const (
	KindNetwork               Kind = "network"
	KindSubnet                Kind = "subnet"
	KindInternetGateway       Kind = "internet_gateway"
	KindRouteTable            Kind = "route_table"
	KindRoute                 Kind = "route"
	KindRouteTableAssociation Kind = "route_table_association"
)

type Resource struct {
	Kind       Kind
	Address    string
	DependsOn  []string
	Attributes map[string]string
}

// Resources flattens the topology into a list where every resource appears
// after all of its dependencies. Reversing the list gives a safe delete order.
func (t *Topology) Resources() []Resource {
	resources := []Resource{{
		Kind:    KindNetwork,
		Address: NetworkAddress,
		Attributes: map[string]string{
			"name":          t.Network.Name,
			"address_block": t.Network.AddressBlock.String(),
		},
	}}

	for _, key := range t.SubnetKeys() {
		subnet := t.Subnets[key]
		resources = append(resources, Resource{
			Kind:      KindSubnet,
			Address:   SubnetAddress(key),
			DependsOn: []string{NetworkAddress},
			Attributes: map[string]string{
				"key":               key,
				"address_block":     subnet.AddressBlock.String(),
				"availability_zone": subnet.AvailabilityZone,
				"is_public":         strconv.FormatBool(subnet.IsPublic),
			},
		})
	}

	if t.Public == nil {
		return resources
	}

	resources = append(resources,
		Resource{
			Kind:      KindInternetGateway,
			Address:   InternetGatewayAddress,
			DependsOn: []string{t.Public.InternetGateway.Network},
		},
		Resource{
			Kind:      KindRouteTable,
			Address:   RouteTableAddress,
			DependsOn: []string{t.Public.RouteTable.Network},
		},
	)
	for _, route := range t.Public.RouteTable.Routes {
		resources = append(resources, Resource{
			Kind:      KindRoute,
			Address:   DefaultRouteAddress,
			DependsOn: []string{RouteTableAddress, route.Target},
			Attributes: map[string]string{
				"destination": route.Destination.String(),
				"target":      route.Target,
			},
		})
	}
	for _, association := range t.Public.Associations {
		resources = append(resources, Resource{
			Kind:      KindRouteTableAssociation,
			Address:   AssociationAddress(association.SubnetKey),
			DependsOn: []string{association.Subnet, association.RouteTable},
			Attributes: map[string]string{
				"key": association.SubnetKey,
			},
		})
	}
	return resources
}
