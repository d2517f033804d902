package aws

import (
	"sort"
	"strings"

	"github.com/emergingrobotics/vpcgen/internal/topology"
)

// deletionRank orders addresses so dependents are removed before the
// resources they reference.
func deletionRank(address string) int {
	switch {
	case strings.HasPrefix(address, topology.AssociationAddress("")):
		return 0
	case address == topology.DefaultRouteAddress:
		return 1
	case address == topology.RouteTableAddress:
		return 2
	case address == topology.InternetGatewayAddress:
		return 3
	case strings.HasPrefix(address, topology.SubnetAddress("")):
		return 4
	case address == topology.NetworkAddress:
		return 5
	default:
		return 6
	}
}

func DeletionOrder(ids topology.Identifiers) []string {
	addresses := make([]string, 0, len(ids))
	for address := range ids {
		addresses = append(addresses, address)
	}
	sort.Slice(addresses, func(i, j int) bool {
		left, right := deletionRank(addresses[i]), deletionRank(addresses[j])
		if left != right {
			return left < right
		}
		return addresses[i] < addresses[j]
	})
	return addresses
}
