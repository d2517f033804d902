package aws

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/emergingrobotics/vpcgen/internal/topology"
)

const managedByTag = "vpcgen"

func BuildStackName(name string) string {
	return fmt.Sprintf("vpcgen-%s", name)
}

// BuildTags merges user tags with the Name and ownership tags for one
// resource. Ownership tags win over user tags with the same key.
func BuildTags(userTags map[string]string, stackName string, resourceName string) map[string]string {
	tags := make(map[string]string, len(userTags)+3)
	for key, value := range userTags {
		tags[key] = value
	}
	tags["Name"] = resourceName
	tags["ManagedBy"] = managedByTag
	tags["vpcgen:stack"] = stackName
	return tags
}

// ResourceName is the Name tag value for an address of the given network.
func ResourceName(networkName string, resource topology.Resource) string {
	switch resource.Kind {
	case topology.KindNetwork:
		return networkName
	case topology.KindSubnet:
		return fmt.Sprintf("%s-%s", networkName, resource.Attributes["key"])
	case topology.KindInternetGateway:
		return fmt.Sprintf("%s-igw", networkName)
	case topology.KindRouteTable:
		return fmt.Sprintf("%s-public-rt", networkName)
	default:
		return fmt.Sprintf("%s-%s", networkName, resource.Address)
	}
}

// LogicalName turns a subnet key into a CloudFormation-safe identifier:
// "web-a" becomes "WebA".
func LogicalName(key string) string {
	var builder strings.Builder
	upperNext := true
	for _, character := range key {
		if character > unicode.MaxASCII || !(unicode.IsLetter(character) || unicode.IsDigit(character)) {
			upperNext = true
			continue
		}
		if upperNext {
			builder.WriteRune(unicode.ToUpper(character))
			upperNext = false
		} else {
			builder.WriteRune(character)
		}
	}
	if builder.Len() == 0 {
		return "Unnamed"
	}
	return builder.String()
}
