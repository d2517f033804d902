package aws

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/emergingrobotics/vpcgen/internal/topology"
)

const (
	vpcLogicalID               = "VPC"
	internetGatewayLogicalID   = "InternetGateway"
	gatewayAttachmentLogicalID = "GatewayAttachment"
	routeTableLogicalID        = "PublicRouteTable"
	defaultRouteLogicalID      = "PublicDefaultRoute"
)

// Template is a rendered CloudFormation template together with the mapping
// from each stack output key to the resource address it reports.
type Template struct {
	Body            string
	OutputAddresses map[string]string
}

type cfnTemplate struct {
	AWSTemplateFormatVersion string                 `yaml:"AWSTemplateFormatVersion"`
	Description              string                 `yaml:"Description"`
	Resources                map[string]cfnResource `yaml:"Resources"`
	Outputs                  map[string]cfnOutput   `yaml:"Outputs"`
}

type cfnResource struct {
	Type       string         `yaml:"Type"`
	DependsOn  []string       `yaml:"DependsOn,omitempty"`
	Properties map[string]any `yaml:"Properties,omitempty"`
}

type cfnOutput struct {
	Value any `yaml:"Value"`
}

func ref(logicalID string) map[string]string {
	return map[string]string{"Ref": logicalID}
}

func cfnTags(tags map[string]string) []map[string]string {
	keys := make([]string, 0, len(tags))
	for key := range tags {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	result := make([]map[string]string, 0, len(keys))
	for _, key := range keys {
		result = append(result, map[string]string{"Key": key, "Value": tags[key]})
	}
	return result
}

// SubnetLogicalIDs assigns every subnet key a unique logical ID. Keys that
// collapse to the same name get a numeric suffix in sorted key order.
func SubnetLogicalIDs(keys []string) map[string]string {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	used := make(map[string]bool, len(sorted))
	logicalIDs := make(map[string]string, len(sorted))
	for _, key := range sorted {
		base := "Subnet" + LogicalName(key)
		candidate := base
		for suffix := 2; used[candidate]; suffix++ {
			candidate = fmt.Sprintf("%s%d", base, suffix)
		}
		used[candidate] = true
		logicalIDs[key] = candidate
	}
	return logicalIDs
}

func GenerateTemplate(network *topology.Topology, stackName string, userTags map[string]string) (*Template, error) {
	template := cfnTemplate{
		AWSTemplateFormatVersion: "2010-09-09",
		Description:              fmt.Sprintf("vpcgen network %s (%s)", network.Network.Name, network.Network.AddressBlock),
		Resources:                make(map[string]cfnResource),
		Outputs:                  make(map[string]cfnOutput),
	}
	outputAddresses := make(map[string]string)

	var collisions []string
	addResource := func(logicalID string, resource cfnResource) {
		if _, exists := template.Resources[logicalID]; exists {
			collisions = append(collisions, logicalID)
		}
		template.Resources[logicalID] = resource
	}
	addOutput := func(outputKey string, logicalID string, address string) {
		if _, exists := template.Outputs[outputKey]; exists {
			collisions = append(collisions, outputKey)
		}
		template.Outputs[outputKey] = cfnOutput{Value: ref(logicalID)}
		outputAddresses[outputKey] = address
	}

	resources := network.Resources()
	subnetIDs := SubnetLogicalIDs(network.SubnetKeys())

	for _, resource := range resources {
		tags := cfnTags(BuildTags(userTags, stackName, ResourceName(network.Network.Name, resource)))

		switch resource.Kind {
		case topology.KindNetwork:
			addResource(vpcLogicalID, cfnResource{
				Type: "AWS::EC2::VPC",
				Properties: map[string]any{
					"CidrBlock":          resource.Attributes["address_block"],
					"EnableDnsSupport":   true,
					"EnableDnsHostnames": true,
					"Tags":               tags,
				},
			})
			addOutput("VpcId", vpcLogicalID, resource.Address)

		case topology.KindSubnet:
			key := resource.Attributes["key"]
			subnet := network.Subnets[key]
			properties := map[string]any{
				"VpcId":               ref(vpcLogicalID),
				"CidrBlock":           subnet.AddressBlock.String(),
				"MapPublicIpOnLaunch": subnet.IsPublic,
				"Tags":                tags,
			}
			if subnet.AvailabilityZone != "" {
				properties["AvailabilityZone"] = subnet.AvailabilityZone
			}
			addResource(subnetIDs[key], cfnResource{Type: "AWS::EC2::Subnet", Properties: properties})
			addOutput(subnetIDs[key]+"Id", subnetIDs[key], resource.Address)

		case topology.KindInternetGateway:
			addResource(internetGatewayLogicalID, cfnResource{
				Type:       "AWS::EC2::InternetGateway",
				Properties: map[string]any{"Tags": tags},
			})
			addResource(gatewayAttachmentLogicalID, cfnResource{
				Type: "AWS::EC2::VPCGatewayAttachment",
				Properties: map[string]any{
					"VpcId":             ref(vpcLogicalID),
					"InternetGatewayId": ref(internetGatewayLogicalID),
				},
			})
			addOutput("InternetGatewayId", internetGatewayLogicalID, resource.Address)

		case topology.KindRouteTable:
			addResource(routeTableLogicalID, cfnResource{
				Type: "AWS::EC2::RouteTable",
				Properties: map[string]any{
					"VpcId": ref(vpcLogicalID),
					"Tags":  tags,
				},
			})
			addOutput("PublicRouteTableId", routeTableLogicalID, resource.Address)

		case topology.KindRoute:
			addResource(defaultRouteLogicalID, cfnResource{
				Type:      "AWS::EC2::Route",
				DependsOn: []string{gatewayAttachmentLogicalID},
				Properties: map[string]any{
					"RouteTableId":         ref(routeTableLogicalID),
					"DestinationCidrBlock": resource.Attributes["destination"],
					"GatewayId":            ref(internetGatewayLogicalID),
				},
			})

		case topology.KindRouteTableAssociation:
			key := resource.Attributes["key"]
			// Prefixed so no subnet key can produce the same ID.
			logicalID := "Association" + subnetIDs[key]
			addResource(logicalID, cfnResource{
				Type: "AWS::EC2::SubnetRouteTableAssociation",
				Properties: map[string]any{
					"SubnetId":     ref(subnetIDs[key]),
					"RouteTableId": ref(routeTableLogicalID),
				},
			})
			addOutput(logicalID+"Id", logicalID, resource.Address)

		default:
			return nil, fmt.Errorf("unsupported resource kind %q at %s", resource.Kind, resource.Address)
		}
	}

	if len(collisions) > 0 {
		return nil, fmt.Errorf("CloudFormation logical IDs collide: %v", collisions)
	}

	body, err := yaml.Marshal(template)
	if err != nil {
		return nil, fmt.Errorf("failed to render CloudFormation template: %w", err)
	}
	return &Template{Body: string(body), OutputAddresses: outputAddresses}, nil
}
