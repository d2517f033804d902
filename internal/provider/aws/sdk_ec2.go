package aws

import (
	"context"
	"fmt"
	"sort"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

type sdkEC2Client struct {
	client *ec2.Client
}

func NewSDKEC2Client(configuration awssdk.Config) EC2Client {
	return &sdkEC2Client{client: ec2.NewFromConfig(configuration)}
}

func tagSpecifications(resourceType ec2types.ResourceType, tags map[string]string) []ec2types.TagSpecification {
	keys := make([]string, 0, len(tags))
	for key := range tags {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	ec2Tags := make([]ec2types.Tag, 0, len(keys))
	for _, key := range keys {
		ec2Tags = append(ec2Tags, ec2types.Tag{Key: awssdk.String(key), Value: awssdk.String(tags[key])})
	}
	return []ec2types.TagSpecification{{ResourceType: resourceType, Tags: ec2Tags}}
}

func (e *sdkEC2Client) CreateVpc(context context.Context, cidrBlock string, tags map[string]string) (string, error) {
	vpcOutput, err := e.client.CreateVpc(context, &ec2.CreateVpcInput{
		CidrBlock:         awssdk.String(cidrBlock),
		TagSpecifications: tagSpecifications(ec2types.ResourceTypeVpc, tags),
	})
	if err != nil {
		return "", fmt.Errorf("CreateVpc failed: %w", err)
	}
	vpcID := *vpcOutput.Vpc.VpcId

	vpcWaiter := ec2.NewVpcAvailableWaiter(e.client)
	err = vpcWaiter.Wait(context, &ec2.DescribeVpcsInput{
		VpcIds: []string{vpcID},
	}, 2*time.Minute)
	if err != nil {
		return vpcID, fmt.Errorf("VPC %s not available: %w", vpcID, err)
	}

	_, err = e.client.ModifyVpcAttribute(context, &ec2.ModifyVpcAttributeInput{
		VpcId:              &vpcID,
		EnableDnsHostnames: &ec2types.AttributeBooleanValue{Value: awssdk.Bool(true)},
	})
	if err != nil {
		return vpcID, fmt.Errorf("ModifyVpcAttribute (DNS hostnames) failed: %w", err)
	}
	return vpcID, nil
}

func (e *sdkEC2Client) CreateSubnet(context context.Context, vpcID string, cidrBlock string, availabilityZone string, public bool, tags map[string]string) (string, error) {
	input := &ec2.CreateSubnetInput{
		VpcId:             &vpcID,
		CidrBlock:         awssdk.String(cidrBlock),
		TagSpecifications: tagSpecifications(ec2types.ResourceTypeSubnet, tags),
	}
	if availabilityZone != "" {
		input.AvailabilityZone = awssdk.String(availabilityZone)
	}
	subnetOutput, err := e.client.CreateSubnet(context, input)
	if err != nil {
		return "", fmt.Errorf("CreateSubnet %s failed: %w", cidrBlock, err)
	}
	subnetID := *subnetOutput.Subnet.SubnetId

	if public {
		_, err = e.client.ModifySubnetAttribute(context, &ec2.ModifySubnetAttributeInput{
			SubnetId:            &subnetID,
			MapPublicIpOnLaunch: &ec2types.AttributeBooleanValue{Value: awssdk.Bool(true)},
		})
		if err != nil {
			return subnetID, fmt.Errorf("ModifySubnetAttribute (auto-assign public IP) failed: %w", err)
		}
	}
	return subnetID, nil
}

func (e *sdkEC2Client) CreateInternetGateway(context context.Context, vpcID string, tags map[string]string) (string, error) {
	igwOutput, err := e.client.CreateInternetGateway(context, &ec2.CreateInternetGatewayInput{
		TagSpecifications: tagSpecifications(ec2types.ResourceTypeInternetGateway, tags),
	})
	if err != nil {
		return "", fmt.Errorf("CreateInternetGateway failed: %w", err)
	}
	gatewayID := *igwOutput.InternetGateway.InternetGatewayId

	_, err = e.client.AttachInternetGateway(context, &ec2.AttachInternetGatewayInput{
		InternetGatewayId: &gatewayID,
		VpcId:             &vpcID,
	})
	if err != nil {
		return gatewayID, fmt.Errorf("AttachInternetGateway failed: %w", err)
	}
	return gatewayID, nil
}

func (e *sdkEC2Client) CreateRouteTable(context context.Context, vpcID string, tags map[string]string) (string, error) {
	rtOutput, err := e.client.CreateRouteTable(context, &ec2.CreateRouteTableInput{
		VpcId:             &vpcID,
		TagSpecifications: tagSpecifications(ec2types.ResourceTypeRouteTable, tags),
	})
	if err != nil {
		return "", fmt.Errorf("CreateRouteTable failed: %w", err)
	}
	return *rtOutput.RouteTable.RouteTableId, nil
}

func (e *sdkEC2Client) CreateRoute(context context.Context, routeTableID string, destination string, gatewayID string) error {
	_, err := e.client.CreateRoute(context, &ec2.CreateRouteInput{
		RouteTableId:         &routeTableID,
		DestinationCidrBlock: awssdk.String(destination),
		GatewayId:            &gatewayID,
	})
	if err != nil {
		return fmt.Errorf("CreateRoute (%s) failed: %w", destination, err)
	}
	return nil
}

func (e *sdkEC2Client) AssociateRouteTable(context context.Context, routeTableID string, subnetID string) (string, error) {
	associationOutput, err := e.client.AssociateRouteTable(context, &ec2.AssociateRouteTableInput{
		RouteTableId: &routeTableID,
		SubnetId:     &subnetID,
	})
	if err != nil {
		return "", fmt.Errorf("AssociateRouteTable %s failed: %w", subnetID, err)
	}
	return *associationOutput.AssociationId, nil
}

func (e *sdkEC2Client) DisassociateRouteTable(context context.Context, associationID string) error {
	_, err := e.client.DisassociateRouteTable(context, &ec2.DisassociateRouteTableInput{
		AssociationId: &associationID,
	})
	if err != nil {
		return fmt.Errorf("DisassociateRouteTable %s failed: %w", associationID, err)
	}
	return nil
}

func (e *sdkEC2Client) DeleteRouteTable(context context.Context, routeTableID string) error {
	_, err := e.client.DeleteRouteTable(context, &ec2.DeleteRouteTableInput{
		RouteTableId: &routeTableID,
	})
	if err != nil {
		return fmt.Errorf("DeleteRouteTable %s failed: %w", routeTableID, err)
	}
	return nil
}

func (e *sdkEC2Client) DeleteInternetGateway(context context.Context, gatewayID string, vpcID string) error {
	if vpcID != "" {
		_, err := e.client.DetachInternetGateway(context, &ec2.DetachInternetGatewayInput{
			InternetGatewayId: &gatewayID,
			VpcId:             &vpcID,
		})
		if err != nil && !hasErrorCode(err, "Gateway.NotAttached") {
			return fmt.Errorf("DetachInternetGateway %s failed: %w", gatewayID, err)
		}
	}

	_, err := e.client.DeleteInternetGateway(context, &ec2.DeleteInternetGatewayInput{
		InternetGatewayId: &gatewayID,
	})
	if err != nil {
		return fmt.Errorf("DeleteInternetGateway %s failed: %w", gatewayID, err)
	}
	return nil
}

func (e *sdkEC2Client) DeleteSubnet(context context.Context, subnetID string) error {
	_, err := e.client.DeleteSubnet(context, &ec2.DeleteSubnetInput{
		SubnetId: &subnetID,
	})
	if err != nil {
		return fmt.Errorf("DeleteSubnet %s failed: %w", subnetID, err)
	}
	return nil
}

func (e *sdkEC2Client) DeleteVpc(context context.Context, vpcID string) error {
	_, err := e.client.DeleteVpc(context, &ec2.DeleteVpcInput{
		VpcId: &vpcID,
	})
	if err != nil {
		return fmt.Errorf("DeleteVpc %s failed: %w", vpcID, err)
	}
	return nil
}
