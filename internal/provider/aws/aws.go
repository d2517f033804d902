package aws

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/emergingrobotics/vpcgen/internal/config"
	"github.com/emergingrobotics/vpcgen/internal/log"
	"github.com/emergingrobotics/vpcgen/internal/topology"
)

type Provider struct {
	Region         string
	CloudFormation CloudFormationClient
	EC2            EC2Client
	SSM            SSMClient
	Now            func() time.Time
}

func New(region string) *Provider {
	return &Provider{Region: region, Now: time.Now}
}

func NewWithClients(region string, cloudFormation CloudFormationClient, ec2 EC2Client, ssm SSMClient) *Provider {
	return &Provider{
		Region:         region,
		CloudFormation: cloudFormation,
		EC2:            ec2,
		SSM:            ssm,
		Now:            time.Now,
	}
}

// NewWithSDK loads the default AWS credential chain, optionally pinned to a
// shared config profile.
func NewWithSDK(context context.Context, region string, profile string) (*Provider, error) {
	var options []func(*awsconfig.LoadOptions) error
	if region != "" {
		options = append(options, awsconfig.WithRegion(region))
	}
	if profile != "" {
		options = append(options, awsconfig.WithSharedConfigProfile(profile))
	}

	configuration, err := awsconfig.LoadDefaultConfig(context, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config: %w", err)
	}

	return NewWithClients(
		configuration.Region,
		NewSDKCloudFormationClient(configuration),
		NewSDKEC2Client(configuration),
		NewSDKSSMClient(configuration),
	), nil
}

func (p *Provider) Name() string {
	return "aws"
}

func (p *Provider) Apply(context context.Context, definition *config.Config, network *topology.Topology, state *config.State) error {
	if err := p.validateClients(); err != nil {
		return err
	}

	awsConfiguration := definition.AWS
	if awsConfiguration == nil {
		awsConfiguration = &config.AWSConfig{Mode: config.ModeAPI}
	}
	state.Region = p.Region
	state.Mode = awsConfiguration.Mode
	stackName := BuildStackName(state.Name)

	var err error
	switch awsConfiguration.Mode {
	case config.ModeCloudFormation:
		err = p.applyStack(context, network, stackName, awsConfiguration.Tags, state)
	case config.ModeAPI, "":
		state.Mode = config.ModeAPI
		err = p.applyAPI(context, network, stackName, awsConfiguration.Tags, state)
	default:
		err = fmt.Errorf("unsupported aws mode %q", awsConfiguration.Mode)
	}
	if err != nil {
		return err
	}
	state.MarkApplied(p.Now())

	if awsConfiguration.SSMPrefix != "" {
		if err := p.PublishOutputs(context, awsConfiguration.SSMPrefix, network.Result(state.Resources), state); err != nil {
			return fmt.Errorf("network created but publishing outputs failed: %w", err)
		}
	}
	return nil
}

func (p *Provider) applyAPI(context context.Context, network *topology.Topology, stackName string, userTags map[string]string, state *config.State) error {
	for _, resource := range network.Resources() {
		if _, exists := state.Resources[resource.Address]; exists {
			log.Debug("Resource already exists, skipping", "address", resource.Address)
			continue
		}

		tags := BuildTags(userTags, stackName, ResourceName(network.Network.Name, resource))
		id, err := p.createResource(context, network, resource, tags, state.Resources)
		if id != "" {
			state.Record(resource.Address, id)
			log.Info("Resource created", "address", resource.Address, "id", id)
		}
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", resource.Address, err)
		}
	}
	return nil
}

func (p *Provider) createResource(context context.Context, network *topology.Topology, resource topology.Resource, tags map[string]string, ids topology.Identifiers) (string, error) {
	vpcID := ids[topology.NetworkAddress]

	switch resource.Kind {
	case topology.KindNetwork:
		return p.EC2.CreateVpc(context, network.Network.AddressBlock.String(), tags)
	case topology.KindSubnet:
		subnet := network.Subnets[resource.Attributes["key"]]
		return p.EC2.CreateSubnet(context, vpcID, subnet.AddressBlock.String(), subnet.AvailabilityZone, subnet.IsPublic, tags)
	case topology.KindInternetGateway:
		return p.EC2.CreateInternetGateway(context, vpcID, tags)
	case topology.KindRouteTable:
		return p.EC2.CreateRouteTable(context, vpcID, tags)
	case topology.KindRoute:
		routeTableID := ids[topology.RouteTableAddress]
		destination := resource.Attributes["destination"]
		if err := p.EC2.CreateRoute(context, routeTableID, destination, ids[resource.Attributes["target"]]); err != nil {
			return "", err
		}
		return topology.RouteID(routeTableID, destination), nil
	case topology.KindRouteTableAssociation:
		subnetID := ids[topology.SubnetAddress(resource.Attributes["key"])]
		return p.EC2.AssociateRouteTable(context, ids[topology.RouteTableAddress], subnetID)
	default:
		return "", fmt.Errorf("unsupported resource kind %q", resource.Kind)
	}
}

func (p *Provider) applyStack(context context.Context, network *topology.Topology, stackName string, userTags map[string]string, state *config.State) error {
	template, err := GenerateTemplate(network, stackName, userTags)
	if err != nil {
		return err
	}

	stackID, err := p.CloudFormation.CreateStack(context, stackName, template.Body, BuildTags(userTags, stackName, stackName))
	if err != nil {
		return fmt.Errorf("CloudFormation stack creation failed: %w", err)
	}
	state.StackName = stackName
	state.StackID = stackID
	log.Info("CloudFormation stack created", "stack", stackName, "id", stackID)

	if err := p.CloudFormation.WaitForCreateComplete(context, stackName); err != nil {
		return fmt.Errorf("CloudFormation stack failed to create: %w", err)
	}

	outputs, err := p.CloudFormation.DescribeStackOutputs(context, stackName)
	if err != nil {
		return fmt.Errorf("failed to get stack outputs: %w", err)
	}
	for outputKey, address := range template.OutputAddresses {
		id, exists := outputs[outputKey]
		if !exists {
			return fmt.Errorf("stack %s is missing output %s", stackName, outputKey)
		}
		state.Record(address, id)
	}
	if routeTableID, exists := state.Resources[topology.RouteTableAddress]; exists {
		state.Record(topology.DefaultRouteAddress, topology.RouteID(routeTableID, topology.DefaultRouteDestination.String()))
	}
	return nil
}

func (p *Provider) Destroy(context context.Context, state *config.State) error {
	if err := p.validateClients(); err != nil {
		return err
	}

	if len(state.PublishedParameters) > 0 {
		if err := p.SSM.DeleteParameters(context, state.PublishedParameters); err != nil {
			return fmt.Errorf("failed to delete published outputs: %w", err)
		}
		state.PublishedParameters = nil
	}

	if state.StackName != "" {
		if err := p.CloudFormation.DeleteStack(context, state.StackName); err != nil {
			return fmt.Errorf("CloudFormation stack deletion failed: %w", err)
		}
		if err := p.CloudFormation.WaitForDeleteComplete(context, state.StackName); err != nil {
			return fmt.Errorf("CloudFormation stack failed to delete: %w", err)
		}
		state.StackName = ""
		state.StackID = ""
		state.Resources = make(topology.Identifiers)
		return nil
	}

	var failures []error
	vpcID := state.Resources[topology.NetworkAddress]
	for _, address := range DeletionOrder(state.Resources) {
		id := state.Resources[address]
		err := p.deleteResource(context, address, id, vpcID)
		if err != nil && !isNotFound(err) {
			log.Warn("Resource deletion failed", "address", address, "id", id, "error", err)
			failures = append(failures, fmt.Errorf("%s (%s): %w", address, id, err))
			continue
		}
		delete(state.Resources, address)
		log.Info("Resource deleted", "address", address, "id", id)
	}
	return errors.Join(failures...)
}

func (p *Provider) deleteResource(context context.Context, address string, id string, vpcID string) error {
	switch {
	case strings.HasPrefix(address, topology.AssociationAddress("")):
		return p.EC2.DisassociateRouteTable(context, id)
	case address == topology.DefaultRouteAddress:
		return nil
	case address == topology.RouteTableAddress:
		return p.EC2.DeleteRouteTable(context, id)
	case address == topology.InternetGatewayAddress:
		return p.EC2.DeleteInternetGateway(context, id, vpcID)
	case strings.HasPrefix(address, topology.SubnetAddress("")):
		return p.EC2.DeleteSubnet(context, id)
	case address == topology.NetworkAddress:
		return p.EC2.DeleteVpc(context, id)
	default:
		return fmt.Errorf("unknown resource address %q", address)
	}
}

func (p *Provider) validateClients() error {
	if p.CloudFormation == nil || p.EC2 == nil || p.SSM == nil {
		return fmt.Errorf("AWS provider not initialized: configure credentials with 'aws configure'")
	}
	return nil
}
