package aws

import "context"

// EC2Client creates and deletes the individual network resources. Create
// calls that perform more than one API request return the ID of anything
// already created alongside the error.
type EC2Client interface {
	CreateVpc(context context.Context, cidrBlock string, tags map[string]string) (string, error)
	CreateSubnet(context context.Context, vpcID string, cidrBlock string, availabilityZone string, public bool, tags map[string]string) (string, error)
	CreateInternetGateway(context context.Context, vpcID string, tags map[string]string) (string, error)
	CreateRouteTable(context context.Context, vpcID string, tags map[string]string) (string, error)
	CreateRoute(context context.Context, routeTableID string, destination string, gatewayID string) error
	AssociateRouteTable(context context.Context, routeTableID string, subnetID string) (string, error)
	DisassociateRouteTable(context context.Context, associationID string) error
	DeleteRouteTable(context context.Context, routeTableID string) error
	DeleteInternetGateway(context context.Context, gatewayID string, vpcID string) error
	DeleteSubnet(context context.Context, subnetID string) error
	DeleteVpc(context context.Context, vpcID string) error
}

type CloudFormationClient interface {
	CreateStack(context context.Context, name string, templateBody string, tags map[string]string) (string, error)
	DeleteStack(context context.Context, name string) error
	WaitForCreateComplete(context context.Context, name string) error
	WaitForDeleteComplete(context context.Context, name string) error
	DescribeStackOutputs(context context.Context, name string) (map[string]string, error)
}

type SSMClient interface {
	PutParameter(context context.Context, name string, value string) error
	DeleteParameters(context context.Context, names []string) error
}
