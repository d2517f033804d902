package aws

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emergingrobotics/vpcgen/internal/config"
	"github.com/emergingrobotics/vpcgen/internal/topology"
)

type fakeEC2 struct {
	calls      []string
	tags       map[string]map[string]string
	counter    int
	failOn     string
	partialID  bool
	deleteErrs map[string]error
}

func (f *fakeEC2) nextID(prefix string) string {
	f.counter++
	return fmt.Sprintf("%s-%d", prefix, f.counter)
}

func (f *fakeEC2) record(call string, tags map[string]string) error {
	f.calls = append(f.calls, call)
	if tags != nil {
		if f.tags == nil {
			f.tags = make(map[string]map[string]string)
		}
		f.tags[call] = tags
	}
	if f.failOn != "" && strings.HasPrefix(call, f.failOn) {
		return fmt.Errorf("%s: simulated failure", call)
	}
	return nil
}

func (f *fakeEC2) CreateVpc(_ context.Context, cidrBlock string, tags map[string]string) (string, error) {
	if err := f.record("CreateVpc "+cidrBlock, tags); err != nil {
		if f.partialID {
			return f.nextID("vpc"), err
		}
		return "", err
	}
	return f.nextID("vpc"), nil
}

func (f *fakeEC2) CreateSubnet(_ context.Context, vpcID string, cidrBlock string, availabilityZone string, public bool, tags map[string]string) (string, error) {
	if err := f.record(fmt.Sprintf("CreateSubnet %s %s %s public=%t", vpcID, cidrBlock, availabilityZone, public), tags); err != nil {
		return "", err
	}
	return f.nextID("subnet"), nil
}

func (f *fakeEC2) CreateInternetGateway(_ context.Context, vpcID string, tags map[string]string) (string, error) {
	if err := f.record("CreateInternetGateway "+vpcID, tags); err != nil {
		if f.partialID {
			return f.nextID("igw"), err
		}
		return "", err
	}
	return f.nextID("igw"), nil
}

func (f *fakeEC2) CreateRouteTable(_ context.Context, vpcID string, tags map[string]string) (string, error) {
	if err := f.record("CreateRouteTable "+vpcID, tags); err != nil {
		return "", err
	}
	return f.nextID("rtb"), nil
}

func (f *fakeEC2) CreateRoute(_ context.Context, routeTableID string, destination string, gatewayID string) error {
	return f.record(fmt.Sprintf("CreateRoute %s %s %s", routeTableID, destination, gatewayID), nil)
}

func (f *fakeEC2) AssociateRouteTable(_ context.Context, routeTableID string, subnetID string) (string, error) {
	if err := f.record(fmt.Sprintf("AssociateRouteTable %s %s", routeTableID, subnetID), nil); err != nil {
		return "", err
	}
	return f.nextID("rtbassoc"), nil
}

func (f *fakeEC2) deleteCall(call string, id string) error {
	f.calls = append(f.calls, call+" "+id)
	return f.deleteErrs[id]
}

func (f *fakeEC2) DisassociateRouteTable(_ context.Context, associationID string) error {
	return f.deleteCall("DisassociateRouteTable", associationID)
}

func (f *fakeEC2) DeleteRouteTable(_ context.Context, routeTableID string) error {
	return f.deleteCall("DeleteRouteTable", routeTableID)
}

func (f *fakeEC2) DeleteInternetGateway(_ context.Context, gatewayID string, vpcID string) error {
	return f.deleteCall("DeleteInternetGateway", gatewayID+" "+vpcID)
}

func (f *fakeEC2) DeleteSubnet(_ context.Context, subnetID string) error {
	return f.deleteCall("DeleteSubnet", subnetID)
}

func (f *fakeEC2) DeleteVpc(_ context.Context, vpcID string) error {
	return f.deleteCall("DeleteVpc", vpcID)
}

type fakeCloudFormation struct {
	stackID         string
	templates       map[string]string
	outputs         map[string]string
	createError     error
	waitCreateError error
	createdStacks   []string
	deletedStacks   []string
}

func (f *fakeCloudFormation) CreateStack(_ context.Context, name string, templateBody string, _ map[string]string) (string, error) {
	f.createdStacks = append(f.createdStacks, name)
	if f.templates == nil {
		f.templates = make(map[string]string)
	}
	f.templates[name] = templateBody
	if f.createError != nil {
		return "", f.createError
	}
	return f.stackID, nil
}

func (f *fakeCloudFormation) DeleteStack(_ context.Context, name string) error {
	f.deletedStacks = append(f.deletedStacks, name)
	return nil
}

func (f *fakeCloudFormation) WaitForCreateComplete(_ context.Context, _ string) error {
	return f.waitCreateError
}

func (f *fakeCloudFormation) WaitForDeleteComplete(_ context.Context, _ string) error {
	return nil
}

func (f *fakeCloudFormation) DescribeStackOutputs(_ context.Context, _ string) (map[string]string, error) {
	return f.outputs, nil
}

type fakeSSM struct {
	parameters map[string]string
	deleted    []string
	putError   error
}

func (f *fakeSSM) PutParameter(_ context.Context, name string, value string) error {
	if f.putError != nil {
		return f.putError
	}
	if f.parameters == nil {
		f.parameters = make(map[string]string)
	}
	f.parameters[name] = value
	return nil
}

func (f *fakeSSM) DeleteParameters(_ context.Context, names []string) error {
	f.deleted = append(f.deleted, names...)
	for _, name := range names {
		delete(f.parameters, name)
	}
	return nil
}

var appliedAt = time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC)

func newFakeProvider() (*Provider, *fakeCloudFormation, *fakeEC2, *fakeSSM) {
	cloudFormation := &fakeCloudFormation{
		stackID: "arn:aws:cloudformation:us-east-1:123456:stack/vpcgen-demo/abc123",
	}
	ec2 := &fakeEC2{}
	ssm := &fakeSSM{}
	provider := NewWithClients("us-east-1", cloudFormation, ec2, ssm)
	provider.Now = func() time.Time { return appliedAt }
	return provider, cloudFormation, ec2, ssm
}

func generateDemo(t *testing.T) *topology.Topology {
	t.Helper()
	network, err := topology.Generate(topology.NetworkConfig{AddressBlock: "10.0.0.0/16", Name: "demo"}, map[string]topology.SubnetSpec{
		"a": {AddressBlock: "10.0.1.0/24", AvailabilityZone: "us-east-1a", IsPublic: true},
		"b": {AddressBlock: "10.0.2.0/24", AvailabilityZone: "us-east-1b"},
	})
	require.NoError(t, err)
	return network
}

func definition(mode string) *config.Config {
	return &config.Config{
		AWS: &config.AWSConfig{Region: "us-east-1", Mode: mode, Tags: map[string]string{"Team": "net"}},
	}
}

func TestProviderName(t *testing.T) {
	assert.Equal(t, "aws", New("us-east-1").Name())
}

func TestNewSetsRegion(t *testing.T) {
	assert.Equal(t, "eu-west-1", New("eu-west-1").Region)
}

func TestUninitializedProviderReturnsError(t *testing.T) {
	provider := New("us-east-1")
	state := config.NewState("demo", "aws")

	err := provider.Apply(context.Background(), definition(config.ModeAPI), generateDemo(t), state)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not initialized")

	require.Error(t, provider.Destroy(context.Background(), state))
}

func TestApplyAPICreatesResourcesInDependencyOrder(t *testing.T) {
	provider, _, ec2, _ := newFakeProvider()
	state := config.NewState("demo", "aws")

	require.NoError(t, provider.Apply(context.Background(), definition(config.ModeAPI), generateDemo(t), state))

	assert.Equal(t, []string{
		"CreateVpc 10.0.0.0/16",
		"CreateSubnet vpc-1 10.0.1.0/24 us-east-1a public=true",
		"CreateSubnet vpc-1 10.0.2.0/24 us-east-1b public=false",
		"CreateInternetGateway vpc-1",
		"CreateRouteTable vpc-1",
		"CreateRoute rtb-5 0.0.0.0/0 igw-4",
		"AssociateRouteTable rtb-5 subnet-2",
	}, ec2.calls)

	assert.Equal(t, topology.Identifiers{
		"network":                   "vpc-1",
		"subnet.a":                  "subnet-2",
		"subnet.b":                  "subnet-3",
		"internet_gateway":          "igw-4",
		"route_table.public":        "rtb-5",
		"route.public_default":      "rtb-5_0.0.0.0/0",
		"route_table_association.a": "rtbassoc-6",
	}, state.Resources)
	assert.Equal(t, config.ModeAPI, state.Mode)
	assert.Equal(t, "us-east-1", state.Region)
	require.NotNil(t, state.AppliedAt)
	assert.Equal(t, appliedAt, *state.AppliedAt)
	assert.Empty(t, state.StackName)
}

func TestApplyAPITagsResources(t *testing.T) {
	provider, _, ec2, _ := newFakeProvider()
	state := config.NewState("demo", "aws")

	require.NoError(t, provider.Apply(context.Background(), definition(config.ModeAPI), generateDemo(t), state))

	assert.Equal(t, map[string]string{
		"Name":         "demo",
		"ManagedBy":    "vpcgen",
		"vpcgen:stack": "vpcgen-demo",
		"Team":         "net",
	}, ec2.tags["CreateVpc 10.0.0.0/16"])
	assert.Equal(t, "demo-a", ec2.tags["CreateSubnet vpc-1 10.0.1.0/24 us-east-1a public=true"]["Name"])
	assert.Equal(t, "demo-igw", ec2.tags["CreateInternetGateway vpc-1"]["Name"])
	assert.Equal(t, "demo-public-rt", ec2.tags["CreateRouteTable vpc-1"]["Name"])
}

func TestApplyAPIPrivateOnlySkipsGateway(t *testing.T) {
	provider, _, ec2, _ := newFakeProvider()
	network, err := topology.Generate(topology.NetworkConfig{AddressBlock: "10.0.0.0/16", Name: "demo"}, map[string]topology.SubnetSpec{
		"b": {AddressBlock: "10.0.2.0/24", AvailabilityZone: "us-east-1b"},
	})
	require.NoError(t, err)
	state := config.NewState("demo", "aws")

	require.NoError(t, provider.Apply(context.Background(), definition(config.ModeAPI), network, state))

	assert.Equal(t, []string{
		"CreateVpc 10.0.0.0/16",
		"CreateSubnet vpc-1 10.0.2.0/24 us-east-1b public=false",
	}, ec2.calls)
}

func TestApplyAPIRecordsPartialProgress(t *testing.T) {
	provider, _, ec2, _ := newFakeProvider()
	ec2.failOn = "CreateInternetGateway"
	ec2.partialID = true
	state := config.NewState("demo", "aws")

	err := provider.Apply(context.Background(), definition(config.ModeAPI), generateDemo(t), state)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "internet_gateway")

	assert.Equal(t, topology.Identifiers{
		"network":          "vpc-1",
		"subnet.a":         "subnet-2",
		"subnet.b":         "subnet-3",
		"internet_gateway": "igw-4",
	}, state.Resources)
	assert.Nil(t, state.AppliedAt)
}

func TestApplyAPIResumesFromState(t *testing.T) {
	provider, _, ec2, _ := newFakeProvider()
	state := config.NewState("demo", "aws")
	state.Record("network", "vpc-existing")
	state.Record("subnet.a", "subnet-existing")

	require.NoError(t, provider.Apply(context.Background(), definition(config.ModeAPI), generateDemo(t), state))

	assert.Equal(t, "CreateSubnet vpc-existing 10.0.2.0/24 us-east-1b public=false", ec2.calls[0])
	assert.Contains(t, ec2.calls, "AssociateRouteTable rtb-3 subnet-existing")
}

func TestApplyStackCreatesCloudFormationStack(t *testing.T) {
	provider, cloudFormation, ec2, _ := newFakeProvider()
	cloudFormation.outputs = map[string]string{
		"VpcId":                              "vpc-cfn",
		"SubnetAId":                          "subnet-a",
		"SubnetBId":                          "subnet-b",
		"InternetGatewayId":                  "igw-cfn",
		"PublicRouteTableId":                 "rtb-cfn",
		"AssociationSubnetAId":               "rtbassoc-a",
		"UnrelatedOutputFromAnotherTemplate": "ignored",
	}
	state := config.NewState("demo", "aws")

	require.NoError(t, provider.Apply(context.Background(), definition(config.ModeCloudFormation), generateDemo(t), state))

	assert.Empty(t, ec2.calls)
	assert.Equal(t, []string{"vpcgen-demo"}, cloudFormation.createdStacks)
	assert.Contains(t, cloudFormation.templates["vpcgen-demo"], "AWS::EC2::VPC")
	assert.Equal(t, "vpcgen-demo", state.StackName)
	assert.Equal(t, cloudFormation.stackID, state.StackID)
	assert.Equal(t, config.ModeCloudFormation, state.Mode)
	assert.Equal(t, topology.Identifiers{
		"network":                   "vpc-cfn",
		"subnet.a":                  "subnet-a",
		"subnet.b":                  "subnet-b",
		"internet_gateway":          "igw-cfn",
		"route_table.public":        "rtb-cfn",
		"route.public_default":      "rtb-cfn_0.0.0.0/0",
		"route_table_association.a": "rtbassoc-a",
	}, state.Resources)
}

func TestApplyStackFailsOnMissingOutput(t *testing.T) {
	provider, cloudFormation, _, _ := newFakeProvider()
	cloudFormation.outputs = map[string]string{"VpcId": "vpc-cfn"}
	state := config.NewState("demo", "aws")

	err := provider.Apply(context.Background(), definition(config.ModeCloudFormation), generateDemo(t), state)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing output")
	assert.Equal(t, "vpcgen-demo", state.StackName, "stack name must be kept so the stack can be destroyed")
}

func TestApplyStackCreationError(t *testing.T) {
	provider, cloudFormation, _, _ := newFakeProvider()
	cloudFormation.createError = fmt.Errorf("stack limit exceeded")
	state := config.NewState("demo", "aws")

	err := provider.Apply(context.Background(), definition(config.ModeCloudFormation), generateDemo(t), state)
	require.Error(t, err)
	assert.Empty(t, state.StackName)
}

func TestApplyPublishesOutputsToSSM(t *testing.T) {
	provider, _, _, ssm := newFakeProvider()
	configuration := definition(config.ModeAPI)
	configuration.AWS.SSMPrefix = "/vpcgen/demo"
	state := config.NewState("demo", "aws")

	require.NoError(t, provider.Apply(context.Background(), configuration, generateDemo(t), state))

	assert.Equal(t, map[string]string{
		"/vpcgen/demo/network_id":                          "vpc-1",
		"/vpcgen/demo/public_subnets/a/subnet_id":          "subnet-2",
		"/vpcgen/demo/public_subnets/a/availability_zone":  "us-east-1a",
		"/vpcgen/demo/private_subnets/b/subnet_id":         "subnet-3",
		"/vpcgen/demo/private_subnets/b/availability_zone": "us-east-1b",
	}, ssm.parameters)
	assert.Len(t, state.PublishedParameters, 5)
	assert.Equal(t, "/vpcgen/demo/network_id", state.PublishedParameters[0])
}

func TestApplyReportsPublishFailure(t *testing.T) {
	provider, _, _, ssm := newFakeProvider()
	ssm.putError = fmt.Errorf("access denied")
	configuration := definition(config.ModeAPI)
	configuration.AWS.SSMPrefix = "/vpcgen/demo"
	state := config.NewState("demo", "aws")

	err := provider.Apply(context.Background(), configuration, generateDemo(t), state)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publishing outputs failed")
	assert.Equal(t, "vpc-1", state.Resources["network"])
}

func TestDestroyAPIDeletesInReverseOrder(t *testing.T) {
	provider, _, ec2, ssm := newFakeProvider()
	configuration := definition(config.ModeAPI)
	configuration.AWS.SSMPrefix = "/vpcgen/demo"
	state := config.NewState("demo", "aws")
	require.NoError(t, provider.Apply(context.Background(), configuration, generateDemo(t), state))
	ec2.calls = nil

	require.NoError(t, provider.Destroy(context.Background(), state))

	assert.Equal(t, []string{
		"DisassociateRouteTable rtbassoc-6",
		"DeleteRouteTable rtb-5",
		"DeleteInternetGateway igw-4 vpc-1",
		"DeleteSubnet subnet-2",
		"DeleteSubnet subnet-3",
		"DeleteVpc vpc-1",
	}, ec2.calls)
	assert.Empty(t, state.Resources)
	assert.Empty(t, state.PublishedParameters)
	assert.Len(t, ssm.deleted, 5)
	assert.Empty(t, ssm.parameters)
}

func TestDestroyAPIToleratesNotFound(t *testing.T) {
	provider, _, ec2, _ := newFakeProvider()
	ec2.deleteErrs = map[string]error{
		"subnet-gone": &smithy.GenericAPIError{Code: "InvalidSubnetID.NotFound", Message: "gone"},
	}
	state := config.NewState("demo", "aws")
	state.Record("network", "vpc-1")
	state.Record("subnet.a", "subnet-gone")

	require.NoError(t, provider.Destroy(context.Background(), state))
	assert.Empty(t, state.Resources)
}

func TestDestroyAPIKeepsFailedResources(t *testing.T) {
	provider, _, ec2, _ := newFakeProvider()
	ec2.deleteErrs = map[string]error{
		"subnet-busy": &smithy.GenericAPIError{Code: "DependencyViolation", Message: "in use"},
	}
	state := config.NewState("demo", "aws")
	state.Record("network", "vpc-1")
	state.Record("subnet.a", "subnet-busy")
	state.Record("subnet.b", "subnet-free")

	err := provider.Destroy(context.Background(), state)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "subnet.a")

	assert.Equal(t, topology.Identifiers{"subnet.a": "subnet-busy"}, state.Resources)
}

func TestDestroyStackDeletesCloudFormationStack(t *testing.T) {
	provider, cloudFormation, ec2, _ := newFakeProvider()
	state := config.NewState("demo", "aws")
	state.StackName = "vpcgen-demo"
	state.StackID = "arn:stack"
	state.Record("network", "vpc-cfn")

	require.NoError(t, provider.Destroy(context.Background(), state))

	assert.Equal(t, []string{"vpcgen-demo"}, cloudFormation.deletedStacks)
	assert.Empty(t, ec2.calls)
	assert.Empty(t, state.StackName)
	assert.Empty(t, state.Resources)
}

func TestDeletionOrder(t *testing.T) {
	order := DeletionOrder(topology.Identifiers{
		"network":                   "vpc",
		"subnet.b":                  "s2",
		"subnet.a":                  "s1",
		"route_table.public":        "rtb",
		"route.public_default":      "r",
		"internet_gateway":          "igw",
		"route_table_association.b": "as2",
		"route_table_association.a": "as1",
	})

	assert.Equal(t, []string{
		"route_table_association.a",
		"route_table_association.b",
		"route.public_default",
		"route_table.public",
		"internet_gateway",
		"subnet.a",
		"subnet.b",
		"network",
	}, order)
}

func TestBuildStackName(t *testing.T) {
	assert.Equal(t, "vpcgen-demo", BuildStackName("demo"))
}

func TestBuildTagsOwnershipWins(t *testing.T) {
	tags := BuildTags(map[string]string{"Name": "user", "ManagedBy": "someone", "Env": "prod"}, "vpcgen-demo", "demo-a")

	assert.Equal(t, "demo-a", tags["Name"])
	assert.Equal(t, "vpcgen", tags["ManagedBy"])
	assert.Equal(t, "prod", tags["Env"])
}

func TestLogicalName(t *testing.T) {
	tests := map[string]string{
		"a":          "A",
		"web-a":      "WebA",
		"private_db": "PrivateDb",
		"az1.public": "Az1Public",
		"---":        "Unnamed",
		"ünïcode":    "NCode",
	}
	for key, want := range tests {
		assert.Equal(t, want, LogicalName(key), "LogicalName(%q)", key)
	}
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(fmt.Errorf("wrapped: %w", &smithy.GenericAPIError{Code: "InvalidVpcID.NotFound"})))
	assert.False(t, isNotFound(&smithy.GenericAPIError{Code: "DependencyViolation"}))
	assert.False(t, isNotFound(fmt.Errorf("plain error")))
	assert.True(t, hasErrorCode(&smithy.GenericAPIError{Code: "Gateway.NotAttached"}, "Gateway.NotAttached"))
}
