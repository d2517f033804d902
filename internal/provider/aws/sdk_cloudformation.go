package aws

import (
	"context"
	"fmt"
	"sort"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
)

type sdkCloudFormationClient struct {
	client *cloudformation.Client
}

func NewSDKCloudFormationClient(configuration awssdk.Config) CloudFormationClient {
	return &sdkCloudFormationClient{client: cloudformation.NewFromConfig(configuration)}
}

func (c *sdkCloudFormationClient) CreateStack(context context.Context, name string, templateBody string, tags map[string]string) (string, error) {
	keys := make([]string, 0, len(tags))
	for key := range tags {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	cfnTags := make([]types.Tag, 0, len(keys))
	for _, key := range keys {
		cfnTags = append(cfnTags, types.Tag{
			Key:   awssdk.String(key),
			Value: awssdk.String(tags[key]),
		})
	}

	result, err := c.client.CreateStack(context, &cloudformation.CreateStackInput{
		StackName:    &name,
		TemplateBody: &templateBody,
		Tags:         cfnTags,
	})
	if err != nil {
		return "", fmt.Errorf("CloudFormation CreateStack %s failed: %w", name, err)
	}
	return *result.StackId, nil
}

func (c *sdkCloudFormationClient) DeleteStack(context context.Context, name string) error {
	_, err := c.client.DeleteStack(context, &cloudformation.DeleteStackInput{
		StackName: &name,
	})
	if err != nil {
		return fmt.Errorf("CloudFormation DeleteStack %s failed: %w", name, err)
	}
	return nil
}

func (c *sdkCloudFormationClient) WaitForCreateComplete(context context.Context, name string) error {
	waiter := cloudformation.NewStackCreateCompleteWaiter(c.client)
	return waiter.Wait(context, &cloudformation.DescribeStacksInput{
		StackName: &name,
	}, 10*time.Minute)
}

func (c *sdkCloudFormationClient) WaitForDeleteComplete(context context.Context, name string) error {
	waiter := cloudformation.NewStackDeleteCompleteWaiter(c.client)
	return waiter.Wait(context, &cloudformation.DescribeStacksInput{
		StackName: &name,
	}, 10*time.Minute)
}

func (c *sdkCloudFormationClient) DescribeStackOutputs(context context.Context, name string) (map[string]string, error) {
	result, err := c.client.DescribeStacks(context, &cloudformation.DescribeStacksInput{
		StackName: &name,
	})
	if err != nil {
		return nil, fmt.Errorf("CloudFormation DescribeStacks %s failed: %w", name, err)
	}
	if len(result.Stacks) == 0 {
		return nil, fmt.Errorf("stack %s not found", name)
	}

	outputs := make(map[string]string, len(result.Stacks[0].Outputs))
	for _, stackOutput := range result.Stacks[0].Outputs {
		if stackOutput.OutputKey == nil || stackOutput.OutputValue == nil {
			continue
		}
		outputs[*stackOutput.OutputKey] = *stackOutput.OutputValue
	}
	return outputs, nil
}
