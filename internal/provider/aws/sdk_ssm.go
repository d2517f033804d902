package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// DeleteParameters accepts at most this many names per request.
const ssmDeleteBatchSize = 10

type sdkSSMClient struct {
	client *ssm.Client
}

func NewSDKSSMClient(configuration aws.Config) SSMClient {
	return &sdkSSMClient{client: ssm.NewFromConfig(configuration)}
}

func (s *sdkSSMClient) PutParameter(context context.Context, name string, value string) error {
	_, err := s.client.PutParameter(context, &ssm.PutParameterInput{
		Name:      &name,
		Value:     &value,
		Type:      ssmtypes.ParameterTypeString,
		Overwrite: aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("SSM PutParameter %s failed: %w", name, err)
	}
	return nil
}

func (s *sdkSSMClient) DeleteParameters(context context.Context, names []string) error {
	for start := 0; start < len(names); start += ssmDeleteBatchSize {
		end := min(start+ssmDeleteBatchSize, len(names))
		_, err := s.client.DeleteParameters(context, &ssm.DeleteParametersInput{
			Names: names[start:end],
		})
		if err != nil {
			return fmt.Errorf("SSM DeleteParameters failed: %w", err)
		}
	}
	return nil
}
