package gateway

import (
	"context"
	"fmt"

	appconfig "apigw-exporter/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/apigatewayv2"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
)

// NewAWSClients builds the CloudWatch and API Gateway clients from the
// default credential chain. When an endpoint override is configured (the
// cmd/mock-gateway workflow) both clients are pointed at it and static
// placeholder credentials are used so no real AWS account is needed.
func NewAWSClients(ctx context.Context, cfg appconfig.AWSConfig) (*cloudwatch.Client, *apigatewayv2.Client, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.Endpoint != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("local", "local", ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("load aws config: %w", err)
	}

	cw := cloudwatch.NewFromConfig(awsCfg, func(o *cloudwatch.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	gw := apigatewayv2.NewFromConfig(awsCfg, func(o *apigatewayv2.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return cw, gw, nil
}
