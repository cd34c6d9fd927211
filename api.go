package main

import (
	"fmt"

	apigwv2 "github.com/pulumi/pulumi-aws/sdk/v6/go/aws/apigatewayv2"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/lambda"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

type Api struct {
	api          *apigwv2.Api
	defaultStage *apigwv2.Stage
	url          pulumi.StringOutput
}

// NewApi creates the HTTP API that fronts the preview function.
func NewApi(ctx *pulumi.Context) (*Api, error) {
	api := &Api{}
	var err error
	api.api, err = apigwv2.NewApi(ctx, "api", &apigwv2.ApiArgs{
		ProtocolType: pulumi.String("HTTP"),
	})
	if err != nil {
		return nil, fmt.Errorf("Error creating api: %w", err)
	}

	api.defaultStage, err = apigwv2.NewStage(ctx, "default-stage", &apigwv2.StageArgs{
		ApiId:      api.api.ID(),
		Name:       pulumi.String("$default"),
		AutoDeploy: pulumi.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("Error creating stage: %w", err)
	}
	api.url = api.defaultStage.InvokeUrl

	return api, nil
}

// registerLambda routes every request to handler, which does its own routing.
func (a *Api) registerLambda(ctx *pulumi.Context, handler *lambda.Function) error {
	integration, err := apigwv2.NewIntegration(ctx, "lambda-integration", &apigwv2.IntegrationArgs{
		ApiId:                a.api.ID(),
		IntegrationMethod:    pulumi.String("POST"),
		IntegrationType:      pulumi.String("AWS_PROXY"),
		IntegrationUri:       handler.Arn,
		PayloadFormatVersion: pulumi.String("2.0"),
	})
	if err != nil {
		return fmt.Errorf("Error creating integration: %w", err)
	}

	_, err = apigwv2.NewRoute(ctx, "lambda-route", &apigwv2.RouteArgs{
		ApiId:    a.api.ID(),
		RouteKey: pulumi.String("$default"),
		Target:   pulumi.Sprintf("integrations/%s", integration.ID()),
	})
	if err != nil {
		return fmt.Errorf("Error creating route: %w", err)
	}

	_, err = lambda.NewPermission(ctx, "apigw-lambda-permission", &lambda.PermissionArgs{
		Action:    pulumi.String("lambda:InvokeFunction"),
		SourceArn: pulumi.Sprintf("%s/*/*", a.api.ExecutionArn),
		Function:  handler.Name,
		Principal: pulumi.String("apigateway.amazonaws.com"),
	})
	if err != nil {
		return fmt.Errorf("Error creating lambda permission: %w", err)
	}

	return nil
}
