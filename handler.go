package main

import (
	"fmt"

	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/iam"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/lambda"
	"github.com/pulumi/pulumi-command/sdk/go/command/local"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"docker-express-env/internal/topology"
)

const (
	previewBinary    = "asset/bootstrap"
	previewArch      = "arm64"
	previewPrincipal = "lambda.amazonaws.com"
)

type LambdaHandlerArgs struct {
	spec        topology.PreviewSpec
	environment string
	api         *Api
}

// LambdaHandler is the application server packaged as a Lambda function.
type LambdaHandler struct {
	role     *iam.Role
	function *lambda.Function
}

// NewLambdaHandler compiles cmd/app, deploys it as a function and routes the
// whole API to it.
func NewLambdaHandler(ctx *pulumi.Context, args LambdaHandlerArgs) (*LambdaHandler, error) {
	if err := compilePreview(ctx); err != nil {
		return nil, err
	}

	preview := &LambdaHandler{}
	var err error
	preview.role, err = newServiceRole(ctx, "preview-role", previewPrincipal, iam.RoleArgs{
		ManagedPolicyArns: pulumi.ToStringArray([]string{
			string(iam.ManagedPolicyAWSLambdaBasicExecutionRole),
		}),
	})
	if err != nil {
		return nil, err
	}

	preview.function, err = lambda.NewFunction(ctx, "preview", &lambda.FunctionArgs{
		Architectures: pulumi.ToStringArray([]string{previewArch}),
		Role:          preview.role.Arn,
		Code: pulumi.NewAssetArchive(map[string]interface{}{
			"bootstrap": pulumi.NewFileAsset(previewBinary),
		}),
		Handler:    pulumi.String("bootstrap"),
		Runtime:    pulumi.String("provided.al2023"),
		MemorySize: pulumi.IntPtr(args.spec.MemoryMiB),
		Timeout:    pulumi.IntPtr(int(args.spec.Timeout.Seconds())),
		Environment: &lambda.FunctionEnvironmentArgs{
			Variables: pulumi.StringMap{
				"APP_ENV": pulumi.String(args.environment),
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("Error creating preview function: %w", err)
	}

	if err := args.api.registerLambda(ctx, preview.function); err != nil {
		return nil, err
	}
	return preview, nil
}

// compilePreview builds the Lambda bootstrap binary into previewBinary.
func compilePreview(ctx *pulumi.Context) error {
	_, err := local.Run(ctx, &local.RunArgs{
		Dir: pulumi.StringRef("."),
		Command: fmt.Sprintf(
			"mkdir -p asset && GOOS=linux GOARCH=%s CGO_ENABLED=0 go build -mod=readonly -trimpath -o %s ./cmd/app",
			previewArch, previewBinary,
		),
		AssetPaths: []string{previewBinary},
	})
	if err != nil {
		return fmt.Errorf("Error compiling preview binary: %w", err)
	}
	return nil
}
