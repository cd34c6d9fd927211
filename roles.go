package main

import (
	"fmt"

	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/iam"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// newServiceRole creates role name, assumable by the AWS service principal.
// The trust policy in args is always replaced.
func newServiceRole(ctx *pulumi.Context, name, principal string, args iam.RoleArgs) (*iam.Role, error) {
	trust, err := iam.GetPolicyDocument(ctx, &iam.GetPolicyDocumentArgs{
		Statements: []iam.GetPolicyDocumentStatement{
			{
				Actions: []string{"sts:AssumeRole"},
				Principals: []iam.GetPolicyDocumentStatementPrincipal{
					{Type: "Service", Identifiers: []string{principal}},
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("Error creating trust policy for %s: %w", name, err)
	}

	args.AssumeRolePolicy = pulumi.String(trust.Json)
	role, err := iam.NewRole(ctx, name, &args)
	if err != nil {
		return nil, fmt.Errorf("Error creating %s: %w", name, err)
	}
	return role, nil
}
