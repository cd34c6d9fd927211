package main

import (
	"fmt"

	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/ecr"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"docker-express-env/internal/topology"
)

type RegistryArgs struct {
	spec topology.RegistrySpec
}

type Registry struct {
	repo *ecr.Repository
}

func NewRegistry(ctx *pulumi.Context, args RegistryArgs) (*Registry, error) {
	registry := &Registry{}

	opts := []pulumi.ResourceOption{}
	if args.spec.DeletionPolicy == topology.DeletionRetain {
		opts = append(opts, pulumi.RetainOnDelete(true))
	}

	var err error
	registry.repo, err = ecr.NewRepository(ctx, "registry", &ecr.RepositoryArgs{
		Name:               pulumi.String(args.spec.RepositoryName),
		ImageTagMutability: pulumi.String(args.spec.TagMutability),
		ImageScanningConfiguration: &ecr.RepositoryImageScanningConfigurationArgs{
			ScanOnPush: pulumi.Bool(args.spec.ScanOnPush),
		},
		ForceDelete: pulumi.BoolPtr(args.spec.DeletionPolicy == topology.DeletionDestroy),
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("Error creating repo: %w", err)
	}

	policy, err := args.spec.LifecyclePolicy().JSON()
	if err != nil {
		return nil, fmt.Errorf("Error creating lifecycle policy: %w", err)
	}
	_, err = ecr.NewLifecyclePolicy(ctx, "registry-lifecycle", &ecr.LifecyclePolicyArgs{
		Repository: registry.repo.Name,
		Policy:     pulumi.String(policy),
	}, pulumi.Parent(registry.repo))
	if err != nil {
		return nil, fmt.Errorf("Error creating lifecycle policy: %w", err)
	}

	return registry, nil
}

// imageUri is the repository address of tag.
func (r *Registry) imageUri(tag string) pulumi.StringOutput {
	return r.repo.RepositoryUrl.ApplyT(func(url string) string {
		return fmt.Sprintf("%s:%s", url, tag)
	}).(pulumi.StringOutput)
}
