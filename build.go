package main

import (
	"fmt"

	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/ecr"
	"github.com/pulumi/pulumi-docker/sdk/v4/go/docker"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"docker-express-env/internal/topology"
)

type EcrImageArgs struct {
	spec     topology.ImageSpec
	registry *Registry
}

type EcrImage struct {
	image      *docker.Image
	sourceHash string
}

func NewEcrDockerBuild(ctx *pulumi.Context, args EcrImageArgs) (*EcrImage, error) {
	ecrImage := &EcrImage{}

	var err error
	ecrImage.sourceHash, err = hashSources(args.spec.Sources...)
	if err != nil {
		return nil, fmt.Errorf("Error hashing image sources: %w", err)
	}

	repo := args.registry.repo
	authToken := ecr.GetAuthorizationTokenOutput(ctx, ecr.GetAuthorizationTokenOutputArgs{
		RegistryId: repo.RegistryId,
	})
	ecrImage.image, err = docker.NewImage(ctx, "app-image", &docker.ImageArgs{
		Registry: docker.RegistryArgs{
			Server:   repo.RepositoryUrl,
			Username: authToken.UserName(),
			Password: pulumi.ToSecret(authToken.ApplyT(func(authToken ecr.GetAuthorizationTokenResult) (*string, error) {
				return &authToken.Password, nil
			})).(pulumi.StringPtrOutput),
		},
		Build: docker.DockerBuildArgs{
			Platform:   pulumi.String(args.spec.Platform),
			Context:    pulumi.String(args.spec.Context),
			Dockerfile: pulumi.String(args.spec.Dockerfile),
			// A changed hash changes the build inputs, which forces a rebuild
			// and push even though the tag stays the same.
			Args: pulumi.StringMap{
				"SOURCE_HASH": pulumi.String(ecrImage.sourceHash),
			},
		},
		ImageName: args.registry.imageUri(args.spec.Tag),
	})
	if err != nil {
		return nil, fmt.Errorf("Error building image: %w", err)
	}

	return ecrImage, nil
}
