package main

import (
	"fmt"
	"strings"

	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"docker-express-env/internal/topology"
)

func main() {
	pulumi.Run(func(ctx *pulumi.Context) error {
		d, err := loadDeployment(ctx)
		if err != nil {
			return err
		}
		_, err = deploy(ctx, d)
		return err
	})
}

// stack holds the handle of every construct deploy instantiated.
type stack struct {
	network  *Network
	registry *Registry
	image    *EcrImage
	compute  *EcsService
	edge     *LoadBalancer
	api      *Api
	preview  *LambdaHandler
}

// deploy validates d and instantiates its constructs in dependency order.
// Nothing is registered when validation fails.
func deploy(ctx *pulumi.Context, d topology.Deployment) (*stack, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	order, err := d.Graph().Order()
	if err != nil {
		return nil, err
	}
	ctx.Log.Info(fmt.Sprintf("provisioning order: %s", strings.Join(order, " -> ")), nil)

	s := &stack{}
	steps := map[string]func() error{
		topology.NodeNetwork: func() (err error) {
			s.network, err = NewNetwork(ctx, NetworkArgs{
				spec:          d.Network,
				containerPort: d.Compute.ContainerPort,
			})
			return err
		},
		topology.NodeRegistry: func() (err error) {
			s.registry, err = NewRegistry(ctx, RegistryArgs{spec: d.Registry})
			return err
		},
		topology.NodeImage: func() (err error) {
			s.image, err = NewEcrDockerBuild(ctx, EcrImageArgs{
				spec:     d.Image,
				registry: s.registry,
			})
			return err
		},
		topology.NodeCompute: func() (err error) {
			s.compute, err = NewEcsService(ctx, EcsServiceArgs{
				spec:        d.Compute,
				networkSpec: d.Network,
				imageTag:    d.Image.Tag,
				network:     s.network,
				registry:    s.registry,
				image:       s.image,
			})
			return err
		},
		topology.NodeEdge: func() (err error) {
			s.edge, err = NewLoadBalancer(ctx, LoadBalancerArgs{
				spec:    d.Edge,
				network: s.network,
				service: s.compute,
			})
			return err
		},
		topology.NodePreview: func() (err error) {
			s.api, err = NewApi(ctx)
			if err != nil {
				return err
			}
			s.preview, err = NewLambdaHandler(ctx, LambdaHandlerArgs{
				spec:        d.Preview,
				environment: d.Environment,
				api:         s.api,
			})
			return err
		},
	}

	for _, name := range order {
		step, ok := steps[name]
		if !ok {
			return nil, fmt.Errorf("Error deploying %s: no construct registered", name)
		}
		if err := step(); err != nil {
			return nil, fmt.Errorf("Error deploying %s: %w", name, err)
		}
	}
	if s.compute.service == nil {
		return nil, fmt.Errorf("Error deploying %s: service was never attached to a target group", topology.NodeCompute)
	}

	s.export(ctx)
	return s, nil
}

func (s *stack) export(ctx *pulumi.Context) {
	ctx.Export("vpcId", s.network.vpc.VpcId)
	ctx.Export("ecrRepositoryUri", s.registry.repo.RepositoryUrl)
	ctx.Export("clusterName", s.compute.cluster.Name)
	ctx.Export("serviceName", s.compute.service.Name)
	ctx.Export("loadBalancerDns", s.edge.alb.DnsName)
	ctx.Export("loadBalancerUrl", s.edge.url)
	ctx.Export("healthCheckUrl", s.edge.healthUrl)
	if s.api != nil {
		ctx.Export("previewUrl", s.api.url)
	}
}
