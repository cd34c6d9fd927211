package main

import (
	"fmt"

	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/cloudwatch"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/ecs"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/iam"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/lb"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"docker-express-env/internal/topology"
)

type EcsServiceArgs struct {
	spec        topology.ComputeSpec
	networkSpec topology.NetworkSpec
	imageTag    string
	network     *Network
	registry    *Registry
	// image is nil when the image is pushed outside of this program.
	image *EcrImage
}

type EcsService struct {
	spec           topology.ComputeSpec
	cluster        *ecs.Cluster
	logGroup       *cloudwatch.LogGroup
	executionRole  *iam.Role
	taskRole       *iam.Role
	taskdef        *ecs.TaskDefinition
	subnets        pulumi.StringArrayOutput
	assignPublicIp bool
	sg             pulumi.IDOutput
	service        *ecs.Service
}

func NewEcsService(ctx *pulumi.Context, args EcsServiceArgs) (*EcsService, error) {
	ecsService := &EcsService{
		spec: args.spec,
		sg:   args.network.computeSg.ID(),
	}
	ecsService.subnets, ecsService.assignPublicIp = args.network.computeSubnetIds(args.networkSpec)

	region, err := aws.GetRegion(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Error looking up region: %w", err)
	}

	insights := "disabled"
	if args.spec.ContainerInsights {
		insights = "enabled"
	}
	ecsService.cluster, err = ecs.NewCluster(ctx, "cluster", &ecs.ClusterArgs{
		Name: pulumi.String(args.spec.ClusterName),
		Settings: ecs.ClusterSettingArray{
			ecs.ClusterSettingArgs{
				Name:  pulumi.String("containerInsights"),
				Value: pulumi.String(insights),
			},
		},
		Tags: pulumi.StringMap{
			"vpc": args.network.vpc.VpcId,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("Error creating cluster: %w", err)
	}

	ecsService.logGroup, err = cloudwatch.NewLogGroup(ctx, "app-log-group", &cloudwatch.LogGroupArgs{
		Name:            pulumi.String(args.spec.LogGroupName),
		RetentionInDays: pulumi.IntPtr(args.spec.LogRetentionDays),
		SkipDestroy:     pulumi.BoolPtr(false),
	})
	if err != nil {
		return nil, fmt.Errorf("Error creating log group: %w", err)
	}

	pullPolicy := args.registry.repo.Arn.ApplyT(func(arn string) (string, error) {
		doc, err := topology.ExecutionPolicy(arn)
		if err != nil {
			return "", err
		}
		return doc.JSON()
	}).(pulumi.StringOutput)
	ecsService.executionRole, err = newServiceRole(ctx, "execution-role", topology.AssumeRolePrincipal, iam.RoleArgs{
		ManagedPolicyArns: pulumi.ToStringArray([]string{topology.ExecutionManagedPolicy}),
		InlinePolicies: iam.RoleInlinePolicyArray{
			iam.RoleInlinePolicyArgs{
				Name:   pulumi.String("ecr-access"),
				Policy: pullPolicy,
			},
		},
	})
	if err != nil {
		return nil, err
	}

	// The task role carries no policies; it is the identity the application
	// itself uses for AWS calls.
	ecsService.taskRole, err = newServiceRole(ctx, "task-role", topology.AssumeRolePrincipal, iam.RoleArgs{})
	if err != nil {
		return nil, err
	}

	containerDef := pulumi.All(args.registry.imageUri(args.imageTag), ecsService.logGroup.Name).ApplyT(
		func(vals []interface{}) (string, error) {
			return args.spec.ContainerDefinitions(topology.ContainerRefs{
				Image:    vals[0].(string),
				LogGroup: vals[1].(string),
				Region:   region.Name,
			})
		}).(pulumi.StringOutput)

	opts := []pulumi.ResourceOption{}
	if args.image != nil {
		opts = append(opts, pulumi.DependsOn([]pulumi.Resource{args.image.image}))
	}
	ecsService.taskdef, err = ecs.NewTaskDefinition(ctx, "taskdef", &ecs.TaskDefinitionArgs{
		ContainerDefinitions:    containerDef,
		Family:                  pulumi.String(args.spec.Family),
		Cpu:                     pulumi.String(fmt.Sprint(args.spec.CPU)),
		Memory:                  pulumi.String(fmt.Sprint(args.spec.MemoryMiB)),
		ExecutionRoleArn:        ecsService.executionRole.Arn,
		TaskRoleArn:             ecsService.taskRole.Arn,
		RequiresCompatibilities: pulumi.ToStringArray([]string{"FARGATE"}),
		NetworkMode:             pulumi.String("awsvpc"),
		RuntimePlatform: ecs.TaskDefinitionRuntimePlatformArgs{
			CpuArchitecture:       pulumi.String(args.spec.CPUArchitecture),
			OperatingSystemFamily: pulumi.String("LINUX"),
		},
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("Error creating taskdef: %w", err)
	}

	return ecsService, nil
}

// attachTargetGroup starts the Fargate service with its tasks registered in
// tg. ECS rejects target groups that no load balancer forwards to yet, so the
// service waits for listener.
func (s *EcsService) attachTargetGroup(ctx *pulumi.Context, tg *lb.TargetGroup, listener *lb.Listener) error {
	if s.service != nil {
		return fmt.Errorf("Error attaching target group: service %s is already attached", s.spec.ServiceName)
	}
	service, err := ecs.NewService(ctx, "service", &ecs.ServiceArgs{
		Name:                            pulumi.String(s.spec.ServiceName),
		Cluster:                         s.cluster.Arn,
		TaskDefinition:                  s.taskdef.Arn,
		DesiredCount:                    pulumi.IntPtr(s.spec.ReplicaCount),
		LaunchType:                      pulumi.String("FARGATE"),
		PlatformVersion:                 pulumi.String("LATEST"),
		HealthCheckGracePeriodSeconds:   pulumi.IntPtr(int(s.spec.HealthCheckGracePeriod.Seconds())),
		DeploymentMaximumPercent:        pulumi.IntPtr(200),
		DeploymentMinimumHealthyPercent: pulumi.IntPtr(100),
		DeploymentCircuitBreaker: ecs.ServiceDeploymentCircuitBreakerArgs{
			Enable:   pulumi.Bool(true),
			Rollback: pulumi.Bool(true),
		},
		WaitForSteadyState: pulumi.BoolPtr(true),
		NetworkConfiguration: ecs.ServiceNetworkConfigurationArgs{
			AssignPublicIp: pulumi.BoolPtr(s.assignPublicIp),
			SecurityGroups: pulumi.StringArray{s.sg},
			Subnets:        s.subnets,
		},
		LoadBalancers: ecs.ServiceLoadBalancerArray{
			ecs.ServiceLoadBalancerArgs{
				ContainerName:  pulumi.String(s.spec.ContainerName),
				ContainerPort:  pulumi.Int(s.spec.ContainerPort),
				TargetGroupArn: tg.Arn,
			},
		},
	}, pulumi.DependsOn([]pulumi.Resource{listener}))
	if err != nil {
		return fmt.Errorf("Error creating service: %w", err)
	}
	s.service = service
	return nil
}
