package main

import (
	"fmt"

	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/lb"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"docker-express-env/internal/topology"
)

type LoadBalancerArgs struct {
	spec    topology.EdgeSpec
	network *Network
	service *EcsService
}

type LoadBalancer struct {
	alb         *lb.LoadBalancer
	targetGroup *lb.TargetGroup
	listener    *lb.Listener
	url         pulumi.StringOutput
	healthUrl   pulumi.StringOutput
}

func NewLoadBalancer(ctx *pulumi.Context, args LoadBalancerArgs) (*LoadBalancer, error) {
	edge := &LoadBalancer{}
	var err error

	edge.alb, err = lb.NewLoadBalancer(ctx, "alb", &lb.LoadBalancerArgs{
		Name:             pulumi.String(args.spec.LoadBalancerName),
		Internal:         pulumi.BoolPtr(false),
		LoadBalancerType: pulumi.String("application"),
		SecurityGroups:   pulumi.StringArray{args.network.edgeSg.ID()},
		Subnets:          args.network.vpc.PublicSubnetIds,
	})
	if err != nil {
		return nil, fmt.Errorf("Error creating load balancer: %w", err)
	}

	hc := args.spec.HealthCheck
	edge.targetGroup, err = lb.NewTargetGroup(ctx, "target-group", &lb.TargetGroupArgs{
		Name:       pulumi.String(args.spec.TargetGroupName),
		Port:       pulumi.IntPtr(args.spec.TargetPort),
		Protocol:   pulumi.String(args.spec.TargetProtocol),
		TargetType: pulumi.String(args.spec.TargetType),
		VpcId:      args.network.vpc.VpcId,
		HealthCheck: &lb.TargetGroupHealthCheckArgs{
			Enabled:            pulumi.BoolPtr(true),
			Path:               pulumi.String(hc.Path),
			Protocol:           pulumi.String(args.spec.TargetProtocol),
			Port:               pulumi.String(fmt.Sprint(args.spec.TargetPort)),
			Interval:           pulumi.IntPtr(int(hc.Interval.Seconds())),
			Timeout:            pulumi.IntPtr(int(hc.Timeout.Seconds())),
			HealthyThreshold:   pulumi.IntPtr(hc.HealthyThreshold),
			UnhealthyThreshold: pulumi.IntPtr(hc.UnhealthyThreshold),
			Matcher:            pulumi.String(hc.Matcher),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("Error creating target group: %w", err)
	}

	edge.listener, err = lb.NewListener(ctx, "listener", &lb.ListenerArgs{
		LoadBalancerArn: edge.alb.Arn,
		Port:            pulumi.IntPtr(args.spec.ListenerPort),
		Protocol:        pulumi.String(args.spec.ListenerProtocol),
		DefaultActions: lb.ListenerDefaultActionArray{
			lb.ListenerDefaultActionArgs{
				Type:           pulumi.String("forward"),
				TargetGroupArn: edge.targetGroup.Arn,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("Error creating listener: %w", err)
	}

	if err := args.service.attachTargetGroup(ctx, edge.targetGroup, edge.listener); err != nil {
		return nil, err
	}

	edge.url = edge.alb.DnsName.ApplyT(func(dns string) string {
		base, _ := args.spec.URLs(dns)
		return base
	}).(pulumi.StringOutput)
	edge.healthUrl = edge.alb.DnsName.ApplyT(func(dns string) string {
		_, health := args.spec.URLs(dns)
		return health
	}).(pulumi.StringOutput)

	return edge, nil
}
