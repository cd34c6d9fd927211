package main

import (
	"fmt"

	ec2_classic "github.com/pulumi/pulumi-aws/sdk/v6/go/aws/ec2"
	"github.com/pulumi/pulumi-awsx/sdk/v2/go/awsx/ec2"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"docker-express-env/internal/topology"
)

type NetworkArgs struct {
	spec          topology.NetworkSpec
	containerPort int
}

type Network struct {
	vpc       *ec2.Vpc
	edgeSg    *ec2_classic.SecurityGroup
	computeSg *ec2_classic.SecurityGroup
}

func NewNetwork(ctx *pulumi.Context, args NetworkArgs) (*Network, error) {
	var err error
	network := &Network{}

	strategy, ok := args.spec.NATStrategy()
	if !ok {
		return nil, fmt.Errorf("Error creating vpc: unsupported NAT gateway count %d", args.spec.NATGateways)
	}
	subnets := []ec2.SubnetSpecArgs{
		{
			Type:     ec2.SubnetTypePublic,
			Name:     pulumi.StringRef("public"),
			CidrMask: pulumi.IntRef(args.spec.SubnetCIDRMask),
		},
	}
	if args.spec.Visibility == topology.VisibilityPrivate {
		subnets = append(subnets, ec2.SubnetSpecArgs{
			Type:     ec2.SubnetTypePrivate,
			Name:     pulumi.StringRef("private"),
			CidrMask: pulumi.IntRef(args.spec.SubnetCIDRMask),
		})
	}

	as := ec2.SubnetAllocationStrategyAuto
	network.vpc, err = ec2.NewVpc(ctx, "vpc", &ec2.VpcArgs{
		CidrBlock:                 pulumi.StringRef(args.spec.CIDRBlock),
		NumberOfAvailabilityZones: pulumi.IntRef(args.spec.EffectiveAZs()),
		NatGateways:               &ec2.NatGatewayConfigurationArgs{Strategy: ec2.NatGatewayStrategy(strategy)},
		SubnetSpecs:               subnets,
		SubnetStrategy:            &as,
		EnableDnsHostnames:        pulumi.BoolPtr(true),
	})
	if err != nil {
		return nil, fmt.Errorf("Error creating vpc: %w", err)
	}

	rules := topology.SecurityRules(args.containerPort)

	network.edgeSg, err = ec2_classic.NewSecurityGroup(ctx, "edge-sg", &ec2_classic.SecurityGroupArgs{
		VpcId:               network.vpc.VpcId,
		Description:         pulumi.String("Security group for Application Load Balancer"),
		Ingress:             ingress(topology.IngressFor(topology.GroupEdge, rules), nil),
		Egress:              egressAll(),
		RevokeRulesOnDelete: pulumi.BoolPtr(true),
	})
	if err != nil {
		return nil, fmt.Errorf("Error creating edge security group: %w", err)
	}

	groups := map[string]*ec2_classic.SecurityGroup{topology.GroupEdge: network.edgeSg}
	network.computeSg, err = ec2_classic.NewSecurityGroup(ctx, "compute-sg", &ec2_classic.SecurityGroupArgs{
		VpcId:               network.vpc.VpcId,
		Description:         pulumi.String("Security group for ECS Fargate service"),
		Ingress:             ingress(topology.IngressFor(topology.GroupCompute, rules), groups),
		Egress:              egressAll(),
		RevokeRulesOnDelete: pulumi.BoolPtr(true),
	})
	if err != nil {
		return nil, fmt.Errorf("Error creating compute security group: %w", err)
	}

	return network, nil
}

// computeSubnetIds are the subnets tasks run in. Without private subnets the
// tasks sit in the public ones and need a public IP to reach the registry.
func (n *Network) computeSubnetIds(spec topology.NetworkSpec) (pulumi.StringArrayOutput, bool) {
	if spec.Visibility == topology.VisibilityPrivate {
		return n.vpc.PrivateSubnetIds, false
	}
	return n.vpc.PublicSubnetIds, true
}

func egressAll() ec2_classic.SecurityGroupEgressArray {
	return ec2_classic.SecurityGroupEgressArray{
		ec2_classic.SecurityGroupEgressArgs{
			CidrBlocks:  pulumi.ToStringArray([]string{"0.0.0.0/0"}),
			Description: pulumi.String("Egress all"),
			Protocol:    pulumi.String("-1"),
			FromPort:    pulumi.Int(0),
			ToPort:      pulumi.Int(0),
		},
	}
}

// ingress turns rules into inline ingress blocks. Group peers are resolved
// through groups.
func ingress(rules []topology.SecurityRule, groups map[string]*ec2_classic.SecurityGroup) ec2_classic.SecurityGroupIngressArray {
	out := ec2_classic.SecurityGroupIngressArray{}
	for _, r := range rules {
		rule := ec2_classic.SecurityGroupIngressArgs{
			FromPort:    pulumi.Int(r.Port),
			ToPort:      pulumi.Int(r.Port),
			Protocol:    pulumi.String(r.Protocol),
			Description: pulumi.String(r.Description),
		}
		if r.Peer.CIDR != "" {
			rule.CidrBlocks = pulumi.ToStringArray([]string{r.Peer.CIDR})
		}
		if sg, ok := groups[r.Peer.Group]; ok {
			rule.SecurityGroups = pulumi.StringArray{sg.ID()}
		}
		out = append(out, rule)
	}
	return out
}
