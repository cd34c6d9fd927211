package main

import (
	"fmt"
	"strconv"

	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi/config"

	"docker-express-env/internal/topology"
)

// loadDeployment overlays the stack configuration on the default deployment.
// Unset keys keep their defaults; malformed values are reported before
// anything is created.
func loadDeployment(ctx *pulumi.Context) (topology.Deployment, error) {
	cfg := config.New(ctx, "")
	d := topology.DefaultDeployment()

	if env := cfg.Get("environment"); env != "" {
		d = d.WithEnvironment(env)
	}
	port := d.Compute.ContainerPort
	if err := intVar(cfg, "containerPort", &port); err != nil {
		return d, err
	}
	if port != d.Compute.ContainerPort {
		d = d.WithContainerPort(port)
	}

	stringVar(cfg, "cidrBlock", &d.Network.CIDRBlock)
	if v := cfg.Get("visibility"); v != "" {
		d.Network.Visibility = topology.Visibility(v)
	}
	stringVar(cfg, "repositoryName", &d.Registry.RepositoryName)
	if v := cfg.Get("deletionPolicy"); v != "" {
		d.Registry.DeletionPolicy = topology.DeletionPolicy(v)
	}
	stringVar(cfg, "platform", &d.Image.Platform)
	stringVar(cfg, "cpuArchitecture", &d.Compute.CPUArchitecture)
	stringVar(cfg, "clusterName", &d.Compute.ClusterName)
	stringVar(cfg, "serviceName", &d.Compute.ServiceName)
	stringVar(cfg, "loadBalancerName", &d.Edge.LoadBalancerName)
	stringVar(cfg, "targetGroupName", &d.Edge.TargetGroupName)

	ints := []struct {
		key string
		dst *int
	}{
		{"minAzs", &d.Network.MinAZs},
		{"natGateways", &d.Network.NATGateways},
		{"maxUntaggedAgeDays", &d.Registry.MaxUntaggedAgeDays},
		{"cpu", &d.Compute.CPU},
		{"memory", &d.Compute.MemoryMiB},
		{"replicaCount", &d.Compute.ReplicaCount},
		{"logRetentionDays", &d.Compute.LogRetentionDays},
	}
	for _, v := range ints {
		if err := intVar(cfg, v.key, v.dst); err != nil {
			return d, err
		}
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"scanOnPush", &d.Registry.ScanOnPush},
		{"buildImage", &d.Image.Build},
		{"containerInsights", &d.Compute.ContainerInsights},
		{"preview", &d.Preview.Enabled},
	}
	for _, v := range bools {
		if err := boolVar(cfg, v.key, v.dst); err != nil {
			return d, err
		}
	}

	return d, nil
}

func stringVar(cfg *config.Config, key string, dst *string) {
	if v := cfg.Get(key); v != "" {
		*dst = v
	}
}

func intVar(cfg *config.Config, key string, dst *int) error {
	v := cfg.Get(key)
	if v == "" {
		return nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%w: config %q: %q is not an integer", topology.ErrInvalidDeployment, key, v)
	}
	*dst = i
	return nil
}

func boolVar(cfg *config.Config, key string, dst *bool) error {
	v := cfg.Get(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%w: config %q: %q is not a boolean", topology.ErrInvalidDeployment, key, v)
	}
	*dst = b
	return nil
}
