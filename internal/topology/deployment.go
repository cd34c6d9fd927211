package topology

import (
	"strconv"
	"time"
)

type PreviewSpec struct {
	Enabled   bool          `validate:"-"`
	MemoryMiB int           `validate:"gte=128,lte=10240"`
	Timeout   time.Duration `validate:"gte=1s,lte=30s"`
}

// Deployment is the full description of one stack. It is built once when the
// program starts and never mutated afterwards.
type Deployment struct {
	Environment string `validate:"required"`
	Network     NetworkSpec
	Registry    RegistrySpec
	Image       ImageSpec
	Compute     ComputeSpec
	Edge        EdgeSpec
	Preview     PreviewSpec
}

const defaultPort = 3000

func DefaultDeployment() Deployment {
	return Deployment{
		Environment: "production",
		Network: NetworkSpec{
			CIDRBlock:      "10.0.0.0/16",
			MinAZs:         1,
			SubnetCIDRMask: 24,
			Visibility:     VisibilityPublic,
			NATGateways:    0,
		},
		Registry: RegistrySpec{
			RepositoryName:     "docker-express-env",
			ScanOnPush:         true,
			MaxUntaggedAgeDays: 7,
			DeletionPolicy:     DeletionDestroy,
			TagMutability:      "MUTABLE",
		},
		Image: ImageSpec{
			Build:      true,
			Context:    ".",
			Dockerfile: "app/Dockerfile",
			Platform:   "linux/arm64",
			Tag:        "latest",
			Sources:    []string{"app", "internal", "go.mod", "go.sum"},
		},
		Compute: ComputeSpec{
			ClusterName:     "docker-express-cluster",
			ServiceName:     "docker-express-service",
			Family:          "docker-express",
			ContainerName:   "app",
			CPU:             256,
			MemoryMiB:       512,
			ReplicaCount:    1,
			ContainerPort:   defaultPort,
			CPUArchitecture: "ARM64",
			HealthCheck: ContainerHealthCheck{
				Command:     CurlHealthCommand(defaultPort),
				Interval:    30 * time.Second,
				Timeout:     5 * time.Second,
				Retries:     3,
				StartPeriod: 60 * time.Second,
			},
			Environment: map[string]string{
				"APP_ENV": "production",
				"PORT":    "3000",
			},
			LogGroupName:           "/ecs/docker-express-env",
			LogStreamPrefix:        "docker-express",
			LogRetentionDays:       1,
			HealthCheckGracePeriod: 60 * time.Second,
		},
		Edge: EdgeSpec{
			LoadBalancerName: "docker-express-alb",
			TargetGroupName:  "docker-express-tg",
			ListenerPort:     80,
			ListenerProtocol: "HTTP",
			TargetPort:       defaultPort,
			TargetProtocol:   "HTTP",
			TargetType:       "ip",
			HealthCheck: TargetHealthCheck{
				Path:               "/health",
				Interval:           30 * time.Second,
				Timeout:            5 * time.Second,
				HealthyThreshold:   2,
				UnhealthyThreshold: 3,
				Matcher:            "200",
			},
		},
		Preview: PreviewSpec{
			Enabled:   false,
			MemoryMiB: 128,
			Timeout:   10 * time.Second,
		},
	}
}

// WithContainerPort moves the application port everywhere it is referenced:
// the port mapping, the container health check, the PORT variable and the
// target group.
func (d Deployment) WithContainerPort(port int) Deployment {
	d.Compute.ContainerPort = port
	d.Compute.HealthCheck.Command = CurlHealthCommand(port)
	d.Compute.Environment = d.environmentWith("PORT", strconv.Itoa(port))
	d.Edge.TargetPort = port
	return d
}

// WithEnvironment sets the deployment environment and the APP_ENV variable
// passed to the container.
func (d Deployment) WithEnvironment(env string) Deployment {
	d.Environment = env
	d.Compute.Environment = d.environmentWith("APP_ENV", env)
	return d
}

func (d Deployment) environmentWith(key, value string) map[string]string {
	env := make(map[string]string, len(d.Compute.Environment)+1)
	for k, v := range d.Compute.Environment {
		env[k] = v
	}
	env[key] = value
	return env
}

// Graph returns the dependency graph of the constructs this deployment
// instantiates.
func (d Deployment) Graph() *Graph {
	nodes := []Node{
		{Name: NodeNetwork},
		{Name: NodeRegistry},
		{Name: NodeCompute, Deps: []string{NodeNetwork, NodeRegistry, NodeImage}},
		{Name: NodeEdge, Deps: []string{NodeNetwork, NodeCompute}},
	}
	if d.Image.Build {
		nodes = append(nodes, Node{Name: NodeImage, Deps: []string{NodeRegistry}})
	}
	if d.Preview.Enabled {
		nodes = append(nodes, Node{Name: NodePreview})
	}
	return BuildGraph(nodes)
}
