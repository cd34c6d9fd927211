package topology

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// AssumeRolePrincipal is the service allowed to assume both task roles.
const AssumeRolePrincipal = "ecs-tasks.amazonaws.com"

// ExecutionManagedPolicy is attached to the execution role next to the scoped
// registry pull policy.
const ExecutionManagedPolicy = "arn:aws:iam::aws:policy/service-role/AmazonECSTaskExecutionRolePolicy"

// RegistryPullActions are the ECR actions the execution role needs to pull an
// image.
var RegistryPullActions = []string{
	"ecr:GetAuthorizationToken",
	"ecr:BatchCheckLayerAvailability",
	"ecr:GetDownloadUrlForLayer",
	"ecr:BatchGetImage",
}

var ErrWildcardResource = errors.New("registry pull policy must be scoped to a repository")

type ContainerHealthCheck struct {
	Command     []string      `validate:"min=1"`
	Interval    time.Duration `validate:"gte=5s,lte=300s"`
	Timeout     time.Duration `validate:"gte=2s,lte=60s"`
	Retries     int           `validate:"gte=1,lte=10"`
	StartPeriod time.Duration `validate:"gte=0,lte=300s"`
}

type ComputeSpec struct {
	ClusterName            string `validate:"required,max=255"`
	ServiceName            string `validate:"required,max=255"`
	Family                 string `validate:"required,max=255"`
	ContainerName          string `validate:"required"`
	CPU                    int    `validate:"required"`
	MemoryMiB              int    `validate:"required"`
	ReplicaCount           int    `validate:"gte=0"`
	ContainerPort          int    `validate:"gte=1,lte=65535"`
	CPUArchitecture        string `validate:"oneof=ARM64 X86_64"`
	HealthCheck            ContainerHealthCheck
	Environment            map[string]string
	LogGroupName           string        `validate:"required"`
	LogStreamPrefix        string        `validate:"required"`
	LogRetentionDays       int           `validate:"log_retention"`
	HealthCheckGracePeriod time.Duration `validate:"gte=0"`
	ContainerInsights      bool          `validate:"-"`
}

// fargateMemory lists the memory sizes (MiB) Fargate accepts per CPU unit count.
var fargateMemory = map[int]func(mem int) bool{
	256:   func(m int) bool { return m == 512 || m == 1024 || m == 2048 },
	512:   stepRange(1024, 4096, 1024),
	1024:  stepRange(2048, 8192, 1024),
	2048:  stepRange(4096, 16384, 1024),
	4096:  stepRange(8192, 30720, 1024),
	8192:  stepRange(16384, 61440, 4096),
	16384: stepRange(32768, 122880, 8192),
}

func stepRange(lo, hi, step int) func(int) bool {
	return func(m int) bool {
		return m >= lo && m <= hi && (m-lo)%step == 0
	}
}

// ValidFargateSize reports whether cpu units and memory MiB form a pairing
// Fargate can schedule.
func ValidFargateSize(cpu, memoryMiB int) bool {
	fits, ok := fargateMemory[cpu]
	return ok && fits(memoryMiB)
}

// ContainerRefs carries the values only known once upstream resources exist.
type ContainerRefs struct {
	Image    string
	LogGroup string
	Region   string
}

type ContainerDefinition struct {
	Name             string                  `json:"name"`
	Image            string                  `json:"image"`
	Essential        bool                    `json:"essential"`
	PortMappings     []PortMapping           `json:"portMappings"`
	Environment      []KeyValuePair          `json:"environment,omitempty"`
	HealthCheck      ContainerHealthCheckDef `json:"healthCheck"`
	LogConfiguration LogConfiguration        `json:"logConfiguration"`
}

type PortMapping struct {
	ContainerPort int    `json:"containerPort"`
	Protocol      string `json:"protocol"`
}

type KeyValuePair struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ContainerHealthCheckDef is the wire form of ContainerHealthCheck, in seconds.
type ContainerHealthCheckDef struct {
	Command     []string `json:"command"`
	Interval    int      `json:"interval"`
	Timeout     int      `json:"timeout"`
	Retries     int      `json:"retries"`
	StartPeriod int      `json:"startPeriod"`
}

type LogConfiguration struct {
	LogDriver string            `json:"logDriver"`
	Options   map[string]string `json:"options"`
}

// Container returns the single container of the task definition.
func (c ComputeSpec) Container(refs ContainerRefs) ContainerDefinition {
	keys := make([]string, 0, len(c.Environment))
	for k := range c.Environment {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	env := make([]KeyValuePair, 0, len(keys))
	for _, k := range keys {
		env = append(env, KeyValuePair{Name: k, Value: c.Environment[k]})
	}

	return ContainerDefinition{
		Name:      c.ContainerName,
		Image:     refs.Image,
		Essential: true,
		PortMappings: []PortMapping{
			{ContainerPort: c.ContainerPort, Protocol: "tcp"},
		},
		Environment: env,
		HealthCheck: ContainerHealthCheckDef{
			Command:     c.HealthCheck.Command,
			Interval:    int(c.HealthCheck.Interval.Seconds()),
			Timeout:     int(c.HealthCheck.Timeout.Seconds()),
			Retries:     c.HealthCheck.Retries,
			StartPeriod: int(c.HealthCheck.StartPeriod.Seconds()),
		},
		LogConfiguration: LogConfiguration{
			LogDriver: "awslogs",
			Options: map[string]string{
				"awslogs-group":         refs.LogGroup,
				"awslogs-region":        refs.Region,
				"awslogs-stream-prefix": c.LogStreamPrefix,
			},
		},
	}
}

// ContainerDefinitions renders the task definition's container list as JSON.
func (c ComputeSpec) ContainerDefinitions(refs ContainerRefs) (string, error) {
	b, err := json.Marshal([]ContainerDefinition{c.Container(refs)})
	if err != nil {
		return "", fmt.Errorf("marshal container definitions: %w", err)
	}
	return string(b), nil
}

// CurlHealthCommand probes the server's health endpoint from inside the
// container.
func CurlHealthCommand(port int) []string {
	return []string{"CMD-SHELL", fmt.Sprintf("curl -f http://localhost:%d/health || exit 1", port)}
}

type PolicyDocument struct {
	Version   string            `json:"Version"`
	Statement []PolicyStatement `json:"Statement"`
}

type PolicyStatement struct {
	Effect   string   `json:"Effect"`
	Action   []string `json:"Action"`
	Resource []string `json:"Resource"`
}

func (p PolicyDocument) JSON() (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal policy document: %w", err)
	}
	return string(b), nil
}

// ExecutionPolicy grants image pulls on exactly one repository.
func ExecutionPolicy(repositoryARN string) (PolicyDocument, error) {
	if repositoryARN == "" || strings.Contains(repositoryARN, "*") {
		return PolicyDocument{}, fmt.Errorf("%w: got %q", ErrWildcardResource, repositoryARN)
	}
	return PolicyDocument{
		Version: "2012-10-17",
		Statement: []PolicyStatement{
			{
				Effect:   "Allow",
				Action:   RegistryPullActions,
				Resource: []string{repositoryARN},
			},
		},
	}, nil
}
