package topology

import (
	"encoding/json"
	"fmt"
)

type DeletionPolicy string

const (
	DeletionDestroy DeletionPolicy = "destroy"
	DeletionRetain  DeletionPolicy = "retain"
)

type RegistrySpec struct {
	RepositoryName     string         `validate:"required,ecr_repository"`
	ScanOnPush         bool           `validate:"-"`
	MaxUntaggedAgeDays int            `validate:"gte=1"`
	DeletionPolicy     DeletionPolicy `validate:"oneof=destroy retain"`
	TagMutability      string         `validate:"oneof=MUTABLE IMMUTABLE"`
}

type LifecyclePolicy struct {
	Rules []LifecycleRule `json:"rules"`
}

type LifecycleRule struct {
	RulePriority int               `json:"rulePriority"`
	Description  string            `json:"description"`
	Selection    LifecycleSelector `json:"selection"`
	Action       LifecycleAction   `json:"action"`
}

type LifecycleSelector struct {
	TagStatus   string `json:"tagStatus"`
	CountType   string `json:"countType"`
	CountUnit   string `json:"countUnit"`
	CountNumber int    `json:"countNumber"`
}

type LifecycleAction struct {
	Type string `json:"type"`
}

// LifecyclePolicy has a single rule: untagged images older than
// MaxUntaggedAgeDays expire.
func (r RegistrySpec) LifecyclePolicy() LifecyclePolicy {
	return LifecyclePolicy{
		Rules: []LifecycleRule{
			{
				RulePriority: 1,
				Description:  fmt.Sprintf("Clean up untagged images older than %d days", r.MaxUntaggedAgeDays),
				Selection: LifecycleSelector{
					TagStatus:   "untagged",
					CountType:   "sinceImagePushed",
					CountUnit:   "days",
					CountNumber: r.MaxUntaggedAgeDays,
				},
				Action: LifecycleAction{Type: "expire"},
			},
		},
	}
}

func (p LifecyclePolicy) JSON() (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal lifecycle policy: %w", err)
	}
	return string(b), nil
}

// ImageSpec controls the optional build and push of the application image.
type ImageSpec struct {
	Build      bool     `validate:"-"`
	Context    string   `validate:"required_if=Build true"`
	Dockerfile string   `validate:"required_if=Build true"`
	Platform   string   `validate:"oneof=linux/arm64 linux/amd64"`
	Tag        string   `validate:"required"`
	Sources    []string `validate:"dive,required"`
}

// Architecture returns the ECS CPU architecture matching the build platform.
func (i ImageSpec) Architecture() string {
	if i.Platform == "linux/amd64" {
		return "X86_64"
	}
	return "ARM64"
}
