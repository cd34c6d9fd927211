package topology

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"

	"github.com/go-playground/validator/v10"
)

var ErrInvalidDeployment = errors.New("invalid deployment")

var validate = validator.New()

var (
	ecrRepositoryRegex = regexp.MustCompile(`^[a-z0-9]+(?:[._-][a-z0-9]+)*(?:/[a-z0-9]+(?:[._-][a-z0-9]+)*)*$`)
	lbNameRegex        = regexp.MustCompile(`^[a-zA-Z0-9](?:[a-zA-Z0-9-]*[a-zA-Z0-9])?$`)
)

// logRetentionDays are the retention periods CloudWatch Logs accepts.
var logRetentionDays = []int{1, 3, 5, 7, 14, 30, 60, 90, 120, 150, 180, 365, 400, 545, 731, 1096, 1827, 2192, 2557, 2922, 3288, 3653}

func init() {
	validate.RegisterValidation("ecr_repository", func(fl validator.FieldLevel) bool {
		return ecrRepositoryRegex.MatchString(fl.Field().String())
	})
	validate.RegisterValidation("lb_name", func(fl validator.FieldLevel) bool {
		return lbNameRegex.MatchString(fl.Field().String())
	})
	validate.RegisterValidation("log_retention", func(fl validator.FieldLevel) bool {
		return slices.Contains(logRetentionDays, int(fl.Field().Int()))
	})
}

// Validate checks every field and the relationships between constructs. The
// returned error wraps ErrInvalidDeployment and lists all problems found.
func (d Deployment) Validate() error {
	var errs []error
	if err := validate.Struct(d); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("%w: %v", ErrInvalidDeployment, err)
		}
		for _, fe := range fieldErrs {
			errs = append(errs, fmt.Errorf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
		}
	}
	errs = append(errs, d.crossChecks()...)
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidDeployment, errors.Join(errs...))
}

func (d Deployment) crossChecks() []error {
	var errs []error
	n, c, e := d.Network, d.Compute, d.Edge

	if _, ok := n.NATStrategy(); !ok {
		errs = append(errs, fmt.Errorf("Network.NATGateways: %d gateways fit neither a single gateway nor one per zone (%d zones)", n.NATGateways, n.EffectiveAZs()))
	}
	if n.Visibility == VisibilityPublic && n.NATGateways > 0 {
		errs = append(errs, errors.New("Network.NATGateways: public-only networks have no private subnets to route through NAT"))
	}
	if n.Visibility == VisibilityPrivate && n.NATGateways == 0 {
		errs = append(errs, errors.New("Network.NATGateways: private subnets need at least one NAT gateway to pull images"))
	}

	if !ValidFargateSize(c.CPU, c.MemoryMiB) {
		errs = append(errs, fmt.Errorf("Compute: %d CPU units cannot be paired with %d MiB of memory", c.CPU, c.MemoryMiB))
	}
	if c.HealthCheck.Timeout >= c.HealthCheck.Interval {
		errs = append(errs, fmt.Errorf("Compute.HealthCheck: timeout %s must be shorter than interval %s", c.HealthCheck.Timeout, c.HealthCheck.Interval))
	}
	if port := c.Environment["PORT"]; port != "" && port != strconv.Itoa(c.ContainerPort) {
		errs = append(errs, fmt.Errorf("Compute.Environment: PORT=%s does not match container port %d", port, c.ContainerPort))
	}

	if e.TargetPort != c.ContainerPort {
		errs = append(errs, fmt.Errorf("Edge.TargetPort: %d does not match container port %d", e.TargetPort, c.ContainerPort))
	}
	listenerOpen := false
	for _, r := range IngressFor(GroupEdge, SecurityRules(c.ContainerPort)) {
		if r.Port == e.ListenerPort {
			listenerOpen = true
		}
	}
	if !listenerOpen {
		errs = append(errs, fmt.Errorf("Edge.ListenerPort: %d is not open on the edge security group", e.ListenerPort))
	}

	if d.Image.Build && d.Image.Architecture() != c.CPUArchitecture {
		errs = append(errs, fmt.Errorf("Image.Platform: %s images cannot run on %s tasks", d.Image.Platform, c.CPUArchitecture))
	}

	if _, err := d.Graph().TopoLayers(); err != nil {
		errs = append(errs, err)
	}
	return errs
}
