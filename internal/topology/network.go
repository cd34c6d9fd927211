package topology

// MinLoadBalancerAZs is the number of availability zones an application load
// balancer needs to be provisioned.
const MinLoadBalancerAZs = 2

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Security group names used by SecurityRule.
const (
	GroupEdge    = "edge"
	GroupCompute = "compute"
)

// AnyIPv4 is the CIDR for "anywhere".
const AnyIPv4 = "0.0.0.0/0"

type NetworkSpec struct {
	CIDRBlock      string     `validate:"required,cidrv4"`
	MinAZs         int        `validate:"gte=0,lte=6"`
	SubnetCIDRMask int        `validate:"gte=16,lte=28"`
	Visibility     Visibility `validate:"oneof=public private"`
	NATGateways    int        `validate:"gte=0"`
}

// EffectiveAZs returns the number of availability zones the network spans.
// It never drops below MinLoadBalancerAZs, whatever was requested.
func (n NetworkSpec) EffectiveAZs() int {
	return max(n.MinAZs, MinLoadBalancerAZs)
}

type NATStrategy string

const (
	NATNone     NATStrategy = "None"
	NATSingle   NATStrategy = "Single"
	NATOnePerAZ NATStrategy = "OnePerAz"
)

// NATStrategy maps the requested gateway count onto a supported layout. ok is
// false when the count fits neither a single gateway nor one per zone.
func (n NetworkSpec) NATStrategy() (strategy NATStrategy, ok bool) {
	switch n.NATGateways {
	case 0:
		return NATNone, true
	case 1:
		return NATSingle, true
	case n.EffectiveAZs():
		return NATOnePerAZ, true
	}
	return "", false
}

// Peer is the source of an ingress rule: either a CIDR or another group.
type Peer struct {
	CIDR  string
	Group string
}

type SecurityRule struct {
	Group       string
	Peer        Peer
	Port        int
	Protocol    string
	Description string
}

// SecurityRules returns every ingress rule of the deployment. The edge group is
// reachable from the internet on HTTP and HTTPS; the compute group only from
// the edge group, on the container port.
func SecurityRules(containerPort int) []SecurityRule {
	return []SecurityRule{
		{
			Group:       GroupEdge,
			Peer:        Peer{CIDR: AnyIPv4},
			Port:        80,
			Protocol:    "tcp",
			Description: "Allow HTTP traffic from internet",
		},
		{
			Group:       GroupEdge,
			Peer:        Peer{CIDR: AnyIPv4},
			Port:        443,
			Protocol:    "tcp",
			Description: "Allow HTTPS traffic from internet",
		},
		{
			Group:       GroupCompute,
			Peer:        Peer{Group: GroupEdge},
			Port:        containerPort,
			Protocol:    "tcp",
			Description: "Allow traffic from load balancer to service",
		},
	}
}

// IngressFor filters rules down to the ones attached to group.
func IngressFor(group string, rules []SecurityRule) []SecurityRule {
	var out []SecurityRule
	for _, r := range rules {
		if r.Group == group {
			out = append(out, r)
		}
	}
	return out
}
