package topology

import (
	"fmt"
	"time"
)

type TargetHealthCheck struct {
	Path               string        `validate:"required,startswith=/"`
	Interval           time.Duration `validate:"gte=5s,lte=300s"`
	Timeout            time.Duration `validate:"gte=2s,lte=120s,ltfield=Interval"`
	HealthyThreshold   int           `validate:"gte=2,lte=10"`
	UnhealthyThreshold int           `validate:"gte=2,lte=10"`
	Matcher            string        `validate:"required"`
}

// TimeToUnhealthy is how long a failing target keeps receiving traffic before
// the load balancer takes it out of rotation.
func (h TargetHealthCheck) TimeToUnhealthy() time.Duration {
	return time.Duration(h.UnhealthyThreshold) * h.Interval
}

// TimeToHealthy is how long a recovered target waits before it is routed to
// again.
func (h TargetHealthCheck) TimeToHealthy() time.Duration {
	return time.Duration(h.HealthyThreshold) * h.Interval
}

type EdgeSpec struct {
	LoadBalancerName string `validate:"required,max=32,lb_name"`
	TargetGroupName  string `validate:"required,max=32,lb_name"`
	ListenerPort     int    `validate:"gte=1,lte=65535"`
	ListenerProtocol string `validate:"oneof=HTTP"`
	TargetPort       int    `validate:"gte=1,lte=65535"`
	TargetProtocol   string `validate:"oneof=HTTP"`
	TargetType       string `validate:"oneof=ip"`
	HealthCheck      TargetHealthCheck
}

// URLs derives the public base URL and the health check URL from the load
// balancer's DNS name.
func (e EdgeSpec) URLs(dnsName string) (base, health string) {
	base = fmt.Sprintf("http://%s", dnsName)
	return base, base + e.HealthCheck.Path
}
