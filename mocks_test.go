package main

import (
	"fmt"
	"sync"

	"github.com/pulumi/pulumi/sdk/v3/go/common/resource"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

const (
	mockRepositoryArn = "arn:aws:ecr:us-east-1:123456789012:repository/docker-express-env"
	mockRepositoryUrl = "123456789012.dkr.ecr.us-east-1.amazonaws.com/docker-express-env"
	mockDnsName       = "docker-express-alb-1234.us-east-1.elb.amazonaws.com"
)

// mocks records every registered resource so tests can inspect their inputs.
type mocks struct {
	mu        sync.Mutex
	resources []pulumi.MockResourceArgs
	calls     []pulumi.MockCallArgs
}

func (m *mocks) NewResource(args pulumi.MockResourceArgs) (string, resource.PropertyMap, error) {
	m.mu.Lock()
	m.resources = append(m.resources, args)
	m.mu.Unlock()

	outputs := args.Inputs.Copy()
	arn := fmt.Sprintf("arn:aws:mock:us-east-1:123456789012:%s", args.Name)
	switch args.TypeToken {
	case "awsx:ec2:Vpc":
		outputs["vpcId"] = resource.NewStringProperty("vpc-0123")
		outputs["publicSubnetIds"] = stringArray("subnet-public-a", "subnet-public-b")
		outputs["privateSubnetIds"] = stringArray("subnet-private-a", "subnet-private-b")
	case "aws:ecr/repository:Repository":
		arn = mockRepositoryArn
		outputs["repositoryUrl"] = resource.NewStringProperty(mockRepositoryUrl)
		outputs["registryId"] = resource.NewStringProperty("123456789012")
	case "aws:lb/loadBalancer:LoadBalancer":
		outputs["dnsName"] = resource.NewStringProperty(mockDnsName)
	case "aws:apigatewayv2/api:Api":
		outputs["executionArn"] = resource.NewStringProperty("arn:aws:execute-api:us-east-1:123456789012:api")
	case "aws:apigatewayv2/stage:Stage":
		outputs["invokeUrl"] = resource.NewStringProperty("https://api.execute-api.us-east-1.amazonaws.com/")
	}
	outputs["arn"] = resource.NewStringProperty(arn)
	return args.Name + "_id", outputs, nil
}

func (m *mocks) Call(args pulumi.MockCallArgs) (resource.PropertyMap, error) {
	m.mu.Lock()
	m.calls = append(m.calls, args)
	m.mu.Unlock()

	switch args.Token {
	case "aws:index/getRegion:getRegion":
		return resource.PropertyMap{
			"id":   resource.NewStringProperty("us-east-1"),
			"name": resource.NewStringProperty("us-east-1"),
		}, nil
	case "aws:iam/getPolicyDocument:getPolicyDocument":
		return resource.PropertyMap{
			"id":   resource.NewStringProperty("policy"),
			"json": resource.NewStringProperty(`{"Version":"2012-10-17","Statement":[]}`),
		}, nil
	case "aws:ecr/getAuthorizationToken:getAuthorizationToken":
		return resource.PropertyMap{
			"id":       resource.NewStringProperty("123456789012"),
			"userName": resource.NewStringProperty("AWS"),
			"password": resource.NewStringProperty("token"),
		}, nil
	case "command:local:run":
		return resource.PropertyMap{
			"command": resource.NewStringProperty(""),
			"stdout":  resource.NewStringProperty(""),
			"stderr":  resource.NewStringProperty(""),
		}, nil
	}
	return resource.PropertyMap{}, nil
}

func (m *mocks) byType(token string) []resource.PropertyMap {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []resource.PropertyMap
	for _, r := range m.resources {
		if r.TypeToken == token {
			out = append(out, r.Inputs)
		}
	}
	return out
}

func (m *mocks) byName(name string) resource.PropertyMap {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.resources {
		if r.Name == name {
			return r.Inputs
		}
	}
	return nil
}

// trustedPrincipals lists the service principal of every trust policy
// requested, in call order.
func (m *mocks) trustedPrincipals() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, c := range m.calls {
		if c.Token != "aws:iam/getPolicyDocument:getPolicyDocument" {
			continue
		}
		for _, st := range field(c.Args, "statements").ArrayValue() {
			for _, p := range field(plain(st).ObjectValue(), "principals").ArrayValue() {
				out = append(out, strs(field(plain(p).ObjectValue(), "identifiers"))...)
			}
		}
	}
	return out
}

func (m *mocks) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.resources)
}

func stringArray(vals ...string) resource.PropertyValue {
	arr := make([]resource.PropertyValue, 0, len(vals))
	for _, v := range vals {
		arr = append(arr, resource.NewStringProperty(v))
	}
	return resource.NewArrayProperty(arr)
}

// plain strips secret and output wrappers off v.
func plain(v resource.PropertyValue) resource.PropertyValue {
	for {
		switch {
		case v.IsSecret():
			v = v.SecretValue().Element
		case v.IsOutput():
			v = v.OutputValue().Element
		default:
			return v
		}
	}
}

func field(m resource.PropertyMap, key string) resource.PropertyValue {
	return plain(m[resource.PropertyKey(key)])
}

func strs(v resource.PropertyValue) []string {
	var out []string
	if !v.IsArray() {
		return out
	}
	for _, e := range v.ArrayValue() {
		out = append(out, plain(e).StringValue())
	}
	return out
}
