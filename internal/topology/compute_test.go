package topology

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidFargateSize(t *testing.T) {
	valid := [][2]int{{256, 512}, {256, 2048}, {512, 4096}, {1024, 2048}, {4096, 30720}, {8192, 20480}, {16384, 122880}}
	for _, p := range valid {
		assert.True(t, ValidFargateSize(p[0], p[1]), "%d/%d", p[0], p[1])
	}
	invalid := [][2]int{{256, 256}, {256, 4096}, {512, 512}, {1024, 1536}, {8192, 18432}, {300, 512}, {0, 0}}
	for _, p := range invalid {
		assert.False(t, ValidFargateSize(p[0], p[1]), "%d/%d", p[0], p[1])
	}
}

func TestExecutionPolicy_ScopedToRepository(t *testing.T) {
	arn := "arn:aws:ecr:us-east-1:123456789012:repository/docker-express-env"

	doc, err := ExecutionPolicy(arn)
	require.NoError(t, err)
	require.Len(t, doc.Statement, 1)
	assert.Equal(t, []string{arn}, doc.Statement[0].Resource)
	assert.Equal(t, RegistryPullActions, doc.Statement[0].Action)

	raw, err := doc.JSON()
	require.NoError(t, err)
	assert.NotContains(t, raw, `"*"`)
}

func TestExecutionPolicy_RejectsWildcards(t *testing.T) {
	for _, arn := range []string{"", "*", "arn:aws:ecr:us-east-1:123456789012:repository/*"} {
		_, err := ExecutionPolicy(arn)
		assert.ErrorIs(t, err, ErrWildcardResource, "arn %q", arn)
	}
}

func TestContainerDefinitions(t *testing.T) {
	c := DefaultDeployment().Compute

	raw, err := c.ContainerDefinitions(ContainerRefs{
		Image:    "123456789012.dkr.ecr.us-east-1.amazonaws.com/docker-express-env:latest",
		LogGroup: "/ecs/docker-express-env",
		Region:   "us-east-1",
	})
	require.NoError(t, err)

	var defs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &defs))
	require.Len(t, defs, 1)
	def := defs[0]

	assert.Equal(t, "app", def["name"])
	assert.Equal(t, "123456789012.dkr.ecr.us-east-1.amazonaws.com/docker-express-env:latest", def["image"])
	assert.Equal(t, true, def["essential"])

	hc := def["healthCheck"].(map[string]any)
	assert.Equal(t, []any{"CMD-SHELL", "curl -f http://localhost:3000/health || exit 1"}, hc["command"])
	assert.EqualValues(t, 30, hc["interval"])
	assert.EqualValues(t, 5, hc["timeout"])
	assert.EqualValues(t, 3, hc["retries"])
	assert.EqualValues(t, 60, hc["startPeriod"])

	ports := def["portMappings"].([]any)
	require.Len(t, ports, 1)
	assert.EqualValues(t, 3000, ports[0].(map[string]any)["containerPort"])
	assert.Equal(t, "tcp", ports[0].(map[string]any)["protocol"])

	logs := def["logConfiguration"].(map[string]any)
	assert.Equal(t, "awslogs", logs["logDriver"])
	assert.Equal(t, "/ecs/docker-express-env", logs["options"].(map[string]any)["awslogs-group"])
}

func TestContainer_EnvironmentIsSorted(t *testing.T) {
	c := ComputeSpec{Environment: map[string]string{"PORT": "3000", "APP_ENV": "production", "B": "x"}}

	env := c.Container(ContainerRefs{}).Environment

	assert.Equal(t, []KeyValuePair{
		{Name: "APP_ENV", Value: "production"},
		{Name: "B", Value: "x"},
		{Name: "PORT", Value: "3000"},
	}, env)
}
