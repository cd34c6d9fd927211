package topology

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecyclePolicy_SingleUntaggedRule(t *testing.T) {
	r := RegistrySpec{MaxUntaggedAgeDays: 7}

	p := r.LifecyclePolicy()
	require.Len(t, p.Rules, 1)
	rule := p.Rules[0]
	assert.Equal(t, "untagged", rule.Selection.TagStatus)
	assert.Equal(t, "sinceImagePushed", rule.Selection.CountType)
	assert.Equal(t, 7, rule.Selection.CountNumber)
	assert.Equal(t, "expire", rule.Action.Type)

	raw, err := p.JSON()
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	assert.Len(t, decoded["rules"], 1)
}

func TestImageSpec_Architecture(t *testing.T) {
	assert.Equal(t, "ARM64", ImageSpec{Platform: "linux/arm64"}.Architecture())
	assert.Equal(t, "X86_64", ImageSpec{Platform: "linux/amd64"}.Architecture())
}
