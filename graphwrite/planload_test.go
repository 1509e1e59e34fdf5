package graphwrite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const samplePlanYAML = `
from: ["vendor", "relatedPersons"]
to: ["amount"]
relationship: ["HAS_PROVIDED_BUSINESS_TO"]
from_props: ["answer"]
to_props: []
relationship_props: ["amount"]
prop_map:
  answer: name
types:
  vendor: Organization
  relatedPersons: Person
  amount: Thing
thresholds:
  vendor: 0.9
  relatedPersons: 0.9
  amount: 0.9
`

func TestLoadPlan(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(samplePlanYAML), 0o644))

	p, err := LoadPlan(path)
	require.NoError(t, err)
	require.Equal(t, []string{"vendor", "relatedPersons"}, p.From)
	require.Equal(t, []string{"HAS_PROVIDED_BUSINESS_TO", "HAS_PROVIDED_BUSINESS_TO"}, p.Relationship)
}

func TestLoadPlan_MissingFile(t *testing.T) {
	_, err := LoadPlan("/nonexistent/plan.yaml")
	require.Error(t, err)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}
