package tree

import (
	"strings"
	"testing"

	"github.com/YuminosukeSato/scitree/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadParams(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Params
		wantErr bool
	}{
		{
			name:  "empty input keeps defaults",
			input: "",
			want:  DefaultParams(),
		},
		{
			name:  "yaml",
			input: "criterion: classification_error\nmax_leaf_nodes: 16\nn_jobs: 4\n",
			want: Params{
				Criterion:       "classification_error",
				MaxLeafNodes:    16,
				MinSamplesSplit: 2,
				MinSamplesLeaf:  1,
				RandomState:     -1,
				NJobs:           4,
			},
		},
		{
			name:  "json",
			input: `{"criterion": "entropy", "max_features": 2, "random_state": 0}`,
			want: Params{
				Criterion:       "entropy",
				MinSamplesSplit: 2,
				MinSamplesLeaf:  1,
				MaxFeatures:     2,
				RandomState:     0,
				NJobs:           1,
			},
		},
		{name: "unknown key", input: "splitter: best\n", wantErr: true},
		{name: "bad criterion", input: "criterion: mse\n", wantErr: true},
		{name: "max_leaf_nodes one", input: "max_leaf_nodes: 1\n", wantErr: true},
		{name: "negative depth", input: "max_depth: -2\n", wantErr: true},
		{name: "min_samples_split one", input: "min_samples_split: 1\n", wantErr: true},
		{name: "min_samples_leaf zero", input: "min_samples_leaf: 0\n", wantErr: true},
		{name: "negative max_features", input: "max_features: -1\n", wantErr: true},
		{name: "malformed", input: "criterion: [gini\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadParams(strings.NewReader(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsInvalidArgument(err), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultParams_MatchesClassifier(t *testing.T) {
	assert.Equal(t, DefaultParams(), NewDecisionTreeClassifier().Params())
	assert.NoError(t, DefaultParams().Validate())
}
