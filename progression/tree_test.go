package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTree_LevelsBottomUp(t *testing.T) {
	//   root
	//   ├── a ── a1, a2
	//   └── b
	nodes := []Node{
		{ID: "root", PersonalRevenue: 20000},
		{ID: "a", ParentID: "root", PersonalRevenue: 20000},
		{ID: "a1", ParentID: "a", PersonalRevenue: 6000},
		{ID: "a2", ParentID: "a", PersonalRevenue: 1000},
		{ID: "b", ParentID: "root", PersonalRevenue: 5000},
	}

	tree, err := NewEvaluator(nil).BuildTree(nodes)
	require.NoError(t, err)
	assert.Equal(t, []string{"root"}, tree.Roots())

	a1, _ := tree.Member("a1")
	assert.Equal(t, LevelJunior, a1.Level)
	a2, _ := tree.Member("a2")
	assert.Equal(t, LevelNone, a2.Level)

	a, _ := tree.Member("a")
	assert.Equal(t, LevelSenior, a.Level)
	assert.Equal(t, 27000.0, a.GroupRevenue)
	assert.Equal(t, 6000.0, a.Commission)

	root, _ := tree.Member("root")
	assert.Equal(t, 52000.0, root.GroupRevenue)
	assert.Equal(t, LevelSenior, root.Level)

	ids := func(ms []TeamMember) []string {
		out := make([]string, 0, len(ms))
		for _, m := range ms {
			out = append(out, m.ID)
		}
		return out
	}
	assert.Equal(t, []string{"a", "b", "a1", "a2"}, ids(tree.Descendants("root")))
	assert.Equal(t, []string{"a", "b"}, ids(tree.Children("root")))
	assert.Empty(t, tree.Descendants("b"))
}

func TestTree_EvaluateMatchesDirectEvaluation(t *testing.T) {
	nodes := []Node{
		{ID: "root", PersonalRevenue: 30000},
		{ID: "a", ParentID: "root", PersonalRevenue: 8000},
	}
	eval := NewEvaluator(nil)
	tree, err := eval.BuildTree(nodes)
	require.NoError(t, err)

	got, err := tree.Evaluate("root")
	require.NoError(t, err)

	want, err := eval.Evaluate(MemberInputs{PersonalRevenue: 30000, GroupRevenue: 38000}, tree.Descendants("root"))
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, LevelSenior, got.CurrentLevel)

	_, err = tree.Evaluate("nobody")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestBuildTree_SubtreeParentOutsideSetIsRoot(t *testing.T) {
	tree, err := NewEvaluator(nil).BuildTree([]Node{
		{ID: "7", ParentID: "3", PersonalRevenue: 5000},
		{ID: "9", ParentID: "7"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"7"}, tree.Roots())
}

func TestBuildTree_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		nodes []Node
	}{
		{"cycle", []Node{{ID: "a", ParentID: "b"}, {ID: "b", ParentID: "a"}}},
		{"self parent", []Node{{ID: "a", ParentID: "a"}}},
		{"duplicate", []Node{{ID: "a"}, {ID: "a"}}},
		{"missing id", []Node{{ParentID: "a"}}},
		{"negative revenue", []Node{{ID: "a", PersonalRevenue: -1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEvaluator(nil).BuildTree(tt.nodes)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}
