package graph

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(nodes []*Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Name)
	}
	return out
}

func TestCompare_SameKindIsCaseInsensitive(t *testing.T) {
	a := newNode("alpha", KindFunction, "r1")
	b := newNode("Beta", KindFunction, "r2")

	assert.Negative(t, Compare(a, b))
	assert.Positive(t, Compare(b, a))
	assert.Zero(t, Compare(a, a))
}

func TestCompare_StructSortsBeforeClassOnEqualNames(t *testing.T) {
	cl := newNode("Foo", KindClass, "r1")
	st := newNode("Foo", KindStruct, "r2")

	list := []*Node{cl, st}
	SortNodes(list)

	require.Equal(t, KindStruct, list[0].Kind)
	require.Equal(t, KindClass, list[1].Kind)
}

func TestCompare_StructAndClassAreOneFamily(t *testing.T) {
	st := newNode("Zebra", KindStruct, "r1")
	cl := newNode("apple", KindClass, "r2")

	list := []*Node{st, cl}
	SortNodes(list)

	if diff := cmp.Diff([]string{"apple", "Zebra"}, names(list)); diff != "" {
		t.Errorf("unexpected order (-want +got):\n%s", diff)
	}
}

func TestCompare_DifferentKindsSortByKindTag(t *testing.T) {
	v := newNode("aaa", KindVariable, "r1")
	e := newNode("zzz", KindEnum, "r2")

	// "enum" < "variable" regardless of the names
	assert.Positive(t, Compare(v, e))
	assert.Negative(t, Compare(e, v))
}

func TestDeepSort_RecursesIntoChildren(t *testing.T) {
	parent := newNode("ns", KindNamespace, "r1")
	cb := newNode("b", KindClass, "r2")
	ca := newNode("a", KindClass, "r3")
	nested := newNode("zz", KindClass, "r4")
	na := newNode("aa", KindClass, "r5")
	cb.Children = []*Node{nested, na}
	parent.Children = []*Node{cb, ca}

	deepSort([]*Node{parent})

	require.Equal(t, []string{"a", "b"}, names(parent.Children))
	require.Equal(t, []string{"aa", "zz"}, names(cb.Children))
}
