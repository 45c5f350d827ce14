package graph

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newBareReconciler() *reconciler {
	return &reconciler{opts: Options{}, log: zap.NewNop(), reg: NewRegistry()}
}

func TestReparentUnions_ClassWinsOverNamespace(t *testing.T) {
	rc := newBareReconciler()
	cl := rc.reg.Obtain("A::B", KindClass, "cl_ab")
	ns := rc.reg.Obtain("A", KindNamespace, "ns_a")
	u := rc.reg.Obtain("A::B::U", KindUnion, "un_u")

	rc.reparentUnions()

	require.Same(t, cl, u.Parent, "class match takes precedence over namespace")
	assert.True(t, containsNode(cl.Children, u))
	assert.False(t, containsNode(ns.Children, u))
	assert.Empty(t, rc.reg.Unions, "class-owned unions leave the top-level collection")
}

func TestReparentUnions_NamespaceKeepsUnionListed(t *testing.T) {
	rc := newBareReconciler()
	ns := rc.reg.Obtain("outer", KindNamespace, "ns_outer")
	u := rc.reg.Obtain("outer::U", KindUnion, "un_u")

	rc.reparentUnions()

	require.Same(t, ns, u.Parent)
	assert.True(t, containsNode(ns.Children, u))
	assert.Len(t, rc.reg.Unions, 1, "namespace membership does not suppress the top-level listing")
}

func TestReparentUnions_ShallowerNamespaceForm(t *testing.T) {
	rc := newBareReconciler()
	// only "A" exists; "A::B" matches neither a class nor a namespace
	ns := rc.reg.Obtain("A", KindNamespace, "ns_a")
	u := rc.reg.Obtain("A::B::U", KindUnion, "un_u")

	rc.reparentUnions()

	require.Same(t, ns, u.Parent, "the one-level-shallower namespace form must be tried")
	assert.Len(t, rc.reg.Unions, 1)
}

func TestReparentUnions_SingleSegmentUntouched(t *testing.T) {
	rc := newBareReconciler()
	u := rc.reg.Obtain("Global", KindUnion, "un_u")

	rc.reparentUnions()

	assert.Nil(t, u.Parent)
	assert.Len(t, rc.reg.Unions, 1)
}

func TestReparentClassLike_NestsByNamePrefix(t *testing.T) {
	rc := newBareReconciler()
	outer := rc.reg.Obtain("Outer", KindClass, "cl_outer")
	inner := rc.reg.Obtain("Outer::Inner", KindStruct, "cl_inner")
	other := rc.reg.Obtain("Unrelated", KindClass, "cl_other")

	rc.reparentClassLike()

	require.Same(t, outer, inner.Parent)
	assert.True(t, containsNode(outer.Children, inner))
	assert.ElementsMatch(t, []*Node{outer, other}, rc.reg.ClassLike,
		"nested classes leave the top-level collection")
}

func TestReparentDirectories_DeepestFirstNesting(t *testing.T) {
	// registration order deliberately scrambled
	rc := newBareReconciler()
	deep := rc.reg.Obtain("inc/sub/deep", KindDir, "dir_deep")
	top := rc.reg.Obtain("inc", KindDir, "dir_inc")
	sub := rc.reg.Obtain("inc/sub", KindDir, "dir_sub")

	rc.reparentDirectories()

	require.Equal(t, []*Node{top}, rc.reg.Dirs, "only the top-level directory stays listed")
	require.Same(t, top, sub.Parent)
	require.Same(t, sub, deep.Parent)
	assert.True(t, containsNode(top.Children, sub))
	assert.True(t, containsNode(sub.Children, deep))
}

func TestRenameToNamespaceScopes_PrefixesUnqualifiedChildren(t *testing.T) {
	rc := newBareReconciler()
	ns := rc.reg.Obtain("external", KindNamespace, "ns_ext")
	fn := rc.reg.Obtain("MAX_DEPTH", KindVariable, "var_md")
	already := rc.reg.Obtain("external::foo", KindFunction, "func_foo")
	ns.Children = []*Node{fn, already}
	fn.Parent, already.Parent = ns, ns

	rc.renameToNamespaceScopes()

	assert.Equal(t, "external::MAX_DEPTH", fn.Name)
	assert.Equal(t, "external::foo", already.Name, "already-qualified names stay untouched")
}

func TestReparentNamespaces_CollapsesNestedNamespaces(t *testing.T) {
	rc := newBareReconciler()
	outer := rc.reg.Obtain("outer", KindNamespace, "ns_outer")
	inner := rc.reg.Obtain("outer::inner", KindNamespace, "ns_inner")
	outer.Children = append(outer.Children, inner)
	inner.Parent = outer

	rc.reparentNamespaces()

	require.Equal(t, []*Node{outer}, rc.reg.Namespaces)
	assert.True(t, containsNode(outer.Children, inner),
		"the collapsed namespace stays reachable through its parent")
}

func TestReparentAll_DeduplicatesChildren(t *testing.T) {
	rc := newBareReconciler()
	ns := rc.reg.Obtain("outer", KindNamespace, "ns_outer")
	fn := rc.reg.Obtain("outer::foo", KindFunction, "func_foo")
	ns.Children = []*Node{fn, fn, fn}
	fn.Parent = ns

	rc.reparentAll()

	assert.Equal(t, []*Node{fn}, ns.Children)
}

// nodeSnap is a comparable projection of the graph used by the fixpoint test.
type nodeSnap struct {
	Name      string
	Parent    string
	DefinedIn string
	Children  []string
}

type graphSnap struct {
	Nodes      map[string]nodeSnap
	ClassLike  []string
	Namespaces []string
	Unions     []string
	Dirs       []string
}

func refids(nodes []*Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Refid)
	}
	return out
}

func snapshot(r *Registry) graphSnap {
	snap := graphSnap{
		Nodes:      make(map[string]nodeSnap, r.Len()),
		ClassLike:  refids(r.ClassLike),
		Namespaces: refids(r.Namespaces),
		Unions:     refids(r.Unions),
		Dirs:       refids(r.Dirs),
	}
	for _, n := range r.All() {
		ns := nodeSnap{Name: n.Name, Children: refids(n.Children)}
		sort.Strings(ns.Children)
		if n.Parent != nil {
			ns.Parent = n.Parent.Refid
		}
		if n.DefinedIn != nil {
			ns.DefinedIn = n.DefinedIn.Refid
		}
		snap.Nodes[n.Refid] = ns
	}
	return snap
}

func TestReparentAll_IsIdempotent(t *testing.T) {
	rc := newBareReconciler()
	rc.reg.Obtain("A::B", KindClass, "cl_ab")
	rc.reg.Obtain("A::B::U", KindUnion, "un_cls")
	rc.reg.Obtain("outer::U", KindUnion, "un_ns")
	outer := rc.reg.Obtain("outer", KindNamespace, "ns_outer")
	inner := rc.reg.Obtain("outer::inner", KindNamespace, "ns_inner")
	fn := rc.reg.Obtain("foo", KindFunction, "func_foo")
	outer.Children = append(outer.Children, inner, fn)
	inner.Parent, fn.Parent = outer, outer
	rc.reg.Obtain("inc", KindDir, "dir_inc")
	rc.reg.Obtain("inc/sub", KindDir, "dir_sub")
	rc.reg.Obtain("Outer", KindClass, "cl_outer")
	rc.reg.Obtain("Outer::Inner", KindStruct, "cl_inner")

	rc.reparentAll()
	first := snapshot(rc.reg)

	rc.reparentAll()
	second := snapshot(rc.reg)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("reparenting is not a fixpoint (-first +second):\n%s", diff)
	}
}
