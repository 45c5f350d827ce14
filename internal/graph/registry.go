package graph

import (
	"errors"
	"fmt"
)

// ErrDuplicateRefid is returned when two distinct nodes claim the same refid.
var ErrDuplicateRefid = errors.New("duplicate refid")

// Registry owns every node exclusively. It maintains a refid lookup and one
// collection per kind. Reparenting removes nodes from their kind collection
// when they become nested under a class, namespace or deeper directory, but
// the node itself always stays registered and reachable by refid.
type Registry struct {
	byRefid map[string]*Node
	all     []*Node

	ClassLike  []*Node
	Defines    []*Node
	Enums      []*Node
	EnumValues []*Node
	Functions  []*Node
	Dirs       []*Node
	Files      []*Node
	Groups     []*Node
	Namespaces []*Node
	Typedefs   []*Node
	Unions     []*Node
	Variables  []*Node
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byRefid: make(map[string]*Node)}
}

// Obtain returns the node registered under refid, creating and indexing a
// fresh one when the refid has not been seen before. Discovery evidence can
// mention the same entity many times (the index compound list, a namespace
// member list and a file member list may all name it); all of them must
// resolve to the same node.
func (r *Registry) Obtain(name string, kind Kind, refid string) *Node {
	if n, ok := r.byRefid[refid]; ok {
		return n
	}
	n := newNode(name, kind, refid)
	// the refid was just checked, Register cannot fail here
	_ = r.Register(n)
	return n
}

// Register adds a node to the refid index and its kind collection. Two
// distinct nodes with the same refid are a defect in the input or the caller,
// reported as ErrDuplicateRefid.
func (r *Registry) Register(n *Node) error {
	if prev, ok := r.byRefid[n.Refid]; ok {
		if prev == n {
			return nil
		}
		return fmt.Errorf("%w: %s claimed by both %q and %q", ErrDuplicateRefid, n.Refid, prev.Name, n.Name)
	}
	r.byRefid[n.Refid] = n
	r.all = append(r.all, n)

	switch n.Kind {
	case KindClass, KindStruct:
		r.ClassLike = append(r.ClassLike, n)
	case KindDefine:
		r.Defines = append(r.Defines, n)
	case KindEnum:
		r.Enums = append(r.Enums, n)
	case KindEnumValue:
		r.EnumValues = append(r.EnumValues, n)
	case KindFunction:
		r.Functions = append(r.Functions, n)
	case KindDir:
		r.Dirs = append(r.Dirs, n)
	case KindFile:
		r.Files = append(r.Files, n)
	case KindGroup:
		r.Groups = append(r.Groups, n)
	case KindNamespace:
		r.Namespaces = append(r.Namespaces, n)
	case KindTypedef:
		r.Typedefs = append(r.Typedefs, n)
	case KindUnion:
		r.Unions = append(r.Unions, n)
	case KindVariable:
		r.Variables = append(r.Variables, n)
	}
	return nil
}

// Lookup returns the node registered under refid.
func (r *Registry) Lookup(refid string) (*Node, bool) {
	n, ok := r.byRefid[refid]
	return n, ok
}

// All returns every registered node in registration order. The returned
// slice is shared; callers must not modify it.
func (r *Registry) All() []*Node {
	return r.all
}

// Len returns the number of registered nodes.
func (r *Registry) Len() int {
	return len(r.all)
}
