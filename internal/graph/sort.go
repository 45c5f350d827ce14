package graph

import (
	"slices"
	"strings"
)

// Compare is the total order used for every exposed collection. Nodes of the
// same kind sort case-insensitively by name. Structs and classes form one
// sortable family: they compare by name, and a struct sorts before a class
// carrying the same name. Across any other kind pair, the kind tag itself is
// the primary key.
func Compare(a, b *Node) int {
	switch {
	case a.Kind == b.Kind:
		return compareFold(a.Name, b.Name)
	case a.Kind.IsClassLike() && b.Kind.IsClassLike():
		if c := compareFold(a.Name, b.Name); c != 0 {
			return c
		}
		if a.Kind == KindStruct {
			return -1
		}
		return 1
	default:
		return strings.Compare(string(a.Kind), string(b.Kind))
	}
}

func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

// SortNodes sorts a node collection in place under the Compare order.
func SortNodes(nodes []*Node) {
	slices.SortStableFunc(nodes, Compare)
}

// deepSort sorts a collection and then has every node in it recursively sort
// its children, depth first.
func deepSort(nodes []*Node) {
	SortNodes(nodes)
	for _, n := range nodes {
		n.sortChildren()
	}
}

func (n *Node) sortChildren() {
	SortNodes(n.Children)
	for _, c := range n.Children {
		c.sortChildren()
	}
}

// sortInternals applies the canonical ordering to every registry collection.
// Leaf-like kinds only need their flat collection sorted; hierarchical kinds
// are deep sorted so that every exposed child list is ordered too.
func (rc *reconciler) sortInternals() {
	SortNodes(rc.reg.Defines)
	SortNodes(rc.reg.Enums)
	SortNodes(rc.reg.EnumValues)
	SortNodes(rc.reg.Functions)
	SortNodes(rc.reg.Groups)
	SortNodes(rc.reg.Typedefs)
	SortNodes(rc.reg.Variables)

	deepSort(rc.reg.ClassLike)
	deepSort(rc.reg.Namespaces)
	deepSort(rc.reg.Unions)
	deepSort(rc.reg.Files)
	deepSort(rc.reg.Dirs)
}
