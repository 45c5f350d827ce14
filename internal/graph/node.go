// Package graph reconstructs the ownership hierarchy between the declared
// entities of a codebase from the partial evidence Doxygen leaves in its XML
// output. The entry point is Reconcile, which runs a fixed, single-threaded
// pipeline: discovery, reparenting, file-reference resolution, directory
// attachment, and finally a canonical kind-aware sort. Consumers read the
// finished Registry only after Reconcile returns.
package graph

import (
	"fmt"
	"io"
	"strings"
)

// ScopeSeparator joins the segments of a fully qualified C++ name.
const ScopeSeparator = "::"

// Kind categorizes a declared entity. The values match the kind attributes
// Doxygen writes into its index.
type Kind string

const (
	KindClass     Kind = "class"
	KindStruct    Kind = "struct"
	KindUnion     Kind = "union"
	KindEnum      Kind = "enum"
	KindEnumValue Kind = "enumvalue"
	KindNamespace Kind = "namespace"
	KindFile      Kind = "file"
	KindDir       Kind = "dir"
	KindFunction  Kind = "function"
	KindVariable  Kind = "variable"
	KindTypedef   Kind = "typedef"
	KindDefine    Kind = "define"
	KindGroup     Kind = "group"
)

// IsClassLike reports whether the kind is class or struct. Classes and
// structs are interchangeable for every containment and ordering rule.
func (k Kind) IsClassLike() bool {
	return k == KindClass || k == KindStruct
}

// IncludeRef identifies a file that includes another file.
type IncludeRef struct {
	Refid string
	Name  string
}

// FileInfo carries the extra state that only nodes of kind file have.
type FileInfo struct {
	// Location is the path of the file relative to the Doxygen root, after
	// any configured prefix stripping.
	Location string

	// Includes are the paths this file includes.
	Includes []string

	// IncludedBy lists the files that include this file.
	IncludedBy []IncludeRef

	// NamespacesUsed are the namespaces declared or used in this file. They
	// are tracked separately from Children because namespace membership is
	// not file ownership.
	NamespacesUsed []*Node

	// ProgramListing is the raw source listing Doxygen embedded in the file
	// record, one entry per line.
	ProgramListing []string

	// listingRefs are the cross references found inside ProgramListing,
	// consumed by the ambiguous-ownership resolver.
	listingRefs []ListingRef
}

// Node is one declared entity: a class, namespace, file, directory, function
// and so on. Nodes are created exclusively by the Registry and live for the
// lifetime of the reconciliation; removal from a top-level collection never
// destroys a node.
type Node struct {
	// Name is the fully qualified identifier. Classes and namespaces use
	// "::" separated segments, files and directories use "/" separated
	// paths.
	Name string

	// Kind is the entity category.
	Kind Kind

	// Refid is the identifier Doxygen assigned; it is the primary key.
	Refid string

	// Children are the nodes this node structurally owns. Order carries no
	// hierarchical meaning and duplicates are removed after reparenting.
	Children []*Node

	// Parent is the owning node, or nil. A file is never anyone's Parent:
	// file ownership goes through DefinedIn so that file membership cannot
	// pollute class or namespace nesting.
	Parent *Node

	// DefinedIn is the file that textually defines this node, or nil when
	// the evidence was missing or ambiguous.
	DefinedIn *Node

	// File holds file-only state; nil for every other kind.
	File *FileInfo

	// SeenInClassView and SeenInDirectoryView record that a node has been
	// picked up by the corresponding hierarchy view, so orphans can be found
	// afterwards.
	SeenInClassView     bool
	SeenInDirectoryView bool
}

func newNode(name string, kind Kind, refid string) *Node {
	n := &Node{Name: name, Kind: kind, Refid: refid}
	if kind == KindFile {
		n.File = &FileInfo{}
	}
	return n
}

// UnqualifiedName returns the last scope segment of the node's name.
func (n *Node) UnqualifiedName() string {
	parts := strings.Split(n.Name, ScopeSeparator)
	return parts[len(parts)-1]
}

// Nested walks the subtree rooted at n and returns every node, n included,
// whose kind matches one of kinds. Used to rediscover entities that
// reparenting removed from the top-level collections.
func (n *Node) Nested(kinds ...Kind) []*Node {
	var out []*Node
	n.collectNested(kinds, &out)
	return out
}

func (n *Node) collectNested(kinds []Kind, out *[]*Node) {
	for _, k := range kinds {
		if n.Kind == k {
			*out = append(*out, n)
			break
		}
	}
	for _, c := range n.Children {
		c.collectNested(kinds, out)
	}
}

// InClassHierarchy reports whether the node belongs in the class hierarchy
// view: it is a struct, class, enum or union, or a namespace with at least
// one such descendant. Nodes that answer the question for themselves are
// flagged as seen.
func (n *Node) InClassHierarchy() bool {
	if n.Kind == KindNamespace {
		for _, c := range n.Children {
			if c.InClassHierarchy() {
				return true
			}
		}
		return false
	}
	n.SeenInClassView = true
	return n.Kind.IsClassLike() || n.Kind == KindEnum || n.Kind == KindUnion
}

// InDirectoryHierarchy reports whether the node belongs in the directory
// hierarchy view: it is a file, or a directory with at least one file
// somewhere beneath it. Files are flagged as seen.
func (n *Node) InDirectoryHierarchy() bool {
	switch n.Kind {
	case KindFile:
		n.SeenInDirectoryView = true
		return true
	case KindDir:
		for _, c := range n.Children {
			if c.InDirectoryHierarchy() {
				return true
			}
		}
	}
	return false
}

// WriteTree writes an indented plain-text dump of the subtree rooted at n.
// Directories list their children one level deep without recursing, since
// files print their own contents.
func (n *Node) WriteTree(w io.Writer, level int) {
	indent := strings.Repeat("  ", level)
	fmt.Fprintf(w, "%s- [%s] %s\n", indent, n.Kind, n.Name)

	switch n.Kind {
	case KindDir:
		for _, c := range n.Children {
			fmt.Fprintf(w, "%s  - [%s] %s\n", indent, c.Kind, c.Name)
		}
	case KindFile:
		fmt.Fprintf(w, "%s  location=%q\n", indent, n.File.Location)
		for _, inc := range n.File.Includes {
			fmt.Fprintf(w, "%s  #include <%s>\n", indent, inc)
		}
		for _, by := range n.File.IncludedBy {
			fmt.Fprintf(w, "%s  included by %s\n", indent, by.Name)
		}
		for _, c := range n.Children {
			c.WriteTree(w, level+1)
		}
	case KindUnion:
		// a union's members are not interesting here
	default:
		for _, c := range n.Children {
			c.WriteTree(w, level+1)
		}
	}
}

func containsNode(list []*Node, n *Node) bool {
	for _, e := range list {
		if e == n {
			return true
		}
	}
	return false
}

func hasChildNamed(list []*Node, name string) bool {
	for _, e := range list {
		if e.Name == name {
			return true
		}
	}
	return false
}

func findByName(list []*Node, name string) *Node {
	for _, e := range list {
		if e.Name == name {
			return e
		}
	}
	return nil
}

func removeNode(list []*Node, n *Node) []*Node {
	for i, e := range list {
		if e == n {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// dedupeNodes removes duplicate pointers while preserving first-seen order.
func dedupeNodes(list []*Node) []*Node {
	if len(list) < 2 {
		return list
	}
	seen := make(map[*Node]struct{}, len(list))
	out := list[:0]
	for _, e := range list {
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}
