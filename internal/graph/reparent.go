package graph

import (
	"slices"
	"strings"

	"go.uber.org/zap"
)

// reparentAll repairs the parent/child edges discovery could not establish.
// The five sub-passes run in a fixed order: unions and classes pick up their
// name-structure parents first, directories nest by path, then namespace
// scope renaming must happen before nested namespaces collapse out of the
// top-level collection, because the renaming scopes by the current parent.
// File relationships are repaired later by the file-reference resolver.
func (rc *reconciler) reparentAll() {
	rc.reparentUnions()
	rc.reparentClassLike()
	rc.reparentDirectories()
	rc.renameToNamespaceScopes()
	rc.reparentNamespaces()

	// the passes above may have added a child through more than one line of
	// evidence; children are a set
	for _, n := range rc.reg.All() {
		n.Children = dedupeNodes(n.Children)
	}

	rc.log.Debug("reparenting finished",
		zap.Int("top_level_class_like", len(rc.reg.ClassLike)),
		zap.Int("top_level_namespaces", len(rc.reg.Namespaces)),
		zap.Int("top_level_dirs", len(rc.reg.Dirs)),
		zap.Int("top_level_unions", len(rc.reg.Unions)))
}

// reparentUnions attaches multi-segment unions to the class or namespace
// their name says they were declared in. Classes win over namespaces at
// every ambiguity. A union claimed by a class is documented as part of that
// class and leaves the top-level union collection; a union claimed by a
// namespace stays listed.
func (rc *reconciler) reparentUnions() {
	var removals []*Node
	for _, u := range rc.reg.Unions {
		parts := strings.Split(u.Name, ScopeSeparator)
		if len(parts) < 2 {
			continue
		}
		prefix := strings.Join(parts[:len(parts)-1], ScopeSeparator)

		if cl := findByName(rc.reg.ClassLike, prefix); cl != nil {
			cl.Children = append(cl.Children, u)
			u.Parent = cl
			removals = append(removals, u)
			continue
		}

		// namespace candidates in precedence order: the immediate prefix,
		// then one level shallower in case the union's own segment was
		// already part of the recorded scope
		candidates := []string{prefix}
		if len(parts) > 2 {
			candidates = append(candidates, strings.Join(parts[:len(parts)-2], ScopeSeparator))
		}
		for _, name := range candidates {
			if ns := findByName(rc.reg.Namespaces, name); ns != nil {
				ns.Children = append(ns.Children, u)
				u.Parent = ns
				break
			}
		}
	}
	for _, u := range removals {
		rc.reg.Unions = removeNode(rc.reg.Unions, u)
	}
}

// reparentClassLike nests classes and structs inside the class whose name is
// exactly their scope prefix. Only class-to-class containment is attempted
// here; namespace containment of classes was already established from
// discovery evidence. Nested classes leave the top-level collection so the
// class hierarchy lists them once, under their parent.
func (rc *reconciler) reparentClassLike() {
	var removals []*Node
	for _, cl := range rc.reg.ClassLike {
		parts := strings.Split(cl.Name, ScopeSeparator)
		if len(parts) < 2 {
			continue
		}
		prefix := strings.Join(parts[:len(parts)-1], ScopeSeparator)
		if parent := findByName(rc.reg.ClassLike, prefix); parent != nil && parent != cl {
			parent.Children = append(parent.Children, cl)
			cl.Parent = parent
			removals = append(removals, cl)
		}
	}
	for _, cl := range removals {
		rc.reg.ClassLike = removeNode(rc.reg.ClassLike, cl)
	}
}

// reparentDirectories nests each directory under the directory one path
// segment shallower whose path is exactly its own minus the last segment.
// Directories are processed deepest first so that by the time a parent is
// searched for, every deeper level has already been resolved. Top-level
// directories (a single segment) are never reparented.
func (rc *reconciler) reparentDirectories() {
	type rankedDir struct {
		rank int
		node *Node
	}
	ranked := make([]rankedDir, 0, len(rc.reg.Dirs))
	for _, d := range rc.reg.Dirs {
		ranked = append(ranked, rankedDir{rank: len(strings.Split(d.Name, "/")), node: d})
	}
	slices.SortStableFunc(ranked, func(a, b rankedDir) int { return b.rank - a.rank })

	var removals []*Node
	for _, rd := range ranked {
		if rd.rank < 2 {
			break // sorted deepest first: everything from here on is top level
		}
		parentPath := rd.node.Name[:strings.LastIndex(rd.node.Name, "/")]
		for _, cand := range ranked {
			if cand.rank != rd.rank-1 || cand.node.Name != parentPath {
				continue
			}
			cand.node.Children = append(cand.node.Children, rd.node)
			rd.node.Parent = cand.node
			removals = append(removals, rd.node)
			break
		}
	}
	for _, d := range removals {
		rc.reg.Dirs = removeNode(rc.reg.Dirs, d)
	}
}

// renameToNamespaceScopes prepends each namespace's name onto the names of
// its direct children that do not already carry it. Doxygen records members
// such as functions and variables with unqualified names; the rename makes
// every name fully qualified. This must run before reparentNamespaces: the
// renaming scopes by the current parent, so nested namespaces need their own
// prefix applied while they are still listed.
func (rc *reconciler) renameToNamespaceScopes() {
	for _, ns := range rc.reg.Namespaces {
		prefix := ns.Name + ScopeSeparator
		for _, child := range ns.Children {
			if !strings.HasPrefix(child.Name, prefix) {
				child.Name = prefix + child.Name
			}
		}
	}
}

// reparentNamespaces removes nested namespaces from the top-level namespace
// collection. The parent/child edges themselves were established during
// discovery; this pass only collapses the listing so a nested namespace is
// reachable exclusively through its parent.
func (rc *reconciler) reparentNamespaces() {
	var removals []*Node
	for _, ns := range rc.reg.Namespaces {
		if ns.Parent != nil && ns.Parent.Kind == KindNamespace {
			removals = append(removals, ns)
		}
	}
	for _, ns := range removals {
		rc.reg.Namespaces = removeNode(rc.reg.Namespaces, ns)
	}
}
