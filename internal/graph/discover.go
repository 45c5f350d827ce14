package graph

import (
	"fmt"

	"go.uber.org/zap"
)

// discover builds the initial node set and the shallow parent/child edges
// from the compound index. Members of a namespace compound get the namespace
// as Parent; members of a file compound get the file as DefinedIn and never
// as Parent, because every entity shows up in some file's member list and a
// structural file parent would destroy class and namespace nesting.
func (rc *reconciler) discover() error {
	idx, err := rc.src.Index()
	if err != nil {
		return fmt.Errorf("load compound index: %w", err)
	}

	for _, c := range idx.Compounds {
		owner := rc.reg.Obtain(c.Name, c.Kind, c.Refid)
		if c.Kind != KindNamespace && c.Kind != KindFile {
			// class/struct member lists enumerate methods and data members,
			// which are documented with their class and not tracked here
			continue
		}
		for _, m := range c.Members {
			child := rc.reg.Obtain(m.Name, m.Kind, m.Refid)
			if m.Kind == KindEnumValue {
				// the true owner is an enum, which this evidence cannot name
				continue
			}
			owner.Children = append(owner.Children, child)
			if c.Kind == KindNamespace {
				child.Parent = owner
			} else {
				child.DefinedIn = owner
			}
		}
	}

	rc.log.Debug("index discovery finished",
		zap.Int("compounds", len(idx.Compounds)),
		zap.Int("nodes", rc.reg.Len()))

	rc.discoverNamespaceMembers()
	return nil
}

// discoverNamespaceMembers pulls innerclass and innernamespace references out
// of each namespace's own detail record. The index member lists do not
// mention the classes a namespace contains, so without this evidence the
// reparenting engine would have no namespace containment to key off. A
// missing or broken record skips that namespace only.
func (rc *reconciler) discoverNamespaceMembers() {
	for _, ns := range rc.reg.Namespaces {
		det, err := rc.src.Detail(ns.Refid)
		if err != nil {
			rc.report(SeverityWarning, ns.Refid, "namespace record for %s unavailable: %v", ns.Name, err)
			continue
		}
		for _, ref := range det.Inner {
			if ref.Relation != RelationInnerClass && ref.Relation != RelationInnerNamespace {
				continue
			}
			node, ok := rc.reg.Lookup(ref.Refid)
			if !ok {
				continue
			}
			if !containsNode(ns.Children, node) {
				ns.Children = append(ns.Children, node)
				node.Parent = ns
			}
		}
	}
}
