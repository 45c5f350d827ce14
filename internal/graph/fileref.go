package graph

import (
	"strings"

	"go.uber.org/zap"
)

// resolveFileReferences is the second evidence source: each file's own detail
// record. Discovery only sees edges that happen to be listed in the index
// member lists; free functions, typedefs, variables and namespace-scoped
// declarations are often only visible here. The steps run in order: ingest
// every file record, attach referenced entities as file children, record
// namespaces used, recover namespace-scoped orphans from the program listing,
// resolve entities with no known defining file, and finally check that no
// entity ended up defined in two files.
func (rc *reconciler) resolveFileReferences() {
	owned := make(map[*Node][]*Node, len(rc.reg.Files))
	for _, f := range rc.reg.Files {
		det, err := rc.src.Detail(f.Refid)
		if err != nil {
			rc.report(SeverityWarning, f.Refid, "file record for %s unavailable: %v", f.Name, err)
			continue
		}
		rc.ingestFileDetail(f, det)
		for _, ref := range det.Inner {
			if node, ok := rc.reg.Lookup(ref.Refid); ok {
				owned[f] = append(owned[f], node)
			}
		}
	}

	rc.attachFileChildren(owned)
	rc.recoverNamespaceOrphans()
	rc.resolveAmbiguousOwnership()
	rc.checkFileConsistency()
}

// ingestFileDetail copies the file-only fields out of the detail record,
// stripping the configured path prefix from the location.
func (rc *reconciler) ingestFileDetail(f *Node, det *Detail) {
	loc := det.Location
	if rc.opts.StripFromPath != "" {
		loc = strings.TrimPrefix(loc, rc.opts.StripFromPath)
		loc = strings.TrimPrefix(loc, "/")
	}
	f.File.Location = loc
	f.File.Includes = append(f.File.Includes, det.Includes...)
	f.File.IncludedBy = append(f.File.IncludedBy, det.IncludedBy...)
	f.File.ProgramListing = det.ProgramListing
	f.File.listingRefs = det.ListingRefs
}

// attachFileChildren turns the known inner references of each file into file
// children. A same-named child is never attached twice. Referenced
// namespaces are recorded in NamespacesUsed rather than owned structurally.
// A union is only attached while it is still in the top-level union
// collection: a union already claimed by a class is documented with that
// class, and the file that contains the class must not claim it again.
//
// None of this ever sets Parent: file ownership goes through DefinedIn only.
func (rc *reconciler) attachFileChildren(owned map[*Node][]*Node) {
	for _, f := range rc.reg.Files {
		for _, child := range owned[f] {
			switch child.Kind {
			case KindStruct, KindClass, KindFunction, KindTypedef, KindDefine, KindEnum, KindUnion:
				if hasChildNamed(f.Children, child.Name) {
					continue
				}
				if child.Kind == KindUnion && !containsNode(rc.reg.Unions, child) {
					continue
				}
				f.Children = append(f.Children, child)
			case KindNamespace:
				if !hasChildNamed(f.File.NamespacesUsed, child.Name) {
					f.File.NamespacesUsed = append(f.File.NamespacesUsed, child)
				}
			}
		}
	}
}

// recoverNamespaceOrphans picks up namespace-scoped declarations that the
// direct reference scan cannot see. For every namespace a file uses, each
// namespace child of a leaf-like kind is a candidate: it becomes a file child
// when its refid embeds the file's refid and its unqualified name appears
// literally in the file's program listing.
func (rc *reconciler) recoverNamespaceOrphans() {
	for _, f := range rc.reg.Files {
		var candidates []*Node
		for _, ns := range f.File.NamespacesUsed {
			for _, child := range ns.Children {
				switch child.Kind {
				case KindEnum, KindVariable, KindFunction, KindTypedef, KindUnion:
					candidates = append(candidates, child)
				}
			}
		}
		for _, orphan := range candidates {
			if !strings.Contains(orphan.Refid, f.Refid) {
				continue
			}
			if !listingMentions(f.File.ProgramListing, orphan.UnqualifiedName()) {
				continue
			}
			if !containsNode(f.Children, orphan) {
				f.Children = append(f.Children, orphan)
			}
		}
	}
}

func listingMentions(listing []string, name string) bool {
	for _, line := range listing {
		if strings.Contains(line, name) {
			return true
		}
	}
	return false
}

// resolveAmbiguousOwnership assigns DefinedIn for entities no other evidence
// reached, by scanning every file's program listing for member references to
// their refid. Exactly one candidate file across the whole corpus resolves
// the entity; zero or several leave it unresolved. Guessing among multiple
// candidates is deliberately not attempted.
func (rc *reconciler) resolveAmbiguousOwnership() {
	missing := make(map[string]*Node)
	var order []*Node
	for _, n := range rc.reg.All() {
		if n.DefinedIn != nil {
			continue
		}
		switch n.Kind {
		case KindFile, KindDir, KindGroup, KindNamespace:
			// these use different ownership semantics
			continue
		}
		missing[n.Refid] = n
		order = append(order, n)
	}
	if len(missing) == 0 {
		return
	}

	candidates := make(map[*Node][]*Node, len(missing))
	for _, f := range rc.reg.Files {
		for _, ref := range f.File.listingRefs {
			if !ref.Member {
				continue
			}
			node, ok := missing[ref.Refid]
			if !ok {
				continue
			}
			if !containsNode(candidates[node], f) {
				candidates[node] = append(candidates[node], f)
			}
		}
	}

	resolved := 0
	for _, n := range order {
		if files := candidates[n]; len(files) == 1 {
			n.DefinedIn = files[0]
			resolved++
		}
	}
	rc.log.Debug("ownership resolution finished",
		zap.Int("missing", len(order)),
		zap.Int("resolved", resolved))
}

// checkFileConsistency makes sure every file child knows it is defined in
// that file. A child already claimed by a different file is a conflict: the
// input names one refid with two definitions. The first assignment is kept
// and the conflict is reported.
func (rc *reconciler) checkFileConsistency() {
	for _, f := range rc.reg.Files {
		for _, child := range f.Children {
			switch {
			case child.DefinedIn == nil:
				child.DefinedIn = f
			case child.DefinedIn != f:
				rc.report(SeverityConflict, child.Refid,
					"conflicting definition for %s: both %s and %s claim it",
					child.Name, child.DefinedIn.Name, f.Name)
			}
		}
	}
}
