package graph

import (
	"slices"
	"strings"
)

// attachDirectories places every file under the directory its location names.
// The search starts at the top-level directory forest: a directory whose path
// is a prefix of the target either matches exactly, in which case the file is
// attached there, or the search descends into its subdirectories. Files with
// no directory component, or whose path matches nothing in the forest, stay
// unattached. This pass requires directory reparenting to be complete: the
// descent only looks at directory children.
func (rc *reconciler) attachDirectories() {
	for _, f := range rc.reg.Files {
		idx := strings.LastIndex(f.File.Location, "/")
		if idx < 0 {
			continue // top-level file
		}
		dirPath := f.File.Location[:idx]

		frontier := slices.Clone(rc.reg.Dirs)
		for len(frontier) > 0 {
			d := frontier[len(frontier)-1]
			frontier = frontier[:len(frontier)-1]
			if !strings.HasPrefix(dirPath, d.Name) {
				continue
			}
			if d.Name == dirPath {
				d.Children = append(d.Children, f)
				f.Parent = d
				break
			}
			// the owner must be somewhere under this directory
			frontier = frontier[:0]
			for _, child := range d.Children {
				if child.Kind == KindDir {
					frontier = append(frontier, child)
				}
			}
		}
	}
}
