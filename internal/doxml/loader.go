// Package doxml reads Doxygen XML output and deserializes it into the typed
// records the reconciliation core consumes. The index is decoded as a whole;
// the per-refid compound records are large and regular enough that they are
// scanned line by line with anchored expressions instead, which also keeps
// the raw program listing intact for the core's textual heuristics.
package doxml

import (
	"bufio"
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"doxgraph/internal/graph"
)

// IndexFileName is the name Doxygen gives the compound enumeration.
const IndexFileName = "index.xml"

var (
	locPattern    = regexp.MustCompile(`<location file="([^"]*)"`)
	incPattern    = regexp.MustCompile(`<includes[^>]*>([^<]+)</includes>`)
	incByPattern  = regexp.MustCompile(`<includedby refid="([^"]+)"[^>]*>([^<]*)</includedby>`)
	innerPattern  = regexp.MustCompile(`<(inner[a-z]+) refid="(\w+)"`)
	memberPattern = regexp.MustCompile(`<memberdef[^>]*\sid="(\w+)"`)
	refPattern    = regexp.MustCompile(`<ref refid="(\w+)"[^>]*kindref="(\w+)"`)
)

// Loader implements graph.Source over a Doxygen XML output directory.
type Loader struct {
	dir string
	log *zap.Logger

	mu    sync.Mutex
	cache map[string]*graph.Detail
}

// New returns a Loader reading from dir.
func New(dir string, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{dir: dir, log: log, cache: make(map[string]*graph.Detail)}
}

type xmlIndex struct {
	XMLName   xml.Name      `xml:"doxygenindex"`
	Compounds []xmlCompound `xml:"compound"`
}

type xmlCompound struct {
	Refid   string      `xml:"refid,attr"`
	Kind    string      `xml:"kind,attr"`
	Name    string      `xml:"name"`
	Members []xmlMember `xml:"member"`
}

type xmlMember struct {
	Refid string `xml:"refid,attr"`
	Kind  string `xml:"kind,attr"`
	Name  string `xml:"name"`
}

// Index reads and decodes index.xml. Any failure here is fatal to the
// pipeline: nothing can be reconciled without the compound enumeration.
func (l *Loader) Index() (*graph.Index, error) {
	path := filepath.Join(l.dir, IndexFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var raw xmlIndex
	if err := xml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	idx := &graph.Index{Compounds: make([]graph.Compound, 0, len(raw.Compounds))}
	for _, c := range raw.Compounds {
		compound := graph.Compound{
			Name:  c.Name,
			Kind:  graph.Kind(c.Kind),
			Refid: c.Refid,
		}
		for _, m := range c.Members {
			compound.Members = append(compound.Members, graph.Member{
				Name:  m.Name,
				Kind:  graph.Kind(m.Kind),
				Refid: m.Refid,
			})
		}
		idx.Compounds = append(idx.Compounds, compound)
	}
	l.log.Debug("index loaded", zap.String("path", path), zap.Int("compounds", len(idx.Compounds)))
	return idx, nil
}

// Detail reads and scans <refid>.xml. Parsed records are cached, so the core
// asking for the same refid from several passes only pays for one read.
func (l *Loader) Detail(refid string) (*graph.Detail, error) {
	l.mu.Lock()
	if det, ok := l.cache[refid]; ok {
		l.mu.Unlock()
		return det, nil
	}
	l.mu.Unlock()

	det, err := l.parseDetail(refid)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.cache[refid] = det
	l.mu.Unlock()
	return det, nil
}

// Preload parses the records for all given refids concurrently and warms the
// cache. Individual failures are not errors here; the core will re-encounter
// and report them when it asks for the record. Only a cancelled context
// aborts the warm-up.
func (l *Loader) Preload(ctx context.Context, refids []string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, refid := range refids {
		refid := refid
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, err := l.Detail(refid); err != nil {
				l.log.Debug("preload skipped record", zap.String("refid", refid), zap.Error(err))
			}
			return nil
		})
	}
	return g.Wait()
}

func (l *Loader) parseDetail(refid string) (*graph.Detail, error) {
	path := filepath.Join(l.dir, refid+".xml")
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer fh.Close()

	det := &graph.Detail{Refid: refid}
	inListing := false

	scanner := bufio.NewScanner(fh)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		if m := locPattern.FindStringSubmatch(line); m != nil {
			det.Location = m[1]
			continue
		}

		if inListing {
			if strings.Contains(line, "</programlisting>") {
				inListing = false
				continue
			}
			det.ProgramListing = append(det.ProgramListing, line)
			for _, m := range refPattern.FindAllStringSubmatch(line, -1) {
				det.ListingRefs = append(det.ListingRefs, graph.ListingRef{
					Refid:  m[1],
					Member: m[2] == "member",
				})
			}
			continue
		}

		if m := incByPattern.FindStringSubmatch(line); m != nil {
			det.IncludedBy = append(det.IncludedBy, graph.IncludeRef{Refid: m[1], Name: m[2]})
			continue
		}
		if m := incPattern.FindStringSubmatch(line); m != nil {
			det.Includes = append(det.Includes, m[1])
			continue
		}
		for _, m := range innerPattern.FindAllStringSubmatch(line, -1) {
			det.Inner = append(det.Inner, graph.InnerRef{Refid: m[2], Relation: graph.Relation(m[1])})
		}
		if m := memberPattern.FindStringSubmatch(line); m != nil {
			det.Inner = append(det.Inner, graph.InnerRef{Refid: m[1], Relation: graph.RelationMember})
		}
		if strings.Contains(line, "<programlisting>") {
			inListing = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return det, nil
}
