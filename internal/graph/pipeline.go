package graph

import (
	"fmt"

	"go.uber.org/zap"
)

// Options configures the pipeline. It is passed explicitly so that the core
// carries no process-wide state.
type Options struct {
	// StripFromPath is a path prefix removed from every file location before
	// directory attachment. Doxygen records absolute paths when it was given
	// one; stripping the build prefix keeps the directory forest relative.
	StripFromPath string
}

// Severity classifies a diagnostic.
type Severity string

const (
	// SeverityWarning marks a recoverable problem: a detail record that was
	// missing or unreadable and therefore skipped as an evidence source.
	SeverityWarning Severity = "warning"

	// SeverityConflict marks contradictory input: one entity claimed as
	// textually defined by two different files. The first assignment wins.
	SeverityConflict Severity = "conflict"
)

// Diagnostic is a non-fatal finding surfaced to the caller.
type Diagnostic struct {
	Severity Severity
	Refid    string
	Message  string
}

// Result is the output of a reconciliation run. Downstream consumers treat
// everything reachable from Registry as read-only.
type Result struct {
	Registry    *Registry
	Diagnostics []Diagnostic
}

// reconciler carries the pipeline state between passes. It is built fresh for
// every Reconcile call and discarded afterwards; there is exactly one writer
// and no concurrent reader while it runs.
type reconciler struct {
	src   Source
	opts  Options
	log   *zap.Logger
	reg   *Registry
	diags []Diagnostic
}

// Reconcile rebuilds the full ownership hierarchy from src. The stages run
// strictly in order because each one assumes the invariants of the previous
// one: discovery, the five reparenting sub-passes, file-reference resolution,
// directory attachment, and the canonical sort. Only an unreadable index is
// fatal; every other problem becomes a Diagnostic on the Result.
func Reconcile(src Source, opts Options, log *zap.Logger) (*Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	rc := &reconciler{src: src, opts: opts, log: log, reg: NewRegistry()}

	if err := rc.discover(); err != nil {
		return nil, err
	}
	rc.reparentAll()
	rc.resolveFileReferences()
	rc.attachDirectories()
	rc.sortInternals()

	rc.log.Info("reconciliation complete",
		zap.Int("nodes", rc.reg.Len()),
		zap.Int("files", len(rc.reg.Files)),
		zap.Int("diagnostics", len(rc.diags)))
	return &Result{Registry: rc.reg, Diagnostics: rc.diags}, nil
}

func (rc *reconciler) report(sev Severity, refid, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	rc.diags = append(rc.diags, Diagnostic{Severity: sev, Refid: refid, Message: msg})
	switch sev {
	case SeverityConflict:
		rc.log.Warn(msg, zap.String("refid", refid), zap.String("severity", string(sev)))
	default:
		rc.log.Debug(msg, zap.String("refid", refid), zap.String("severity", string(sev)))
	}
}
