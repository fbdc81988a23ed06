// Package reconcile maps records extracted from documents onto store
// entities: it decides create/update/skip per entity, orders parents
// before sub-projects, and detects document/store divergence before
// touching anything.
//
// The reconciler is resilient the same way the scanner is: one bad
// entity appends to the result's error list and the pass continues.
package reconcile

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/tbushell/kbsync/internal/parse"
	"github.com/tbushell/kbsync/internal/store"
)

// Result aggregates the outcome of one reconciliation stage. Per-entity
// failures land in Errors; nothing short of a whole-pass precondition
// is returned as a hard error.
type Result struct {
	Found     int      `json:"found" yaml:"found"`
	Created   int      `json:"created" yaml:"created"`
	Updated   int      `json:"updated" yaml:"updated"`
	Skipped   int      `json:"skipped" yaml:"skipped"`
	Conflicts []string `json:"conflicts,omitempty" yaml:"conflicts,omitempty"`
	Errors    []string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

func (r *Result) errf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Reconciler drives create/update/skip decisions against the store.
//
// In preview mode every decision is made and counted but no store write
// is issued, so a preview followed by an apply reports the same
// numbers.
type Reconciler struct {
	db       *store.DB
	logger   *log.Logger
	resolver *parse.Resolver
	preview  bool
	force    bool
	now      func() time.Time
}

// New creates a Reconciler. If logger is nil, a default logger writing
// to stderr is used.
func New(db *store.DB, logger *log.Logger, preview bool) *Reconciler {
	if logger == nil {
		logger = log.New(os.Stderr, "[reconcile] ", log.LstdFlags)
	}
	r := &Reconciler{
		db:      db,
		logger:  logger,
		preview: preview,
		now:     time.Now,
	}
	// The resolver reads the clock through r.now so year-omitted dates
	// follow the same injected time as sync stamping.
	r.resolver = parse.NewResolver(func() time.Time { return r.now() })
	return r
}

// Forced returns a copy of the Reconciler that bypasses the conflict
// gate and re-syncs unchanged documents. Used only by explicit conflict
// resolution when the caller chose the file as the winner.
func (r *Reconciler) Forced() *Reconciler {
	c := *r
	c.force = true
	return &c
}
