package organize

import (
	"os"
	"sync"

	"medio/internal/fileutil"
)

// Executor performs the filesystem effects the pipeline decides on. The core
// issues move and delete decisions; the executor owns the actual I/O. Both
// operations are synchronous: their effect is visible before the pipeline
// mutates the index again.
type Executor interface {
	CopyOrMove(src, dst string) error
	Delete(src string) error
}

type moveExecutor struct{}

// NewMoveExecutor returns the default executor: rename with a verified-copy
// fallback for cross-device moves, plain remove for deletes.
func NewMoveExecutor() Executor {
	return moveExecutor{}
}

func (moveExecutor) CopyOrMove(src, dst string) error {
	return fileutil.MoveFile(src, dst)
}

func (moveExecutor) Delete(src string) error {
	return os.Remove(src)
}

// PlannedOp records one filesystem effect a dry run would have performed.
type PlannedOp struct {
	Op  string // "move" or "delete"
	Src string
	Dst string
}

// DryRunExecutor records decisions without touching the filesystem.
type DryRunExecutor struct {
	mu  sync.Mutex
	ops []PlannedOp
}

// NewDryRunExecutor constructs a recording executor for preview runs.
func NewDryRunExecutor() *DryRunExecutor {
	return &DryRunExecutor{}
}

func (d *DryRunExecutor) CopyOrMove(src, dst string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ops = append(d.ops, PlannedOp{Op: "move", Src: src, Dst: dst})
	return nil
}

func (d *DryRunExecutor) Delete(src string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ops = append(d.ops, PlannedOp{Op: "delete", Src: src})
	return nil
}

// Ops returns the recorded operations in execution order.
func (d *DryRunExecutor) Ops() []PlannedOp {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]PlannedOp, len(d.ops))
	copy(out, d.ops)
	return out
}
