// Package tracer defines the telemetry handle the collector's single
// entry point receives and drives. The real tracer is an external
// collaborator; this package only names the interface the orchestrator
// depends on plus a simple in-memory implementation for tests and the
// driver command.
package tracer

// Tracer is consumed by the orchestrator across every phase.
type Tracer interface {
	SetIsCompacting(bool)
	IncrementMarkedCount()
	DecrementMarkedCount()
	MarkedCount() int

	CodeDeleteEvent(addr string)
	CodeMoveEvent(from, to string)

	SetGlobalObjects(n int)
}

// Counters is a minimal Tracer backed by plain fields, suitable for
// tests and for the command-line driver's summary report.
type Counters struct {
	IsCompacting  bool
	marked        int
	GlobalObjects int
	CodeDeletes   []string
	CodeMoves     [][2]string
}

func New() *Counters { return &Counters{} }

func (c *Counters) SetIsCompacting(v bool) { c.IsCompacting = v }
func (c *Counters) IncrementMarkedCount()   { c.marked++ }
func (c *Counters) DecrementMarkedCount()   { c.marked-- }
func (c *Counters) MarkedCount() int        { return c.marked }

func (c *Counters) CodeDeleteEvent(addr string) { c.CodeDeletes = append(c.CodeDeletes, addr) }
func (c *Counters) CodeMoveEvent(from, to string) {
	c.CodeMoves = append(c.CodeMoves, [2]string{from, to})
}

func (c *Counters) SetGlobalObjects(n int) { c.GlobalObjects = n }
