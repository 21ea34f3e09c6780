package gcd

import (
	"time"

	"github.com/driftice/gcdserver/idgen"
)

// Assembler builds snapshots. The ID generator and clock are injectable so
// tests can pin them; production uses random UUIDs and the wall clock.
type Assembler struct {
	newID idgen.Generator
	now   func() time.Time
}

// AssemblerOption configures an Assembler.
type AssemblerOption func(*Assembler)

// WithIDGenerator sets a custom collection ID generator.
func WithIDGenerator(gen idgen.Generator) AssemblerOption {
	return func(a *Assembler) { a.newID = gen }
}

// WithClock sets a custom time source.
func WithClock(now func() time.Time) AssemblerOption {
	return func(a *Assembler) { a.now = now }
}

// NewAssembler returns an Assembler with the default random-UUID identifier
// strategy and wall-clock time source.
func NewAssembler(opts ...AssemblerOption) *Assembler {
	a := &Assembler{
		newID: idgen.UUIDv4(),
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Assemble combines resolved calibrations with the full geometry set and the
// run-scoped status set into one immutable snapshot. No further filtering
// happens here: geometry is passed through whole, status was already scoped
// to the run by its query. Each call mints a fresh collection ID, so two
// generations for the same run are distinct snapshots even when their
// contents are identical.
func (a *Assembler) Assemble(runNumber uint32, cals []Calibration, geom []Geometry, status []DetectorStatus, actor string) Snapshot {
	return Snapshot{
		CollectionID:   a.newID(),
		RunNumber:      runNumber,
		GeneratedAt:    a.now(),
		GeneratedBy:    actor,
		Calibrations:   cals,
		Geometry:       geom,
		DetectorStatus: status,
	}
}
