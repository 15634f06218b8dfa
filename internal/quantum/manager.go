package quantum

import (
	"slices"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/exp/maps"

	"github.com/hailam/qchess/internal/board"
)

// Entry is a live branch as the attack evaluator sees it.
type Entry struct {
	Square board.Square
	Piece  board.Piece
}

// Group lists the live branches of one unmeasured subsystem. Exactly one of
// the entries is the real piece.
type Group struct {
	Subsystem SubsystemID
	Entries   []Entry
}

// Color returns the color of the split piece.
func (g Group) Color() board.Color {
	if len(g.Entries) == 0 {
		return board.NoColor
	}
	return g.Entries[0].Piece.Color()
}

// Stats counts the manager's activity.
type Stats struct {
	Splits     int
	Subsystems int
	Collapses  int
	Live       int
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for split and collapse events.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) {
		m.log = l
	}
}

// Manager owns every subsystem and the index from squares to the live branch
// they show. A square appears in the index at most once.
type Manager struct {
	subsystems []*Subsystem
	index      map[board.Square]Ref
	oracle     Oracle
	log        zerolog.Logger

	splits    int
	collapses int
}

// NewManager creates an empty manager measuring with oracle. A nil oracle
// selects a Sampler seeded from the clock.
func NewManager(oracle Oracle, opts ...Option) *Manager {
	if oracle == nil {
		oracle = NewSampler(uint64(time.Now().UnixNano()))
	}
	m := &Manager{
		index:  make(map[board.Square]Ref),
		oracle: oracle,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateSplit records that piece was split from `from` to `to`. If `from`
// already shows a live branch, the new qubit is chained onto it as a child
// conditioned on that branch; otherwise a new subsystem is opened. The
// returned Ref names the new branch on `to`.
func (m *Manager) CreateSplit(from, to board.Square, piece board.Piece) Ref {
	if _, taken := m.index[to]; taken {
		violate("CreateSplit", "%s already holds a live branch", to)
	}
	if piece == board.NoPiece {
		violate("CreateSplit", "no piece to split from %s", from)
	}

	var sub *Subsystem
	parent, parentBranch := NoQubit, Unmeasured
	if ref, ok := m.index[from]; ok {
		sub = m.subsystems[ref.Subsystem]
		parent, parentBranch = ref.Qubit, ref.Branch
	} else {
		sub = newSubsystem(SubsystemID(len(m.subsystems)), m.oracle)
		m.subsystems = append(m.subsystems, sub)
	}

	id := sub.AddBranch(parent, parentBranch, from, to, piece)
	m.index[from] = Ref{Subsystem: sub.id, Qubit: id, Branch: BranchA}
	m.index[to] = Ref{Subsystem: sub.id, Qubit: id, Branch: BranchB}
	m.splits++

	m.log.Debug().
		Int("subsystem", int(sub.id)).
		Int("qubit", int(id)).
		Int("parent", int(parent)).
		Str("piece", piece.String()).
		Str("from", from.String()).
		Str("to", to.String()).
		Msg("split")

	return m.index[to]
}

// IsSplit reports whether sq shows a live branch.
func (m *Manager) IsSplit(sq board.Square) bool {
	_, ok := m.index[sq]
	return ok
}

// Get returns the live branch shown on sq.
func (m *Manager) Get(sq board.Square) (Ref, bool) {
	ref, ok := m.index[sq]
	return ref, ok
}

// Subsystem returns the subsystem with the given id, or nil.
func (m *Manager) Subsystem(id SubsystemID) *Subsystem {
	if id < 0 || int(id) >= len(m.subsystems) {
		return nil
	}
	return m.subsystems[id]
}

// HasLive reports whether any branch is still unmeasured.
func (m *Manager) HasLive() bool {
	return len(m.index) > 0
}

// Squares returns every square showing a live branch, ascending.
func (m *Manager) Squares() []board.Square {
	sqs := maps.Keys(m.index)
	slices.Sort(sqs)
	return sqs
}

// CollapseOne measures the subsystem owning ref and returns the outcome of
// ref's qubit. Measuring an already measured subsystem returns the cached
// outcome.
func (m *Manager) CollapseOne(ref Ref) Outcome {
	sub := m.mustSubsystem("CollapseOne", ref.Subsystem)
	fresh := !sub.Measured()
	out := sub.Collapse()
	if fresh {
		m.noteCollapse(sub)
	}
	return out[ref.Qubit]
}

// CollapseAll measures every unmeasured subsystem that still has live
// branches and returns their ids in creation order.
func (m *Manager) CollapseAll() []SubsystemID {
	var ids []SubsystemID
	for _, id := range m.liveSubsystems() {
		sub := m.subsystems[id]
		if sub.Measured() {
			continue
		}
		sub.Collapse()
		m.noteCollapse(sub)
		ids = append(ids, id)
	}
	return ids
}

// ApplyCollapse folds every measured subsystem that still has squares in the
// index onto b and removes those squares from the index.
func (m *Manager) ApplyCollapse(b BoardWriter) {
	for _, id := range m.liveSubsystems() {
		if m.subsystems[id].Measured() {
			m.fold(b, id)
		}
	}
}

// ApplyCollapseFor folds the subsystem owning ref onto b, measuring it first
// if needed. The whole subsystem is folded: its qubits share one sample, so
// resolving one of them resolves them all.
func (m *Manager) ApplyCollapseFor(b BoardWriter, ref Ref) {
	sub := m.mustSubsystem("ApplyCollapseFor", ref.Subsystem)
	if !sub.Measured() {
		sub.Collapse()
		m.noteCollapse(sub)
	}
	m.fold(b, ref.Subsystem)
}

// Resolve measures and folds whatever subsystem owns sq. It returns false
// when sq shows no live branch.
func (m *Manager) Resolve(b BoardWriter, sq board.Square) (SubsystemID, bool) {
	ref, ok := m.index[sq]
	if !ok {
		return 0, false
	}
	m.ApplyCollapseFor(b, ref)
	return ref.Subsystem, true
}

// LiveGroups returns one group per unmeasured subsystem, listing the squares
// where its piece might be. Groups come in subsystem order and entries in
// square order.
func (m *Manager) LiveGroups() []Group {
	sqs := m.Squares()
	byID := make(map[SubsystemID]int)
	var groups []Group
	for _, sq := range sqs {
		ref := m.index[sq]
		sub := m.subsystems[ref.Subsystem]
		if sub.Measured() {
			continue
		}
		q := &sub.qubits[ref.Qubit]
		e := Entry{Square: sq, Piece: q.Branch(ref.Branch).Piece}
		i, ok := byID[ref.Subsystem]
		if !ok {
			i = len(groups)
			byID[ref.Subsystem] = i
			groups = append(groups, Group{Subsystem: ref.Subsystem})
		}
		groups[i].Entries = append(groups[i].Entries, e)
	}
	slices.SortFunc(groups, func(a, b Group) int {
		return int(a.Subsystem) - int(b.Subsystem)
	})
	return groups
}

// SetBranchPiece renames the live branch on sq, used when a split pawn
// promotes in place.
func (m *Manager) SetBranchPiece(sq board.Square, p board.Piece) bool {
	ref, ok := m.index[sq]
	if !ok {
		return false
	}
	return m.subsystems[ref.Subsystem].SetBranchPiece(sq, p)
}

// Stats returns activity counters.
func (m *Manager) Stats() Stats {
	return Stats{
		Splits:     m.splits,
		Subsystems: len(m.subsystems),
		Collapses:  m.collapses,
		Live:       len(m.index),
	}
}

func (m *Manager) fold(b BoardWriter, id SubsystemID) {
	m.subsystems[id].ApplyToBoard(b)
	for sq, ref := range m.index {
		if ref.Subsystem == id {
			delete(m.index, sq)
		}
	}
}

func (m *Manager) liveSubsystems() []SubsystemID {
	seen := make(map[SubsystemID]bool)
	for _, ref := range m.index {
		seen[ref.Subsystem] = true
	}
	ids := maps.Keys(seen)
	slices.Sort(ids)
	return ids
}

func (m *Manager) noteCollapse(sub *Subsystem) {
	m.collapses++
	if e := m.log.Debug(); e.Enabled() {
		outcomes := make([]string, sub.Len())
		for i := range outcomes {
			q := &sub.qubits[i]
			outcomes[i] = q.Result.String()
		}
		e.Int("subsystem", int(sub.id)).
			Strs("outcomes", outcomes).
			Msg("collapse")
	}
}

func (m *Manager) mustSubsystem(op string, id SubsystemID) *Subsystem {
	sub := m.Subsystem(id)
	if sub == nil {
		violate(op, "no subsystem %d", id)
	}
	return sub
}
