package symevm

// BaseState selects what an as-yet-unfetched account should be treated
// as until the real fetch completes: an empty, freshly-created account,
// or a fully abstract one whose balance/code/storage are all symbolic.
type BaseState int

const (
	BaseStateEmptyAccount BaseState = iota
	BaseStateAbstract
)

// Effect is a suspension a VM step may emit when it needs information
// only an external orchestrator can supply (spec §4.5). Per the design
// notes, a continuation is not a closure: it is the effect's own data
// (the address/slot/condition being asked about, plus NextPC to resume
// at), a bounded "resume token" the orchestrator reads and acts on.
type Effect interface {
	sealedEffect()
}

// PleaseFetchContract asks for addr's bytecode/account state.
type PleaseFetchContract struct {
	Addr      EAddr
	BaseState BaseState
	NextPC    int
}

func (*PleaseFetchContract) sealedEffect() {}

// PleaseFetchSlot asks for one storage slot of addr.
type PleaseFetchSlot struct {
	Addr   EAddr
	Slot   EWord
	NextPC int
}

func (*PleaseFetchSlot) sealedEffect() {}

// SMTAnswer is the solver's reply to a PleaseAskSMT query.
type SMTAnswer interface {
	sealedSMTAnswer()
}

// SMTCase is a definite answer: cond is forced to Val under cs.
type SMTCase struct {
	Val bool
}

func (*SMTCase) sealedSMTAnswer() {}

// SMTUnknown means the solver could not decide cond under cs (timeout,
// resource limit, or genuine undecidability within the configured
// budget).
type SMTUnknown struct{}

func (*SMTUnknown) sealedSMTAnswer() {}

// PleaseAskSMT asks whether cond is forced under the accumulated
// constraints cs.
type PleaseAskSMT struct {
	Cond   Prop
	Cs     []Prop
	NextPC int
}

func (*PleaseAskSMT) sealedEffect() {}

// PleaseDoFFI asks the orchestrator to run an external command (only
// ever emitted when RuntimeConfig.AllowFFI is set).
type PleaseDoFFI struct {
	Argv   []string
	NextPC int
}

func (*PleaseDoFFI) sealedEffect() {}

// PleaseChoosePath asks the orchestrator (or an attached user) to pick a
// side of a branch the solver could not resolve. Symbolic-only.
type PleaseChoosePath struct {
	Cond   EWord
	NextPC int
}

func (*PleaseChoosePath) sealedEffect() {}

// Solver is the external SMT collaborator a PleaseAskSMT effect is
// ultimately discharged through. The core only defines this contract;
// no implementation lives here (the solver driver, e.g. a Z3 binding, is
// explicitly out of scope).
type Solver interface {
	// Solve reports whether cond is forced to true, forced to false, or
	// undecided, under the conjunction of cs.
	Solve(cs []Prop, cond Prop) (SMTAnswer, error)
}

// VMResult is what a VM step produces when it stops making progress:
// either it is done (VMSuccess/VMFailure), or it needs something from
// outside (HandleEffect), or — symbolic only — it gave up (Unfinished).
type VMResult interface {
	sealedVMResult()
}

// Unfinished means the frame stopped before reaching a terminal state;
// constraints gathered so far remain valid (symbolic flavor only).
type Unfinished struct {
	Reason PartialExec
}

func (*Unfinished) sealedVMResult() {}

// VMFailure means the current frame failed with an EvmError.
type VMFailure struct {
	Err EvmError
}

func (*VMFailure) sealedVMResult() {}

// VMSuccess means the current (outermost) frame returned successfully.
type VMSuccess struct {
	ReturnBuf Buf
}

func (*VMSuccess) sealedVMResult() {}

// HandleEffect means the step suspended on an Effect; the orchestrator
// must resolve it and resume.
type HandleEffect struct {
	Eff Effect
}

func (*HandleEffect) sealedVMResult() {}
