package symevm

// endBase is embedded by every End-sorted node to satisfy the Expr and
// End interfaces once, rather than repeating ExprSort/sealedEnd on each.
type endBase struct{}

func (endBase) ExprSort() Sort { return SortEnd }
func (endBase) sealedEnd()     {}

// PartialExpr marks an execution that stopped before reaching a
// terminal state (spec §4.4): the accumulated constraints remain valid,
// but no final contract snapshot or return value exists.
type PartialExpr struct {
	endBase
	Reason PartialExec
	Ctx    TraceContext
}

// Partial constructs a Partial end-state term.
func Partial(reason PartialExec, ctx TraceContext) End {
	return &PartialExpr{Reason: reason, Ctx: ctx}
}

// FailureExpr is a terminated, reverted execution: every storage write
// this path made is discarded, but the path's constraints (including
// whatever forced the failure) remain part of the tree.
type FailureExpr struct {
	endBase
	Constraints []Prop
	Err         EvmError
	Ctx         TraceContext
}

// Failure constructs a Failure end-state term.
func Failure(constraints []Prop, err EvmError, ctx TraceContext) End {
	return &FailureExpr{Constraints: constraints, Err: err, Ctx: ctx}
}

// SuccessExpr is a terminated, committed execution: the returned buffer,
// the accumulated path constraints, the emitted logs, and a snapshot of
// every contract touched along this path.
type SuccessExpr struct {
	endBase
	Constraints []Prop
	ReturnBuf   Buf
	Logs        []Log
	Contracts   map[Addr]*Contract
	Ctx         TraceContext
}

// Success constructs a Success end-state term.
func Success(constraints []Prop, returnBuf Buf, logs []Log, contracts map[Addr]*Contract, ctx TraceContext) End {
	return &SuccessExpr{Constraints: constraints, ReturnBuf: returnBuf, Logs: logs, Contracts: contracts, Ctx: ctx}
}

// ITEExpr is an if-then-else over two End terms, used to fold an
// exploration tree's sibling branches back into a single term once both
// sides are known (spec §4.4's "End values may themselves branch").
type ITEExpr struct {
	endBase
	Cond EWord
	Then End
	Else End
}

// ITE constructs an End-sorted conditional, folding away the branch
// immediately when cond resolves to a literal (I1).
func ITE(cond EWord, then, els End) End {
	if lit, ok := maybeLitWord(cond); ok {
		if lit.IsZero() {
			return els
		}
		return then
	}
	return &ITEExpr{Cond: cond, Then: then, Else: els}
}
