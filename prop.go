package symevm

// Prop is the boolean algebra used for path constraints, layered over
// Expr. The teacher folds booleans directly into its bitvector Expr
// (comparisons just yield a width-1 BinaryExpr); this spec keeps Prop as
// its own sort-erased layer, so PEq below is written generically rather
// than collapsing into WordBinExpr/OpEq the way the teacher's NewEqExpr
// would.
type Prop interface {
	sealedProp()
}

// PEqExpr asserts that two same-sort expressions are equal. It is
// sort-polymorphic but only ever equates same-sort pairs: the smart
// constructor PEq enforces this by taking two Expr values and panicking
// (via assert) on a sort mismatch, per (I2).
type PEqExpr struct {
	A Expr
	B Expr
}

func (*PEqExpr) sealedProp() {}

// PEq asserts a == b. Panics if a and b have different sorts (I2): Prop
// equality is never allowed to silently compare across sorts.
func PEq(a, b Expr) Prop {
	assert(a.ExprSort() == b.ExprSort(), "PEq: sort mismatch: %v vs %v", a.ExprSort(), b.ExprSort())
	return &PEqExpr{A: a, B: b}
}

// PLTExpr asserts A < B (unsigned).
type PLTExpr struct{ A, B EWord }

func (*PLTExpr) sealedProp() {}

// PLT asserts a < b (unsigned).
func PLT(a, b EWord) Prop { return &PLTExpr{A: a, B: b} }

// PGTExpr asserts A > B (unsigned).
type PGTExpr struct{ A, B EWord }

func (*PGTExpr) sealedProp() {}

// PGT asserts a > b (unsigned).
func PGT(a, b EWord) Prop { return &PGTExpr{A: a, B: b} }

// PLEqExpr asserts A <= B (unsigned).
type PLEqExpr struct{ A, B EWord }

func (*PLEqExpr) sealedProp() {}

// PLEq asserts a <= b (unsigned).
func PLEq(a, b EWord) Prop { return &PLEqExpr{A: a, B: b} }

// PGEqExpr asserts A >= B (unsigned).
type PGEqExpr struct{ A, B EWord }

func (*PGEqExpr) sealedProp() {}

// PGEq asserts a >= b (unsigned).
func PGEq(a, b EWord) Prop { return &PGEqExpr{A: a, B: b} }

// PNegExpr negates a proposition.
type PNegExpr struct{ X Prop }

func (*PNegExpr) sealedProp() {}

// PNeg returns the negation of x.
func PNeg(x Prop) Prop {
	if b, ok := x.(*PBoolExpr); ok {
		return PBool(!b.Val)
	}
	return &PNegExpr{X: x}
}

// PAndExpr conjoins two propositions.
type PAndExpr struct{ A, B Prop }

func (*PAndExpr) sealedProp() {}

// PAnd returns a && b, right-associative per spec's .&& operator.
func PAnd(a, b Prop) Prop {
	if ba, ok := a.(*PBoolExpr); ok {
		if ba.Val {
			return b
		}
		return PBool(false)
	}
	return &PAndExpr{A: a, B: b}
}

// POrExpr disjoins two propositions.
type POrExpr struct{ A, B Prop }

func (*POrExpr) sealedProp() {}

// POr returns a || b, right-associative per spec's .|| operator.
func POr(a, b Prop) Prop {
	if ba, ok := a.(*PBoolExpr); ok {
		if ba.Val {
			return PBool(true)
		}
		return b
	}
	return &POrExpr{A: a, B: b}
}

// PImplExpr is logical implication.
type PImplExpr struct{ A, B Prop }

func (*PImplExpr) sealedProp() {}

// PImpl returns a implies b.
func PImpl(a, b Prop) Prop { return &PImplExpr{A: a, B: b} }

// PBoolExpr is a constant boolean proposition, the identity element for
// pand (PBool(true)) and por (PBool(false)).
type PBoolExpr struct{ Val bool }

func (*PBoolExpr) sealedProp() {}

// PBool constructs a constant boolean proposition.
func PBool(v bool) Prop { return &PBoolExpr{Val: v} }

// Pand folds xs with PAnd, identity PBool(true).
func Pand(xs []Prop) Prop {
	acc := PBool(true)
	for _, x := range xs {
		acc = PAnd(acc, x)
	}
	return acc
}

// Por folds xs with POr, identity PBool(false).
func Por(xs []Prop) Prop {
	acc := PBool(false)
	for _, x := range xs {
		acc = POr(acc, x)
	}
	return acc
}
