package symevm_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/symevm/symevm"
)

func TestLitSort(t *testing.T) {
	lit := symevm.Lit(symevm.NewW256(5))
	if lit.ExprSort() != symevm.SortEWord {
		t.Fatalf("Lit.ExprSort() = %v, want SortEWord", lit.ExprSort())
	}
}

func TestWAddrWrapsLitAddrAsLitWord(t *testing.T) {
	addr := symevm.NewAddr([]byte{0x01, 0x02})
	w := symevm.WAddr(symevm.LitAddr(addr))
	if _, ok := w.(*symevm.WAddrExpr); !ok {
		t.Fatalf("WAddr(LitAddr(...)) = %T, want *WAddrExpr (folding is Buf/Storage-only, not word-level)", w)
	}

	// Arithmetic that consumes the word form must still see through the
	// wrapper to the literal address value (maybeLitWord's WAddrExpr case).
	sum := symevm.Add(w, symevm.Lit(symevm.NewW256(1)))
	lit, ok := sum.(*symevm.LitExpr)
	if !ok {
		t.Fatalf("Add(WAddr(LitAddr(...)), 1) = %T, want folded literal", sum)
	}
	want := symevm.Word256(addr.Bytes()).Add(symevm.NewW256(1))
	if lit.Val.Cmp(want) != 0 {
		t.Fatalf("Add(WAddr(LitAddr(addr)), 1) = %v, want %v", lit.Val, want)
	}
}

func TestPEqSortMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected PEq to panic on sort mismatch")
		}
	}()
	symevm.PEq(symevm.Lit(symevm.NewW256(1)), symevm.ConcreteBuf(nil))
}

func TestITEFoldsOnLiteralCondition(t *testing.T) {
	then := symevm.Success(nil, symevm.ConcreteBuf(nil), nil, nil, symevm.TraceContext{})
	els := symevm.Failure(nil, &symevm.RevertError{}, symevm.TraceContext{})

	t.Run("NonZeroTakesThen", func(t *testing.T) {
		got := symevm.ITE(symevm.Lit(symevm.NewW256(1)), then, els)
		if got != then {
			t.Fatal("ITE(Lit(1), then, els) did not fold to then")
		}
	})

	t.Run("ZeroTakesElse", func(t *testing.T) {
		got := symevm.ITE(symevm.Lit(symevm.NewW256(0)), then, els)
		if got != els {
			t.Fatal("ITE(Lit(0), then, els) did not fold to els")
		}
	})

	t.Run("SymbolicStaysRaw", func(t *testing.T) {
		got := symevm.ITE(symevm.Var("cond"), then, els)
		ite, ok := got.(*symevm.ITEExpr)
		if !ok {
			t.Fatalf("ITE(Var(...), ...) = %T, want *ITEExpr", got)
		}
		if ite.Then != then || ite.Else != els {
			t.Fatal("ITEExpr did not preserve its branches")
		}
	})
}

func TestPropIdentities(t *testing.T) {
	x := symevm.PLT(symevm.Var("a"), symevm.Var("b"))

	t.Run("AndTrueIsIdentity", func(t *testing.T) {
		if got := symevm.PAnd(symevm.PBool(true), x); got != x {
			t.Fatal("PAnd(true, x) did not fold to x")
		}
	})

	t.Run("AndFalseAnnihilates", func(t *testing.T) {
		got, ok := symevm.PAnd(symevm.PBool(false), x).(*symevm.PBoolExpr)
		if !ok || got.Val {
			t.Fatal("PAnd(false, x) did not fold to PBool(false)")
		}
	})

	t.Run("OrFalseIsIdentity", func(t *testing.T) {
		if got := symevm.POr(symevm.PBool(false), x); got != x {
			t.Fatal("POr(false, x) did not fold to x")
		}
	})

	t.Run("NegBool", func(t *testing.T) {
		got, ok := symevm.PNeg(symevm.PBool(true)).(*symevm.PBoolExpr)
		if !ok || got.Val {
			t.Fatal("PNeg(PBool(true)) did not fold to PBool(false)")
		}
	})
}

func TestFreeVars(t *testing.T) {
	e := symevm.Add(symevm.Var("x"), symevm.Mul(symevm.Var("y"), symevm.Var("x")))
	got := symevm.FreeVars(e)
	want := []string{"x", "y"} // first-seen order under WalkExpr's pre-order walk
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("FreeVars(x + y*x) mismatch (-want +got):\n%s", diff)
	}
}

func TestFreeVarsAcrossSorts(t *testing.T) {
	e := symevm.WriteByte(
		symevm.Var("off"),
		symevm.LitByte(1),
		symevm.AbstractBuf("mem"),
	)
	got := symevm.FreeVars(e)
	want := []string{"off", "mem"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("FreeVars over a mixed Buf/EWord term mismatch (-want +got):\n%s", diff)
	}
}
