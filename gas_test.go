package symevm_test

import (
	"testing"

	"github.com/symevm/symevm"
)

func TestConcreteOpsBurn(t *testing.T) {
	ops := symevm.NewConcreteOps()
	gas := ops.InitialGas(symevm.W64(100))

	burned, err := ops.Burn(gas, 30)
	if err != nil {
		t.Fatal(err)
	}
	cg, ok := burned.(*symevm.ConcreteGasValue)
	if !ok || cg.Remaining != 70 {
		t.Fatalf("Burn(100, 30) = %v, want 70 remaining", burned)
	}
}

func TestConcreteOpsBurnUnderflowErrors(t *testing.T) {
	ops := symevm.NewConcreteOps()
	gas := ops.InitialGas(symevm.W64(10))
	if _, err := ops.Burn(gas, 11); err == nil {
		t.Fatal("Burn(10, 11) did not error")
	}
}

func TestConcreteOpsBranchRequiresLiteral(t *testing.T) {
	ops := symevm.NewConcreteOps()
	if _, err := ops.Branch(symevm.Var("cond"), nil); err == nil {
		t.Fatal("ConcreteOps.Branch on a symbolic condition did not error")
	}

	outcome, err := ops.Branch(symevm.Lit(symevm.NewW256(1)), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !outcome.Resolved || !outcome.Taken {
		t.Fatalf("ConcreteOps.Branch(Lit(1)) = %+v, want Resolved=true Taken=true", outcome)
	}
}

func TestSymbolicOpsBranchDefersOnSymbolicCond(t *testing.T) {
	ops := symevm.NewSymbolicOps()
	outcome, err := ops.Branch(symevm.Var("cond"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Resolved {
		t.Fatal("SymbolicOps.Branch on a symbolic condition resolved immediately, want deferred via PleaseAskSMT")
	}
	if _, ok := outcome.Effect.(*symevm.PleaseAskSMT); !ok {
		t.Fatalf("SymbolicOps.Branch effect = %T, want *PleaseAskSMT", outcome.Effect)
	}
}

func TestSymbolicOpsBranchResolvesLiteralCond(t *testing.T) {
	ops := symevm.NewSymbolicOps()
	outcome, err := ops.Branch(symevm.Lit(symevm.NewW256(0)), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !outcome.Resolved || outcome.Taken {
		t.Fatalf("SymbolicOps.Branch(Lit(0)) = %+v, want Resolved=true Taken=false", outcome)
	}
}

func TestSymbolicOpsBurnIsNoop(t *testing.T) {
	ops := symevm.NewSymbolicOps()
	gas := ops.InitialGas(symevm.W64(0))
	got, err := ops.Burn(gas, 1_000_000)
	if err != nil {
		t.Fatal(err)
	}
	if got != gas {
		t.Fatal("SymbolicOps.Burn is not a true no-op")
	}
}

func TestConcreteOpsMemExpOnlyChargesGrowth(t *testing.T) {
	ops := symevm.NewConcreteOps()
	gas := ops.InitialGas(symevm.W64(1_000_000))

	same, err := ops.MemExp(gas, 10, 10)
	if err != nil {
		t.Fatal(err)
	}
	if same != gas {
		t.Fatal("MemExp charging for a no-op growth mutated the gas value")
	}

	grown, err := ops.MemExp(gas, 10, 20)
	if err != nil {
		t.Fatal(err)
	}
	if grown.(*symevm.ConcreteGasValue).Remaining >= gas.(*symevm.ConcreteGasValue).Remaining {
		t.Fatal("MemExp growing memory did not burn any gas")
	}
}

func TestConcreteOpsCostOfCallSurcharges(t *testing.T) {
	ops := symevm.NewConcreteOps()
	addr := symevm.LitAddr(symevm.Addr{1})

	cold, err := ops.CostOfCall(addr, symevm.NewW256(0), true)
	if err != nil {
		t.Fatal(err)
	}
	warm, err := ops.CostOfCall(addr, symevm.NewW256(0), false)
	if err != nil {
		t.Fatal(err)
	}
	if cold <= warm {
		t.Fatalf("CostOfCall(cold)=%d should exceed CostOfCall(warm)=%d", cold, warm)
	}

	withValue, err := ops.CostOfCall(addr, symevm.NewW256(1), false)
	if err != nil {
		t.Fatal(err)
	}
	if withValue <= warm {
		t.Fatalf("CostOfCall with a nonzero value=%d should exceed the zero-value case=%d", withValue, warm)
	}
}
