package symevm_test

import (
	"reflect"
	"testing"

	"github.com/symevm/symevm"
)

func TestPartialCarriesReasonAndContext(t *testing.T) {
	reason := &symevm.MaxIterationsReached{PC: 12, Addr: symevm.LitAddr(symevm.Addr{1})}
	ctx := symevm.TraceContext{Contract: symevm.LitAddr(symevm.Addr{1})}

	p := symevm.Partial(reason, ctx).(*symevm.PartialExpr)
	if p.Reason != reason || !reflect.DeepEqual(p.Ctx, ctx) {
		t.Fatal("Partial(...) did not carry through its constructor arguments")
	}
	if p.ExprSort() != symevm.SortEnd {
		t.Fatalf("Partial(...).ExprSort() = %v, want SortEnd", p.ExprSort())
	}
}

func TestFailureCarriesConstraintsAndErr(t *testing.T) {
	cs := []symevm.Prop{symevm.PBool(true)}
	err := &symevm.RevertError{}
	ctx := symevm.TraceContext{}

	f := symevm.Failure(cs, err, ctx).(*symevm.FailureExpr)
	if len(f.Constraints) != 1 || f.Err != err {
		t.Fatal("Failure(...) did not carry through its constructor arguments")
	}
}

func TestSuccessCarriesReturnBufLogsContracts(t *testing.T) {
	buf := symevm.ConcreteBuf([]byte{1, 2})
	logs := []symevm.Log{symevm.LogEntry(symevm.LitAddr(symevm.Addr{1}), symevm.ConcreteBuf(nil), nil)}
	contracts := map[symevm.Addr]*symevm.Contract{
		{1}: symevm.NewContract(&symevm.RuntimeContractCode{Code: &symevm.ConcreteRuntimeCode{}}),
	}
	ctx := symevm.TraceContext{}

	s := symevm.Success(nil, buf, logs, contracts, ctx).(*symevm.SuccessExpr)
	if s.ReturnBuf != buf || len(s.Logs) != 1 || len(s.Contracts) != 1 {
		t.Fatal("Success(...) did not carry through its constructor arguments")
	}
}

func TestEndSortedNodesShareSortEnd(t *testing.T) {
	nodes := []symevm.Expr{
		symevm.Partial(&symevm.MaxIterationsReached{}, symevm.TraceContext{}),
		symevm.Failure(nil, &symevm.RevertError{}, symevm.TraceContext{}),
		symevm.Success(nil, symevm.ConcreteBuf(nil), nil, nil, symevm.TraceContext{}),
	}
	for _, n := range nodes {
		if n.ExprSort() != symevm.SortEnd {
			t.Fatalf("%T.ExprSort() = %v, want SortEnd", n, n.ExprSort())
		}
	}
}
