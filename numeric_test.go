package symevm_test

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/symevm/symevm"
)

func TestWord256RoundTrip(t *testing.T) {
	t.Run("ShortInput", func(t *testing.T) {
		bs := []byte{0x01, 0x02, 0x03}
		w := symevm.Word256(bs)
		got := symevm.Word256Bytes(w)
		want := make([]byte, 32)
		copy(want[29:], bs)
		if string(got) != string(want) {
			t.Fatalf("Word256Bytes(Word256(%v)) = %x, want %x", bs, got, want)
		}
	})

	t.Run("FullWidth", func(t *testing.T) {
		bs := make([]byte, 32)
		for i := range bs {
			bs[i] = byte(i + 1)
		}
		w := symevm.Word256(bs)
		if got := symevm.Word256Bytes(w); string(got) != string(bs) {
			t.Fatalf("Word256Bytes(Word256(%x)) = %x, want %x", bs, got, bs)
		}
	})

	t.Run("Empty", func(t *testing.T) {
		w := symevm.Word256(nil)
		if !w.IsZero() {
			t.Fatal("expected zero")
		}
	})
}

func TestSignExtend(t *testing.T) {
	t.Run("PositiveNoop", func(t *testing.T) {
		w := symevm.NewW256(0x7F)
		got := w.SignExtend(symevm.NewW256(0))
		if got.Cmp(symevm.NewW256(0x7F)) != 0 {
			t.Fatalf("SignExtend(0x7F, k=0) = %v, want 0x7f", got)
		}
	})

	t.Run("NegativeExtends", func(t *testing.T) {
		w := symevm.NewW256(0xFF)
		got := w.SignExtend(symevm.NewW256(0))
		want := symevm.NewW256(0).Not()
		if got.Cmp(want) != 0 {
			t.Fatalf("SignExtend(0xFF, k=0) = %v, want all-ones", got)
		}
	})

	t.Run("KBeyond31IsNoop", func(t *testing.T) {
		w := symevm.NewW256(0xFF)
		got := w.SignExtend(symevm.NewW256(31))
		if got.Cmp(w) != 0 {
			t.Fatalf("SignExtend(w, k=31) = %v, want w unchanged", got)
		}
	})
}

func TestWord512RoundTrip(t *testing.T) {
	vals := []symevm.W256{
		symevm.NewW256(0),
		symevm.NewW256(1),
		symevm.NewW256(0xFFFFFFFF),
		symevm.Word256([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}),
	}
	for _, w := range vals {
		got := symevm.From512(symevm.To512(w))
		if got.Cmp(w) != 0 {
			t.Fatalf("From512(To512(%v)) = %v, want %v", w, got, w)
		}
	}
}

func TestAddModMulModFullWidth(t *testing.T) {
	t.Run("AddModOverflows256", func(t *testing.T) {
		max := symevm.Word256([]byte{
			0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
			0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
			0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
			0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
		})
		got := symevm.AddMod(symevm.Lit(max), symevm.Lit(max), symevm.Lit(symevm.NewW256(10)))
		lit, ok := got.(*symevm.LitExpr)
		if !ok {
			t.Fatalf("expected literal result, got %T", got)
		}
		// (max+max) mod 10 where max = 2**256-1: max+max = 2**257-2,
		// and 2**257 mod 10 == 2 (period-4 cycle on the low digit of
		// powers of two), so the result is (2-2) mod 10 == 0.
		if !lit.Val.IsZero() {
			t.Fatalf("AddMod(max,max,10) = %v, want 0", lit.Val)
		}
	})

	t.Run("MulModZeroModulus", func(t *testing.T) {
		got := symevm.MulMod(symevm.Lit(symevm.NewW256(5)), symevm.Lit(symevm.NewW256(5)), symevm.Lit(symevm.NewW256(0)))
		lit, ok := got.(*symevm.LitExpr)
		if !ok || !lit.Val.IsZero() {
			t.Fatalf("MulMod(_,_,0) = %v, want 0", got)
		}
	})
}

func TestEIP55Checksum(t *testing.T) {
	tests := []struct {
		lower string
		want  string
	}{
		{"fb6916095ca1df60bb79ce92ce3ea74c37c5d359", "fB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"},
		{"52908400098527886e0f7030069857d2e4169ee7", "52908400098527886E0F7030069857D2E4169EE7"},
	}

	for _, tc := range tests {
		bs, err := hexDecode(tc.lower)
		if err != nil {
			t.Fatalf("hexDecode(%q): %v", tc.lower, err)
		}
		addr := symevm.NewAddr(bs)
		got := addr.String()
		want := "0x" + tc.want
		if got != want {
			t.Fatalf("Addr(%q).String() = %q, want %q", tc.lower, got, want)
		}
	}
}

func TestAddrJSONRoundTrip(t *testing.T) {
	bs, _ := hexDecode("fb6916095ca1df60bb79ce92ce3ea74c37c5d359")
	addr := symevm.NewAddr(bs)

	data, err := json.Marshal(addr)
	if err != nil {
		t.Fatal(err)
	}
	want := `"0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359"`
	if string(data) != want {
		t.Fatalf("MarshalJSON = %s, want %s (must be plain lowercase, not checksummed)", data, want)
	}

	var got symevm.Addr
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got != addr {
		t.Fatalf("UnmarshalJSON round-trip mismatch: got %x, want %x", got, addr)
	}
}

func TestW256JSONRoundTrip(t *testing.T) {
	w := symevm.NewW256(0xa)
	data, err := json.Marshal(w)
	if err != nil {
		t.Fatal(err)
	}
	want := `"0x` + zeroPad(64, "a") + `"`
	if string(data) != want {
		t.Fatalf("MarshalJSON(W256(0xa)) = %s, want %s", data, want)
	}

	var got symevm.W256
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.Cmp(w) != 0 {
		t.Fatalf("UnmarshalJSON round trip: got %v, want %v", got, w)
	}
}

func TestW64JSONRoundTrip(t *testing.T) {
	w := symevm.W64(0x2a)
	data, err := json.Marshal(w)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `"0x2a"` {
		t.Fatalf("MarshalJSON(W64(0x2a)) = %s, want \"0x2a\"", data)
	}

	var got symevm.W64
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got != w {
		t.Fatalf("UnmarshalJSON round trip: got %v, want %v", got, w)
	}
}

func hexDecode(s string) ([]byte, error) {
	out := make([]byte, len(s)/2)
	for i := range out {
		hi, err := hexNibble(s[2*i])
		if err != nil {
			return nil, err
		}
		lo, err := hexNibble(s[2*i+1])
		if err != nil {
			return nil, err
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func hexNibble(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	}
	return 0, fmt.Errorf("invalid hex digit %q", c)
}

func zeroPad(width int, s string) string {
	for len(s) < width {
		s = "0" + s
	}
	return s
}
