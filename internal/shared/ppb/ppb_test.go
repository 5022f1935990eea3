package ppb

import (
	"math"
	"testing"
)

func TestShareExactHalf(t *testing.T) {
	if got := Share(1_000_000_000_000_000_000, 500_000_000); got != 500_000_000_000_000_000 {
		t.Fatalf("expected half of 1e18, got %d", got)
	}
}

func TestShareTruncates(t *testing.T) {
	// 3-way split of 10 units at 1/3 each loses one unit to truncation.
	third := uint64(333_333_333)
	total := uint64(10)
	var sum uint64
	for i := 0; i < 3; i++ {
		sum += Share(total, third)
	}
	if sum >= total {
		t.Fatalf("expected truncation loss, distributed %d of %d", sum, total)
	}
}

func TestMulDivLargeAmounts(t *testing.T) {
	// 1e18 * 5e6 overflows 64 bits; the 128-bit path must still be exact.
	fee := MulDiv(1_000_000_000_000_000_000, 5_000_000, Denominator)
	if fee != 5_000_000_000_000_000 {
		t.Fatalf("expected 0.5%% fee of 1e18, got %d", fee)
	}
}

func TestMulDivMaxAmount(t *testing.T) {
	if got := MulDiv(math.MaxUint64, Denominator, Denominator); got != math.MaxUint64 {
		t.Fatalf("identity rate must conserve value, got %d", got)
	}
}

func TestMulDivZeroRate(t *testing.T) {
	if got := MulDiv(12345, 0, Denominator); got != 0 {
		t.Fatalf("zero rate must yield zero, got %d", got)
	}
}
