package release

import (
	"errors"
	"math/big"
	"testing"

	"liquidityLaunch/internal/model"
)

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

func TestTargetFloorTickScenario(t *testing.T) {
	s := model.Schedule{
		TotalAmount:         ether(1000),
		StartTime:           100000,
		EndTime:             964000,
		MinTick:             -42069,
		MaxTick:             42069,
		IsReleaseTokenFirst: true,
	}
	midpoint := s.StartTime + s.Duration()/2

	cases := []struct {
		ts   uint64
		want int32
	}{
		{ts: s.StartTime, want: 42069},
		{ts: midpoint, want: 0},
		{ts: s.EndTime, want: -42069},
		{ts: s.EndTime + 1, want: -42069},
		{ts: s.EndTime * 10, want: -42069},
	}
	for _, tc := range cases {
		got, err := TargetFloorTick(s, tc.ts)
		if err != nil {
			t.Fatalf("unexpected error at %d: %v", tc.ts, err)
		}
		if got != tc.want {
			t.Fatalf("floor tick mismatch at %d: %d != %d", tc.ts, got, tc.want)
		}
	}
}

func TestTargetFloorTickMirrored(t *testing.T) {
	s := model.Schedule{
		TotalAmount: ether(1),
		StartTime:   10000,
		EndTime:     96400,
		MinTick:     -10000,
		MaxTick:     -5000,
	}

	start, err := TargetFloorTick(s, s.StartTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start != -10000 {
		t.Fatalf("mirrored start mismatch: %d", start)
	}

	mid, err := TargetFloorTick(s, 50000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mid != -7686 {
		t.Fatalf("mirrored interpolation mismatch: %d", mid)
	}

	end, err := TargetFloorTick(s, s.EndTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if end != -5000 {
		t.Fatalf("mirrored end mismatch: %d", end)
	}
}

func TestTargetFloorTickTruncatesTowardWide(t *testing.T) {
	s := model.Schedule{
		TotalAmount:         ether(1000),
		StartTime:           10000,
		EndTime:             96400,
		MinTick:             5000,
		MaxTick:             10000,
		IsReleaseTokenFirst: true,
	}
	got, err := TargetFloorTick(s, 50000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 10000 - floor(40000*5000/86400) = 10000 - 2314
	if got != 7686 {
		t.Fatalf("floor tick mismatch: %d", got)
	}
}

func TestTargetReleasedAmountScenario(t *testing.T) {
	s := model.Schedule{
		TotalAmount:         ether(42069),
		StartTime:           100000,
		EndTime:             964000,
		MinTick:             -42069,
		MaxTick:             42069,
		IsReleaseTokenFirst: true,
	}
	half, _ := new(big.Int).SetString("21034500000000000000000", 10)
	midpoint := s.StartTime + s.Duration()/2

	cases := []struct {
		ts   uint64
		want *big.Int
	}{
		{ts: s.StartTime, want: big.NewInt(0)},
		{ts: midpoint, want: half},
		{ts: s.EndTime, want: ether(42069)},
		{ts: s.EndTime + 86400, want: ether(42069)},
	}
	for _, tc := range cases {
		got, err := TargetReleasedAmount(s, tc.ts)
		if err != nil {
			t.Fatalf("unexpected error at %d: %v", tc.ts, err)
		}
		if got.Cmp(tc.want) != 0 {
			t.Fatalf("released amount mismatch at %d: %s != %s", tc.ts, got, tc.want)
		}
	}
}

func TestCurveBeforeStartTime(t *testing.T) {
	s := model.Schedule{TotalAmount: ether(1), StartTime: 100, EndTime: 200, MinTick: -10, MaxTick: 10}
	if _, err := TargetFloorTick(s, 99); !errors.Is(err, ErrBeforeStartTime) {
		t.Fatalf("expected ErrBeforeStartTime, got %v", err)
	}
	if _, err := TargetReleasedAmount(s, 0); !errors.Is(err, ErrBeforeStartTime) {
		t.Fatalf("expected ErrBeforeStartTime, got %v", err)
	}
}

func TestCurveZeroLengthWindow(t *testing.T) {
	s := model.Schedule{TotalAmount: ether(5), StartTime: 100, EndTime: 100, MinTick: -10, MaxTick: 10, IsReleaseTokenFirst: true}
	tick, err := TargetFloorTick(s, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tick != -10 {
		t.Fatalf("zero window floor mismatch: %d", tick)
	}
	amount, err := TargetReleasedAmount(s, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amount.Cmp(ether(5)) != 0 {
		t.Fatalf("zero window amount mismatch: %s", amount)
	}
}

func TestTargetReleasedAmountMonotonic(t *testing.T) {
	s := model.Schedule{TotalAmount: big.NewInt(1000003), StartTime: 7, EndTime: 1007, MinTick: 0, MaxTick: 100, IsReleaseTokenFirst: true}
	prev := big.NewInt(0)
	prevTick := s.MaxTick
	for ts := s.StartTime; ts <= s.EndTime+5; ts++ {
		amount, err := TargetReleasedAmount(s, ts)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if amount.Cmp(prev) < 0 {
			t.Fatalf("released amount decreased at %d: %s < %s", ts, amount, prev)
		}
		prev = amount

		tick, err := TargetFloorTick(s, ts)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tick > prevTick {
			t.Fatalf("floor tick moved back toward wide at %d: %d > %d", ts, tick, prevTick)
		}
		prevTick = tick
	}
}

func FuzzCurveBounds(f *testing.F) {
	f.Add(uint64(100000), uint64(864000), int32(-42069), int32(42069), uint64(518000), true, int64(1000))
	f.Add(uint64(0), uint64(1), int32(-887272), int32(887272), uint64(0), false, int64(1))
	f.Add(uint64(10000), uint64(86400), int32(5000), int32(10000), uint64(50000), true, int64(42069))

	f.Fuzz(func(t *testing.T, start, length uint64, a, b int32, ts uint64, first bool, total int64) {
		if a > b {
			a, b = b, a
		}
		if a < -887272 || b > 887272 {
			return
		}
		if start > ^uint64(0)-length {
			return
		}
		if total < 0 {
			total = -(total + 1)
		}
		s := model.Schedule{
			TotalAmount:         ether(total),
			StartTime:           start,
			EndTime:             start + length,
			MinTick:             a,
			MaxTick:             b,
			IsReleaseTokenFirst: first,
		}

		tick, err := TargetFloorTick(s, ts)
		amount, amountErr := TargetReleasedAmount(s, ts)
		if ts < s.StartTime {
			if !errors.Is(err, ErrBeforeStartTime) || !errors.Is(amountErr, ErrBeforeStartTime) {
				t.Fatalf("expected ErrBeforeStartTime before start")
			}
			return
		}
		if err != nil || amountErr != nil {
			t.Fatalf("unexpected errors: %v %v", err, amountErr)
		}
		if tick < s.MinTick || tick > s.MaxTick {
			t.Fatalf("floor tick %d outside [%d, %d]", tick, s.MinTick, s.MaxTick)
		}
		if amount.Sign() < 0 || amount.Cmp(s.TotalAmount) > 0 {
			t.Fatalf("released amount %s outside [0, %s]", amount, s.TotalAmount)
		}
		if ts == s.StartTime && s.StartTime < s.EndTime {
			if tick != WideTick(s) || amount.Sign() != 0 {
				t.Fatalf("start values mismatch: %d %s", tick, amount)
			}
		}
		if ts >= s.EndTime {
			if tick != NarrowTick(s) || amount.Cmp(s.TotalAmount) != 0 {
				t.Fatalf("end values mismatch: %d %s", tick, amount)
			}
		}
	})
}
