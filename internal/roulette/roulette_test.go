package roulette

import (
	"errors"
	"testing"
)

func TestWheelPartition(t *testing.T) {
	var reds, blacks, greens int
	for n := 0; n <= MaxPocket; n++ {
		switch PocketColor(n) {
		case Red:
			reds++
		case Black:
			blacks++
		case Green:
			greens++
		}
	}
	if reds != 18 || blacks != 18 || greens != 1 {
		t.Fatalf("partition = %d red / %d black / %d green, want 18/18/1", reds, blacks, greens)
	}
	if PocketColor(0) != Green {
		t.Errorf("pocket 0 colour = %s, want green", PocketColor(0))
	}

	wantBlack := []int{2, 4, 6, 8, 10, 11, 13, 15, 17, 20, 22, 24, 26, 28, 29, 31, 33, 35}
	for _, n := range wantBlack {
		if !IsBlack(n) {
			t.Errorf("pocket %d should be black", n)
		}
	}
}

func TestWheelOrderCoversEveryPocket(t *testing.T) {
	seen := make(map[int]bool)
	for _, p := range WheelOrder {
		if seen[p] {
			t.Fatalf("pocket %d appears twice in wheel order", p)
		}
		seen[p] = true
	}
	if len(seen) != PocketCount {
		t.Fatalf("wheel order has %d pockets, want %d", len(seen), PocketCount)
	}

	angle, err := PocketAngle(0)
	if err != nil || angle != 0 {
		t.Errorf("PocketAngle(0) = %v, %v", angle, err)
	}
	if _, err := PocketAngle(37); err == nil {
		t.Error("expected error for pocket 37")
	}
}

func TestDescribe(t *testing.T) {
	zero := Describe(0)
	if zero.Even || zero.Low || zero.Color != Green {
		t.Errorf("Describe(0) = %+v", zero)
	}
	d := Describe(18)
	if !d.Even || !d.Low || d.Color != Red {
		t.Errorf("Describe(18) = %+v", d)
	}
	if got := len(Pockets()); got != PocketCount {
		t.Errorf("Pockets() len = %d", got)
	}
}

func TestPocketFromFloat(t *testing.T) {
	tests := []struct {
		f    float64
		want int
	}{
		{0, 0},
		{0.5, 18},
		{0.99999999, 36},
		{0.03, 1},
	}
	for _, tt := range tests {
		got, err := PocketFromFloat(tt.f)
		if err != nil {
			t.Fatalf("PocketFromFloat(%v): %v", tt.f, err)
		}
		if got != tt.want {
			t.Errorf("PocketFromFloat(%v) = %d, want %d", tt.f, got, tt.want)
		}
	}
	if _, err := PocketFromFloat(1); err == nil {
		t.Error("expected error for 1.0")
	}
}

func TestNormalizeSelector(t *testing.T) {
	tests := []struct {
		kind    Kind
		sel     string
		want    string
		wantErr bool
	}{
		{KindNumber, "17", "17", false},
		{KindNumber, " 0 ", "0", false},
		{KindNumber, "37", "", true},
		{KindNumber, "-1", "", true},
		{KindNumber, "red", "", true},
		{KindColor, "RED", "red", false},
		{KindColor, "black", "black", false},
		{KindColor, "green", "", true},
		{KindEvenOdd, "odd", "odd", false},
		{KindEvenOdd, "17", "", true},
		{Kind("split"), "1", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizeSelector(tt.kind, tt.sel)
		if tt.wantErr {
			if err == nil {
				t.Errorf("NormalizeSelector(%s, %q) expected error", tt.kind, tt.sel)
			}
			continue
		}
		if err != nil {
			t.Errorf("NormalizeSelector(%s, %q): %v", tt.kind, tt.sel, err)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeSelector(%s, %q) = %q, want %q", tt.kind, tt.sel, got, tt.want)
		}
	}

	_, err := NormalizeSelector(Kind("split"), "1")
	if !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{"number": KindNumber, "Colour": KindColor, "evenOdd": KindEvenOdd} {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Errorf("ParseKind(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseKind("dozen"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("ParseKind(dozen) err = %v", err)
	}
}

func TestResolveRuleTable(t *testing.T) {
	tests := []struct {
		name   string
		bet    Bet
		pocket int
		payout int64
	}{
		{"number hit", Bet{KindNumber, "17", 10}, 17, 360},
		{"number miss", Bet{KindNumber, "17", 10}, 18, 0},
		{"number zero hit", Bet{KindNumber, "0", 5}, 0, 180},
		{"red hit", Bet{KindColor, "red", 10}, 1, 20},
		{"red miss on black", Bet{KindColor, "red", 10}, 2, 0},
		{"black hit", Bet{KindColor, "black", 10}, 35, 20},
		{"red on zero", Bet{KindColor, "red", 10}, 0, 0},
		{"black on zero", Bet{KindColor, "black", 10}, 0, 0},
		{"even hit", Bet{KindEvenOdd, "even", 10}, 2, 20},
		{"even on zero", Bet{KindEvenOdd, "even", 10}, 0, 0},
		{"odd on zero", Bet{KindEvenOdd, "odd", 10}, 0, 0},
		{"odd hit", Bet{KindEvenOdd, "odd", 10}, 35, 20},
		{"odd miss", Bet{KindEvenOdd, "odd", 10}, 36, 0},
		{"invalid selector", Bet{KindNumber, "99", 10}, 36, 0},
		{"pocket out of range", Bet{KindNumber, "17", 10}, 40, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payout, win := Resolve(tt.bet, tt.pocket)
			if payout != tt.payout {
				t.Errorf("payout = %d, want %d", payout, tt.payout)
			}
			if win != (tt.payout > 0) {
				t.Errorf("win = %v with payout %d", win, payout)
			}
		})
	}
}

func TestResolvePayoutIsAlwaysAKnownMultiple(t *testing.T) {
	bets := []Bet{
		{KindNumber, "7", 3},
		{KindColor, "black", 3},
		{KindEvenOdd, "even", 3},
	}
	for _, b := range bets {
		for p := 0; p <= MaxPocket; p++ {
			payout, _ := Resolve(b, p)
			switch payout {
			case 0, 2 * b.Amount, 36 * b.Amount:
			default:
				t.Fatalf("%s on %d paid %d", b, p, payout)
			}
		}
	}
}

func TestSimulationBet(t *testing.T) {
	if got := SimulationBet(Bet{KindColor, "black", 10}); got.Selector != "black" || got.Kind != KindColor {
		t.Errorf("colour bet kept = %+v", got)
	}
	if got := SimulationBet(Bet{KindNumber, "17", 10}); got.Selector != "red" || got.Amount != 10 {
		t.Errorf("number bet defaults = %+v", got)
	}
	if got := SimulationBet(Bet{KindEvenOdd, "odd", 4}); got.Selector != "red" {
		t.Errorf("even/odd bet defaults = %+v", got)
	}
}
