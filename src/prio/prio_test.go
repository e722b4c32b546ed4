package prio

import "testing"

func TestHighestLSBFirst(t *testing.T) {
	cases := []struct {
		m    Map
		want int
	}{
		{0b0001, 0},
		{0b0010, 1},
		{0b0110, 1},
		{0b1000, 3},
	}
	for _, c := range cases {
		if got := Highest(c.m, LSBFirst, 4); got != c.want {
			t.Errorf("Highest(%b, LSBFirst, 4) = %d, want %d", c.m, got, c.want)
		}
	}
}

func TestHighestMSBFirst(t *testing.T) {
	// processCount=4, priority 0 is the top bit (bit 3).
	cases := []struct {
		m    Map
		want int
	}{
		{0b1000, 0}, // bit 3 set -> priority 0
		{0b0100, 1}, // bit 2 set -> priority 1
		{0b1100, 0}, // priority 0 beats priority 1
		{0b0001, 3}, // bit 0 set -> priority 3
	}
	for _, c := range cases {
		if got := Highest(c.m, MSBFirst, 4); got != c.want {
			t.Errorf("Highest(%b, MSBFirst, 4) = %d, want %d", c.m, got, c.want)
		}
	}
}

func TestTagRoundTrip(t *testing.T) {
	for _, order := range []Order{LSBFirst, MSBFirst} {
		for p := 0; p < 8; p++ {
			tag := Tag(p, order, 8)
			got := Highest(tag, order, 8)
			if got != p {
				t.Errorf("order=%v: Highest(Tag(%d)) = %d, want %d", order, p, got, p)
			}
		}
	}
}

func TestHighestTagPicksHighestPriority(t *testing.T) {
	for _, order := range []Order{LSBFirst, MSBFirst} {
		m := Tag(2, order, 8) | Tag(5, order, 8) | Tag(1, order, 8)
		tag := HighestTag(m, order, 8)
		want := Tag(1, order, 8)
		if tag != want {
			t.Errorf("order=%v: HighestTag = %b, want tag of priority 1 (%b)", order, tag, want)
		}
	}
}

func TestHighestPanicsOnEmpty(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on empty map")
		}
	}()
	Highest(0, LSBFirst, 4)
}
