package material

import "testing"

func TestName(t *testing.T) {
	if got := Name("A"); got != "A_mat" {
		t.Errorf("Name(A) = %q, want A_mat", got)
	}
}

func TestDerive(t *testing.T) {
	red := RGB{R: 1}

	tests := []struct {
		name      string
		dashScale float64
		forceDash bool
		wantDash  bool
	}{
		{"solid", 0, false, false},
		{"scaled dash", 4, false, true},
		{"forced dash", 0, true, true},
		{"negative scale", -1, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Derive(red, tt.dashScale, tt.forceDash)
			if p.Dash != tt.wantDash {
				t.Errorf("Dash = %v, want %v", p.Dash, tt.wantDash)
			}
			if p.Color != red {
				t.Errorf("Color = %v, want %v", p.Color, red)
			}
			if p.DashScale != tt.dashScale {
				t.Errorf("DashScale = %v, want %v", p.DashScale, tt.dashScale)
			}
		})
	}
}

func TestPatternTone(t *testing.T) {
	p := Derive(RGB{}, 4, false).Pattern()

	// four repeats over the object: tones alternate every quarter
	cases := map[float64]int{
		0.0:  0,
		0.1:  0,
		0.3:  1,
		0.55: 0,
		0.8:  1,
	}
	for u, want := range cases {
		if got := p.Tone(u); got != want {
			t.Errorf("Tone(%v) = %d, want %d", u, got, want)
		}
	}
}

func TestSolidPatternNeverAlternates(t *testing.T) {
	p := Solid(RGB{G: 1}).Pattern()
	for _, u := range []float64{0, 0.25, 0.5, 0.75, 1} {
		if p.Tone(u) != 0 {
			t.Errorf("Solid pattern Tone(%v) = %d, want 0", u, p.Tone(u))
		}
	}
}

func TestForcedDashPattern(t *testing.T) {
	p := Derive(RGB{}, 0, true).Pattern()
	if p.Scale != 1 {
		t.Errorf("Forced dash scale = %v, want 1", p.Scale)
	}
	if p.Tone(0.2) != 0 || p.Tone(1.5) != 1 {
		t.Errorf("Unexpected tones for forced dash: %d %d", p.Tone(0.2), p.Tone(1.5))
	}
}
