package mode

import "testing"

var th = Thresholds{
	EngageRPM:        100,
	CrankingRPM:      500,
	UpperRevLimitRPM: 6000,
	LowerRevLimitRPM: 5800,
}

func TestDecide_Partition(t *testing.T) {
	tests := []struct {
		name string
		rpm  float64
		want Mode
	}{
		{"below engage", 50, ReadSensors},
		{"at engage", 100, Cranking},
		{"cranking band", 300, Cranking},
		{"at cranking speed", 500, Running},
		{"running band", 3000, Running},
		{"just under limit", 5999, Running},
		{"at limit", 6000, RevLimiter},
		{"over limit", 7000, RevLimiter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := Decide(true, false, tt.rpm, th)
			if got != tt.want {
				t.Errorf("Decide(rpm=%v) = %v, want %v", tt.rpm, got, tt.want)
			}
		})
	}
}

func TestDecide_KillswitchGates(t *testing.T) {
	for _, rpm := range []float64{50, 300, 3000, 7000} {
		got, _ := Decide(false, false, rpm, th)
		if got != ReadSensors {
			t.Errorf("killswitch off, rpm=%v: got %v, want read_sensors", rpm, got)
		}
	}
}

func TestDecide_RevLimitHysteresis(t *testing.T) {
	// Разгон 5500 → 6100 → 5900 → 5700: отсечка включается на 6100,
	// держится на 5900 (выше нижнего порога) и снимается только на 5700.
	m, rl := Decide(true, false, 5500, th)
	if m != Running || rl {
		t.Fatalf("5500: got %v rl=%v, want running false", m, rl)
	}
	m, rl = Decide(true, rl, 6100, th)
	if m != RevLimiter || !rl {
		t.Fatalf("6100: got %v rl=%v, want rev_limiter true", m, rl)
	}
	m, rl = Decide(true, rl, 5900, th)
	if m != RevLimiter || !rl {
		t.Fatalf("5900: got %v rl=%v, want rev_limiter true (hysteresis)", m, rl)
	}
	m, rl = Decide(true, rl, 5700, th)
	if m != Running || rl {
		t.Fatalf("5700: got %v rl=%v, want running false", m, rl)
	}
}

func TestDecide_KillswitchKeepsRevLimitLatch(t *testing.T) {
	m, rl := Decide(false, true, 6100, th)
	if m != ReadSensors || !rl {
		t.Errorf("killswitch off with limiter latched: got %v rl=%v, want read_sensors true", m, rl)
	}
}

func TestMode_Engaged(t *testing.T) {
	for _, m := range []Mode{ReadSensors, Calibration, RevLimiter, SerialOut} {
		if m.Engaged() {
			t.Errorf("%v.Engaged() = true, want false", m)
		}
	}
	if !Cranking.Engaged() || !Running.Engaged() {
		t.Error("cranking/running must be engaged")
	}
}
