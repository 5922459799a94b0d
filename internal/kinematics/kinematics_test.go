package kinematics

import (
	"math"
	"testing"
)

func approxEqual(a, b, eps float64) bool { return math.Abs(a-b) <= eps }

func TestOnTachEdge_FuelCycleToggles(t *testing.T) {
	s := NewState(15)
	var seen []bool
	now := int64(0)
	for i := 0; i < 6; i++ {
		now += 20000 // 20ms per revolution ~ 3000 rpm
		fc, _ := s.OnTachEdge(now)
		seen = append(seen, fc)
	}
	for i := 1; i < len(seen); i++ {
		if seen[i] == seen[i-1] {
			t.Fatalf("fuelCycle did not toggle at edge %d: sequence %v", i, seen)
		}
	}
}

func TestOnTachEdge_PrintCounterWrapsMod10(t *testing.T) {
	s := NewState(15)
	now := int64(0)
	dueCount := 0
	for i := 1; i <= 30; i++ {
		now += 1000
		_, due := s.OnTachEdge(now)
		if due {
			dueCount++
			if i%10 != 0 {
				t.Errorf("printDue fired on edge %d, expected every 10th edge", i)
			}
		}
	}
	if dueCount != 3 {
		t.Errorf("expected printDue 3 times over 30 edges, got %d", dueCount)
	}
}

func TestCurrentAngle_EqualsCalibAngleAtEdge(t *testing.T) {
	s := NewState(15)
	now := int64(1_000_000)
	s.OnTachEdge(now)

	got := s.CurrentAngle(now)
	if !approxEqual(got, 15, 1e-9) {
		t.Errorf("CurrentAngle at edge = %v, want CALIB_ANGLE 15", got)
	}
}

func TestCurrentAngle_MonotonicWhileTurning(t *testing.T) {
	s := NewState(0)
	now := int64(0)
	s.OnTachEdge(now)
	now += 10000
	s.OnTachEdge(now)

	prev := s.CurrentAngle(now)
	for i := 0; i < 50; i++ {
		now += 100
		cur := s.CurrentAngle(now)
		// mod-360 wrap is allowed, but otherwise must not decrease.
		if cur < prev && !(prev > 300 && cur < 60) {
			t.Fatalf("currentAngle decreased without wrap: prev=%v cur=%v", prev, cur)
		}
		prev = cur
	}
}

func TestAngularSpeed_PositiveWhileTurning(t *testing.T) {
	s := NewState(0)
	now := int64(0)
	for i := 0; i < 5; i++ {
		now += 5000
		s.OnTachEdge(now)
	}
	if s.AngularSpeed() <= 0 {
		t.Errorf("AngularSpeed = %v, want > 0", s.AngularSpeed())
	}
}

func TestOnTachEdge_EMAFilter(t *testing.T) {
	s := NewState(0)
	now := int64(10000)
	s.OnTachEdge(now) // первое ребро: только метка, скорости ещё нет
	if got := s.AngularSpeed(); got != 0 {
		t.Errorf("first edge angularSpeed = %v, want 0 (no interval yet)", got)
	}

	now += 10000
	s.OnTachEdge(now) // второе ребро: прямое присваивание 360/dt
	first := s.AngularSpeed()
	wantFirst := 360.0 / 10000.0
	if !approxEqual(first, wantFirst, 1e-9) {
		t.Errorf("second edge angularSpeed = %v, want %v", first, wantFirst)
	}

	now += 5000 // оборот быстрее: мгновенная скорость 360/5000
	s.OnTachEdge(now)
	second := s.AngularSpeed()
	instant := 360.0 / 5000.0
	want := EMAWeightNew*instant + EMAWeightOld*first
	if !approxEqual(second, want, 1e-9) {
		t.Errorf("third edge angularSpeed = %v, want EMA %v", second, want)
	}
}

func TestRPMConversionRoundTrip(t *testing.T) {
	for _, rpm := range []float64{50, 300, 3000, 6000} {
		got := RPMFromAngularSpeed(AngularSpeedFromRPM(rpm))
		if !approxEqual(got, rpm, 1e-9) {
			t.Errorf("round trip %v -> %v", rpm, got)
		}
	}
}
