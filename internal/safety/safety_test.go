package safety

import (
	"testing"

	"github.com/vlabs/gx35ecu/internal/hal"
	"github.com/vlabs/gx35ecu/internal/mode"
)

func TestSupervisor_KillswitchLatch(t *testing.T) {
	s := New()
	if s.Killswitch() {
		t.Error("killswitch must start off")
	}
	s.OnKillswitchEdge(true)
	if !s.Killswitch() {
		t.Error("latch lost on-level")
	}
	s.OnKillswitchEdge(false)
	if s.Killswitch() {
		t.Error("latch lost off-level")
	}
}

func TestSupervisor_Engageable(t *testing.T) {
	s := New()
	s.OnKillswitchEdge(true)

	if !s.Engageable(mode.Running) || !s.Engageable(mode.Cranking) {
		t.Error("running/cranking with killswitch on must be engageable")
	}
	for _, m := range []mode.Mode{mode.ReadSensors, mode.Calibration, mode.RevLimiter, mode.SerialOut} {
		if s.Engageable(m) {
			t.Errorf("%v must not be engageable", m)
		}
	}

	s.SetRevLimit(true)
	if s.Engageable(mode.Running) {
		t.Error("rev limit active: must not be engageable")
	}
	s.SetRevLimit(false)

	s.OnKillswitchEdge(false)
	if s.Engageable(mode.Running) {
		t.Error("killswitch off: must not be engageable")
	}
}

func TestForceOutputsLow(t *testing.T) {
	clock := hal.NewSimClock()
	spark := hal.NewSimPin(clock)
	fuel := hal.NewSimPin(clock)
	_ = spark.Set(true)
	_ = fuel.Set(true)

	if err := ForceOutputsLow(spark, fuel, nil); err != nil {
		t.Fatalf("ForceOutputsLow: %v", err)
	}
	if spark.Level() || fuel.Level() {
		t.Error("outputs not driven low")
	}
}
