package hal

import "testing"

func TestSimClock_TimersFireInDeadlineOrder(t *testing.T) {
	clock := NewSimClock()
	var order []string

	t1 := clock.NewTimer()
	t1.AttachInterrupt(func() { order = append(order, "late") })
	t2 := clock.NewTimer()
	t2.AttachInterrupt(func() { order = append(order, "early") })

	_ = t1.Start(500)
	_ = t2.Start(100)
	clock.Advance(1000)

	if len(order) != 2 || order[0] != "early" || order[1] != "late" {
		t.Fatalf("fire order = %v, want [early late]", order)
	}
	if clock.NowMicros() != 1000 {
		t.Errorf("NowMicros = %d, want 1000", clock.NowMicros())
	}
}

func TestSimClock_HandlerSeesOwnDeadline(t *testing.T) {
	clock := NewSimClock()
	var seen int64
	tm := clock.NewTimer()
	tm.AttachInterrupt(func() { seen = clock.NowMicros() })
	_ = tm.Start(250)
	clock.Advance(1000)
	if seen != 250 {
		t.Errorf("handler saw t=%d, want 250", seen)
	}
}

func TestSimClock_RearmFromHandler(t *testing.T) {
	// Взведение второго таймера из обработчика первого — как разряд из
	// обработчика заряда.
	clock := NewSimClock()
	var dischargeAt int64
	charge := clock.NewTimer()
	discharge := clock.NewTimer()
	discharge.AttachInterrupt(func() { dischargeAt = clock.NowMicros() })
	charge.AttachInterrupt(func() { _ = discharge.Start(3000) })
	_ = charge.Start(100)

	clock.Advance(10000)
	if dischargeAt != 3100 {
		t.Errorf("discharge fired at %d, want 3100", dischargeAt)
	}
}

func TestSimTimer_StopPreventsFire(t *testing.T) {
	clock := NewSimClock()
	fired := false
	tm := clock.NewTimer()
	tm.AttachInterrupt(func() { fired = true })
	_ = tm.Start(100)
	tm.Stop()
	clock.Advance(1000)
	if fired {
		t.Error("stopped timer fired")
	}
}

func TestSimPin_Pulses(t *testing.T) {
	clock := NewSimClock()
	pin := NewSimPin(clock)
	_ = pin.Set(false)
	clock.Advance(100)
	_ = pin.Set(true)
	clock.Advance(3000)
	_ = pin.Set(false)

	pulses := pin.Pulses()
	if len(pulses) != 1 {
		t.Fatalf("pulses = %d, want 1", len(pulses))
	}
	if d := pulses[0].EndUs - pulses[0].StartUs; d != 3000 {
		t.Errorf("pulse width = %d, want 3000", d)
	}
}
