package ignition

import (
	"testing"

	"github.com/vlabs/gx35ecu/internal/hal"
)

func TestSparkPipeline_DwellExact(t *testing.T) {
	clock := hal.NewSimClock()
	pin := hal.NewSimPin(clock)
	p := NewSparkPipeline(clock.NewTimer(), clock.NewTimer(), pin, 3000)

	if err := p.Arm(1000); err != nil {
		t.Fatal(err)
	}
	clock.Advance(10000)

	pulses := pin.Pulses()
	if len(pulses) != 1 {
		t.Fatalf("pulses = %d, want 1", len(pulses))
	}
	if pulses[0].StartUs != 1000 {
		t.Errorf("charge at %d, want 1000", pulses[0].StartUs)
	}
	if d := pulses[0].EndUs - pulses[0].StartUs; d != 3000 {
		t.Errorf("dwell = %d us, want exactly 3000", d)
	}
	if p.Charging() {
		t.Error("still charging after discharge")
	}
}

func TestSparkPipeline_DwellConstantAcrossCycles(t *testing.T) {
	clock := hal.NewSimClock()
	pin := hal.NewSimPin(clock)
	p := NewSparkPipeline(clock.NewTimer(), clock.NewTimer(), pin, 3000)

	// Три цикла с разными задержками взведения: dwell всегда одинаковый.
	for _, delay := range []int64{500, 4000, 12000} {
		_ = p.Arm(delay)
		clock.Advance(delay + 3000 + 100)
	}
	pulses := pin.Pulses()
	if len(pulses) != 3 {
		t.Fatalf("pulses = %d, want 3", len(pulses))
	}
	for i, pl := range pulses {
		if d := pl.EndUs - pl.StartUs; d != 3000 {
			t.Errorf("cycle %d dwell = %d, want 3000", i, d)
		}
	}
}

func TestSparkPipeline_ChargeIgnoredDuringDwell(t *testing.T) {
	clock := hal.NewSimClock()
	pin := hal.NewSimPin(clock)
	p := NewSparkPipeline(clock.NewTimer(), clock.NewTimer(), pin, 3000)

	_ = p.Arm(100)
	clock.Advance(500) // накопление началось
	_ = p.Arm(100)     // повторный заряд внутри dwell
	clock.Advance(10000)

	pulses := pin.Pulses()
	if len(pulses) != 1 {
		t.Fatalf("pulses = %d, want 1 (re-arm during dwell ignored)", len(pulses))
	}
	if d := pulses[0].EndUs - pulses[0].StartUs; d != 3000 {
		t.Errorf("dwell = %d, want 3000", d)
	}
}

func TestFuelPipeline_PulseWidth(t *testing.T) {
	clock := hal.NewSimClock()
	pin := hal.NewSimPin(clock)
	p := NewFuelPipeline(clock.NewTimer(), clock.NewTimer(), pin)

	if err := p.Arm(2000, 7700); err != nil {
		t.Fatal(err)
	}
	clock.Advance(20000)

	pulses := pin.Pulses()
	if len(pulses) != 1 {
		t.Fatalf("pulses = %d, want 1", len(pulses))
	}
	if pulses[0].StartUs != 2000 {
		t.Errorf("open at %d, want 2000", pulses[0].StartUs)
	}
	if d := pulses[0].EndUs - pulses[0].StartUs; d != 7700 {
		t.Errorf("fuel pulse = %d us, want 7700", d)
	}
	if p.Open() {
		t.Error("injector still open")
	}
}

func TestPipelines_Independent(t *testing.T) {
	// Искра и впрыск на общих часах, перекрывающиеся окна: каждый конвейер
	// держит свою длительность.
	clock := hal.NewSimClock()
	spark := hal.NewSimPin(clock)
	fuel := hal.NewSimPin(clock)
	sp := NewSparkPipeline(clock.NewTimer(), clock.NewTimer(), spark, 3000)
	fp := NewFuelPipeline(clock.NewTimer(), clock.NewTimer(), fuel)

	_ = fp.Arm(500, 6000)
	_ = sp.Arm(2000)
	clock.Advance(20000)

	fpulses := fuel.Pulses()
	spulses := spark.Pulses()
	if len(fpulses) != 1 || len(spulses) != 1 {
		t.Fatalf("pulses fuel=%d spark=%d, want 1/1", len(fpulses), len(spulses))
	}
	if d := fpulses[0].EndUs - fpulses[0].StartUs; d != 6000 {
		t.Errorf("fuel width = %d, want 6000", d)
	}
	if d := spulses[0].EndUs - spulses[0].StartUs; d != 3000 {
		t.Errorf("spark width = %d, want 3000", d)
	}
}
