package sensors

import (
	"math"
	"testing"

	"github.com/vlabs/gx35ecu/internal/calib"
	"github.com/vlabs/gx35ecu/internal/config"
	"github.com/vlabs/gx35ecu/internal/hal"
)

func countForVolts(v float64) uint16 {
	return uint16(v / calib.VPerBit)
}

func TestBank_Read(t *testing.T) {
	cfg := config.Default().Sensors
	adc := hal.NewSimADC()
	adc.SetCount(cfg.Channels.MAP, countForVolts(2.5))
	adc.SetCount(cfg.Channels.TPS, countForVolts(2.5))
	adc.SetCount(cfg.Channels.IAT, countForVolts(2.0))
	adc.SetCount(cfg.Channels.ECT, countForVolts(2.0))

	bank, err := NewBank(adc, cfg)
	if err != nil {
		t.Fatalf("NewBank: %v", err)
	}
	r := bank.Read()

	wantMAP := 2.5*18.86 + 10.57
	if math.Abs(r.MAPkPa-wantMAP) > 0.1 {
		t.Errorf("MAPkPa = %v, want ~%v", r.MAPkPa, wantMAP)
	}
	if r.TPS <= 0 || r.TPS >= 1 {
		t.Errorf("TPS = %v, want in (0,1)", r.TPS)
	}
	if r.IATK <= 0 {
		t.Errorf("IATK = %v, want > 0", r.IATK)
	}
	if r.O2Present {
		t.Error("O2 absent in default config, got present")
	}
}

func TestMapSensor_Saturation(t *testing.T) {
	cfg := config.Default().Sensors
	adc := hal.NewSimADC()
	s, err := New("map", cfg.Channels.MAP, cfg, adc)
	if err != nil {
		t.Fatal(err)
	}

	adc.SetCount(cfg.Channels.MAP, 0)
	v, st := s.Read()
	if v != 20 || st != StatusSaturated {
		t.Errorf("rail-low: got %v %v, want 20 saturated", v, st)
	}
	if !st.IsUsable() {
		t.Error("saturated must be usable")
	}

	adc.SetCount(cfg.Channels.MAP, 4095)
	v, st = s.Read()
	if v != 103 || st != StatusSaturated {
		t.Errorf("rail-high: got %v %v, want 103 saturated", v, st)
	}
}

func TestNew_UnwiredAndUnknown(t *testing.T) {
	cfg := config.Default().Sensors
	adc := hal.NewSimADC()
	if _, err := New("o2", -1, cfg, adc); err == nil {
		t.Error("unwired channel accepted")
	}
	if _, err := New("egt", 5, cfg, adc); err == nil {
		t.Error("unknown kind accepted")
	}
}
