package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizeVE(t *testing.T) {
	t.Run("percent table divided by 100", func(t *testing.T) {
		tc := TableConfig{
			RPMAxis: []float64{1000, 3000},
			MAPAxis: []float64{20, 100},
			Data:    [][]float64{{30, 45}, {60, 85}},
		}
		NormalizeVE(&tc)
		if tc.Data[0][0] != 0.30 || tc.Data[1][1] != 0.85 {
			t.Errorf("percent table not normalized: %v", tc.Data)
		}
	})

	t.Run("fraction table untouched", func(t *testing.T) {
		tc := TableConfig{
			RPMAxis: []float64{1000, 3000},
			MAPAxis: []float64{20, 100},
			Data:    [][]float64{{0.30, 0.45}, {0.60, 0.85}},
		}
		NormalizeVE(&tc)
		if tc.Data[0][0] != 0.30 || tc.Data[1][1] != 0.85 {
			t.Errorf("fraction table changed: %v", tc.Data)
		}
	})
}

func TestTableConfig_Build(t *testing.T) {
	good := TableConfig{
		RPMAxis: []float64{1000, 3000, 6000},
		MAPAxis: []float64{20, 100},
		Data:    [][]float64{{1, 2, 3}, {4, 5, 6}},
	}
	if _, err := good.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}

	bad := good
	bad.RPMAxis = []float64{1000, 1000, 6000}
	if _, err := bad.Build(); err == nil {
		t.Error("non-increasing axis accepted")
	}

	bad2 := good
	bad2.Data = [][]float64{{1, 2, 3}}
	if _, err := bad2.Build(); err == nil {
		t.Error("row count mismatch accepted")
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ecu.yml")
	// Частичный конфиг: только отсечка; остальное из Default.
	body := []byte("engine:\n  upper_rev_limit_rpm: 6500\n  lower_rev_limit_rpm: 6300\n")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Engine.UpperRevLimitRPM != 6500 || c.Engine.LowerRevLimitRPM != 6300 {
		t.Errorf("explicit values lost: %+v", c.Engine)
	}
	d := Default()
	if c.Engine.DwellUs != d.Engine.DwellUs {
		t.Errorf("DwellUs default not applied: %v", c.Engine.DwellUs)
	}
	if c.Engine.MinLatchUs != d.Engine.MinLatchUs {
		t.Errorf("MinLatchUs default not applied: %v", c.Engine.MinLatchUs)
	}
	if len(c.Tables.VE.RPMAxis) == 0 || len(c.Tables.SA.RPMAxis) == 0 {
		t.Error("default tables not applied")
	}
	if c.Diag.Baud != 115200 {
		t.Errorf("diag baud = %d, want 115200", c.Diag.Baud)
	}
}

func TestLoad_NormalizesPercentVE(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ecu.yml")
	body := []byte(`tables:
  ve:
    rpm_axis: [1000, 3000]
    map_axis: [20, 100]
    data:
      - [30, 45]
      - [60, 85]
`)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Tables.VE.Data[0][0] != 0.30 {
		t.Errorf("VE not normalized on load: %v", c.Tables.VE.Data)
	}
}

func TestDefault_TablesBuild(t *testing.T) {
	d := Default()
	if _, err := d.Tables.VE.Build(); err != nil {
		t.Errorf("default VE: %v", err)
	}
	if _, err := d.Tables.SA.Build(); err != nil {
		t.Errorf("default SA: %v", err)
	}
}
