// Package config — конфигурация ecu-core: пороги режимов, углы и времена
// зажигания/впрыска, калибровки датчиков, таблицы VE/SA и привязка к железу.
// YAML поверх дефолтов: Load читает файл и дополняет незаданные поля
// значениями Default.
package config

import (
	"fmt"
	"os"

	"github.com/vlabs/gx35ecu/internal/calib"
	"github.com/vlabs/gx35ecu/internal/table"
	"gopkg.in/yaml.v3"
)

// Config — полная конфигурация ECU.
type Config struct {
	Engine   EngineConfig   `yaml:"engine"`
	Tables   TablesConfig   `yaml:"tables"`
	Sensors  SensorsConfig  `yaml:"sensors"`
	Hardware HardwareConfig `yaml:"hardware"`
	Diag     DiagConfig     `yaml:"diag"`
}

// EngineConfig — параметры двигателя и планировщика событий.
type EngineConfig struct {
	DisplacementM3   float64 `yaml:"displacement_m3"`     // рабочий объём, м³
	CalibAngleDeg    float64 `yaml:"calib_angle_deg"`     // смещение датчика тахометра от ВМТ, градусы
	FuelEndAngleDeg  float64 `yaml:"fuel_end_angle_deg"`  // угол завершения впрыска (такт впуска)
	DwellUs          float64 `yaml:"dwell_us"`            // время накопления катушки, мкс
	CrankSparkAdvDeg float64 `yaml:"crank_spark_adv_deg"` // фиксированное опережение при пуске
	CrankVolEff      float64 `yaml:"crank_vol_eff"`       // фиксированная VE при пуске, доля
	EngageRPM        float64 `yaml:"engage_rpm"`          // ниже — события не взводятся
	CrankingRPM      float64 `yaml:"cranking_rpm"`        // граница пуск/работа
	UpperRevLimitRPM float64 `yaml:"upper_rev_limit_rpm"` // вход в отсечку
	LowerRevLimitRPM float64 `yaml:"lower_rev_limit_rpm"` // выход из отсечки (гистерезис)
	MinLatchUs       float64 `yaml:"min_latch_us"`        // минимальная задержка взведения таймера
	InjectorFlowGs   float64 `yaml:"injector_flow_g_s"`   // массовый расход форсунки, г/с
	AirFuelRatio     float64 `yaml:"air_fuel_ratio"`      // массовое соотношение воздух/топливо
}

// TableConfig — одна 2-D таблица настройки: оси rpm/MAP и сетка значений
// data[j][i], где j — индекс по map_axis, i — по rpm_axis.
type TableConfig struct {
	RPMAxis []float64   `yaml:"rpm_axis"`
	MAPAxis []float64   `yaml:"map_axis"`
	Data    [][]float64 `yaml:"data"`
}

// TablesConfig — таблицы объёмной эффективности и опережения зажигания.
type TablesConfig struct {
	VE TableConfig `yaml:"ve"`
	SA TableConfig `yaml:"sa"`
}

// ThermistorConfig — калибровка термистора (ECT/IAT).
type ThermistorConfig struct {
	Model     string  `yaml:"model"` // "steinhart" или "linear"
	T1K       float64 `yaml:"t1_k"`
	T2K       float64 `yaml:"t2_k"`
	R1Ohm     float64 `yaml:"r1_ohm"`
	R2Ohm     float64 `yaml:"r2_ohm"`
	DividerV  float64 `yaml:"divider_v"`
	SeriesOhm float64 `yaml:"series_ohm"`
}

// Calib переводит конфигурацию в калибровку calib.ThermistorCalib.
func (c ThermistorConfig) Calib() calib.ThermistorCalib {
	model := calib.ThermistorSteinhart
	if c.Model == "linear" {
		model = calib.ThermistorLinear
	}
	return calib.ThermistorCalib{
		Model:     model,
		T1K:       c.T1K,
		T2K:       c.T2K,
		R1Ohm:     c.R1Ohm,
		R2Ohm:     c.R2Ohm,
		DividerV:  c.DividerV,
		SeriesOhm: c.SeriesOhm,
	}
}

// ChannelsConfig — номера каналов SPI-АЦП для каждого датчика. Канал -1 —
// датчик не подключён (O2 опционален).
type ChannelsConfig struct {
	MAP int `yaml:"map"`
	IAT int `yaml:"iat"`
	ECT int `yaml:"ect"`
	TPS int `yaml:"tps"`
	O2  int `yaml:"o2"`
}

// SensorsConfig — калибровки датчиков и раскладка каналов АЦП.
type SensorsConfig struct {
	TPSMinV  float64          `yaml:"tps_min_v"`
	TPSMaxV  float64          `yaml:"tps_max_v"`
	ECT      ThermistorConfig `yaml:"ect"`
	IAT      ThermistorConfig `yaml:"iat"`
	Channels ChannelsConfig   `yaml:"channels"`
}

// HardwareConfig — привязка к железу: SPI-порт АЦП и имена GPIO.
type HardwareConfig struct {
	SPIPort       string `yaml:"spi_port"`
	SparkPin      string `yaml:"spark_pin"`
	FuelPin       string `yaml:"fuel_pin"`
	TachPin       string `yaml:"tach_pin"`
	KillswitchPin string `yaml:"killswitch_pin"`
}

// DiagConfig — диагностический последовательный порт.
type DiagConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

// Default возвращает конфиг по умолчанию для двигателя класса GX35.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			DisplacementM3:   35.8e-6,
			CalibAngleDeg:    15,
			FuelEndAngleDeg:  120,
			DwellUs:          3000,
			CrankSparkAdvDeg: 10,
			CrankVolEff:      0.30,
			EngageRPM:        100,
			CrankingRPM:      500,
			UpperRevLimitRPM: 6000,
			LowerRevLimitRPM: 5800,
			MinLatchUs:       128,
			InjectorFlowGs:   0.6,
			AirFuelRatio:     14.7,
		},
		Tables: TablesConfig{
			VE: TableConfig{
				RPMAxis: []float64{500, 1500, 3000, 4500, 6000},
				MAPAxis: []float64{20, 40, 60, 80, 100},
				Data: [][]float64{
					{0.30, 0.32, 0.34, 0.33, 0.30},
					{0.42, 0.48, 0.52, 0.50, 0.45},
					{0.52, 0.60, 0.65, 0.63, 0.57},
					{0.60, 0.70, 0.76, 0.74, 0.66},
					{0.65, 0.76, 0.84, 0.82, 0.72},
				},
			},
			SA: TableConfig{
				RPMAxis: []float64{500, 1500, 3000, 4500, 6000},
				MAPAxis: []float64{20, 40, 60, 80, 100},
				Data: [][]float64{
					{12, 22, 30, 32, 32},
					{12, 20, 28, 30, 30},
					{10, 18, 25, 27, 27},
					{10, 16, 22, 24, 24},
					{8, 14, 18, 20, 20},
				},
			},
		},
		Sensors: SensorsConfig{
			TPSMinV: 0.5,
			TPSMaxV: 4.5,
			ECT: ThermistorConfig{
				Model: "steinhart", T1K: 273.15, T2K: 373.15,
				R1Ohm: 32650, R2Ohm: 678, DividerV: 5.0, SeriesOhm: 2200,
			},
			IAT: ThermistorConfig{
				Model: "steinhart", T1K: 273.15, T2K: 373.15,
				R1Ohm: 32650, R2Ohm: 678, DividerV: 5.0, SeriesOhm: 2200,
			},
			Channels: ChannelsConfig{MAP: 0, IAT: 1, ECT: 2, TPS: 3, O2: -1},
		},
		Hardware: HardwareConfig{
			SPIPort:       "SPI0.0",
			SparkPin:      "GPIO17",
			FuelPin:       "GPIO27",
			TachPin:       "GPIO22",
			KillswitchPin: "GPIO23",
		},
		Diag: DiagConfig{
			Port: "/dev/ttyS0",
			Baud: 115200,
		},
	}
}

// Load читает конфиг из YAML и дополняет незаданные поля дефолтами.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&c)
	return &c, nil
}

// veNormalizeThreshold: VE хранится долей в [0,1]; таблица, в которой есть
// значение больше этого порога, считается процентной и делится на 100 при
// загрузке.
const veNormalizeThreshold = 1.5

// NormalizeVE приводит таблицу VE к долям. Таблицы в процентах (исторический
// формат) распознаются по значению > 1.5 и пересчитываются.
func NormalizeVE(t *TableConfig) {
	percent := false
	for _, row := range t.Data {
		for _, v := range row {
			if v > veNormalizeThreshold {
				percent = true
			}
		}
	}
	if !percent {
		return
	}
	for _, row := range t.Data {
		for i := range row {
			row[i] /= 100
		}
	}
}

// Build проверяет таблицу (строго возрастающие оси, согласованные размеры) и
// собирает table.Table2D: ось x — rpm, ось y — MAP.
func (t TableConfig) Build() (*table.Table2D, error) {
	if len(t.RPMAxis) == 0 || len(t.MAPAxis) == 0 {
		return nil, fmt.Errorf("table: empty axis")
	}
	for i := 1; i < len(t.RPMAxis); i++ {
		if t.RPMAxis[i] <= t.RPMAxis[i-1] {
			return nil, fmt.Errorf("table: rpm_axis not strictly increasing at %d", i)
		}
	}
	for i := 1; i < len(t.MAPAxis); i++ {
		if t.MAPAxis[i] <= t.MAPAxis[i-1] {
			return nil, fmt.Errorf("table: map_axis not strictly increasing at %d", i)
		}
	}
	if len(t.Data) != len(t.MAPAxis) {
		return nil, fmt.Errorf("table: %d data rows, want %d (map_axis)", len(t.Data), len(t.MAPAxis))
	}
	for j, row := range t.Data {
		if len(row) != len(t.RPMAxis) {
			return nil, fmt.Errorf("table: row %d has %d values, want %d (rpm_axis)", j, len(row), len(t.RPMAxis))
		}
	}
	return table.NewTable2D(t.RPMAxis, t.MAPAxis, t.Data), nil
}

func applyDefaults(c *Config) {
	d := Default()
	e, de := &c.Engine, d.Engine
	if e.DisplacementM3 == 0 {
		e.DisplacementM3 = de.DisplacementM3
	}
	if e.CalibAngleDeg == 0 {
		e.CalibAngleDeg = de.CalibAngleDeg
	}
	if e.FuelEndAngleDeg == 0 {
		e.FuelEndAngleDeg = de.FuelEndAngleDeg
	}
	if e.DwellUs == 0 {
		e.DwellUs = de.DwellUs
	}
	if e.CrankSparkAdvDeg == 0 {
		e.CrankSparkAdvDeg = de.CrankSparkAdvDeg
	}
	if e.CrankVolEff == 0 {
		e.CrankVolEff = de.CrankVolEff
	}
	if e.EngageRPM == 0 {
		e.EngageRPM = de.EngageRPM
	}
	if e.CrankingRPM == 0 {
		e.CrankingRPM = de.CrankingRPM
	}
	if e.UpperRevLimitRPM == 0 {
		e.UpperRevLimitRPM = de.UpperRevLimitRPM
	}
	if e.LowerRevLimitRPM == 0 {
		e.LowerRevLimitRPM = de.LowerRevLimitRPM
	}
	if e.MinLatchUs == 0 {
		e.MinLatchUs = de.MinLatchUs
	}
	if e.InjectorFlowGs == 0 {
		e.InjectorFlowGs = de.InjectorFlowGs
	}
	if e.AirFuelRatio == 0 {
		e.AirFuelRatio = de.AirFuelRatio
	}

	if len(c.Tables.VE.RPMAxis) == 0 {
		c.Tables.VE = d.Tables.VE
	}
	if len(c.Tables.SA.RPMAxis) == 0 {
		c.Tables.SA = d.Tables.SA
	}
	NormalizeVE(&c.Tables.VE)

	s, ds := &c.Sensors, d.Sensors
	if s.TPSMinV == 0 && s.TPSMaxV == 0 {
		s.TPSMinV, s.TPSMaxV = ds.TPSMinV, ds.TPSMaxV
	}
	if s.ECT.DividerV == 0 {
		s.ECT = ds.ECT
	}
	if s.IAT.DividerV == 0 {
		s.IAT = ds.IAT
	}
	if s.Channels == (ChannelsConfig{}) {
		s.Channels = ds.Channels
	}

	h, dh := &c.Hardware, d.Hardware
	if h.SPIPort == "" {
		h.SPIPort = dh.SPIPort
	}
	if h.SparkPin == "" {
		h.SparkPin = dh.SparkPin
	}
	if h.FuelPin == "" {
		h.FuelPin = dh.FuelPin
	}
	if h.TachPin == "" {
		h.TachPin = dh.TachPin
	}
	if h.KillswitchPin == "" {
		h.KillswitchPin = dh.KillswitchPin
	}

	if c.Diag.Port == "" {
		c.Diag.Port = d.Diag.Port
	}
	if c.Diag.Baud == 0 {
		c.Diag.Baud = d.Diag.Baud
	}
}
