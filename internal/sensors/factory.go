package sensors

import (
	"fmt"

	"github.com/vlabs/gx35ecu/internal/calib"
	"github.com/vlabs/gx35ecu/internal/config"
	"github.com/vlabs/gx35ecu/internal/hal"
)

// New создаёт один канал датчика по виду и номеру канала АЦП.
func New(kind string, channel int, cfg config.SensorsConfig, adc hal.ADC) (Sensor, error) {
	if channel < 0 {
		return nil, fmt.Errorf("sensor %s: not wired", kind)
	}
	switch kind {
	case "map":
		return &mapSensor{adc: adc, ch: channel}, nil
	case "tps":
		return &tpsSensor{adc: adc, ch: channel, cal: calib.TPSCalibration{MinV: cfg.TPSMinV, MaxV: cfg.TPSMaxV}}, nil
	case "ect":
		return &thermistorSensor{name: "ect", adc: adc, ch: channel, cal: cfg.ECT.Calib()}, nil
	case "iat":
		return &thermistorSensor{name: "iat", adc: adc, ch: channel, cal: cfg.IAT.Calib()}, nil
	case "o2":
		return &o2Sensor{adc: adc, ch: channel}, nil
	default:
		return nil, fmt.Errorf("unknown sensor kind: %s", kind)
	}
}

// Bank — полный набор каналов ECU. O2 опционален (nil, если не подключён).
type Bank struct {
	MAP Sensor
	IAT Sensor
	ECT Sensor
	TPS Sensor
	O2  Sensor
}

// NewBank собирает все каналы по раскладке из конфига.
func NewBank(adc hal.ADC, cfg config.SensorsConfig) (*Bank, error) {
	b := &Bank{}
	var err error
	if b.MAP, err = New("map", cfg.Channels.MAP, cfg, adc); err != nil {
		return nil, err
	}
	if b.IAT, err = New("iat", cfg.Channels.IAT, cfg, adc); err != nil {
		return nil, err
	}
	if b.ECT, err = New("ect", cfg.Channels.ECT, cfg, adc); err != nil {
		return nil, err
	}
	if b.TPS, err = New("tps", cfg.Channels.TPS, cfg, adc); err != nil {
		return nil, err
	}
	// O2 может быть не распаян.
	if cfg.Channels.O2 >= 0 {
		if b.O2, err = New("o2", cfg.Channels.O2, cfg, adc); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Readings — кэш показаний одного прохода READ_SENSORS.
type Readings struct {
	MAPkPa    float64
	IATK      float64
	ECTK      float64
	TPS       float64
	O2AFR     float64
	O2Present bool
}

// Read опрашивает все каналы банка.
func (b *Bank) Read() Readings {
	r := Readings{}
	r.MAPkPa, _ = b.MAP.Read()
	r.IATK, _ = b.IAT.Read()
	r.ECTK, _ = b.ECT.Read()
	r.TPS, _ = b.TPS.Read()
	if b.O2 != nil {
		var st Status
		r.O2AFR, st = b.O2.Read()
		r.O2Present = st.IsUsable()
	}
	return r
}
