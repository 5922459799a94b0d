// Package sensors — каналы датчиков поверх SPI-АЦП: MAP, IAT, ECT, TPS и
// опциональный O2. Каждый канал — чистое преобразование сырого отсчёта в
// физическую величину (internal/calib); чтение не падает, выход за диапазон
// насыщается. Статусом StatusSaturated насыщение помечают только MAP и TPS;
// термисторы и O2 при успешном чтении всегда возвращают StatusOK.
package sensors

import (
	"github.com/vlabs/gx35ecu/internal/calib"
	"github.com/vlabs/gx35ecu/internal/hal"
)

// Status — состояние показания датчика.
type Status int

const (
	StatusAbsent    Status = iota // канал не подключён или АЦП недоступен
	StatusSaturated               // показание прижато к краю калибровки
	StatusOK
)

func (s Status) String() string {
	switch s {
	case StatusAbsent:
		return "absent"
	case StatusSaturated:
		return "saturated"
	case StatusOK:
		return "ok"
	default:
		return "unknown"
	}
}

// IsUsable сообщает, пригодно ли показание для расчётов: насыщенное значение
// пригодно (это документированная граница), отсутствующее — нет.
func (s Status) IsUsable() bool {
	return s == StatusOK || s == StatusSaturated
}

// Sensor — один канал датчика.
type Sensor interface {
	// Name возвращает имя канала для логов и диагностики
	Name() string
	// Channel возвращает номер канала АЦП
	Channel() int
	// Read возвращает физическую величину и статус
	Read() (float64, Status)
}

// mapSensor — абсолютное давление во впуске, кПа.
type mapSensor struct {
	adc hal.ADC
	ch  int
}

func (s *mapSensor) Name() string { return "map" }
func (s *mapSensor) Channel() int { return s.ch }

func (s *mapSensor) Read() (float64, Status) {
	count, err := s.adc.Read(s.ch)
	if err != nil {
		return 20, StatusAbsent
	}
	v := calib.CountToVolts(count)
	st := StatusOK
	if v < 0.5 || v > 4.9 {
		st = StatusSaturated
	}
	return calib.MAPkPa(count), st
}

// tpsSensor — положение дросселя, доля [0,1].
type tpsSensor struct {
	adc hal.ADC
	ch  int
	cal calib.TPSCalibration
}

func (s *tpsSensor) Name() string { return "tps" }
func (s *tpsSensor) Channel() int { return s.ch }

func (s *tpsSensor) Read() (float64, Status) {
	count, err := s.adc.Read(s.ch)
	if err != nil {
		return 0, StatusAbsent
	}
	v := calib.CountToVolts(count)
	st := StatusOK
	if v < s.cal.MinV || v > s.cal.MaxV {
		st = StatusSaturated
	}
	return s.cal.Fraction(count), st
}

// thermistorSensor — температура (ECT или IAT), Кельвины.
type thermistorSensor struct {
	name string
	adc  hal.ADC
	ch   int
	cal  calib.ThermistorCalib
}

func (s *thermistorSensor) Name() string { return s.name }
func (s *thermistorSensor) Channel() int { return s.ch }

func (s *thermistorSensor) Read() (float64, Status) {
	count, err := s.adc.Read(s.ch)
	if err != nil {
		// Без термистора считаем стандартные условия, чтобы расчёт
		// топлива не делил на ноль.
		return 298, StatusAbsent
	}
	return s.cal.KelvinFromCount(count), StatusOK
}

// o2Sensor — широкополосный AFR, кг/кг. Только диагностика.
type o2Sensor struct {
	adc hal.ADC
	ch  int
}

func (s *o2Sensor) Name() string { return "o2" }
func (s *o2Sensor) Channel() int { return s.ch }

func (s *o2Sensor) Read() (float64, Status) {
	count, err := s.adc.Read(s.ch)
	if err != nil {
		return 0, StatusAbsent
	}
	return calib.O2AFR(count), StatusOK
}
