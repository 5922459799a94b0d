// Package calib — преобразование сырых 12-битных отсчётов АЦП в физические
// величины (кПа, Кельвины, доля, AFR) по фиксированным калибровочным кривым.
// Все функции чистые и тотальные: ошибок нет, выход за диапазон насыщается
// до документированной границы.
package calib

import "math"

// Опорное напряжение и разрядность общего АЦП-тракта (MAP, TPS, ECT, IAT, O2
// сидят на одном SPI-АЦП).
const (
	ADCMaxCount = 4095
	ADCVrefV    = 5.0
	VPerBit     = ADCVrefV / (ADCMaxCount + 1)
)

// CountToVolts переводит сырой отсчёт АЦП в вольты. Все канальные
// преобразования ниже начинаются отсюда.
func CountToVolts(count uint16) float64 {
	return float64(count) * VPerBit
}

// MAPkPa переводит отсчёт канала MAP в абсолютное давление во впускном
// коллекторе, кПа. Ниже 0.5 В датчик считается оторванным/прижатым к земле и
// насыщается до 20 кПа; выше 4.9 В — до 103 кПа.
func MAPkPa(count uint16) float64 {
	v := CountToVolts(count)
	switch {
	case v < 0.5:
		return 20
	case v > 4.9:
		return 103
	default:
		return v*18.86 + 10.57
	}
}

// TPSCalibration — два крайних напряжения датчика положения дросселя;
// зависят от платы и датчика, поэтому берутся из конфига (кривая MAP, в
// отличие от них, фиксированная).
type TPSCalibration struct {
	MinV float64
	MaxV float64
}

// DefaultTPSCalibration — типовая кривая 0.5 В (закрыт) / 4.5 В (полностью
// открыт); используется, если конфиг не переопределяет.
func DefaultTPSCalibration() TPSCalibration {
	return TPSCalibration{MinV: 0.5, MaxV: 4.5}
}

// Fraction переводит отсчёт канала TPS в положение дросселя [0,1] с
// насыщением ниже MinV и выше MaxV.
func (c TPSCalibration) Fraction(count uint16) float64 {
	v := CountToVolts(count)
	switch {
	case v < c.MinV:
		return 0
	case v > c.MaxV:
		return 1
	default:
		return (v - c.MinV) / (c.MaxV - c.MinV)
	}
}

// O2AFR переводит отсчёт широкополосного O2-канала в массовое соотношение
// воздух/топливо (кг/кг). Замкнутой петли по O2 нет: значение идёт только в
// диагностику.
func O2AFR(count uint16) float64 {
	v := CountToVolts(count)
	return v*3.008 + 7.35
}

// ThermistorModel выбирает аппроксимацию для ResistanceToKelvin /
// VoltageToKelvin: Steinhart-подобная по B-параметру или линейный сегмент
// между двумя калибровочными точками. Выбор — в конфиге.
type ThermistorModel int

const (
	ThermistorSteinhart ThermistorModel = iota
	ThermistorLinear
)

// ThermistorCalib — шесть коэффициентов калибровки термистора: две
// температурные точки (Кельвины), два сопротивления (Ом), напряжение
// делителя и последовательный резистор.
type ThermistorCalib struct {
	Model     ThermistorModel
	T1K, T2K  float64 // T1K — точка с большим сопротивлением (холоднее)
	R1Ohm     float64
	R2Ohm     float64
	DividerV  float64
	SeriesOhm float64
}

// bCoefficient выводит B-параметр термистора из двух калибровочных точек.
func (c ThermistorCalib) bCoefficient() float64 {
	return math.Log(c.R1Ohm/c.R2Ohm) / (1/c.T1K - 1/c.T2K)
}

// ResistanceToKelvin переводит сопротивление термистора в Кельвины.
func (c ThermistorCalib) ResistanceToKelvin(r float64) float64 {
	if c.Model == ThermistorLinear {
		// Один линейный сегмент между калибровочными точками по
		// сопротивлению; за пределами — насыщение.
		if c.R1Ohm == c.R2Ohm {
			return c.T1K
		}
		frac := (r - c.R1Ohm) / (c.R2Ohm - c.R1Ohm)
		if frac < 0 {
			frac = 0
		} else if frac > 1 {
			frac = 1
		}
		return c.T1K + frac*(c.T2K-c.T1K)
	}
	b := c.bCoefficient()
	invT := 1/c.T1K + math.Log(r/c.R1Ohm)/b
	return 1 / invT
}

// VoltageToKelvin переводит напряжение с делителя в Кельвины. Термистор стоит
// между входом АЦП и землёй, SeriesOhm — между входом и DividerV. Напряжение
// прижимается от рельсов до вычисления сопротивления, так что деления на ноль
// не бывает.
func (c ThermistorCalib) VoltageToKelvin(v float64) float64 {
	const epsilon = 1e-3
	if v < epsilon {
		v = epsilon
	}
	if v > c.DividerV-epsilon {
		v = c.DividerV - epsilon
	}
	r := v * c.SeriesOhm / (c.DividerV - v)
	return c.ResistanceToKelvin(r)
}

// KelvinFromCount — вход для каналов ECT/IAT: отсчёт → вольты → Кельвины.
func (c ThermistorCalib) KelvinFromCount(count uint16) float64 {
	return c.VoltageToKelvin(CountToVolts(count))
}
