// Package fueling — модель топливоподачи: из объёма воздуха, давления во
// впуске и температуры воздуха считает длительность импульса форсунки.
// Газовый закон → масса топлива по AFR → время при известном массовом
// расходе форсунки. Ошибок нет: входы прижаты к калибровочным кривым выше по
// потоку, IAT > 0 K и расход > 0 гарантированы конфигом.
package fueling

// Физические константы расчёта.
const (
	GasConstantR  = 8.314 // универсальная газовая постоянная, Дж/(моль·К)
	MolarMassAirG = 28.97 // молярная масса воздуха, г/моль
)

// Model — параметры двигателя и форсунки для расчёта впрыска.
type Model struct {
	DisplacementM3 float64 // рабочий объём цилиндра, м³
	CrankVolEff    float64 // фиксированная VE при пуске, доля
	AirFuelRatio   float64 // массовое соотношение воздух/топливо
	InjectorFlowGs float64 // массовый расход форсунки, г/с
}

// AirVolumeRunning — объём воздуха за цикл в рабочем режиме: VE из таблицы,
// умноженная на рабочий объём.
func (m Model) AirVolumeRunning(ve float64) float64 {
	return ve * m.DisplacementM3
}

// AirVolumeCranking — объём воздуха при пуске: фиксированная пусковая VE.
func (m Model) AirVolumeCranking() float64 {
	return m.CrankVolEff * m.DisplacementM3
}

// PulseWidthUs считает длительность импульса форсунки в микросекундах.
//
// Цепочка: моли воздуха n = V·(MAP·10³ Па)/(R·IAT); масса топлива
// m_f = n·M_air/AFR (граммы); время t = m_f/расход, в микросекундах.
func (m Model) PulseWidthUs(airVolumeM3, mapKPa, iatK float64) float64 {
	n := airVolumeM3 * (mapKPa * 1e3) / (GasConstantR * iatK)
	fuelG := n * MolarMassAirG / m.AirFuelRatio
	return fuelG / m.InjectorFlowGs * 1e6
}
