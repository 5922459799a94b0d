// Package scheduler — перевод угловых целей в задержки одновибраторных
// таймеров. Цель, которую уже проехали, или задержка короче минимального
// времени взведения — пропуск события на этот цикл: пропустить безопаснее,
// чем выстрелить с опозданием.
package scheduler

// TDCDeg — верхняя мёртвая точка, градусы.
const TDCDeg = 360.0

// DefaultMinLatchUs — минимальная задержка взведения по умолчанию. Нижняя
// граница определяется латентностью обработчика таймера; это единый
// именованный порог вместо россыпи ad-hoc констант.
const DefaultMinLatchUs = 128

// Scheduler — параметры взведения.
type Scheduler struct {
	MinLatchUs float64 // 0 — использовать DefaultMinLatchUs
}

// ArmDelay переводит целевой угол в задержку таймера: Δt = (θ_target −
// θ_now)/ω, мкс. Возвращает ok == false, когда событие в этом цикле надо
// пропустить: угол уже пройден, задержка меньше минимальной или двигатель не
// вращается. Пропуск наблюдаем: выход в этом цикле не переключится.
func (s Scheduler) ArmDelay(targetDeg, nowDeg, omega float64) (delayUs int64, ok bool) {
	if omega <= 0 {
		return 0, false
	}
	delta := targetDeg - nowDeg
	if delta < 0 {
		return 0, false
	}
	us := delta / omega
	min := s.MinLatchUs
	if min == 0 {
		min = DefaultMinLatchUs
	}
	if us < min {
		return 0, false
	}
	return int64(us), true
}

// FuelStartAngle — угол открытия форсунки, чтобы импульс длиной pulseUs
// закончился на endAngleDeg. Отрицательный результат означает, что импульс
// не умещается до конца такта впуска: ArmDelay такой цели даст пропуск.
func FuelStartAngle(endAngleDeg, pulseUs, omega float64) float64 {
	return endAngleDeg - pulseUs*omega
}

// SparkDischargeAngle — угол разряда катушки: ВМТ минус опережение.
func SparkDischargeAngle(advanceDeg float64) float64 {
	return TDCDeg - advanceDeg
}

// SparkChargeAngle — угол начала накопления: разряд минус dwell, переведённый
// в градусы при текущей скорости.
func SparkChargeAngle(dischargeDeg, dwellUs, omega float64) float64 {
	return dischargeDeg - dwellUs*omega
}
