// Package ignition — два независимых двухфазных конвейера на одновибраторных
// таймерах: искра (накопление → разряд) и впрыск (открытие → закрытие).
// Каждый обработчик первым делом останавливает свой таймер, чтобы исключить
// повторное срабатывание; конвейеры друг о друге не знают и машину режимов
// не трогают.
package ignition

import (
	"sync"

	"github.com/vlabs/gx35ecu/internal/hal"
)

// SparkPipeline — конвейер искры. Arm взводит таймер накопления; его
// обработчик поднимает выход катушки и взводит разряд ровно через dwell.
// Конвейер нереентерабелен относительно себя: dwell много меньше оборота на
// всех рабочих скоростях, но повторный заряд поверх активного dwell всё
// равно игнорируется.
type SparkPipeline struct {
	mu        sync.Mutex
	charge    hal.Timer
	discharge hal.Timer
	pin       hal.OutputPin
	dwellUs   int64
	charging  bool
}

// NewSparkPipeline собирает конвейер и привязывает обработчики таймеров.
func NewSparkPipeline(charge, discharge hal.Timer, pin hal.OutputPin, dwellUs int64) *SparkPipeline {
	p := &SparkPipeline{charge: charge, discharge: discharge, pin: pin, dwellUs: dwellUs}
	charge.AttachInterrupt(p.onChargeFired)
	discharge.AttachInterrupt(p.onDischargeFired)
	return p
}

// Arm взводит начало накопления через delayUs микросекунд.
func (p *SparkPipeline) Arm(delayUs int64) error {
	return p.charge.Start(delayUs)
}

// Charging сообщает, идёт ли накопление (для тестов и диагностики).
func (p *SparkPipeline) Charging() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.charging
}

// onChargeFired — обработчик таймера накопления: остановить свой таймер,
// катушка HIGH, взвести разряд ровно на dwell.
func (p *SparkPipeline) onChargeFired() {
	p.charge.Stop()
	p.mu.Lock()
	if p.charging {
		p.mu.Unlock()
		return
	}
	p.charging = true
	p.mu.Unlock()

	_ = p.pin.Set(true)
	_ = p.discharge.Start(p.dwellUs)
}

// onDischargeFired — обработчик таймера разряда: катушка LOW (искра),
// таймер остановлен.
func (p *SparkPipeline) onDischargeFired() {
	p.discharge.Stop()
	_ = p.pin.Set(false)
	p.mu.Lock()
	p.charging = false
	p.mu.Unlock()
}

// FuelPipeline — конвейер впрыска. Arm задаёт длительность импульса и
// взводит открытие; обработчик открытия поднимает выход форсунки и взводит
// закрытие через длительность импульса.
type FuelPipeline struct {
	mu         sync.Mutex
	start      hal.Timer
	stop       hal.Timer
	pin        hal.OutputPin
	durationUs int64
	open       bool
}

// NewFuelPipeline собирает конвейер и привязывает обработчики таймеров.
func NewFuelPipeline(start, stop hal.Timer, pin hal.OutputPin) *FuelPipeline {
	p := &FuelPipeline{start: start, stop: stop, pin: pin}
	start.AttachInterrupt(p.onStartFired)
	stop.AttachInterrupt(p.onStopFired)
	return p
}

// Arm задаёт длительность импульса и взводит открытие форсунки через
// delayUs микросекунд.
func (p *FuelPipeline) Arm(delayUs, durationUs int64) error {
	p.mu.Lock()
	p.durationUs = durationUs
	p.mu.Unlock()
	return p.start.Start(delayUs)
}

// Open сообщает, открыта ли форсунка.
func (p *FuelPipeline) Open() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

func (p *FuelPipeline) onStartFired() {
	p.start.Stop()
	p.mu.Lock()
	if p.open {
		p.mu.Unlock()
		return
	}
	p.open = true
	d := p.durationUs
	p.mu.Unlock()

	_ = p.pin.Set(true)
	_ = p.stop.Start(d)
}

func (p *FuelPipeline) onStopFired() {
	p.stop.Stop()
	_ = p.pin.Set(false)
	p.mu.Lock()
	p.open = false
	p.mu.Unlock()
}
