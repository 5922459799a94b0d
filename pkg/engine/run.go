// Package engine — главный цикл ECU: склейка кинематики, машины режимов,
// надзора, модели топлива, планировщика и конвейеров зажигания/впрыска.
// Цикл кооперативный и неблокирующий; «прерывания» (тахометр, killswitch,
// таймеры) приходят через TachEdge/KillswitchEdge и обработчики hal.Timer.
package engine

import (
	"context"
	"runtime"
	"sync"

	"github.com/vlabs/gx35ecu/internal/config"
	"github.com/vlabs/gx35ecu/internal/diag"
	"github.com/vlabs/gx35ecu/internal/fueling"
	"github.com/vlabs/gx35ecu/internal/hal"
	"github.com/vlabs/gx35ecu/internal/ignition"
	"github.com/vlabs/gx35ecu/internal/kinematics"
	"github.com/vlabs/gx35ecu/internal/logger"
	"github.com/vlabs/gx35ecu/internal/mode"
	"github.com/vlabs/gx35ecu/internal/safety"
	"github.com/vlabs/gx35ecu/internal/scheduler"
	"github.com/vlabs/gx35ecu/internal/sensors"
	"github.com/vlabs/gx35ecu/internal/table"
)

// Hardware — набор аппаратных примитивов, на которых работает ECU: часы,
// АЦП, два выхода и четыре одновибраторных таймера. В тестах и режиме -sim
// всё это симуляция из internal/hal.
type Hardware struct {
	Clock          hal.Clock
	ADC            hal.ADC
	SparkPin       hal.OutputPin
	FuelPin        hal.OutputPin
	SparkCharge    hal.Timer
	SparkDischarge hal.Timer
	FuelStart      hal.Timer
	FuelStop       hal.Timer
}

// Engine — собранный ECU.
type Engine struct {
	cfg   *config.Config
	hw    Hardware
	kin   *kinematics.State
	sup   *safety.Supervisor
	sched scheduler.Scheduler
	fuel  fueling.Model
	ve    *table.Table2D
	sa    *table.Table2D
	bank  *sensors.Bank
	spark *ignition.SparkPipeline
	inj   *ignition.FuelPipeline
	diag  *diag.Writer

	th mode.Thresholds

	// Состояние главного цикла. state пишет главный цикл; исключение —
	// TachEdge, принудительно переводящий в Calibration.
	mu        sync.Mutex
	state     mode.Mode
	fuelCycle bool
	printDue  bool
	readings  sensors.Readings

	// Последний расчёт цикла — для строки диагностики.
	lastVE      float64
	lastSparkAt float64
	lastPulseUs float64
}

// New собирает ECU из конфига и железа. Выходы прижимаются к LOW до того,
// как что-либо будет взведено. diagWriter может быть nil — тогда строки
// диагностики не пишутся.
func New(cfg *config.Config, hw Hardware, diagWriter *diag.Writer) (*Engine, error) {
	config.NormalizeVE(&cfg.Tables.VE)
	ve, err := cfg.Tables.VE.Build()
	if err != nil {
		return nil, err
	}
	sa, err := cfg.Tables.SA.Build()
	if err != nil {
		return nil, err
	}
	bank, err := sensors.NewBank(hw.ADC, cfg.Sensors)
	if err != nil {
		return nil, err
	}
	if err := safety.ForceOutputsLow(hw.SparkPin, hw.FuelPin); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:   cfg,
		hw:    hw,
		kin:   kinematics.NewState(cfg.Engine.CalibAngleDeg),
		sup:   safety.New(),
		sched: scheduler.Scheduler{MinLatchUs: cfg.Engine.MinLatchUs},
		fuel: fueling.Model{
			DisplacementM3: cfg.Engine.DisplacementM3,
			CrankVolEff:    cfg.Engine.CrankVolEff,
			AirFuelRatio:   cfg.Engine.AirFuelRatio,
			InjectorFlowGs: cfg.Engine.InjectorFlowGs,
		},
		ve:   ve,
		sa:   sa,
		bank: bank,
		diag: diagWriter,
		th: mode.Thresholds{
			EngageRPM:        cfg.Engine.EngageRPM,
			CrankingRPM:      cfg.Engine.CrankingRPM,
			UpperRevLimitRPM: cfg.Engine.UpperRevLimitRPM,
			LowerRevLimitRPM: cfg.Engine.LowerRevLimitRPM,
		},
		state: mode.ReadSensors,
	}
	e.spark = ignition.NewSparkPipeline(hw.SparkCharge, hw.SparkDischarge, hw.SparkPin, int64(cfg.Engine.DwellUs))
	e.inj = ignition.NewFuelPipeline(hw.FuelStart, hw.FuelStop, hw.FuelPin)
	return e, nil
}

// Supervisor возвращает защитный надзор (для привязки killswitch).
func (e *Engine) Supervisor() *safety.Supervisor {
	return e.sup
}

// State возвращает текущий режим главного цикла.
func (e *Engine) State() mode.Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// TachEdge — тело обработчика ребра тахометра: обновляет кинематику и
// безусловно переводит машину режимов в Calibration. Ребро калибровки —
// точка синхронизации: что бы ни делал главный цикл, следующий его шаг
// начинается с решения о режиме.
func (e *Engine) TachEdge() {
	fuelCycle, printDue := e.kin.OnTachEdge(e.hw.Clock.NowMicros())
	hal.Guard(&e.mu, func() {
		e.fuelCycle = fuelCycle
		e.printDue = printDue
		e.state = mode.Calibration
	})
}

// KillswitchEdge — тело обработчика фронта killswitch.
func (e *Engine) KillswitchEdge(level bool) {
	e.sup.OnKillswitchEdge(level)
}

// Step — одна итерация главного цикла.
func (e *Engine) Step() {
	st := e.State()
	switch st {
	case mode.ReadSensors:
		r := e.bank.Read()
		e.mu.Lock()
		e.readings = r
		e.mu.Unlock()

	case mode.Calibration:
		rpm := e.kin.RPM()
		next, revLimit := mode.Decide(e.sup.Killswitch(), e.sup.RevLimit(), rpm, e.th)
		e.sup.SetRevLimit(revLimit)
		e.setState(st, next)

	case mode.Cranking:
		e.armCycle(false)
		e.finishCycle(st)

	case mode.Running:
		e.armCycle(true)
		e.finishCycle(st)

	case mode.RevLimiter:
		// Отсечка: события не взводятся, цикл завершается вхолостую.
		e.finishCycle(st)

	case mode.SerialOut:
		e.emitDiag()
		e.setState(st, mode.ReadSensors)
	}
}

// setState переводит машину режимов из from в next, не затирая
// принудительную калибровку: если обработчик тахометра успел перевести в
// Calibration во время шага, его решение старше и переход шага отбрасывается.
func (e *Engine) setState(from, next mode.Mode) {
	e.mu.Lock()
	if e.state == from {
		e.state = next
	}
	e.mu.Unlock()
}

// finishCycle завершает рабочий цикл: либо строка диагностики, либо фоновый
// опрос датчиков.
func (e *Engine) finishCycle(from mode.Mode) {
	e.mu.Lock()
	due := e.printDue
	e.printDue = false
	e.mu.Unlock()
	if due {
		e.setState(from, mode.SerialOut)
	} else {
		e.setState(from, mode.ReadSensors)
	}
}

// armCycle взводит топливо и искру на текущий оборот. Порядок фиксирован:
// сначала топливо (угол старта из длительности импульса), затем разряд и
// накопление искры; перед каждым взведением угол берётся заново.
func (e *Engine) armCycle(running bool) {
	if !e.sup.Engageable(e.State()) {
		// Killswitch упал между калибровкой и взведением: уже взведённая
		// пара доигрывает, новая не взводится.
		return
	}
	omega := e.kin.AngularSpeed()
	if omega <= 0 {
		return
	}
	rpm := kinematics.RPMFromAngularSpeed(omega)

	var r sensors.Readings
	var fuelCycle bool
	hal.Guard(&e.mu, func() {
		r = e.readings
		fuelCycle = e.fuelCycle
	})

	// Топливо — один импульс на два оборота.
	if fuelCycle {
		var airVol, ve float64
		if running {
			ve = e.ve.Lookup(rpm, r.MAPkPa)
			airVol = e.fuel.AirVolumeRunning(ve)
		} else {
			ve = e.cfg.Engine.CrankVolEff
			airVol = e.fuel.AirVolumeCranking()
		}
		pulseUs := e.fuel.PulseWidthUs(airVol, r.MAPkPa, r.IATK)
		start := scheduler.FuelStartAngle(e.cfg.Engine.FuelEndAngleDeg, pulseUs, omega)

		thetaNow := e.kin.CurrentAngle(e.hw.Clock.NowMicros())
		if delay, ok := e.sched.ArmDelay(start, thetaNow, omega); ok {
			_ = e.inj.Arm(delay, int64(pulseUs))
		}

		e.mu.Lock()
		e.lastVE = ve
		e.lastPulseUs = pulseUs
		e.mu.Unlock()
	}

	// Искра: разряд в ВМТ минус опережение, накопление на dwell раньше.
	var advance float64
	if running {
		advance = e.sa.Lookup(rpm, r.MAPkPa)
	} else {
		advance = e.cfg.Engine.CrankSparkAdvDeg
	}
	dischargeAt := scheduler.SparkDischargeAngle(advance)
	chargeAt := scheduler.SparkChargeAngle(dischargeAt, e.cfg.Engine.DwellUs, omega)

	thetaNow := e.kin.CurrentAngle(e.hw.Clock.NowMicros())
	if delay, ok := e.sched.ArmDelay(chargeAt, thetaNow, omega); ok {
		_ = e.spark.Arm(delay)
	}

	e.mu.Lock()
	e.lastSparkAt = dischargeAt
	e.mu.Unlock()
}

// emitDiag пишет одну строку телеметрии. Только из главного цикла: вывод в
// порт длиннее окна dwell и в обработчиках ему не место.
func (e *Engine) emitDiag() {
	if e.diag == nil {
		return
	}
	rpm := e.kin.RPM()
	e.mu.Lock()
	l := diag.Line{
		Mode:              e.state.String(),
		RPM:               rpm,
		MAPkPa:            e.readings.MAPkPa,
		VE:                e.lastVE,
		SparkDischargeDeg: e.lastSparkAt,
		FuelPulseUs:       e.lastPulseUs,
	}
	e.mu.Unlock()
	if err := e.diag.WriteLine(l); err != nil {
		logger.Error("diag write: %v", err)
	}
}

// Run крутит главный цикл до отмены контекста. Цикл не блокируется; между
// итерациями уступает планировщику.
func (e *Engine) Run(ctx context.Context) error {
	logger.Info("engine: started, state=%s", e.State())
	for {
		select {
		case <-ctx.Done():
			// Остановка: выходы в безопасное состояние.
			_ = safety.ForceOutputsLow(e.hw.SparkPin, e.hw.FuelPin)
			return ctx.Err()
		default:
		}
		e.Step()
		runtime.Gosched()
	}
}
