// ecu-core — ядро блока управления одноцилиндровым бензиновым двигателем
// класса Honda GX35: кинематика коленвала по тахометру, расчёт топлива по
// газовому закону, опережение зажигания из таблиц и взведение таймеров
// событий с угловой точностью.
//
// Использование:
//
//	ecu-core -check                    — проверить конфиг и таблицы и выйти
//	ecu-core -sim -sim-rpm 3000        — стендовая симуляция без железа
//	ecu-core -run -config ecu-core.yml — запуск на железе (Linux, periph.io)
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vlabs/gx35ecu/internal/calib"
	"github.com/vlabs/gx35ecu/internal/config"
	"github.com/vlabs/gx35ecu/internal/hal"
	"github.com/vlabs/gx35ecu/internal/logger"
	"github.com/vlabs/gx35ecu/pkg/engine"
)

func main() {
	check := flag.Bool("check", false, "проверить конфиг и таблицы и выйти")
	run := flag.Bool("run", false, "запуск на железе: SPI-АЦП, GPIO, таймеры")
	sim := flag.Bool("sim", false, "стендовая симуляция: виртуальные часы и генератор тахометра")
	simRPM := flag.Float64("sim-rpm", 3000, "обороты генератора тахометра в -sim")
	configPath := flag.String("config", "", "путь к YAML конфигу (по умолчанию ecu-core.yml)")
	quiet := flag.Bool("quiet", false, "меньше вывода")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil && *configPath != "" {
		log.Fatalf("config: %v", err)
	}
	if cfg == nil {
		cfg = config.Default()
	}

	logger.Quiet = *quiet

	switch {
	case *run:
		runHardware(cfg, *quiet)
	case *sim:
		runSim(cfg, *quiet, *simRPM)
	default:
		runCheck(cfg, *quiet)
		if !*check && !*quiet {
			fmt.Println("ecu-core: для запуска используйте -run (железо) или -sim (симуляция).")
		}
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = "ecu-core.yml"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	return config.Load(path)
}

// runCheck проверяет конфиг: таблицы собираются, пороги согласованы.
func runCheck(cfg *config.Config, quiet bool) {
	if _, err := cfg.Tables.VE.Build(); err != nil {
		log.Fatalf("таблица VE: %v", err)
	}
	if _, err := cfg.Tables.SA.Build(); err != nil {
		log.Fatalf("таблица SA: %v", err)
	}
	if cfg.Engine.LowerRevLimitRPM >= cfg.Engine.UpperRevLimitRPM {
		log.Fatalf("отсечка: нижний порог %.0f не ниже верхнего %.0f",
			cfg.Engine.LowerRevLimitRPM, cfg.Engine.UpperRevLimitRPM)
	}
	if cfg.Engine.EngageRPM >= cfg.Engine.CrankingRPM {
		log.Fatalf("пороги: engage %.0f не ниже cranking %.0f",
			cfg.Engine.EngageRPM, cfg.Engine.CrankingRPM)
	}
	if !quiet {
		fmt.Printf("Конфиг в порядке: VE %dx%d, SA %dx%d, отсечка %.0f/%.0f, dwell %.0f мкс\n",
			len(cfg.Tables.VE.RPMAxis), len(cfg.Tables.VE.MAPAxis),
			len(cfg.Tables.SA.RPMAxis), len(cfg.Tables.SA.MAPAxis),
			cfg.Engine.UpperRevLimitRPM, cfg.Engine.LowerRevLimitRPM, cfg.Engine.DwellUs)
	}
}

// signalContext возвращает контекст, отменяемый по SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("получен сигнал %v, завершение...", sig)
		cancel()
	}()
	return ctx, cancel
}

// runSim крутит ECU на виртуальных часах: генератор тахометра на заданных
// оборотах, правдоподобные отсчёты датчиков, диагностика в порт из конфига
// (лучшим усилием, как в RunDaemon).
func runSim(cfg *config.Config, quiet bool, rpm float64) {
	if rpm <= 0 {
		log.Fatalf("-sim-rpm должен быть положительным, получен %v", rpm)
	}
	clock := hal.NewSimClock()
	adc := hal.NewSimADC()
	// Тёплый двигатель под средней нагрузкой: MAP ~60 кПа; 2.0 В на IAT/ECT
	// при дефолтном термисторе — ~348 К (~75°C).
	adc.SetCount(cfg.Sensors.Channels.MAP, countForVolts((60-10.57)/18.86))
	adc.SetCount(cfg.Sensors.Channels.IAT, countForVolts(2.0))
	adc.SetCount(cfg.Sensors.Channels.ECT, countForVolts(2.0))
	adc.SetCount(cfg.Sensors.Channels.TPS, countForVolts(2.5))

	hw := engine.Hardware{
		Clock:          clock,
		ADC:            adc,
		SparkPin:       hal.NewSimPin(clock),
		FuelPin:        hal.NewSimPin(clock),
		SparkCharge:    clock.NewTimer(),
		SparkDischarge: clock.NewTimer(),
		FuelStart:      clock.NewTimer(),
		FuelStop:       clock.NewTimer(),
	}

	ctx, cancel := signalContext()
	defer cancel()

	bind := func(e *engine.Engine) error {
		e.KillswitchEdge(true)
		periodUs := int64(60e6 / rpm)
		go func() {
			for ctx.Err() == nil {
				clock.Advance(periodUs)
				e.TachEdge()
				time.Sleep(time.Duration(periodUs) * time.Microsecond)
			}
		}()
		return nil
	}

	pkgCfg := engine.ToPkgConfig(cfg)
	logger.Info("sim: %.0f об/мин, период %d мкс", rpm, int64(60e6/rpm))
	if err := engine.RunDaemon(ctx, pkgCfg, hw, quiet, bind); err != nil && err != context.Canceled {
		logger.Error("%v", err)
	}
}

func countForVolts(v float64) uint16 {
	return uint16(v / calib.VPerBit)
}
