//go:build linux

package main

import (
	"context"
	"log"
	"time"

	"periph.io/x/conn/v3/gpio"

	"github.com/vlabs/gx35ecu/internal/config"
	"github.com/vlabs/gx35ecu/internal/hal"
	"github.com/vlabs/gx35ecu/internal/logger"
	"github.com/vlabs/gx35ecu/pkg/engine"
)

// edgeWaitTimeout — период опроса WaitForEdge, чтобы горутины рёбер
// замечали отмену контекста.
const edgeWaitTimeout = 500 * time.Millisecond

// runHardware запускает ECU на железе: SPI-АЦП MCP3304, GPIO для искры,
// форсунки, тахометра и killswitch, таймеры на time.AfterFunc. Ошибка
// открытия любого устройства фатальна; выходы при этом остаются прижатыми к
// LOW (OpenOutputPin делает это при открытии).
func runHardware(cfg *config.Config, quiet bool) {
	if err := hal.Init(); err != nil {
		log.Fatalf("periph init: %v", err)
	}
	adc, err := hal.OpenMCP3304(cfg.Hardware.SPIPort)
	if err != nil {
		log.Fatalf("АЦП: %v", err)
	}
	defer adc.Close()

	sparkPin, err := hal.OpenOutputPin(cfg.Hardware.SparkPin)
	if err != nil {
		log.Fatalf("выход искры: %v", err)
	}
	fuelPin, err := hal.OpenOutputPin(cfg.Hardware.FuelPin)
	if err != nil {
		log.Fatalf("выход форсунки: %v", err)
	}
	tachPin, err := hal.OpenEdgePin(cfg.Hardware.TachPin, gpio.FallingEdge)
	if err != nil {
		log.Fatalf("вход тахометра: %v", err)
	}
	killPin, err := hal.OpenEdgePin(cfg.Hardware.KillswitchPin, gpio.BothEdges)
	if err != nil {
		log.Fatalf("вход killswitch: %v", err)
	}

	hw := engine.Hardware{
		Clock:          hal.MonotonicClock{},
		ADC:            adc,
		SparkPin:       sparkPin,
		FuelPin:        fuelPin,
		SparkCharge:    hal.NewOneShotTimer(),
		SparkDischarge: hal.NewOneShotTimer(),
		FuelStart:      hal.NewOneShotTimer(),
		FuelStop:       hal.NewOneShotTimer(),
	}

	ctx, cancel := signalContext()
	defer cancel()

	bind := func(e *engine.Engine) error {
		// Защёлкнуть текущий уровень до первого фронта.
		e.KillswitchEdge(killPin.Read())
		go watchEdges(ctx, tachPin, func() { e.TachEdge() })
		go watchEdges(ctx, killPin, func() { e.KillswitchEdge(killPin.Read()) })
		return nil
	}

	logger.Info("запуск на железе: adc=%s spark=%s fuel=%s tach=%s kill=%s",
		cfg.Hardware.SPIPort, cfg.Hardware.SparkPin, cfg.Hardware.FuelPin,
		cfg.Hardware.TachPin, cfg.Hardware.KillswitchPin)
	if err := engine.RunDaemon(ctx, engine.ToPkgConfig(cfg), hw, quiet, bind); err != nil && err != context.Canceled {
		logger.Error("%v", err)
	}
}

// watchEdges крутит WaitForEdge до отмены контекста и зовёт обработчик на
// каждом фронте.
func watchEdges(ctx context.Context, pin *hal.EdgePin, fn func()) {
	for ctx.Err() == nil {
		if pin.WaitForEdge(edgeWaitTimeout) {
			fn()
		}
	}
}
