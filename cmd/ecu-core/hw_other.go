//go:build !linux

package main

import (
	"log"

	"github.com/vlabs/gx35ecu/internal/config"
)

// runHardware — заглушка на не-Linux: GPIO и SPI недоступны.
func runHardware(cfg *config.Config, quiet bool) {
	_ = cfg
	_ = quiet
	log.Fatal("ecu-core: -run доступен только на linux (periph.io); используйте -sim")
}
