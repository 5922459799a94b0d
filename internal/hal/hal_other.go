//go:build !linux

package hal

import (
	"fmt"
	"time"
)

// Init — заглушка на не-Linux: реального железа нет, доступна только
// симуляция.
func Init() error {
	return nil
}

// MonotonicClock — на не-Linux приближение монотонных часов через time.Since.
type MonotonicClock struct{}

var monotonicStart = time.Now()

// NowMicros возвращает микросекунды с момента старта процесса.
func (MonotonicClock) NowMicros() int64 {
	return time.Since(monotonicStart).Microseconds()
}

// MCP3304 — заглушка на не-Linux.
type MCP3304 struct{}

// OpenMCP3304 — заглушка на не-Linux.
func OpenMCP3304(portName string) (*MCP3304, error) {
	return nil, fmt.Errorf("mcp3304: %s: SPI available on linux only", portName)
}

// Read — заглушка на не-Linux.
func (a *MCP3304) Read(channel int) (uint16, error) {
	return 0, fmt.Errorf("mcp3304: SPI available on linux only")
}

// Close — заглушка на не-Linux.
func (a *MCP3304) Close() error { return nil }

// GPIOPin — заглушка на не-Linux.
type GPIOPin struct{}

// OpenOutputPin — заглушка на не-Linux.
func OpenOutputPin(name string) (*GPIOPin, error) {
	return nil, fmt.Errorf("gpio: %s: available on linux only", name)
}

// Set — заглушка на не-Linux.
func (g *GPIOPin) Set(level bool) error { return nil }
