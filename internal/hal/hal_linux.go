//go:build linux

package hal

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// Init регистрирует драйверы periph (SPI, GPIO). Вызывается один раз до
// открытия устройств.
func Init() error {
	_, err := host.Init()
	return err
}

// MonotonicClock — CLOCK_MONOTONIC в микросекундах. Монотонность нужна для
// меток тахометра: настенные часы могут прыгать.
type MonotonicClock struct{}

// NowMicros возвращает текущее монотонное время в микросекундах.
func (MonotonicClock) NowMicros() int64 {
	var ts unix.Timespec
	_ = unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts)
	return ts.Sec*1e6 + int64(ts.Nsec)/1000
}

// Параметры шины MCP3304: 2 МГц, SPI mode 0, MSB first, 8 бит на слово.
const mcp3304BusFreq = 2 * physic.MegaHertz

// MCP3304 — 13-битный SPI-АЦП Microchip в одиночном (single-ended) режиме.
// Знаковый бит в этом включении всегда нулевой и отбрасывается, остаются
// 12 значащих бит.
type MCP3304 struct {
	port spi.PortCloser
	conn spi.Conn
}

// OpenMCP3304 открывает SPI-порт (например "SPI0.0") и настраивает обмен с
// АЦП.
func OpenMCP3304(portName string) (*MCP3304, error) {
	p, err := spireg.Open(portName)
	if err != nil {
		return nil, fmt.Errorf("spi open %s: %w", portName, err)
	}
	c, err := p.Connect(mcp3304BusFreq, spi.Mode0, 8)
	if err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("spi connect %s: %w", portName, err)
	}
	return &MCP3304{port: p, conn: c}, nil
}

// Read опрашивает канал 0..7. Кадр MCP3304: первый байт — стартовый бит,
// бит single-ended и старшие биты номера канала (0b00001100 | ch>>1), второй
// байт — младший бит канала в старшем разряде (ch<<7), третий байт тактирует
// остаток ответа. Ответ: 4 младших бита второго байта — старшие разряды,
// третий байт — младшие.
func (a *MCP3304) Read(channel int) (uint16, error) {
	if channel < 0 || channel > 7 {
		return 0, fmt.Errorf("mcp3304: channel %d out of range", channel)
	}
	w := []byte{0x0C | byte(channel>>1), byte(channel << 7), 0x00}
	r := make([]byte, len(w))
	if err := a.conn.Tx(w, r); err != nil {
		return 0, fmt.Errorf("mcp3304: tx channel %d: %w", channel, err)
	}
	return uint16(r[1]&0x0F)<<8 | uint16(r[2]), nil
}

// Close закрывает SPI-порт.
func (a *MCP3304) Close() error {
	return a.port.Close()
}

// GPIOPin — дискретный выход на periph GPIO.
type GPIOPin struct {
	pin gpio.PinIO
}

// OpenOutputPin открывает выход по имени (например "GPIO17") и сразу
// прижимает его к LOW: до разрешения прерываний катушка и форсунка должны
// быть выключены.
func OpenOutputPin(name string) (*GPIOPin, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("gpio: pin %s not found", name)
	}
	if err := p.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("gpio: %s out: %w", name, err)
	}
	return &GPIOPin{pin: p}, nil
}

// Set выставляет уровень выхода.
func (g *GPIOPin) Set(level bool) error {
	l := gpio.Low
	if level {
		l = gpio.High
	}
	return g.pin.Out(l)
}

// EdgePin — дискретный вход с ожиданием фронта (тахометр — спадающий фронт,
// killswitch — оба).
type EdgePin struct {
	pin gpio.PinIO
}

// OpenEdgePin открывает вход по имени с подтяжкой вверх и заданным фронтом.
func OpenEdgePin(name string, edge gpio.Edge) (*EdgePin, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("gpio: pin %s not found", name)
	}
	if err := p.In(gpio.PullUp, edge); err != nil {
		return nil, fmt.Errorf("gpio: %s in: %w", name, err)
	}
	return &EdgePin{pin: p}, nil
}

// WaitForEdge блокируется до фронта или таймаута; true — фронт был.
func (e *EdgePin) WaitForEdge(timeout time.Duration) bool {
	return e.pin.WaitForEdge(timeout)
}

// Read возвращает текущий уровень входа.
func (e *EdgePin) Read() bool {
	return e.pin.Read() == gpio.High
}
