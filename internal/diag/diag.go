// Package diag — диагностическая телеметрия: одна ASCII-строка на вход в
// режим SERIAL_OUT (обороты, MAP, VE, угол разряда, длительность впрыска).
// Пишется только из главного цикла, никогда из обработчиков: вывод в порт
// может длиться дольше окна dwell.
package diag

import (
	"fmt"
	"io"

	"go.bug.st/serial"
)

// Line — одна строка телеметрии.
type Line struct {
	RPM               float64
	MAPkPa            float64
	VE                float64
	SparkDischargeDeg float64
	FuelPulseUs       float64
	Mode              string
}

// Writer пишет строки телеметрии в порт или любой io.Writer.
type Writer struct {
	w      io.Writer
	closer io.Closer
}

// New создаёт Writer поверх готового io.Writer (тесты, stdout).
func New(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Open открывает последовательный порт 8N1 на заданной скорости (штатно
// 115200) и возвращает Writer.
func Open(portName string, baud int) (*Writer, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("serial open %s: %w", portName, err)
	}
	return &Writer{w: p, closer: p}, nil
}

// WriteLine выводит одну строку телеметрии.
func (w *Writer) WriteLine(l Line) error {
	_, err := fmt.Fprintf(w.w, "mode=%s rpm=%.0f map=%.1f ve=%.3f spark=%.1f fuel_us=%.0f\r\n",
		l.Mode, l.RPM, l.MAPkPa, l.VE, l.SparkDischargeDeg, l.FuelPulseUs)
	return err
}

// Close закрывает порт, если Writer был открыт через Open.
func (w *Writer) Close() error {
	if w.closer == nil {
		return nil
	}
	return w.closer.Close()
}
