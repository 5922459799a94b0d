package engine

import (
	"context"

	"github.com/vlabs/gx35ecu/internal/config"
	"github.com/vlabs/gx35ecu/internal/diag"
	"github.com/vlabs/gx35ecu/internal/logger"
	pkgconfig "github.com/vlabs/gx35ecu/pkg/config"
)

// RunDaemon собирает ECU по публичному конфигу и крутит главный цикл до
// отмены ctx. Диагностический порт открывается лучшим усилием: без него ECU
// работает, просто молчит. bind, если задан, вызывается с собранным ECU до
// старта цикла — там подвешиваются источники рёбер (тахометр, killswitch)
// или стендовый генератор.
func RunDaemon(ctx context.Context, cfg *pkgconfig.Config, hw Hardware, quiet bool, bind func(*Engine) error) error {
	if cfg == nil {
		return nil
	}
	logger.Quiet = quiet

	var diagWriter *diag.Writer
	if cfg.Diag.Port != "" {
		w, err := diag.Open(cfg.Diag.Port, cfg.Diag.Baud)
		if err != nil {
			logger.Info("diag %s: %v", cfg.Diag.Port, err)
		} else {
			diagWriter = w
			defer func() { _ = w.Close() }()
		}
	}

	eng, err := New(toInternalConfig(cfg), hw, diagWriter)
	if err != nil {
		return err
	}
	if bind != nil {
		if err := bind(eng); err != nil {
			return err
		}
	}
	return eng.Run(ctx)
}

// ToPkgConfig преобразует internal config в pkg config (для вызова RunDaemon
// из cmd/ecu-core и внешних обвязок).
func ToPkgConfig(c *config.Config) *pkgconfig.Config {
	if c == nil {
		return nil
	}
	return &pkgconfig.Config{
		Engine: pkgconfig.EngineConfig(c.Engine),
		Tables: pkgconfig.TablesConfig{
			VE: pkgconfig.TableConfig(c.Tables.VE),
			SA: pkgconfig.TableConfig(c.Tables.SA),
		},
		Sensors: pkgconfig.SensorsConfig{
			TPSMinV:  c.Sensors.TPSMinV,
			TPSMaxV:  c.Sensors.TPSMaxV,
			ECT:      pkgconfig.ThermistorConfig(c.Sensors.ECT),
			IAT:      pkgconfig.ThermistorConfig(c.Sensors.IAT),
			Channels: pkgconfig.ChannelsConfig(c.Sensors.Channels),
		},
		Hardware: pkgconfig.HardwareConfig(c.Hardware),
		Diag:     pkgconfig.DiagConfig(c.Diag),
	}
}

func toInternalConfig(c *pkgconfig.Config) *config.Config {
	if c == nil {
		return nil
	}
	return &config.Config{
		Engine: config.EngineConfig(c.Engine),
		Tables: config.TablesConfig{
			VE: config.TableConfig(c.Tables.VE),
			SA: config.TableConfig(c.Tables.SA),
		},
		Sensors: config.SensorsConfig{
			TPSMinV:  c.Sensors.TPSMinV,
			TPSMaxV:  c.Sensors.TPSMaxV,
			ECT:      config.ThermistorConfig(c.Sensors.ECT),
			IAT:      config.ThermistorConfig(c.Sensors.IAT),
			Channels: config.ChannelsConfig(c.Sensors.Channels),
		},
		Hardware: config.HardwareConfig(c.Hardware),
		Diag:     config.DiagConfig(c.Diag),
	}
}
