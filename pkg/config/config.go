// Package config предоставляет конфигурацию ECU для использования из внешних
// обвязок (стендовый HIL-харнес, симулятор) без доступа к internal. Формат
// полей совпадает с internal/config; неизвестные ключи игнорируются.
package config

// Config — полная конфигурация ECU.
type Config struct {
	Engine   EngineConfig   `yaml:"engine" config:"engine"`
	Tables   TablesConfig   `yaml:"tables" config:"tables"`
	Sensors  SensorsConfig  `yaml:"sensors" config:"sensors"`
	Hardware HardwareConfig `yaml:"hardware" config:"hardware"`
	Diag     DiagConfig     `yaml:"diag" config:"diag"`
}

// EngineConfig — параметры двигателя и планировщика событий.
type EngineConfig struct {
	DisplacementM3   float64 `yaml:"displacement_m3" config:"displacement_m3"`
	CalibAngleDeg    float64 `yaml:"calib_angle_deg" config:"calib_angle_deg"`
	FuelEndAngleDeg  float64 `yaml:"fuel_end_angle_deg" config:"fuel_end_angle_deg"`
	DwellUs          float64 `yaml:"dwell_us" config:"dwell_us"`
	CrankSparkAdvDeg float64 `yaml:"crank_spark_adv_deg" config:"crank_spark_adv_deg"`
	CrankVolEff      float64 `yaml:"crank_vol_eff" config:"crank_vol_eff"`
	EngageRPM        float64 `yaml:"engage_rpm" config:"engage_rpm"`
	CrankingRPM      float64 `yaml:"cranking_rpm" config:"cranking_rpm"`
	UpperRevLimitRPM float64 `yaml:"upper_rev_limit_rpm" config:"upper_rev_limit_rpm"`
	LowerRevLimitRPM float64 `yaml:"lower_rev_limit_rpm" config:"lower_rev_limit_rpm"`
	MinLatchUs       float64 `yaml:"min_latch_us" config:"min_latch_us"`
	InjectorFlowGs   float64 `yaml:"injector_flow_g_s" config:"injector_flow_g_s"`
	AirFuelRatio     float64 `yaml:"air_fuel_ratio" config:"air_fuel_ratio"`
}

// TableConfig — одна 2-D таблица настройки.
type TableConfig struct {
	RPMAxis []float64   `yaml:"rpm_axis" config:"rpm_axis"`
	MAPAxis []float64   `yaml:"map_axis" config:"map_axis"`
	Data    [][]float64 `yaml:"data" config:"data"`
}

// TablesConfig — таблицы VE и SA.
type TablesConfig struct {
	VE TableConfig `yaml:"ve" config:"ve"`
	SA TableConfig `yaml:"sa" config:"sa"`
}

// ThermistorConfig — калибровка термистора.
type ThermistorConfig struct {
	Model     string  `yaml:"model" config:"model"`
	T1K       float64 `yaml:"t1_k" config:"t1_k"`
	T2K       float64 `yaml:"t2_k" config:"t2_k"`
	R1Ohm     float64 `yaml:"r1_ohm" config:"r1_ohm"`
	R2Ohm     float64 `yaml:"r2_ohm" config:"r2_ohm"`
	DividerV  float64 `yaml:"divider_v" config:"divider_v"`
	SeriesOhm float64 `yaml:"series_ohm" config:"series_ohm"`
}

// ChannelsConfig — номера каналов SPI-АЦП; -1 — датчик не подключён.
type ChannelsConfig struct {
	MAP int `yaml:"map" config:"map"`
	IAT int `yaml:"iat" config:"iat"`
	ECT int `yaml:"ect" config:"ect"`
	TPS int `yaml:"tps" config:"tps"`
	O2  int `yaml:"o2" config:"o2"`
}

// SensorsConfig — калибровки датчиков и раскладка каналов.
type SensorsConfig struct {
	TPSMinV  float64          `yaml:"tps_min_v" config:"tps_min_v"`
	TPSMaxV  float64          `yaml:"tps_max_v" config:"tps_max_v"`
	ECT      ThermistorConfig `yaml:"ect" config:"ect"`
	IAT      ThermistorConfig `yaml:"iat" config:"iat"`
	Channels ChannelsConfig   `yaml:"channels" config:"channels"`
}

// HardwareConfig — SPI-порт АЦП и имена GPIO.
type HardwareConfig struct {
	SPIPort       string `yaml:"spi_port" config:"spi_port"`
	SparkPin      string `yaml:"spark_pin" config:"spark_pin"`
	FuelPin       string `yaml:"fuel_pin" config:"fuel_pin"`
	TachPin       string `yaml:"tach_pin" config:"tach_pin"`
	KillswitchPin string `yaml:"killswitch_pin" config:"killswitch_pin"`
}

// DiagConfig — диагностический последовательный порт.
type DiagConfig struct {
	Port string `yaml:"port" config:"port"`
	Baud int    `yaml:"baud" config:"baud"`
}
