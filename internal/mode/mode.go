// Package mode — машина режимов ECU. Режим принадлежит главному циклу;
// единственное исключение — обработчик тахометра, который на каждом обороте
// принудительно переводит машину в Calibration: ребро калибровки — точка
// синхронизации всего цикла.
package mode

// Mode — текущий режим главного цикла.
type Mode int

const (
	ReadSensors Mode = iota // фоновый опрос датчиков
	Calibration             // ребро тахометра: решить следующий режим
	Cranking                // пуск: фиксированные VE и опережение
	Running                 // работа: VE/SA из таблиц
	RevLimiter              // отсечка: события не взводятся
	SerialOut               // одна строка диагностики
)

func (m Mode) String() string {
	switch m {
	case ReadSensors:
		return "read_sensors"
	case Calibration:
		return "calibration"
	case Cranking:
		return "cranking"
	case Running:
		return "running"
	case RevLimiter:
		return "rev_limiter"
	case SerialOut:
		return "serial_out"
	default:
		return "unknown"
	}
}

// Engaged сообщает, взводит ли режим топливо и искру.
func (m Mode) Engaged() bool {
	return m == Cranking || m == Running
}

// Thresholds — границы режимов по оборотам.
type Thresholds struct {
	EngageRPM        float64 // ниже — двигатель считается остановленным
	CrankingRPM      float64 // граница пуск/работа
	UpperRevLimitRPM float64 // вход в отсечку
	LowerRevLimitRPM float64 // выход из отсечки (гистерезис)
}

// Decide — решение на шаге калибровки: по killswitch, текущему состоянию
// отсечки и оборотам возвращает следующий режим и новое состояние отсечки.
//
// При killswitch == false двигатель не обслуживается независимо от оборотов;
// защёлка отсечки при этом не трогается. Активная отсечка держится, пока
// обороты не упадут ниже нижнего порога.
func Decide(killswitch, revLimit bool, rpm float64, th Thresholds) (Mode, bool) {
	if !killswitch {
		return ReadSensors, revLimit
	}
	if revLimit {
		if rpm < th.LowerRevLimitRPM {
			return Running, false
		}
		return RevLimiter, true
	}
	switch {
	case rpm < th.EngageRPM:
		return ReadSensors, false
	case rpm < th.CrankingRPM:
		return Cranking, false
	case rpm < th.UpperRevLimitRPM:
		return Running, false
	default:
		return RevLimiter, true
	}
}
