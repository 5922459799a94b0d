// Package kinematics — кинематика коленвала: по последовательным меткам
// тахометра оценивает отфильтрованную угловую скорость и текущий угол
// двигателя. Состояние пишет только обработчик тахометра (OnTachEdge);
// главный цикл читает под мьютексом — один писатель на блок состояния,
// вместо россыпи volatile-глобалов.
package kinematics

import "sync"

// DegreesPerPulse — угол на один импульс тахометра. Коленвал с одним зубом,
// поэтому один импульс — это всегда один полный оборот. Без датчика
// распредвала такт впуска от рабочего такта не отличить: fuelCycle стартует
// с false и просто чередуется.
const DegreesPerPulse = 360.0

// Веса EMA-фильтра угловой скорости: 0.7 на свежий отсчёт, 0.3 на текущую
// оценку. Подобранный параметр сглаживания шума одного зуба, не физическая
// константа.
const (
	EMAWeightNew = 0.7
	EMAWeightOld = 0.3
)

// serialPrintPeriod — каждое N-ое ребро тахометра помечается как момент
// диагностического вывода.
const serialPrintPeriod = 10

// RPMFromAngularSpeed переводит угловую скорость (градусы/мкс) в обороты в
// минуту.
func RPMFromAngularSpeed(omega float64) float64 {
	return omega * 60e6 / DegreesPerPulse
}

// AngularSpeedFromRPM — обратное преобразование, об/мин → градусы/мкс.
func AngularSpeedFromRPM(rpm float64) float64 {
	return rpm * DegreesPerPulse / 60e6
}

// State — кинематическое состояние. Все поля пишет только OnTachEdge
// (обработчик тахометра); CurrentAngle и аксессоры — читающая сторона
// главного цикла.
type State struct {
	mu sync.Mutex

	calibAngle         float64 // механическое смещение датчика от ВМТ, задаётся при создании
	calibAngleTime     int64   // мкс, метка последнего ребра тахометра
	lastCalibAngleTime int64   // мкс, метка предыдущего ребра
	angularSpeed       float64 // градусы/мкс, после EMA
	fuelCycle          bool    // бит чётности: один впрыск на два оборота
	printCount         int     // счётчик диагностического вывода, mod 10
	primed             bool    // false до первого ребра
}

// NewState создаёт кинематическое состояние с заданным механическим
// смещением датчика тахометра от ВМТ в градусах.
func NewState(calibAngleDeg float64) *State {
	return &State{calibAngle: calibAngleDeg}
}

// OnTachEdge — тело обработчика ребра тахометра. now — текущая метка в мкс
// (монотонная). Обновляет angularSpeed через EMA, переключает fuelCycle,
// продвигает счётчик диагностики mod 10.
//
// Возвращает новое значение fuelCycle и признак, что счётчик диагностики
// обнулился (пора печатать). Принудительный перевод режима в калибровку
// делает вызывающая сторона (склейка обработчика с машиной состояний):
// kinematics про режимы не знает, чтобы у каждого блока состояния был ровно
// один писатель.
func (s *State) OnTachEdge(now int64) (fuelCycle bool, printDue bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.primed {
		s.lastCalibAngleTime = s.calibAngleTime
		s.calibAngleTime = now

		dt := float64(s.calibAngleTime - s.lastCalibAngleTime)
		if dt <= 0 {
			dt = 1
		}
		instantaneous := DegreesPerPulse / dt
		if s.angularSpeed == 0 {
			s.angularSpeed = instantaneous
		} else {
			s.angularSpeed = EMAWeightNew*instantaneous + EMAWeightOld*s.angularSpeed
		}
	} else {
		// Первое ребро: скорости ещё нет, только метка. Оценка появится
		// со второго ребра — до этого двигатель считается стоящим.
		s.primed = true
		s.lastCalibAngleTime = now - 1
		s.calibAngleTime = now
	}

	s.fuelCycle = !s.fuelCycle
	s.printCount = (s.printCount + 1) % serialPrintPeriod

	return s.fuelCycle, s.printCount == 0
}

// CurrentAngle возвращает оценку текущего угла двигателя для момента now
// (мкс), свёрнутую в [0,360): (now-calibAngleTime)*angularSpeed + calibAngle.
func (s *State) CurrentAngle(now int64) float64 {
	s.mu.Lock()
	angle := float64(now-s.calibAngleTime)*s.angularSpeed + s.calibAngle
	s.mu.Unlock()

	return mod360(angle)
}

func mod360(angle float64) float64 {
	for angle >= 360 {
		angle -= 360
	}
	for angle < 0 {
		angle += 360
	}
	return angle
}

// AngularSpeed возвращает текущую отфильтрованную угловую скорость,
// градусы/мкс.
func (s *State) AngularSpeed() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.angularSpeed
}

// RPM возвращает текущую скорость в об/мин.
func (s *State) RPM() float64 {
	return RPMFromAngularSpeed(s.AngularSpeed())
}

// FuelCycle возвращает текущий бит чётности впрыска.
func (s *State) FuelCycle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fuelCycle
}
