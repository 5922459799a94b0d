// Package safety — защитный надзор: защёлка killswitch, гистерезисная
// отсечка оборотов и безопасное состояние выходов. Killswitch пишет его
// обработчик фронта, отсечку — главный цикл; чтение обеих сторон — под
// мьютексом.
package safety

import (
	"sync"

	"github.com/vlabs/gx35ecu/internal/hal"
	"github.com/vlabs/gx35ecu/internal/mode"
)

// Supervisor — состояние надзора.
type Supervisor struct {
	mu         sync.Mutex
	killswitch bool // защёлкнутый уровень входа killswitch
	revLimit   bool // активная отсечка оборотов
}

// New создаёт Supervisor. Killswitch стартует выключенным: пока обработчик
// не защёлкнул реальный уровень входа, события не взводятся.
func New() *Supervisor {
	return &Supervisor{}
}

// OnKillswitchEdge — тело обработчика фронта killswitch: защёлкивает
// текущий уровень входа. Единственный писатель поля.
func (s *Supervisor) OnKillswitchEdge(level bool) {
	s.mu.Lock()
	s.killswitch = level
	s.mu.Unlock()
}

// Killswitch возвращает защёлкнутый уровень.
func (s *Supervisor) Killswitch() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.killswitch
}

// RevLimit возвращает состояние отсечки.
func (s *Supervisor) RevLimit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revLimit
}

// SetRevLimit записывает состояние отсечки (пишет только главный цикл, по
// результату mode.Decide).
func (s *Supervisor) SetRevLimit(active bool) {
	s.mu.Lock()
	s.revLimit = active
	s.mu.Unlock()
}

// Engageable сообщает, можно ли в данном режиме взводить топливо и искру:
// режим рабочий, killswitch включён, отсечка не активна. Уже взведённая
// пара таймеров при сбросе killswitch доигрывает текущий импульс — новые
// просто не взводятся.
func (s *Supervisor) Engageable(m mode.Mode) bool {
	if !m.Engaged() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.killswitch && !s.revLimit
}

// ForceOutputsLow прижимает все выходы к LOW. Вызывается на старте до
// разрешения прерываний и при фатальной остановке; возвращает первую ошибку.
func ForceOutputsLow(pins ...hal.OutputPin) error {
	var first error
	for _, p := range pins {
		if p == nil {
			continue
		}
		if err := p.Set(false); err != nil && first == nil {
			first = err
		}
	}
	return first
}
