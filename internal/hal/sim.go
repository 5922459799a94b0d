package hal

import "sync"

// SimClock — виртуальные часы для тестов и режима -sim: время продвигается
// только вызовом Advance, по дороге в порядке дедлайнов срабатывают
// взведённые SimTimer. Порядок событий полностью детерминирован, сон по
// настенным часам не нужен.
type SimClock struct {
	mu     sync.Mutex
	nowUs  int64
	timers []*SimTimer
}

// NewSimClock создаёт виртуальные часы с t = 0.
func NewSimClock() *SimClock {
	return &SimClock{}
}

// NowMicros возвращает текущее виртуальное время в микросекундах.
func (c *SimClock) NowMicros() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nowUs
}

// NewTimer создаёт таймер, привязанный к этим часам.
func (c *SimClock) NewTimer() *SimTimer {
	t := &SimTimer{clock: c}
	c.mu.Lock()
	c.timers = append(c.timers, t)
	c.mu.Unlock()
	return t
}

// Advance продвигает время на us микросекунд вперёд. Таймеры с дедлайном
// внутри окна срабатывают в порядке дедлайнов; обработчик видит NowMicros,
// равный своему дедлайну, и может перевзводить таймеры (взведение разряда из
// обработчика заряда).
func (c *SimClock) Advance(us int64) {
	c.mu.Lock()
	target := c.nowUs + us
	for {
		var next *SimTimer
		for _, t := range c.timers {
			if !t.armed || t.deadline > target {
				continue
			}
			if next == nil || t.deadline < next.deadline {
				next = t
			}
		}
		if next == nil {
			break
		}
		c.nowUs = next.deadline
		next.armed = false
		fn := next.fn
		// Обработчик зовём без блокировки: он может читать часы и
		// взводить таймеры.
		c.mu.Unlock()
		if fn != nil {
			fn()
		}
		c.mu.Lock()
	}
	c.nowUs = target
	c.mu.Unlock()
}

// AdvanceTo продвигает время до абсолютной метки us (не назад).
func (c *SimClock) AdvanceTo(us int64) {
	now := c.NowMicros()
	if us > now {
		c.Advance(us - now)
	}
}

// SimTimer — одновибратор на виртуальных часах. Поля armed/deadline защищены
// мьютексом часов: срабатывание и перевзвод сериализованы Advance'ом.
type SimTimer struct {
	clock    *SimClock
	armed    bool
	deadline int64
	fn       func()
}

// AttachInterrupt задаёт обработчик срабатывания.
func (t *SimTimer) AttachInterrupt(fn func()) {
	t.clock.mu.Lock()
	t.fn = fn
	t.clock.mu.Unlock()
}

// Start взводит таймер через delayUs микросекунд виртуального времени.
func (t *SimTimer) Start(delayUs int64) error {
	t.clock.mu.Lock()
	t.armed = true
	t.deadline = t.clock.nowUs + delayUs
	t.clock.mu.Unlock()
	return nil
}

// Stop снимает таймер.
func (t *SimTimer) Stop() {
	t.clock.mu.Lock()
	t.armed = false
	t.clock.mu.Unlock()
}

// Armed сообщает, взведён ли таймер (для тестов).
func (t *SimTimer) Armed() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	return t.armed
}

// PinEvent — одно переключение симулированного выхода.
type PinEvent struct {
	AtUs  int64
	Level bool
}

// Pulse — один завершённый импульс (выход был HIGH от StartUs до EndUs).
type Pulse struct {
	StartUs int64
	EndUs   int64
}

// SimPin — дискретный выход с записью истории переключений; тесты судят о
// поведении ECU по этой истории (длительность dwell, длительность впрыска,
// отсутствие импульсов).
type SimPin struct {
	mu      sync.Mutex
	clock   *SimClock
	level   bool
	history []PinEvent
}

// NewSimPin создаёт выход в состоянии LOW.
func NewSimPin(clock *SimClock) *SimPin {
	return &SimPin{clock: clock}
}

// Set выставляет уровень и записывает переключение с текущей виртуальной
// меткой времени. Повторная установка того же уровня историю не засоряет.
func (p *SimPin) Set(level bool) error {
	now := p.clock.NowMicros()
	p.mu.Lock()
	if level != p.level || len(p.history) == 0 {
		p.history = append(p.history, PinEvent{AtUs: now, Level: level})
	}
	p.level = level
	p.mu.Unlock()
	return nil
}

// Level возвращает текущий уровень выхода.
func (p *SimPin) Level() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

// History возвращает копию истории переключений.
func (p *SimPin) History() []PinEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]PinEvent(nil), p.history...)
}

// Pulses собирает из истории завершённые импульсы HIGH→LOW.
func (p *SimPin) Pulses() []Pulse {
	events := p.History()
	var pulses []Pulse
	var start int64
	high := false
	for _, e := range events {
		if e.Level && !high {
			high = true
			start = e.AtUs
		} else if !e.Level && high {
			high = false
			pulses = append(pulses, Pulse{StartUs: start, EndUs: e.AtUs})
		}
	}
	return pulses
}

// SimADC — АЦП для тестов: канал → заданный отсчёт.
type SimADC struct {
	mu     sync.Mutex
	counts map[int]uint16
}

// NewSimADC создаёт АЦП с нулевыми отсчётами.
func NewSimADC() *SimADC {
	return &SimADC{counts: make(map[int]uint16)}
}

// SetCount задаёт отсчёт канала.
func (a *SimADC) SetCount(channel int, count uint16) {
	a.mu.Lock()
	a.counts[channel] = count
	a.mu.Unlock()
}

// Read возвращает заданный отсчёт канала (0, если не задан).
func (a *SimADC) Read(channel int) (uint16, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.counts[channel], nil
}
