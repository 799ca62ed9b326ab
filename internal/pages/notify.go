package pages

import (
	"sync"

	"fleetdash/internal/logs"
	"fleetdash/internal/models"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notifier shows short outcome messages (toasts).
type Notifier interface {
	Success(msg string)
	Error(msg string)
	Info(msg string)
}

type Notice struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Recorder collects notices in order.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *Recorder) add(l Level, msg string) {
	r.mu.Lock()
	r.notices = append(r.notices, Notice{l, msg})
	r.mu.Unlock()
}

func (r *Recorder) Success(msg string) { r.add(LevelSuccess, msg) }
func (r *Recorder) Error(msg string)   { r.add(LevelError, msg) }
func (r *Recorder) Info(msg string)    { r.add(LevelInfo, msg) }

// Drain returns and clears the recorded notices.
func (r *Recorder) Drain() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.notices
	r.notices = nil
	return out
}

// Last is the latest notice, or a zero Notice.
func (r *Recorder) Last() Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return Notice{}
	}
	return r.notices[len(r.notices)-1]
}

// LogNotifier writes notices to the pages logger.
type LogNotifier struct{}

func (LogNotifier) Success(msg string) { logs.Component("notify").Info(msg) }
func (LogNotifier) Error(msg string)   { logs.Component("notify").Error(msg) }
func (LogNotifier) Info(msg string)    { logs.Component("notify").Info(msg) }

// Confirmer asks the user before destructive actions.
type Confirmer interface {
	Confirm(prompt string) bool
}

type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

type AlwaysConfirm struct{}

func (AlwaysConfirm) Confirm(string) bool { return true }

// Selection is the set of checked device rows, in check order.
type Selection struct {
	mu    sync.Mutex
	order []models.DeviceID
	set   map[models.DeviceID]struct{}
}

func NewSelection(ids ...models.DeviceID) *Selection {
	s := &Selection{set: map[models.DeviceID]struct{}{}}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func (s *Selection) Add(id models.DeviceID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.set[id]; ok {
		return
	}
	s.set[id] = struct{}{}
	s.order = append(s.order, id)
}

func (s *Selection) Remove(id models.DeviceID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.set[id]; !ok {
		return
	}
	delete(s.set, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Toggle flips id and reports whether it is now selected.
func (s *Selection) Toggle(id models.DeviceID) bool {
	if s.Has(id) {
		s.Remove(id)
		return false
	}
	s.Add(id)
	return true
}

func (s *Selection) Has(id models.DeviceID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.set[id]
	return ok
}

// SelectAll replaces the selection with every device in list, or clears it
// when all of them are already selected.
func (s *Selection) SelectAll(list []models.Device) {
	all := true
	for _, d := range list {
		if !s.Has(d.ID) {
			all = false
			break
		}
	}
	s.Clear()
	if all {
		return
	}
	for _, d := range list {
		s.Add(d.ID)
	}
}

func (s *Selection) Clear() {
	s.mu.Lock()
	s.order = nil
	s.set = map[models.DeviceID]struct{}{}
	s.mu.Unlock()
}

func (s *Selection) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

func (s *Selection) IDs() []models.DeviceID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.DeviceID(nil), s.order...)
}

// Tee sends every notice to all of ns.
type Tee []Notifier

func (t Tee) Success(msg string) {
	for _, n := range t {
		n.Success(msg)
	}
}

func (t Tee) Error(msg string) {
	for _, n := range t {
		n.Error(msg)
	}
}

func (t Tee) Info(msg string) {
	for _, n := range t {
		n.Info(msg)
	}
}
