package sim

import "github.com/sirupsen/logrus"

// AlarmPriority ranks an alarm for operator attention.
type AlarmPriority string

const (
	PriorityCritical AlarmPriority = "critical"
	PriorityHigh     AlarmPriority = "high"
	PriorityMedium   AlarmPriority = "medium"
	PriorityLow      AlarmPriority = "low"
)

// AlarmState follows the usual annunciator lifecycle: an alarm is raised
// unacknowledged, the operator acknowledges it, and it clears once the
// condition returns to normal. Acknowledge and return-to-normal commute.
type AlarmState string

const (
	AlarmUnackedActive AlarmState = "unacknowledged-active"
	AlarmAckedActive   AlarmState = "acknowledged-active"
	AlarmUnackedReturn AlarmState = "unacknowledged-return"
	AlarmShelved       AlarmState = "shelved"
	AlarmCleared       AlarmState = "cleared"
)

// Alarm is one annunciator entry. IDs come from a monotonic counter so runs
// replay identically regardless of wall-clock time.
type Alarm struct {
	ID       uint64
	Tag      string // equipment or loop the alarm is about
	Code     string // condition key, e.g. LVL-HIHI
	Priority AlarmPriority
	State    AlarmState
	AtSim    float64 // simulation seconds when raised
	Message  string
	Value    float64 // reading that tripped the alarm, 0 if not applicable
	Limit    float64 // limit it tripped against, 0 if not applicable
}

// alarmHistoryCap bounds the retained history; oldest entries fall off.
const alarmHistoryCap = 100

// alarmLog owns alarm identity, the active set, and the capped history.
// An alarm is active while its condition persists; raising the same
// tag+code again while active is a no-op, which makes every alarm source
// edge-triggered for free.
type alarmLog struct {
	nextID  uint64
	history []Alarm           // most-recent-first, len <= alarmHistoryCap
	active  map[string]uint64 // tag+code -> alarm ID
	raised  int               // total raised over the run
}

func newAlarmLog() *alarmLog {
	return &alarmLog{
		nextID: 1,
		active: make(map[string]uint64),
	}
}

func alarmKey(tag, code string) string {
	return tag + "/" + code
}

// raise creates a new alarm unless the same tag+code is already active.
// Returns the alarm ID, or 0 when suppressed as a duplicate.
func (l *alarmLog) raise(atSim float64, tag, code string, prio AlarmPriority, msg string, value, limit float64) uint64 {
	key := alarmKey(tag, code)
	if _, ok := l.active[key]; ok {
		return 0
	}
	a := Alarm{
		ID:       l.nextID,
		Tag:      tag,
		Code:     code,
		Priority: prio,
		State:    AlarmUnackedActive,
		AtSim:    atSim,
		Message:  msg,
		Value:    value,
		Limit:    limit,
	}
	l.nextID++
	l.raised++
	l.active[key] = a.ID

	l.history = append([]Alarm{a}, l.history...)
	if len(l.history) > alarmHistoryCap {
		l.history = l.history[:alarmHistoryCap]
	}
	logrus.Warnf("[alarm %d] %s %s: %s", a.ID, tag, code, msg)
	return a.ID
}

// returned marks the condition behind tag+code as back to normal. An
// acknowledged alarm clears; an unacknowledged one stays on the annunciator
// as unacknowledged-return until the operator acknowledges it.
func (l *alarmLog) returned(tag, code string) {
	key := alarmKey(tag, code)
	id, ok := l.active[key]
	if !ok {
		return
	}
	a := l.find(id)
	if a == nil {
		delete(l.active, key)
		return
	}
	switch a.State {
	case AlarmAckedActive, AlarmShelved:
		a.State = AlarmCleared
		delete(l.active, key)
	case AlarmUnackedActive:
		a.State = AlarmUnackedReturn
	}
}

// acknowledge transitions the alarm with the given ID. Returns false for
// unknown IDs or alarms that cannot be acknowledged from their state.
func (l *alarmLog) acknowledge(id uint64) bool {
	a := l.find(id)
	if a == nil {
		logrus.Warnf("acknowledge: no alarm with ID %d", id)
		return false
	}
	switch a.State {
	case AlarmUnackedActive:
		a.State = AlarmAckedActive
		return true
	case AlarmUnackedReturn:
		a.State = AlarmCleared
		delete(l.active, alarmKey(a.Tag, a.Code))
		return true
	}
	return false
}

// shelve parks an active alarm so it stops demanding attention. The
// condition stays tracked: a shelved alarm still clears on return.
func (l *alarmLog) shelve(id uint64) bool {
	a := l.find(id)
	if a == nil {
		logrus.Warnf("shelve: no alarm with ID %d", id)
		return false
	}
	switch a.State {
	case AlarmUnackedActive, AlarmAckedActive:
		a.State = AlarmShelved
		return true
	}
	return false
}

// find locates an alarm by ID in the retained history.
func (l *alarmLog) find(id uint64) *Alarm {
	for i := range l.history {
		if l.history[i].ID == id {
			return &l.history[i]
		}
	}
	return nil
}

// snapshot returns a copy of the history, most recent first.
func (l *alarmLog) snapshot() []Alarm {
	out := make([]Alarm, len(l.history))
	copy(out, l.history)
	return out
}
