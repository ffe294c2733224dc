package app

import (
	"sync"
	"time"
)

// Alarm tone pair, alternated on every tick.
const (
	alarmHighHz = 880
	alarmLowHz  = 620
)

// Sounder plays the attention tone. Implementations must not block.
type Sounder interface {
	Tone(freqHz int, d time.Duration)
	Silence()
}

// StartAlarm begins the looping two-tone alarm. It auto-stops after the
// configured cap or when Dismiss-ed. Starting while already ringing is
// a no-op, so overlapping notification polls do not stack alarms.
func (a *App) StartAlarm() {
	if a.Sounder == nil {
		return
	}

	s := a.Store
	s.mu.Lock()
	if s.stopAlarm != nil {
		s.mu.Unlock()
		return
	}
	done := make(chan struct{})
	var once sync.Once
	stop := stopFn(func() { once.Do(func() { close(done) }) })
	s.stopAlarm = stop
	s.mu.Unlock()

	go func() {
		t := time.NewTicker(a.Intervals.AlarmTone)
		defer t.Stop()
		deadline := time.NewTimer(a.Intervals.AlarmMax)
		defer deadline.Stop()

		high := true
		a.Sounder.Tone(alarmHighHz, a.Intervals.AlarmTone)
		for {
			select {
			case <-done:
				a.Sounder.Silence()
				a.clearAlarmStop()
				return
			case <-deadline.C:
				a.Sounder.Silence()
				a.clearAlarmStop()
				return
			case <-t.C:
				high = !high
				if high {
					a.Sounder.Tone(alarmHighHz, a.Intervals.AlarmTone)
				} else {
					a.Sounder.Tone(alarmLowHz, a.Intervals.AlarmTone)
				}
			}
		}
	}()
}

// StopAlarm dismisses the alarm if it is ringing.
func (a *App) StopAlarm() {
	if prev := a.Store.swapStop(&a.Store.stopAlarm, nil); prev != nil {
		prev()
	}
}

// clearAlarmStop drops the handle after the alarm goroutine exits on
// its own, so the next notification can ring again.
func (a *App) clearAlarmStop() {
	a.Store.swapStop(&a.Store.stopAlarm, nil)
}
