package app

import (
	"log"
	"sync"
	"time"
)

// Intervals groups the timer cadences so tests can shrink them.
type Intervals struct {
	StatusPoll time.Duration // subscription-status refresh
	NotifyPoll time.Duration // emergency-notification check
	Retransmit time.Duration // active-alert re-POST
	AlarmTone  time.Duration // alarm tone alternation
	AlarmMax   time.Duration // alarm auto-stop cap
}

// DefaultIntervals returns the production cadences.
func DefaultIntervals() Intervals {
	return Intervals{
		StatusPoll: 30 * time.Minute,
		NotifyPoll: 10 * time.Second,
		Retransmit: 5 * time.Second,
		AlarmTone:  500 * time.Millisecond,
		AlarmMax:   30 * time.Second,
	}
}

// App wires the API client, the state store and the background loops
// together. All exported methods are safe for concurrent use.
type App struct {
	API       *APIClient
	Store     *Store
	Tokens    TokenStore
	Sounder   Sounder
	Intervals Intervals
	Logger    *log.Logger
}

// New builds an app with production intervals. tokens and sounder may
// be nil; nil disables token persistence and alarm audio respectively.
func New(api *APIClient, tokens TokenStore, sounder Sounder, logger *log.Logger) *App {
	if logger == nil {
		logger = log.Default()
	}
	return &App{
		API:       api,
		Store:     NewStore(),
		Tokens:    tokens,
		Sounder:   sounder,
		Intervals: DefaultIntervals(),
		Logger:    logger,
	}
}

// startLoop runs tick on every cadence until the returned handle is
// called. The handle is idempotent.
func startLoop(d time.Duration, tick func()) stopFn {
	done := make(chan struct{})
	go func() {
		t := time.NewTicker(d)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				tick()
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}
