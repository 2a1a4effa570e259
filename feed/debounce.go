package feed

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of timeline changes into emissions at most once
// per interval. Under relay load inserts can land many times a second; the
// presentation layer should only be woken once per window, with a complete
// snapshot taken at emission time.
type Debouncer struct {
	interval time.Duration
	emit     func()
	kick     chan struct{}
	done     chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

// NewDebouncer starts a debouncer that calls emit no sooner than interval
// after the first Notify of a burst. emit runs on the debouncer's own
// goroutine, never concurrently with itself.
func NewDebouncer(interval time.Duration, emit func()) *Debouncer {
	d := &Debouncer{
		interval: interval,
		emit:     emit,
		kick:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}

	d.wg.Add(1)
	go d.run()
	return d
}

// Notify records that the timeline changed. Never blocks; notifications
// within one window coalesce into a single emission.
func (d *Debouncer) Notify() {
	select {
	case d.kick <- struct{}{}:
	default:
	}
}

// Close stops the debouncer, flushing one final emission if a window was
// still open. Idempotent.
func (d *Debouncer) Close() {
	d.once.Do(func() {
		close(d.done)
	})
	d.wg.Wait()
}

func (d *Debouncer) run() {
	defer d.wg.Done()

	var timer *time.Timer
	var fire <-chan time.Time
	pending := false

	for {
		select {
		case <-d.kick:
			if !pending {
				pending = true
				timer = time.NewTimer(d.interval)
				fire = timer.C
			}
		case <-fire:
			pending = false
			fire = nil
			d.emit()
		case <-d.done:
			if timer != nil {
				timer.Stop()
			}
			if pending {
				d.emit()
			}
			return
		}
	}
}
