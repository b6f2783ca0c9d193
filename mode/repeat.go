// seehuhn.de/go/pageedit - a page review and redaction editor
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package mode

import (
	"sync"
	"time"
)

// Repeater calls functions periodically while keys are held.
type Repeater struct {
	interval time.Duration

	mu      sync.Mutex
	running map[string]*repeat
}

type repeat struct {
	stop chan struct{}
	done chan struct{}
}

// NewRepeater returns a Repeater with the given period.
func NewRepeater(interval time.Duration) *Repeater {
	return &Repeater{
		interval: interval,
		running:  make(map[string]*repeat),
	}
}

// Start calls fn every interval until Stop is called for key.
// If a repeat for key is already running, Start does nothing.
func (r *Repeater) Start(key string, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.running[key]; ok {
		return
	}
	rp := &repeat{stop: make(chan struct{}), done: make(chan struct{})}
	r.running[key] = rp

	go func() {
		defer close(rp.done)
		t := time.NewTicker(r.interval)
		defer t.Stop()
		for {
			select {
			case <-rp.stop:
				return
			case <-t.C:
				fn()
			}
		}
	}()
}

// Stop ends the repeat for key. When Stop returns, fn is not running and
// will not be called again. Stop reports whether a repeat was running.
func (r *Repeater) Stop(key string) bool {
	r.mu.Lock()
	rp, ok := r.running[key]
	delete(r.running, key)
	r.mu.Unlock()
	if !ok {
		return false
	}
	close(rp.stop)
	<-rp.done
	return true
}

// Running reports whether a repeat for key is active.
func (r *Repeater) Running(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.running[key]
	return ok
}

// Len returns the number of active repeats.
func (r *Repeater) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.running)
}

// Close stops all repeats.
func (r *Repeater) Close() {
	r.mu.Lock()
	all := r.running
	r.running = make(map[string]*repeat)
	r.mu.Unlock()

	for _, rp := range all {
		close(rp.stop)
		<-rp.done
	}
}
