package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
)

type crumbKind string

const (
	crumbKeyboard   crumbKind = "keyboard"
	crumbMouse      crumbKind = "mouse"
	crumbNavigation crumbKind = "navigation"
	crumbRPC        crumbKind = "rpc"
)

type crumb struct {
	kind crumbKind
	msg  string
	data map[string]interface{}
	at   time.Time
	lvl  sentry.Level
}

// BreadcrumbBuffer keeps the most recent interaction events so error reports
// carry the lead-up. Consecutive identical events collapse at flush time, so
// holding an arrow key does not wipe out the interesting history.
type BreadcrumbBuffer struct {
	mu     sync.Mutex
	crumbs []crumb
	max    int
}

func NewBreadcrumbBuffer(max int) *BreadcrumbBuffer {
	return &BreadcrumbBuffer{max: max}
}

func (b *BreadcrumbBuffer) add(c crumb) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.crumbs = append(b.crumbs, c)
	if len(b.crumbs) > b.max {
		b.crumbs = b.crumbs[len(b.crumbs)-b.max:]
	}
}

// RecordKeyboard records a key press outside of edit mode.
func (b *BreadcrumbBuffer) RecordKeyboard(key string, modifiers string) {
	b.add(crumb{
		kind: crumbKeyboard,
		msg:  "Key: " + modifiers + key,
		at:   time.Now(),
		lvl:  sentry.LevelDebug,
		data: map[string]interface{}{"key": key, "modifiers": modifiers},
	})
}

// RecordMouse records a mouse action on the grid.
func (b *BreadcrumbBuffer) RecordMouse(action string) {
	b.add(crumb{
		kind: crumbMouse,
		msg:  "Mouse: " + action,
		at:   time.Now(),
		lvl:  sentry.LevelDebug,
		data: map[string]interface{}{"action": action},
	})
}

// RecordNavigation records a mode or table change.
func (b *BreadcrumbBuffer) RecordNavigation(mode string, description string) {
	b.add(crumb{
		kind: crumbNavigation,
		msg:  fmt.Sprintf("Navigation: %s - %s", mode, description),
		at:   time.Now(),
		lvl:  sentry.LevelInfo,
		data: map[string]interface{}{"mode": mode, "description": description},
	})
}

// RecordRPC records a call against the base service.
func (b *BreadcrumbBuffer) RecordRPC(procedure string) {
	b.add(crumb{
		kind: crumbRPC,
		msg:  "RPC: " + procedure,
		at:   time.Now(),
		lvl:  sentry.LevelInfo,
		data: map[string]interface{}{"procedure": procedure},
	})
}

// Flush pushes the buffered events onto the Sentry scope and empties the
// buffer. Runs of identical events become one breadcrumb with a count.
func (b *BreadcrumbBuffer) Flush() {
	b.mu.Lock()
	crumbs := b.crumbs
	b.crumbs = nil
	b.mu.Unlock()

	if len(crumbs) == 0 {
		return
	}

	var out []*sentry.Breadcrumb
	for i := 0; i < len(crumbs); {
		c := crumbs[i]
		n := 1
		for i+n < len(crumbs) && crumbs[i+n].kind == c.kind && crumbs[i+n].msg == c.msg {
			n++
		}

		msg, data := c.msg, c.data
		if n > 1 {
			msg = fmt.Sprintf("%s (x%d)", c.msg, n)
			data = map[string]interface{}{"count": n}
			for k, v := range c.data {
				data[k] = v
			}
		}
		out = append(out, &sentry.Breadcrumb{
			Message:   msg,
			Category:  string(c.kind),
			Data:      data,
			Timestamp: c.at,
			Level:     c.lvl,
		})
		i += n
	}

	sentry.ConfigureScope(func(scope *sentry.Scope) {
		for _, bc := range out {
			scope.AddBreadcrumb(bc, 100)
		}
	})
}

var breadcrumbs *BreadcrumbBuffer

func InitBreadcrumbs(max int) {
	breadcrumbs = NewBreadcrumbBuffer(max)
}
