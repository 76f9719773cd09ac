package usecase

import (
	"strconv"
	"sync/atomic"
	"time"
)

// ReferenceGenerator hands out {prefix}-{unix millis} references. When two
// calls land in the same millisecond the later one is bumped forward, so
// references never repeat within the process.
type ReferenceGenerator struct {
	prefix string
	last   atomic.Int64
	now    func() time.Time
}

func NewReferenceGenerator(prefix string, now func() time.Time) *ReferenceGenerator {
	if now == nil {
		now = time.Now
	}
	return &ReferenceGenerator{prefix: prefix, now: now}
}

func (g *ReferenceGenerator) Next() string {
	for {
		last := g.last.Load()
		next := g.now().UnixMilli()
		if next <= last {
			next = last + 1
		}
		if g.last.CompareAndSwap(last, next) {
			return g.prefix + "-" + strconv.FormatInt(next, 10)
		}
	}
}
