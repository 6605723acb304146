package hibag

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// DefaultProgressInterval is the minimum time between two progress reports.
const DefaultProgressInterval = 15 * time.Second

// ProgressFunc receives the percent complete and a label.
type ProgressFunc func(percent int, label string)

// LogProgress reports progress through logrus.
func LogProgress(percent int, label string) {
	log.WithField("percent", percent).Info(label)
}

// progression counts finished units and forwards to its sink only when the
// percent changed and the interval elapsed. 100% is always reported.
type progression struct {
	mu       sync.Mutex
	label    string
	total    int
	current  int
	percent  int
	interval time.Duration
	last     time.Time
	sink     ProgressFunc
}

func newProgression(label string, total int, interval time.Duration, sink ProgressFunc) *progression {
	if total < 0 {
		total = 0
	}
	if interval <= 0 {
		interval = DefaultProgressInterval
	}
	return &progression{
		label:    label,
		total:    total,
		interval: interval,
		last:     time.Now(),
		sink:     sink,
	}
}

// Forward records step finished units.
func (p *progression) Forward(step int) {
	if p == nil || p.sink == nil || p.total == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current += step
	pct := 100 * p.current / p.total
	if pct == p.percent && pct != 100 {
		return
	}
	now := time.Now()
	if now.Sub(p.last) >= p.interval || pct == 100 {
		p.percent = pct
		p.last = now
		p.sink(pct, p.label)
	}
}
