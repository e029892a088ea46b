// Package accountprocessor keeps accurate counts while credentials are
// checked concurrently: which accounts are queued, in flight, valid, or
// invalid, without double counting when a worker retries.
package accountprocessor

import (
	"sync"
	"time"

	"github.com/z0z0r4/bilibili-api/logger"
)

// Processor tracks the progress of a batch credential check.
type Processor struct {
	Total   int
	Valid   int
	Invalid int

	all        map[string]bool
	inProgress map[string]time.Time
	validMap   map[string]bool
	invalidMap map[string]bool

	mu sync.Mutex
}

// New creates an empty Processor.
func New() *Processor {
	return &Processor{
		all:        make(map[string]bool),
		inProgress: make(map[string]time.Time),
		validMap:   make(map[string]bool),
		invalidMap: make(map[string]bool),
	}
}

// Add registers an account before processing starts. Duplicates are ignored.
func (p *Processor) Add(account string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if account == "" || p.all[account] {
		return
	}
	p.all[account] = true
	p.Total++
}

// MarkProcessing flags an account as in flight. Unknown accounts are
// admitted and counted so late additions do not skew the totals.
func (p *Processor) MarkProcessing(account string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.all[account] {
		p.all[account] = true
		p.Total++
		logger.Log.Warn().Str("account", account).Msg("account was not in the initial list")
	}
	p.inProgress[account] = time.Now()
}

// MarkValid records a live credential. A previous invalid mark for the same
// account is reversed instead of counted twice.
func (p *Processor) MarkValid(account string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inProgress, account)

	if p.validMap[account] {
		return
	}
	if p.invalidMap[account] {
		delete(p.invalidMap, account)
		p.Invalid--
	}
	p.validMap[account] = true
	p.Valid++
}

// MarkInvalid records a dead credential, unless the account already
// verified as valid.
func (p *Processor) MarkInvalid(account string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inProgress, account)

	if p.invalidMap[account] || p.validMap[account] {
		return
	}
	p.invalidMap[account] = true
	p.Invalid++
}

// Summary is a consistent snapshot of the counters.
type Summary struct {
	Total      int
	Valid      int
	Invalid    int
	InProgress int
	Pending    int
}

// Snapshot returns the current counters.
func (p *Processor) Snapshot() Summary {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Summary{
		Total:      p.Total,
		Valid:      p.Valid,
		Invalid:    p.Invalid,
		InProgress: len(p.inProgress),
		Pending:    p.Total - p.Valid - p.Invalid - len(p.inProgress),
	}
}

// IsValid reports whether the account verified as valid.
func (p *Processor) IsValid(account string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.validMap[account]
}
