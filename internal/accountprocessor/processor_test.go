package accountprocessor

import (
	"fmt"
	"sync"
	"testing"

	"github.com/z0z0r4/bilibili-api/logger"
)

func init() {
	logger.Init("error", false)
}

func TestAddIgnoresDuplicatesAndEmpty(t *testing.T) {
	p := New()
	p.Add("a")
	p.Add("a")
	p.Add("")
	p.Add("b")
	if p.Total != 2 {
		t.Errorf("Total = %d, want 2", p.Total)
	}
}

func TestMarkValidAndInvalid(t *testing.T) {
	p := New()
	p.Add("a")
	p.Add("b")
	p.Add("c")

	p.MarkProcessing("a")
	p.MarkValid("a")
	p.MarkProcessing("b")
	p.MarkInvalid("b")

	s := p.Snapshot()
	if s.Valid != 1 || s.Invalid != 1 || s.Pending != 1 || s.InProgress != 0 {
		t.Errorf("snapshot = %+v", s)
	}
	if !p.IsValid("a") || p.IsValid("b") || p.IsValid("c") {
		t.Error("IsValid answers are wrong")
	}
}

func TestRetryFlipsInvalidToValid(t *testing.T) {
	p := New()
	p.Add("a")
	p.MarkInvalid("a")
	p.MarkValid("a")

	s := p.Snapshot()
	if s.Valid != 1 || s.Invalid != 0 {
		t.Errorf("snapshot = %+v", s)
	}
}

func TestInvalidDoesNotOverrideValid(t *testing.T) {
	p := New()
	p.Add("a")
	p.MarkValid("a")
	p.MarkInvalid("a")

	s := p.Snapshot()
	if s.Valid != 1 || s.Invalid != 0 {
		t.Errorf("snapshot = %+v", s)
	}
}

func TestDoubleMarkCountsOnce(t *testing.T) {
	p := New()
	p.Add("a")
	p.MarkValid("a")
	p.MarkValid("a")
	p.Add("b")
	p.MarkInvalid("b")
	p.MarkInvalid("b")

	s := p.Snapshot()
	if s.Valid != 1 || s.Invalid != 1 {
		t.Errorf("snapshot = %+v", s)
	}
}

func TestMarkProcessingAdmitsUnknown(t *testing.T) {
	p := New()
	p.MarkProcessing("late")
	s := p.Snapshot()
	if s.Total != 1 || s.InProgress != 1 {
		t.Errorf("snapshot = %+v", s)
	}
}

func TestConcurrentWorkers(t *testing.T) {
	p := New()
	const n = 100
	for i := 0; i < n; i++ {
		p.Add(fmt.Sprintf("acc-%d", i))
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			acc := fmt.Sprintf("acc-%d", i)
			p.MarkProcessing(acc)
			if i%2 == 0 {
				p.MarkValid(acc)
			} else {
				p.MarkInvalid(acc)
			}
		}(i)
	}
	wg.Wait()

	s := p.Snapshot()
	if s.Total != n || s.Valid != n/2 || s.Invalid != n/2 || s.InProgress != 0 || s.Pending != 0 {
		t.Errorf("snapshot = %+v", s)
	}
}
