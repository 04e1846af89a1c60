package usecase

import (
	"runtime"
	"sync"
	"weak"

	"golang.org/x/net/html"

	"github.com/ecoswap/backend/internal/dom"
)

// BypassTable records which controls may complete their next commit action
// without interception. Entries are keyed by a weak reference to the
// control's node, so a control that leaves the page and is collected takes
// its entry with it. A node keeps its entry after the bypass is consumed;
// the collection cleanup is registered once per node.
type BypassTable struct {
	mu sync.Mutex
	// armed maps every node seen by Arm to whether it holds a bypass.
	armed map[weak.Pointer[html.Node]]bool
}

// NewBypassTable creates an empty table.
func NewBypassTable() *BypassTable {
	return &BypassTable{armed: make(map[weak.Pointer[html.Node]]bool)}
}

// Arm grants control a single bypass. Arming an armed control is a no-op.
func (b *BypassTable) Arm(control dom.Element) {
	n := control.Node()
	if n == nil {
		return
	}
	key := weak.Make(n)

	b.mu.Lock()
	defer b.mu.Unlock()
	armed, known := b.armed[key]
	if armed {
		return
	}
	b.armed[key] = true
	if !known {
		runtime.AddCleanup(n, b.drop, key)
	}
}

// Consume reports whether control held a bypass and removes it.
func (b *BypassTable) Consume(control dom.Element) bool {
	n := control.Node()
	if n == nil {
		return false
	}
	key := weak.Make(n)

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.armed[key] {
		return false
	}
	b.armed[key] = false
	return true
}

// Armed reports whether control currently holds a bypass.
func (b *BypassTable) Armed(control dom.Element) bool {
	n := control.Node()
	if n == nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.armed[weak.Make(n)]
}

// Len returns the number of outstanding bypasses.
func (b *BypassTable) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	count := 0
	for _, armed := range b.armed {
		if armed {
			count++
		}
	}
	return count
}

// tracked returns the number of nodes with a registered cleanup.
func (b *BypassTable) tracked() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.armed)
}

func (b *BypassTable) drop(key weak.Pointer[html.Node]) {
	b.mu.Lock()
	delete(b.armed, key)
	b.mu.Unlock()
}
