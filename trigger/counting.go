package trigger

import (
	"sort"

	"github.com/arrowpipe/flowcore/key"
)

// CountingTrigger fires a key the Nth time it is observed since it was last
// emitted (or since the trigger was created, if never emitted). After
// firing, its counter resets to zero.
type CountingTrigger struct {
	n      int64
	counts map[string]int64
	ready  map[string]key.GroupKey
}

// NewCountingTrigger builds a CountingTrigger that fires a key on its nth
// observation since last emission. n must be positive.
func NewCountingTrigger(n int64) *CountingTrigger {
	return &CountingTrigger{
		n:      n,
		counts: make(map[string]int64),
		ready:  make(map[string]key.GroupKey),
	}
}

func (t *CountingTrigger) KeysReceived(keys []key.GroupKey) {
	for _, k := range keys {
		enc := k.Encode()
		t.counts[enc]++
		if t.counts[enc] == t.n {
			t.counts[enc] = 0
			t.ready[enc] = k
		}
	}
}

// Poll returns the ready keys in their encoded-key sorted order, a
// deterministic function of the input sequence, and clears the ready set.
func (t *CountingTrigger) Poll() []key.GroupKey {
	if len(t.ready) == 0 {
		return nil
	}
	encs := make([]string, 0, len(t.ready))
	for enc := range t.ready {
		encs = append(encs, enc)
	}
	sort.Strings(encs)
	out := make([]key.GroupKey, len(encs))
	for i, enc := range encs {
		out[i] = t.ready[enc]
	}
	t.ready = make(map[string]key.GroupKey)
	return out
}
