// Package trigger defines the policy that decides which group-by keys are
// ready to be emitted, and the CountingTrigger implementation this core
// ships with.
package trigger

import "github.com/arrowpipe/flowcore/key"

// Trigger decides which keys are ready to be emitted. KeysReceived ingests
// the keys appearing in one input batch, including duplicates, in row
// order. Poll returns every key ready for emission and clears that ready
// set; an empty result means nothing to emit.
type Trigger interface {
	KeysReceived(keys []key.GroupKey)
	Poll() []key.GroupKey
}
