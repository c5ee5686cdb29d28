// Package dispatch routes graph change events to the nodes that care about
// them.
//
// # Hook order
//
// For every event, each live node is visited once (the origin node first,
// then the others in creation order) and its Hooks record is consulted in a
// fixed order:
//
//	1. self      origin == node                     OnCreateSelf, OnChangeSelf, OnMoveSelf
//	2. root      origin == node's cached root ≠ node OnChangeRoot, OnMoveRoot
//	3. observed  origin ∈ node's watch-list         OnChangeObserved, OnDeleteObserved
//	4. child     move from or into the node         OnMoveChild
//	5. generic   every event of the type            OnChange, OnMove, OnDelete, OnFinishedLoading
//
// After move, delete and finishedLoading events every live node recomputes
// its structural root and OnRootChanged fires once for each node whose root
// moved.
//
// # Queue
//
// Dispatch is synchronous. Events raised while a pass is running (by hooks,
// or by graph primitives the hooks call) are queued and processed after the
// current event, in the same pass, carrying the current event's group id.
// Work scheduled with Defer runs once the queue is empty; whatever events it
// raises are drained before Dispatch returns. A pass is bounded by MaxEvents
// so that a hook cascade that never settles is cut off instead of spinning.
package dispatch
