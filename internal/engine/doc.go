// Package engine implements the workout timer runtime.
//
// The runtime walks a compiled statement forest one block at a time. It has
// no timer of its own: a driver calls Runtime.Tick at a fixed cadence with
// the events collected since the previous cycle plus a synthetic tick.
//
// ARCHITECTURE:
//
// Single-Writer Cycle:
// Exactly one Tick runs at a time and there is no internal locking. This
// gives:
//   - Predictable handler evaluation order
//   - Reproducible results when a journal of input batches is replayed
//   - Simple reasoning about navigation
//
// Cycle Processing Flow:
//  1. Each event in the batch is routed to the current Block
//  2. The first handler whose event name matches returns actions
//  3. Actions are applied in order; they may navigate, record timer
//     events, set buttons, or return follow-up events
//  4. After the batch, changed outputs are published to listeners
//
// Follow-up events are NEVER reprocessed in the same cycle. They are
// returned to the driver and become part of the next cycle's input. Making
// them immediate would change observable timing.
//
// Scheduling:
// Navigation (GotoBlock) uses per-node visit counters kept in Trace. A
// composite node with r rounds and k children is exhausted after r*k
// visits; children are picked round-robin by count mod k.
//
// Durations are always computed from event timestamps against the "now"
// sampled for the cycle, never from counted intervals, so a late cycle
// corrects itself.
package engine
