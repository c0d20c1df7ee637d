// Package dispatch implements blastbot's delivery core: round-based
// iteration over a fixed destination list, per-destination delivery with
// structured failure classification, flood-control pauses, and an
// endlessly resumable loop.
//
// Concepts
//
// One round is a single ordered pass over the destination list. A round
// either completes, or pauses early the moment the remote signals flood
// control; paused rounds resume from destination zero on the next pass.
//
// Delivery semantics
//
// Per-destination failures never abort a round: they are classified,
// reported to the audit channel, and folded into counters. The only way
// the loop stops is context cancellation.
package dispatch
