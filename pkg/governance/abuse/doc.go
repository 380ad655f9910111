// Package abuse detects repeated rate-limit violations and escalates them
// into temporary blocks.
//
// # Escalation
//
// Every denial for a (principal, operation type) pair lands in a rolling
// one-hour violation log. When the pruned log reaches the violation threshold
// (5 by default), a block is created for min(count x 60s, 1h): escalation is
// linear in the number of recent violations and capped at one hour.
//
// Blocks are scoped per operation type, never global, so abuse of one
// operation does not penalize unrelated ones. Expired blocks are removed
// lazily on the next IsBlocked call and by the periodic cleanup sweep.
//
// Creating a block (not each violation) emits an auditable event through the
// configured OnBlock hook.
package abuse
