// Package sched provides the deferred-admission priority queue.
//
// # Overview
//
// When a caller prefers deferring a denied operation over rejecting it, the
// operation can be parked here. Entries are ordered by priority (1 is
// highest) and, within a priority, by enqueue time, so equal-priority work
// drains first-in first-out.
//
// The queue never makes admission decisions itself: callers dequeue entries
// and re-run them through the governance engine. Stale entries are dropped
// by the periodic Cleanup sweep (5 minutes by default).
package sched
