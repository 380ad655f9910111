// Package audit records operator-facing governance events.
//
// Only two event classes exist, matching what actually warrants an alert:
// abuse-block creation and critical quota exhaustion. Ordinary denials are
// logged at low severity by the engine and never land here.
//
// Events carry a UUID, are written through structured logging, and the most
// recent events are retained in memory for the status surface.
package audit
