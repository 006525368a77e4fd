// Package api defines the wire types for the courtside turn API: turn
// requests and responses, output items, streaming events, the structured
// error taxonomy, and the turn lifecycle state machine.
//
// The package has no dependencies on other courtside packages so that
// every layer (transport, orchestrator, dispatcher, stores) can share
// these types without import cycles.
package api
