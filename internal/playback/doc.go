// ABOUTME: Playback scheduling package
// ABOUTME: Serializes per-channel audio requests onto a single output graph
// Package playback queues encoded audio buffers in one FIFO and plays them
// one at a time.
//
// Each queued buffer becomes a Unit. A drain goroutine pops units in arrival
// order, looks up the channel's volume and device at that moment, and plays
// the unit on the shared Graph. Producers learn about completion through the
// Ticket returned by Enqueue and an optional callback. Completion fires
// exactly once for every unit, including ones that fail to decode, time out
// or are cancelled on shutdown.
package playback
