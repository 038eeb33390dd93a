// ABOUTME: voxroute wire protocol package
// ABOUTME: Defines ingress messages plus HTTP and WebSocket producer clients
// Package protocol implements the voxroute ingress protocol.
//
// Producers submit complete encoded audio buffers tagged with a channel
// number. Over HTTP the buffer is the POST body and the channel is a query
// parameter. Over WebSocket each binary frame is one channel byte followed
// by the buffer, and the server answers each frame with a JSON message once
// playback has finished.
//
// Example:
//
//	client := protocol.NewClient("localhost:8686")
//	err := client.Play(ctx, 2, wavBytes)
package protocol
