// Package upstream connects the monitor to the playback service.
//
// The service streams complete playback snapshots over a websocket. Socket
// owns the whole connection lifecycle: dial, subscribe handshake, the read
// loop, and reconnection with exponential backoff. Snapshots are delivered to
// the monitor from a single goroutine, so snapshot application is never
// re-entered concurrently.
package upstream
