// Package playback defines the identifiers and wire types shared between the
// playback service transport and the monitor core.
//
// A player is one audio-producing instance, identified by an InterfaceID that
// is unique within a snapshot. A client is the application owning one or more
// players, identified by a ClientID. Client ids are allocated per session
// domain in fixed-size blocks, so the owning domain can be recovered from the
// id alone.
package playback
