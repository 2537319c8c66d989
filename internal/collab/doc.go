// Package collab implements the real-time collaboration layer for campaign
// editing: websocket rooms scoped to a campaign id, presence fan-out, and
// whole-snapshot update propagation with last-writer-wins reconciliation.
//
// There is no authoritative server-side copy of the live-edit state. The
// server only relays snapshots between room members; the persisted document
// changes exclusively on an explicit REST save.
//
// The userId carried on channel frames is supplied by the client for
// presence and edit attribution. It is not validated against the JWT
// identity used by the REST API, so a client can claim any id on the
// channel. Known gap, kept as-is.
package collab
