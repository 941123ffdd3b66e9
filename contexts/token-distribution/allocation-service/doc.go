// Package allocationservice builds and publishes the salted Merkle allocation
// commitment for a fundraising round.
//
// The module owns commitment and proof tables, reads a read-only projection of
// confirmed contributions, and exposes finalization plus public proof
// retrieval/verification handlers.
package allocationservice
