// Package models defines the domain model for shared receipts.
//
// # Aggregate
//
// A Receipt is the aggregate root. It exclusively owns its items, participants,
// pending participants and deletion requests; nothing here is shared between
// receipts. Relationships are expressed with ID strings, never pointers, so a
// receipt can be deep-copied and serialized without cycles.
//
// # Money
//
// Every monetary field is a money.Money (integer cents). Fractions appear only
// as item assignment weights and the service charge percentage, both held as
// decimals.
//
// # Derived fields
//
// Receipt.Total is always recomputed by the calculator after a change and is
// never set from input. Settlement is a read-only projection of a receipt.
package models
