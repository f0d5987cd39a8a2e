// Package bridge defines the immutable value types of contract bridge:
// seats and partnerships, cards, calls and contracts.
//
// Every type round-trips through a short wire code:
//
//	card:     rank then suit, "AS", "TD", "2C"
//	bid:      level then strain, "1C".."7NT", or "PASS", "DOUBLE", "REDOUBLE"
//	seat:     "N", "E", "S", "W"
//	contract: "4HX" (level, strain, doubling)
//
// Level bids are totally ordered by (level, strain) with
// Clubs < Diamonds < Hearts < Spades < NoTrump; Bid.Higher implements the order
// used for auction legality.
//
// Deal partitions a seeded shuffle into four 13-card hands, and CheckPartition
// verifies the invariant that the hands plus all played cards hold each of the
// 52 cards exactly once.
package bridge
