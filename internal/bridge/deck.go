package bridge

import (
	"fmt"
	rand "math/rand/v2"
)

// DeckSize is the number of cards in a full deck.
const DeckSize = 52

// HandSize is the number of cards dealt to each seat.
const HandSize = DeckSize / NumSeats

// NewDeck returns an ordered 52-card deck.
func NewDeck() []Card {
	cards := make([]Card, 0, DeckSize)
	for suit := Clubs; suit <= Spades; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			cards = append(cards, NewCard(rank, suit))
		}
	}
	return cards
}

// Shuffle randomizes the order of cards in place using rng.
func Shuffle(cards []Card, rng *rand.Rand) {
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}

// Deal shuffles a fresh deck and partitions it into four sorted 13-card hands,
// indexed by seat.
func Deal(rng *rand.Rand) [NumSeats][]Card {
	cards := NewDeck()
	Shuffle(cards, rng)

	var hands [NumSeats][]Card
	for i := range hands {
		hand := make([]Card, HandSize)
		copy(hand, cards[i*HandSize:(i+1)*HandSize])
		SortHand(hand)
		hands[i] = hand
	}
	return hands
}

// CheckPartition verifies that the given card groups together hold every card
// of the deck exactly once.
func CheckPartition(groups ...[]Card) error {
	var seen [DeckSize]bool
	total := 0
	for _, group := range groups {
		for _, c := range group {
			if !c.Valid() {
				return fmt.Errorf("bridge: invalid card %v in partition", c)
			}
			if seen[c.Index()] {
				return fmt.Errorf("bridge: duplicate card %s", c)
			}
			seen[c.Index()] = true
			total++
		}
	}
	if total != DeckSize {
		return fmt.Errorf("bridge: partition holds %d cards, want %d", total, DeckSize)
	}
	return nil
}
