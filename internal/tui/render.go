package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lox/bridgetable/internal/auction"
	"github.com/lox/bridgetable/internal/bridge"
	"github.com/lox/bridgetable/internal/play"
	"github.com/lox/bridgetable/internal/scoring"
	"github.com/lox/bridgetable/internal/view"
)

// suitOrder is display order, highest suit first.
var suitOrder = []bridge.Suit{bridge.Spades, bridge.Hearts, bridge.Diamonds, bridge.Clubs}

func (s Styles) suit(suit bridge.Suit, text string) string {
	if suit.IsRed() {
		return s.RedSuit.Render(text)
	}
	return s.BlackSuit.Render(text)
}

func (s Styles) card(c bridge.Card) string {
	return s.suit(c.Suit, c.Pretty())
}

// renderHand lays a hand out one suit per line, highest card first.
func (s Styles) renderHand(cards []bridge.Card) string {
	sorted := append([]bridge.Card(nil), cards...)
	bridge.SortHand(sorted)

	lines := make([]string, 0, len(suitOrder))
	for _, suit := range suitOrder {
		var ranks []string
		for _, c := range sorted {
			if c.Suit == suit {
				ranks = append(ranks, c.Rank.String())
			}
		}
		holding := "-"
		if len(ranks) > 0 {
			holding = strings.Join(ranks, " ")
		}
		lines = append(lines, s.suit(suit, suit.Symbol())+" "+holding)
	}
	return strings.Join(lines, "\n")
}

// renderSeatHand renders what the viewer can see of another seat.
func (s Styles) renderSeatHand(hv view.HandView) string {
	if hv.Visible {
		return s.renderHand(hv.Cards)
	}
	return s.Info.Render(fmt.Sprintf("%d cards", hv.Count))
}

// renderAuction lays the calls out in N E S W columns.
func (s Styles) renderAuction(calls []auction.Call) string {
	const width = 9
	var b strings.Builder
	for _, seat := range bridge.Seats {
		b.WriteString(s.Seat.Render(fmt.Sprintf("%-*s", width, seat.Name())))
	}
	if len(calls) == 0 {
		return b.String()
	}

	b.WriteString("\n")
	col := 0
	for ; col < int(calls[0].Seat); col++ {
		b.WriteString(strings.Repeat(" ", width))
	}
	for _, call := range calls {
		if col == bridge.NumSeats {
			b.WriteString("\n")
			col = 0
		}
		b.WriteString(fmt.Sprintf("%-*s", width, s.bid(call.Bid)))
		col++
	}
	return b.String()
}

func (s Styles) bid(b bridge.Bid) string {
	switch b.Kind {
	case bridge.KindPass:
		return "Pass"
	case bridge.KindDouble:
		return "X"
	case bridge.KindRedouble:
		return "XX"
	}
	if suit, ok := b.Strain.Suit(); ok {
		return fmt.Sprintf("%d%s", b.Level, suit.Symbol())
	}
	return fmt.Sprintf("%dNT", b.Level)
}

// renderTrick shows each seat's card in a compass layout.
func (s Styles) renderTrick(plays []play.Play) string {
	played := make(map[bridge.Seat]string, len(plays))
	for _, p := range plays {
		played[p.Seat] = s.card(p.Card)
	}
	slot := func(seat bridge.Seat) string {
		if c, ok := played[seat]; ok {
			return c
		}
		return s.Info.Render("..")
	}

	center := lipgloss.NewStyle().Width(15).Align(lipgloss.Center)
	return lipgloss.JoinVertical(lipgloss.Center,
		center.Render(slot(bridge.North)),
		center.Render(slot(bridge.West)+"       "+slot(bridge.East)),
		center.Render(slot(bridge.South)),
	)
}

// renderTally prints the rubber score sheet.
func (s Styles) renderTally(t scoring.Tally) string {
	row := func(label string, v [2]int) string {
		return fmt.Sprintf("%-8s %6d %6d", label, v[bridge.NorthSouth], v[bridge.EastWest])
	}
	vul := func(p bridge.Partnership) string {
		if t.Vulnerable[p] {
			return "vul"
		}
		return "-"
	}
	lines := []string{
		s.Seat.Render(fmt.Sprintf("%-8s %6s %6s", "", "NS", "EW")),
		row("hand", t.Hand),
		row("above", t.Above),
		row("below", t.Below),
		row("games", t.Games),
		fmt.Sprintf("%-8s %6s %6s", "vul", vul(bridge.NorthSouth), vul(bridge.EastWest)),
		s.HandInfo.Render(row("total", t.Total)),
	}
	return strings.Join(lines, "\n")
}
