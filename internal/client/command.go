package client

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lox/bridgetable/internal/bridge"
)

var ErrNoSeatToReclaim = errors.New("no seat to reclaim")

// CommandKind identifies a typed player command.
type CommandKind int

const (
	CmdSit CommandKind = iota
	CmdReady
	CmdBid
	CmdPlay
	CmdAcknowledge
	CmdObserve
	CmdReconnect
	CmdHelp
	CmdQuit
)

// Command is one parsed line of player input.
type Command struct {
	Kind   CommandKind
	Seat   bridge.Seat
	Bid    bridge.Bid
	Card   bridge.Card
	Target string
	Token  string
}

// Actions is the subset of Client a command drives.
type Actions interface {
	ChooseRole(seat bridge.Seat) error
	ToggleReady() error
	MakeBid(bid bridge.Bid) error
	PlayCard(card bridge.Card) error
	AcknowledgeScores() error
	Reconnect(seat bridge.Seat, token string) error
	Observe(target string) error
	Role() (bridge.Seat, string, bool)
}

// Usage lists the accepted commands.
const Usage = `sit <N|E|S|W>       take a seat
ready               toggle readiness
bid <call>          1C..7NT, pass, x, xx
pass | x | xx       shorthand calls
play <card>         e.g. play AS, play 10H
ack                 acknowledge scores and return to the lobby
observe <seat|ALL>  privileged view, if the server allows it
reconnect [seat token]
help | quit`

// ParseCommand parses a line typed by the player.
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("empty command")
	}
	verb, args := strings.ToLower(fields[0]), fields[1:]

	need := func(n int) error {
		if len(args) != n {
			return fmt.Errorf("%s expects %d argument(s), got %d", verb, n, len(args))
		}
		return nil
	}

	switch verb {
	case "sit", "seat":
		if err := need(1); err != nil {
			return Command{}, err
		}
		seat, err := bridge.ParseSeat(args[0])
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: CmdSit, Seat: seat}, nil

	case "ready", "r":
		return Command{Kind: CmdReady}, need(0)

	case "bid", "b":
		if err := need(1); err != nil {
			return Command{}, err
		}
		bid, err := bridge.ParseBid(args[0])
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: CmdBid, Bid: bid}, nil

	case "pass", "x", "xx", "double", "redouble":
		if err := need(0); err != nil {
			return Command{}, err
		}
		bid, err := bridge.ParseBid(verb)
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: CmdBid, Bid: bid}, nil

	case "play", "p":
		if err := need(1); err != nil {
			return Command{}, err
		}
		card, err := bridge.ParseCard(args[0])
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: CmdPlay, Card: card}, nil

	case "ack", "next":
		return Command{Kind: CmdAcknowledge}, need(0)

	case "observe", "watch":
		if err := need(1); err != nil {
			return Command{}, err
		}
		return Command{Kind: CmdObserve, Target: strings.ToUpper(args[0])}, nil

	case "reconnect":
		switch len(args) {
		case 0:
			return Command{Kind: CmdReconnect, Seat: -1}, nil
		case 2:
			seat, err := bridge.ParseSeat(args[0])
			if err != nil {
				return Command{}, err
			}
			return Command{Kind: CmdReconnect, Seat: seat, Token: args[1]}, nil
		default:
			return Command{}, fmt.Errorf("reconnect expects no arguments or a seat and token")
		}

	case "help", "?":
		return Command{Kind: CmdHelp}, nil

	case "quit", "q", "exit":
		return Command{Kind: CmdQuit}, nil
	}
	return Command{}, fmt.Errorf("unknown command %q", verb)
}

// Execute sends the command. Help and quit are handled by the caller.
func (cmd Command) Execute(a Actions) error {
	switch cmd.Kind {
	case CmdSit:
		return a.ChooseRole(cmd.Seat)
	case CmdReady:
		return a.ToggleReady()
	case CmdBid:
		return a.MakeBid(cmd.Bid)
	case CmdPlay:
		return a.PlayCard(cmd.Card)
	case CmdAcknowledge:
		return a.AcknowledgeScores()
	case CmdObserve:
		return a.Observe(cmd.Target)
	case CmdReconnect:
		seat, token := cmd.Seat, cmd.Token
		if !seat.Valid() {
			var ok bool
			if seat, token, ok = a.Role(); !ok {
				return ErrNoSeatToReclaim
			}
		}
		return a.Reconnect(seat, token)
	}
	return nil
}
