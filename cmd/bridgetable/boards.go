package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"

	"github.com/lox/bridgetable/internal/boardlog"
	"github.com/lox/bridgetable/internal/bridge"
	"github.com/lox/bridgetable/internal/statistics"
)

// BoardsCmd lists the boards recorded by a server's board log.
type BoardsCmd struct {
	Dir     string `arg:"" optional:"" name:"dir" default:"boards" help:"Board log directory"`
	Limit   int    `help:"Show only the most recent boards (0 = all)"`
	Auction bool   `help:"Include each board's auction"`
	Stats   bool   `help:"Print per-partnership statistics after the listing"`
}

func (cmd BoardsCmd) Run() error {
	records, err := boardlog.Load(cmd.Dir)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no boards found in %s", cmd.Dir)
	}
	if cmd.Limit > 0 && cmd.Limit < len(records) {
		records = records[len(records)-cmd.Limit:]
	}
	if err := renderBoards(os.Stdout, records, cmd.Auction); err != nil {
		return err
	}
	if !cmd.Stats {
		return nil
	}

	var stats statistics.Statistics
	if err := stats.AddRecords(records); err != nil {
		return err
	}
	if err := stats.Validate(); err != nil {
		return err
	}
	return renderStats(os.Stdout, &stats)
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func newTable(headers ...string) *ltable.Table {
	return ltable.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == ltable.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func renderBoards(w io.Writer, records []boardlog.Record, withAuction bool) error {
	headers := []string{"Board", "Played", "Dealer", "Result", "Score", "NS", "EW"}
	if withAuction {
		headers = append(headers, "Auction")
	}

	t := newTable(headers...)

	for _, rec := range records {
		row := []string{
			strconv.Itoa(rec.Board),
			rec.Played.Local().Format(time.DateTime),
			rec.Dealer,
			rec.Result(),
			strconv.Itoa(rec.Score),
			strconv.Itoa(rec.TotalNS),
			strconv.Itoa(rec.TotalEW),
		}
		if withAuction {
			row = append(row, strings.Join(rec.Auction, " "))
		}
		t.Row(row...)
	}

	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func renderStats(w io.Writer, stats *statistics.Statistics) error {
	t := newTable("Side", "Declared", "Made", "Defeated", "Make %", "Games", "Slams")
	for _, p := range []bridge.Partnership{bridge.NorthSouth, bridge.EastWest} {
		side := stats.Sides[p]
		t.Row(p.String(),
			strconv.Itoa(side.Declared),
			strconv.Itoa(side.Made),
			strconv.Itoa(side.Defeated),
			fmt.Sprintf("%.0f", side.MakeRate()*100),
			strconv.Itoa(side.Games),
			strconv.Itoa(side.Slams))
	}

	lo, hi := stats.ConfidenceInterval95()
	_, err := fmt.Fprintf(w, "%s\n%d boards, %d passed out\nNS per board: mean %.1f, median %.1f, sd %.1f, 95%% CI [%.1f, %.1f]\n",
		t.Render(), stats.Boards, stats.PassedOut, stats.Mean(), stats.Median(), stats.StdDev(), lo, hi)
	return err
}
