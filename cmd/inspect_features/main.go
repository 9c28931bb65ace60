package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/charleschow/match-features/internal/core/pipeline"
	"github.com/charleschow/match-features/internal/core/training"
	"github.com/charleschow/match-features/internal/events"
	"github.com/charleschow/match-features/internal/fanout"
	"github.com/charleschow/match-features/internal/telemetry"
)

var compactColumns = []string{
	"Date", "HomeTeam", "AwayTeam", "FTHG", "FTAG", "FTR",
	"Home_Elo", "Away_Elo",
	"Home_xG_Avg_L5", "Away_xG_Avg_L5",
	"Home_Streak_L5", "Away_Streak_L5",
	"Home_H2H_L3", "Away_H2H_L3",
	"Home_Rest_Days", "Away_Rest_Days",
	"Home_FIFA_Ova", "Away_FIFA_Ova",
}

func main() {
	n := flag.Int("n", 10, "number of recent rows to display")
	league := flag.String("league", "", "league code (default: all leagues)")
	dbPath := flag.String("db", "data/features.db", "feature store path")
	verbose := flag.Bool("v", false, "show all columns (raw schema)")
	runsOnly := flag.Bool("runs", false, "list stored runs only")
	watch := flag.String("watch", "", "fanout address (host:port) to stream scored fixtures from")
	flag.Parse()

	if *watch != "" {
		watchFanout(*watch, *league)
		return
	}

	telemetry.Init(telemetry.ParseLogLevel("warn"))
	store, err := training.OpenFeatureStore(*dbPath, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot open %s: %v\n", *dbPath, err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	runs, err := store.Runs(ctx, *league)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list runs: %v\n", err)
		os.Exit(1)
	}
	if len(runs) == 0 {
		fmt.Println("(no data)")
		return
	}

	printRuns(runs)
	if *runsOnly {
		return
	}

	// Newest run per league, in listing order.
	seen := map[string]bool{}
	for _, r := range runs {
		if seen[r.League] {
			continue
		}
		seen[r.League] = true

		tbl, err := store.LoadRun(ctx, r.ID)
		if err != nil {
			fmt.Printf("  (cannot load run %s: %v)\n", r.ID, err)
			continue
		}
		fmt.Println()
		printTable(r, tbl, *n, *verbose)
	}
}

func printRuns(runs []training.RunInfo) {
	fmt.Println("=== Feature Runs ===")
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "run_id\tleague\tcreated\trows\taliases")
	fmt.Fprintln(w, "----\t----\t----\t----\t----")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\tv%d\n",
			r.ID, r.League, humanize.Time(r.CreatedAt), humanize.Comma(int64(r.Rows)), r.AliasVersion)
	}
	w.Flush()
}

func printTable(r training.RunInfo, tbl *pipeline.Table, n int, verbose bool) {
	header := tbl.Header()
	cols := compactColumns
	if verbose {
		fmt.Printf("=== %s (verbose) ===\n", r.League)
		fmt.Printf("Schema: %s\n\n", strings.Join(header, ", "))
		cols = header
	} else {
		fmt.Printf("=== %s ===\n", r.League)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[h] = i
	}

	records := tbl.Records()
	shown := min(n, len(records))
	fmt.Printf("Rows: %d  |  Showing last %d:\n", len(records), shown)

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(cols, "\t"))
	fmt.Fprintln(w, strings.Repeat("----\t", len(cols)))
	for _, rec := range records[len(records)-shown:] {
		cells := make([]string, len(cols))
		for i, c := range cols {
			j, ok := idx[c]
			if !ok || j >= len(rec) || rec[j] == "" {
				cells[i] = "-"
				continue
			}
			cells[i] = rec[j]
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	w.Flush()
}

func watchFanout(addr, league string) {
	telemetry.Init(telemetry.ParseLogLevel("info"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bus := events.NewBus()
	show := func(e events.Event) error {
		switch p := e.Payload.(type) {
		case events.FixtureScoredEvent:
			tag := "     "
			if e.Type == events.EventValueBet {
				tag = "VALUE"
			}
			fmt.Printf("%s %s [%s] %s v %s  model %.2f/%.2f/%.2f  odds %.2f/%.2f/%.2f  pick=%s ev=%+.3f\n",
				e.Timestamp.Format(time.TimeOnly), tag, e.League, p.HomeTeam, p.AwayTeam,
				p.ModelHome, p.ModelDraw, p.ModelAway, p.OddsHome, p.OddsDraw, p.OddsAway, p.Pick, p.Edge)
		case events.RunCompletedEvent:
			fmt.Printf("%s RUN   [%s] %s rows=%d\n", e.Timestamp.Format(time.TimeOnly), p.League, p.RunID, p.Rows)
		default:
			return errors.New("unexpected payload")
		}
		return nil
	}
	bus.Subscribe(events.EventFixtureScored, show)
	bus.Subscribe(events.EventValueBet, show)
	bus.Subscribe(events.EventRunCompleted, show)

	fanout.NewClient(addr, league, bus).ConnectWithRetry(ctx)
}
