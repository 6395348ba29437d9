package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/joseph-ayodele/jurisprudence/internal/app"
	"github.com/joseph-ayodele/jurisprudence/internal/common"
	"github.com/joseph-ayodele/jurisprudence/internal/similarity"
)

func main() {
	var (
		actor  = flag.Int64("user", 0, "user id the search is recorded for")
		stream = flag.Bool("stream", false, "print the model reply as it arrives")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	query := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if query == "" {
		logger.Error("usage", "cmd", "search [-stream] [-user N] <query>")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := app.New(ctx, common.LoadConfig(), app.Options{}, logger)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	var res *similarity.Result
	if *stream {
		err = a.Search.SearchStream(ctx, query, *actor, func(ev similarity.Event) {
			switch ev.Type {
			case similarity.EventProgress:
				fmt.Fprintln(os.Stderr, ev.Message)
			case similarity.EventDelta:
				fmt.Fprint(os.Stderr, ev.Delta)
			case similarity.EventError:
				res = &similarity.Result{Error: ev.Message}
			case similarity.EventResult:
				fmt.Fprintln(os.Stderr)
				res = ev.Result
			}
		})
	} else {
		res, err = a.Search.Search(ctx, query, *actor)
	}
	if err != nil {
		logger.Error("search failed", "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		logger.Error("write result", "error", err)
		os.Exit(1)
	}
	if res == nil || res.Error != "" {
		os.Exit(1)
	}
}
