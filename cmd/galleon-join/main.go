// Command galleon-join joins CSV and Parquet tables.
//
// A single join is described with flags:
//
//	galleon-join -left orders.csv -right customers.parquet -on customer_id -how left
//
// A batch of joins is described in a TOML file and runs concurrently:
//
//	galleon-join -config jobs.toml
//
// With -batch n CSV inputs are parsed n rows at a time, which bounds the raw
// text held in memory while loading.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	galleon "github.com/NerdMeNot/galleon-frames"
	"github.com/NerdMeNot/galleon-frames/internal/logging"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "galleon-join:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("galleon-join", flag.ContinueOnError)
	configPath := fs.String("config", "", "TOML job file")
	left := fs.String("left", "", "left table (.csv, .tsv, .parquet)")
	right := fs.String("right", "", "right table (.csv, .tsv, .parquet)")
	on := fs.String("on", "", "comma separated key columns")
	how := fs.String("how", "inner", "join kind: inner, left, right, outer, semi, anti, cross")
	out := fs.String("out", "", "write the result to this file")
	indicator := fs.String("indicator", "", "add a match indicator column with this name")
	seqURL := fs.String("seq", "", "Seq server URL for logs")
	verbose := fs.Bool("v", false, "debug logging")
	quiet := fs.Bool("q", false, "do not print results")
	batchSize := fs.Int("batch", 0, "parse CSV inputs this many rows at a time (0 reads whole files)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	jf := &jobFile{}
	if *configPath != "" {
		var err error
		if jf, err = loadJobFile(*configPath); err != nil {
			return err
		}
	} else {
		job := jobDef{
			Name:      "join",
			Left:      *left,
			Right:     *right,
			How:       *how,
			Indicator: *indicator,
			Output:    *out,
		}
		if *on != "" {
			job.On = strings.Split(*on, ",")
		}
		if err := job.check(); err != nil {
			return err
		}
		jf.Jobs = []jobDef{job}
	}

	level := logging.ParseLevel(jf.LogLevel)
	if *verbose {
		level = slog.LevelDebug
	}
	if *seqURL != "" {
		jf.SeqURL = *seqURL
	}
	if *batchSize > 0 {
		jf.BatchSize = *batchSize
	}
	logger, closeLog := logging.SetupLogger(level, jf.SeqURL)
	defer closeLog()
	galleon.SetLogger(logger)

	if jf.MaxWorkers > 0 {
		cfg := *galleon.GetParallelConfig()
		cfg.MaxWorkers = jf.MaxWorkers
		galleon.SetParallelConfig(&cfg)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	tables := newTableCache(jf.BatchSize)
	tasks := make([]galleon.JoinTask, len(jf.Jobs))
	for i, job := range jf.Jobs {
		opts, err := job.options()
		if err != nil {
			return fmt.Errorf("job %s: %w", job.Name, err)
		}
		l, err := tables.get(ctx, job.Left)
		if err != nil {
			return err
		}
		r, err := tables.get(ctx, job.Right)
		if err != nil {
			return err
		}
		tasks[i] = galleon.JoinTask{Name: job.Name, Left: l, Right: r, Options: opts}
	}

	logger.Info("running joins", "jobs", len(tasks), "tables", len(tables.tables), "batch_size", jf.BatchSize)
	results, err := galleon.JoinAll(ctx, tasks)
	if err != nil {
		return err
	}

	for i, res := range results {
		job := jf.Jobs[i]
		logger.Info("join done", "job", job.Name, "how", tasks[i].Options.Kind().String(), "rows", res.Height(), "columns", res.Width())
		if !*quiet {
			fmt.Printf("%s:\n", job.Name)
			if err := res.Print(os.Stdout); err != nil {
				return err
			}
		}
		if job.Output != "" {
			if err := writeTable(res, job.Output); err != nil {
				return fmt.Errorf("job %s: write %s: %w", job.Name, job.Output, err)
			}
			logger.Info("result written", "job", job.Name, "path", job.Output)
		}
	}
	return nil
}
