package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/Sam-Sparxz/Portfolio/src/api/config"
	"github.com/Sam-Sparxz/Portfolio/src/api/data"
	"github.com/Sam-Sparxz/Portfolio/src/api/migrations"
)

var timeoutFlag = flag.Duration("timeout", time.Minute, "Overall timeout")

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "usage: migrate [flags] [up | down [n] | status]\n")
	flag.PrintDefaults()
}

func main() {
	log.SetFlags(0)
	flag.Usage = usage
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	db, err := data.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer data.Close(db)

	ctx, cancel := context.WithTimeout(context.Background(), *timeoutFlag)
	defer cancel()

	runner := migrations.NewRunner(db, migrations.All)

	cmd := flag.Arg(0)
	if cmd == "" {
		cmd = "up"
	}
	switch cmd {
	case "up":
		ids, err := runner.Up(ctx)
		report("applied", ids)
		if err != nil {
			log.Fatalf("up: %v", err)
		}
	case "down":
		steps := 1
		if arg := flag.Arg(1); arg != "" {
			if steps, err = strconv.Atoi(arg); err != nil || steps < 1 {
				log.Fatalf("down: step count must be a positive integer, got %q", arg)
			}
		}
		ids, err := runner.Down(ctx, steps)
		report("reverted", ids)
		if err != nil {
			log.Fatalf("down: %v", err)
		}
	case "status":
		states, err := runner.Status(ctx)
		if err != nil {
			log.Fatalf("status: %v", err)
		}
		for _, s := range states {
			if s.Applied {
				fmt.Printf("[x] %s (%s)\n", s.ID, s.AppliedAt.UTC().Format(time.RFC3339))
			} else {
				fmt.Printf("[ ] %s\n", s.ID)
			}
		}
	default:
		usage()
		os.Exit(2)
	}
}

func report(verb string, ids []string) {
	if len(ids) == 0 {
		fmt.Printf("nothing %s\n", verb)
		return
	}
	for _, id := range ids {
		fmt.Printf("%s %s\n", verb, id)
	}
}
