// Package main is a runner for Lua-scripted behaviors: it attaches a
// script to a fresh object, fires events at it, and prints the resulting
// property values as JSON.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/dshills/dyno"
	"github.com/dshills/dyno/construct"
	"github.com/dshills/dyno/lualib"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

type options struct {
	scriptPath string
	eventsPath string
	props      []string
	debug      bool
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if opts.debug {
		log = log.Level(zerolog.DebugLevel)
	} else {
		log = log.Level(zerolog.WarnLevel)
	}

	source, err := os.ReadFile(opts.scriptPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: read script: %v\n", err)
		return 1
	}

	behavior, err := lualib.New(string(source), lualib.WithName(opts.scriptPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: load script: %v\n", err)
		return 1
	}
	defer behavior.Close()

	registry := dyno.NewRegistry(dyno.WithLogger(log))
	host := dyno.NewObject(dyno.NewClass("dynorun/host"), dyno.WithRegistry(registry))
	if _, err := host.AttachBehavior("script", behavior); err != nil {
		fmt.Fprintf(os.Stderr, "Error: attach behavior: %v\n", err)
		return 1
	}

	if opts.eventsPath != "" {
		if err := fireEvents(host, opts.eventsPath, log); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	if len(opts.props) > 0 {
		out, err := construct.Snapshot(host, opts.props...)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: snapshot: %v\n", err)
			return 1
		}
		fmt.Println(string(out))
	}

	return 0
}

// fireEvents triggers each entry of a JSON event list against the host.
// Entries are event name strings.
func fireEvents(host *dyno.Object, path string, log zerolog.Logger) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read events: %w", err)
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsArray() {
		return fmt.Errorf("events document %s is not a JSON array", path)
	}

	var fireErr error
	doc.ForEach(func(_, entry gjson.Result) bool {
		name := entry.String()
		if name == "" {
			fireErr = fmt.Errorf("event entry %s has no name", entry.Raw)
			return false
		}
		log.Debug().Str("event", name).Msg("triggering")
		if err := host.Trigger(name, nil); err != nil {
			fireErr = fmt.Errorf("trigger %q: %w", name, err)
			return false
		}
		return true
	})
	return fireErr
}

func parseFlags() options {
	var opts options
	var props string
	var showVersion bool

	flag.StringVar(&opts.scriptPath, "script", "", "Path to the Lua behavior script")
	flag.StringVar(&opts.scriptPath, "s", "", "Path to the Lua behavior script (shorthand)")
	flag.StringVar(&opts.eventsPath, "events", "", "Path to a JSON array of events to fire")
	flag.StringVar(&opts.eventsPath, "e", "", "Path to a JSON array of events to fire (shorthand)")
	flag.StringVar(&props, "props", "", "Comma-separated properties to print after firing")
	flag.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	flag.BoolVar(&opts.debug, "d", false, "Enable debug logging (shorthand)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "dynorun - run events against a Lua-scripted behavior\n\n")
		fmt.Fprintf(os.Stderr, "Usage: dynorun -script behavior.lua [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  dynorun -s counter.lua -e events.json -props count\n")
		fmt.Fprintf(os.Stderr, "  dynorun -s counter.lua -props count,label\n")
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("dynorun %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		os.Exit(0)
	}

	if opts.scriptPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if props != "" {
		for _, p := range strings.Split(props, ",") {
			if p = strings.TrimSpace(p); p != "" {
				opts.props = append(opts.props, p)
			}
		}
	}

	return opts
}
