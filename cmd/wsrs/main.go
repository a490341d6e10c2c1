// Copyright 2025 The WSRS Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the wsrs corpus pipeline, IPC server and CLI [DBG] application.

wsrs turns web text into (original, abbreviated) snippet pairs by reverse
substitution: wherever a dictionary expansion appears on a word boundary, it
is probabilistically replaced with its abbreviation. The resulting pairs are
grouped per replacement, capped, deduplicated and written out as training
shards.

# Usage

Run the pipeline over a corpus directory:

	wsrs -data corpus/ -dict dictionary.csv -out out/

Use the deterministic preset and enable debug mode:

	wsrs -preset deterministic -d

Run in CLI mode for interactive testing:

	wsrs -c -dict dictionary.csv -rate 0.8

The corpus directory should contain C4-style JSON Lines shards, optionally
gzipped, where every line is an object with url and text fields. The
dictionary is a two-column CSV of abbreviation,expansion rows.

# Configuration

Runtime configuration is managed through a TOML file that supports extraction,
substitution, sampling, pipeline and writer settings:

	[extract]
	max_sentences_per_snippet = 3

	[substitute]
	abbreviation_rate = 0.95

	[sample]
	num_snippets_per_replacement = 4000

	[pipeline]
	workers = 0
	seed = 0

	[writer]
	format = "msgpack"
	shard_size = 50000

The config file is automatically created with defaults if it doesn't exist.
Flags given on the command line override the loaded values for a single run.

# IPC Protocol

Server mode communicates via MessagePack over stdin/stdout. Transform requests
are processed synchronously with microsecond timing information included in
responses.

Send a transform request:

	{"id": "req1", "action": "transform", "url": "http://a.com", "text": "The patient arrived."}

Receive one record per applied substitution:

	{"id": "req1", "r": [{"a": "pt", "e": "patient", "k": "url=http://a.com,snippet_id=0", ...}], "c": 1, "t": 145}

Dictionary introspection reports the loaded abbreviation set:

	{"id": "dict1", "action": "dict_info"}

# Pipeline Mode

The default mode streams every corpus shard through a worker pool, transforms
each document independently, and funnels the records into a single grouping
stage. Groups are flushed in pair order with first-wins deduplication so the
same corpus, dictionary and seed always produce the same output files.

	p, err := pipeline.New(cfg, dict)
	stats, err := p.Run(ctx, reader, sink)

Output is written either as msgpack shards with a record-count header or as a
single JSON Lines file, selected by the writer format setting.

# CLI Mode

CLI mode provides an interactive interface for testing dictionary coverage.
It reads lines from stdin, treats each line as one snippet and displays the
abbreviated rendering together with every pair that fired.

	handler := cli.NewInputHandler(matcher, rate, seed, showMatches)
	err := handler.Start()

This mode is primarily intended for checking a dictionary against real
sentences before committing to a long pipeline run.

# Transform Engine

The core transform is provided by the wsrs package, which implements snippet
extraction, Patricia trie-based expansion matching on word boundaries and
seeded probabilistic substitution.

	records, stats := wsrs.TransformDocument(doc, matcher, maxSentences, rate, seed)

Randomness is derived from the base seed plus a per-document or per-snippet
key, so individual documents transform identically regardless of worker count
or processing order.

# Command Line Flags

The following flags control application behavior:

	-data string
	    Directory containing corpus shards (default "corpus/")
	-dict string
	    CSV file with abbreviation,expansion rows (default "dictionary.csv")
	-out string
	    Directory for generated example shards (default "out/")
	-prefix string
	    Filename prefix for output shards (default "wsrs")
	-server
	    Run msgpack IPC server on stdin/stdout
	-c  Run in CLI mode instead of pipeline mode
	-d  Enable debug mode with detailed logging
	-q  Only log errors
	-preset string
	    Use a named preset instead of the config file
	-config string
	    Path to a custom TOML config file
	-rate float
	    Probability of applying a matched substitution
	-sentences int
	    Maximum sentences per snippet window
	-limit int
	    Snippets kept per replacement pair
	-workers int
	    Worker goroutines (0 uses all CPUs)
	-seed int
	    Base seed for deterministic runs
	-format string
	    Output format: msgpack or jsonl
	-shard int
	    Examples per output shard

The application automatically resolves corpus, dictionary and config paths
relative to the executable location, supporting both development and
production deployments.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/abbrevlab/wsrs/internal/cli"
	"github.com/abbrevlab/wsrs/internal/logger"
	"github.com/abbrevlab/wsrs/internal/utils"
	"github.com/abbrevlab/wsrs/pkg/config"
	"github.com/abbrevlab/wsrs/pkg/corpus"
	"github.com/abbrevlab/wsrs/pkg/dictionary"
	"github.com/abbrevlab/wsrs/pkg/pipeline"
	"github.com/abbrevlab/wsrs/pkg/server"
	"github.com/abbrevlab/wsrs/pkg/wsrs"
	"github.com/abbrevlab/wsrs/pkg/writer"
)

const (
	Version = "1.0.0"
	AppName = "wsrs"
	gh      = "https://github.com/abbrevlab/wsrs"
)

// sigHandler is a simple handler for OS signals to exit normally.
func sigHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

// main calls other packages to run the pipeline, server or CLI inputs.
// main() does not implement logic for them and only manages the flow.
func main() {
	sigHandler()
	defaultConfig := config.DefaultConfig()

	// custom Flags
	showVersion := flag.Bool("version", false, "Show current version")
	corpusDir := flag.String("data", "corpus/", "Directory containing corpus shards (.jsonl, .jsonl.gz)")
	dictPath := flag.String("dict", "dictionary.csv", "CSV file with abbreviation,expansion rows")
	outDir := flag.String("out", "out/", "Directory for generated example shards")
	outPrefix := flag.String("prefix", "wsrs", "Filename prefix for output shards")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	quietMode := flag.Bool("q", false, "Only log errors")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for testing dictionary coverage")
	serverMode := flag.Bool("server", false, "Run msgpack IPC server on stdin/stdout")
	presetName := flag.String("preset", "",
		fmt.Sprintf("Use a named preset instead of the config file (%s)", strings.Join(config.Presets(), ", ")))
	configPath := flag.String("config", "", "Path to a custom TOML config file")
	rate := flag.Float64("rate", defaultConfig.Substitute.AbbreviationRate, "Probability of applying a matched substitution (0 <= p <= 1)")
	sentences := flag.Int("sentences", defaultConfig.Extract.MaxSentencesPerSnippet, "Maximum sentences per snippet window")
	limit := flag.Int("limit", defaultConfig.Sample.NumSnippetsPerReplacement, "Snippets kept per replacement pair (0 drops everything)")
	workers := flag.Int("workers", defaultConfig.Pipeline.Workers, "Worker goroutines (use 0 for all CPUs)")
	seed := flag.Int64("seed", defaultConfig.Pipeline.Seed, "Base seed for deterministic runs")
	format := flag.String("format", defaultConfig.Writer.Format, "Output format: msgpack or jsonl")
	shardSize := flag.Int("shard", defaultConfig.Writer.ShardSize, "Examples per output shard")
	showMatches := flag.Bool("show-matches", defaultConfig.CLI.ShowMatches, "List match sites before substituting (CLI mode)")

	flag.Parse()

	if *showVersion {
		banner := logger.Default("")

		styles := log.DefaultStyles()

		styles.Values["version"] = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).
			Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})

		styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})

		banner.SetStyles(styles)

		banner.Print("")
		banner.Print("[ wsrs ] Builds abbreviation training pairs from web text!")
		banner.Print("", "version", Version)
		banner.Print("")
		banner.Print("use -h or --help to see available options")
		banner.Print("Github Repo", "gh", gh)

		os.Exit(0)
	}

	// Initialize path resolver for robust path handling
	pathResolver, err := utils.NewPathResolver()
	if err != nil {
		log.Fatalf("Failed to initialize path resolver: %v", err)
	}

	switch {
	case *debugMode:
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	case *quietMode:
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.WarnLevel)
	}

	var cfg *config.Config
	if *presetName != "" {
		cfg, err = config.Preset(*presetName)
		if err != nil {
			log.Fatalf("Failed to load preset: %v", err)
		}
		log.Debugf("Using preset: %s", *presetName)
	} else {
		cfg, _, err = config.LoadConfigWithPriority(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}

	// Flags given explicitly win over the loaded config
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "rate":
			cfg.Substitute.AbbreviationRate = *rate
			cfg.CLI.DefaultRate = *rate
		case "sentences":
			cfg.Extract.MaxSentencesPerSnippet = *sentences
		case "limit":
			cfg.Sample.NumSnippetsPerReplacement = *limit
		case "workers":
			cfg.Pipeline.Workers = *workers
		case "seed":
			cfg.Pipeline.Seed = *seed
		case "format":
			cfg.Writer.Format = *format
		case "shard":
			cfg.Writer.ShardSize = *shardSize
		case "show-matches":
			cfg.CLI.ShowMatches = *showMatches
		}
	})

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Pathfinder for the dictionary CSV
	resolvedDict, ok := pathResolver.ResolveFile(*dictPath)
	if !ok {
		log.Fatalf("Dictionary file not found: %s", *dictPath)
	}

	log.Debugf("Using dictionary at: %s", resolvedDict)
	dict, err := dictionary.LoadCSV(resolvedDict)
	if err != nil {
		log.Fatalf("Failed to load dictionary: %v", err)
	}
	log.Debugf("Dictionary loaded: abbreviations=[%d], pairs=[%d]", dict.Len(), dict.NumPairs())

	// CLI would be mainly used for testing and dbg purposes.
	// Any new dictionary or rate changes should be tried in CLI mode first.
	if *cliMode {
		log.SetReportTimestamp(false)
		log.Debug("Input info:",
			"rate", cfg.CLI.DefaultRate,
			"seed", cfg.Pipeline.Seed,
			"showMatches", cfg.CLI.ShowMatches)

		handler := cli.NewInputHandler(wsrs.NewMatcher(dict), cfg.CLI.DefaultRate,
			uint64(cfg.Pipeline.Seed), cfg.CLI.ShowMatches)
		if err := handler.Start(); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		return
	}

	if *serverMode {
		log.Debug("spawning IPC")
		srv := server.NewServer(dict, cfg)

		showStartupInfo(resolvedDict, dict)

		if err := srv.Start(); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
		return
	}

	runPipeline(cfg, dict, pathResolver, *corpusDir, *outDir, *outPrefix)
}

// runPipeline resolves the corpus and output paths, then streams every shard
// through the worker pool and reports the run totals.
func runPipeline(cfg *config.Config, dict *dictionary.Index, pathResolver *utils.PathResolver, corpusDir, outDir, prefix string) {
	resolvedCorpus, err := pathResolver.GetCorpusDir(corpusDir)
	if err != nil {
		log.Fatalf("Failed to resolve corpus dir: %v", err)
	}
	log.Debugf("Using corpus dir at: %s", resolvedCorpus)

	shards, err := corpus.Discover(resolvedCorpus)
	if err != nil {
		log.Fatalf("Failed to discover corpus shards: %v", err)
	}
	log.Debugf("Found %d corpus shards", len(shards))

	status := utils.CheckDirStatus(outDir)
	if status.Error != nil {
		log.Fatalf("Cannot use output directory %s: %v", outDir, status.Error)
	}
	if !status.Writable {
		log.Fatalf("Output directory %s is not writable", outDir)
	}

	reader, err := corpus.Open(shards...)
	if err != nil {
		log.Fatalf("Failed to open corpus: %v", err)
	}
	defer reader.Close()

	var sink pipeline.Sink
	switch cfg.Writer.Format {
	case config.FormatJSONL:
		sink, err = writer.NewJSONLWriter(filepath.Join(outDir, prefix+".jsonl"))
	default:
		sink, err = writer.NewShardWriter(outDir, prefix, cfg.Writer.ShardSize)
	}
	if err != nil {
		log.Fatalf("Failed to create writer: %v", err)
	}

	p, err := pipeline.New(cfg, dict)
	if err != nil {
		log.Fatalf("Failed to build pipeline: %v", err)
	}

	stats, err := p.Run(context.Background(), reader, sink)
	if err != nil {
		log.Fatalf("Run failed: %v", err)
	}

	showRunStats(stats, outDir)
}

// showStartupInfo displays some basic info about the init process.
func showStartupInfo(dictPath string, dict *dictionary.Index) {
	pid := os.Getpid()
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	println("===========")
	println("   wsrs    ")
	println("===========")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", pid)
	log.Info("init: OK")
	log.Infof("dictionary: ( %s )", dictPath)
	log.Infof("pairs: %s", utils.FormatWithCommas(dict.NumPairs()))
	log.Info("status: ready")
	println("===========")
	println("Press Ctrl+C to exit")

	log.SetLevel(currentLevel)
}

// showRunStats displays the pipeline totals after a successful run.
func showRunStats(stats pipeline.Stats, outDir string) {
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	println("===========")
	println("   wsrs    ")
	println("===========")
	log.Infof("documents: %s", utils.FormatWithCommas(stats.Documents))
	log.Infof("snippets: %s (dropped: %s long, %s short)",
		utils.FormatWithCommas(stats.Snippets),
		utils.FormatWithCommas(stats.DroppedLong),
		utils.FormatWithCommas(stats.DroppedShort))
	log.Infof("records: %s in %s groups",
		utils.FormatWithCommas(stats.Records),
		utils.FormatWithCommas(stats.Groups))
	log.Infof("sampled: %s (cap dropped: %s)",
		utils.FormatWithCommas(stats.Sampled),
		utils.FormatWithCommas(stats.CapDropped))
	log.Infof("examples written: %s", utils.FormatWithCommas(stats.Examples))
	log.Infof("elapsed: [ %v ]", stats.Elapsed)
	log.Infof("output dir: ( %s )", utils.GetAbsolutePath(outDir))
	println("===========")

	log.SetLevel(currentLevel)
}
