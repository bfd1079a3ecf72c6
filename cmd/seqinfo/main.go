package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"sync"
	"time"

	"seqinfo/internal/config"
	"seqinfo/internal/fasta"
	"seqinfo/internal/lookup"
	"seqinfo/internal/report"
	"seqinfo/internal/stats"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// version is the program version. It can be overridden at build time with -ldflags "-X main.version=..."
var version = "0.1.0"

// timestampWriter prefixes each flushed line with an RFC3339 timestamp.
type timestampWriter struct {
	w   io.Writer
	buf bytes.Buffer
	mu  sync.Mutex
}

// Write buffers bytes until a newline is found; for each full line, write a timestamped
// line to the underlying writer. Partial lines are kept in the buffer.
func (t *timestampWriter) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, _ := t.buf.Write(p)
	for {
		line, err := t.buf.ReadString('\n')
		if err != nil {
			// put the partial line back for the next call
			t.buf.WriteString(line)
			break
		}
		ts := time.Now().Format(time.RFC3339)
		if _, err := t.w.Write([]byte(ts + " " + line)); err != nil {
			return n, err
		}
	}
	return n, nil
}

// terminalWriter wraps an io.Writer and exposes an Fd method so the logger
// can detect a TTY through the wrapping writers.
type terminalWriter struct {
	w  io.Writer
	fd uintptr
}

func (tw *terminalWriter) Write(p []byte) (int, error) { return tw.w.Write(p) }

// Fd exposes the underlying file descriptor (e.g., os.Stderr.Fd()).
func (tw *terminalWriter) Fd() uintptr { return tw.fd }

// parseLevel maps a config log_level to a logger level. ok is false for
// unknown values, which fall back to info.
func parseLevel(s string) (lvl log.Level, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DebugLevel, true
	case "info", "":
		return log.InfoLevel, true
	case "warn", "warning":
		return log.WarnLevel, true
	case "error":
		return log.ErrorLevel, true
	}
	return log.InfoLevel, false
}

// splitIDs turns "-ids" input into a clean list; commas and whitespace both separate.
func splitIDs(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the command and returns the process exit code. main is the
// only caller of os.Exit.
func run(args []string) int {
	fs := flag.NewFlagSet("seqinfo", flag.ContinueOnError)
	inputFlag := fs.String("in", "", "input FASTA file path (may also be given as the first argument)")
	outputFlag := fs.String("out", "", "output JSON file path (default stdout)")
	configFlag := fs.String("config", "", "path to config.json (optional)")
	idsFlag := fs.String("ids", "", "comma separated UniProt or Ensembl identifiers to look up instead of a FASTA file")
	seqkitFlag := fs.Bool("seqkit", false, "use seqkit stats for FASTA statistics when seqkit is available")
	verbose := fs.Bool("verbose", false, "enable verbose (debug) logging")
	versionFlag := fs.Bool("version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *versionFlag {
		fmt.Println("seqinfo", version)
		return 0
	}

	cfg, err := config.LoadConfig(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seqinfo: config: %v\n", err)
		return 1
	}

	// merge CLI flags into config (flags override config when provided)
	if *inputFlag != "" {
		cfg.InputFasta = *inputFlag
	} else if fs.NArg() > 0 {
		cfg.InputFasta = fs.Arg(0)
	}
	if *outputFlag != "" {
		cfg.OutputJSON = *outputFlag
	}
	if *seqkitFlag {
		cfg.UseSeqkit = true
	}

	// configure logger output
	var loggerOut io.Writer = os.Stderr
	var logFileErr error
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err == nil {
			// write to both stderr and file so running interactively still shows logs
			loggerOut = io.MultiWriter(os.Stderr, f)
			defer func() { _ = f.Close() }()
		}
		logFileErr = err
	}
	tw := &timestampWriter{w: loggerOut}
	logger := log.New(&terminalWriter{w: tw, fd: os.Stderr.Fd()})

	if *verbose {
		logger.SetLevel(log.DebugLevel)
	} else {
		lvl, ok := parseLevel(cfg.LogLevel)
		logger.SetLevel(lvl)
		if !ok {
			logger.Warn("unknown log_level in config.json, defaulting to info", "provided", cfg.LogLevel)
		}
	}
	logger = logger.With("run", uuid.NewString())
	if logFileErr != nil {
		logger.Warn("log_file specified but could not be opened; logging to stderr only", "path", cfg.LogFile, "err", logFileErr)
	}
	logger.Debug("loaded config", "input_fasta", cfg.InputFasta, "output_json", cfg.OutputJSON, "log_file", cfg.LogFile, "log_level", cfg.LogLevel, "uniprot_url", cfg.UniProtURL, "ensembl_url", cfg.EnsemblURL, "use_seqkit", cfg.UseSeqkit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := newClient(cfg)

	var out any
	switch {
	case *idsFlag != "":
		ids := splitIDs(*idsFlag)
		logger.Info("starting id lookup", "ids", len(ids))
		start := time.Now()
		recs, err := client.Lookup(ctx, ids)
		if err != nil {
			logger.Error("lookup failed", "err", err)
			return 1
		}
		logger.Info("lookup finished", "db", recs.Family, "records", recs.Len(), "duration_ms", time.Since(start).Milliseconds())
		out = recs
	case cfg.InputFasta != "":
		rep, err := enrichFasta(ctx, logger, client, cfg)
		if err != nil {
			logger.Error("fasta enrichment failed", "path", cfg.InputFasta, "err", err)
			return 1
		}
		out = rep
	default:
		fs.Usage()
		return 2
	}

	if err := writeJSON(cfg.OutputJSON, out); err != nil {
		logger.Error("failed to write output JSON", "path", cfg.OutputJSON, "err", err)
		return 1
	}
	if cfg.OutputJSON != "" {
		logger.Info("wrote output JSON", "path", cfg.OutputJSON)
	}
	return 0
}

func newClient(cfg *config.Config) *lookup.Client {
	c := lookup.New(cfg.HTTPTimeout())
	if cfg.UniProtURL != "" {
		c.UniProtURL = cfg.UniProtURL
	}
	if cfg.EnsemblURL != "" {
		c.EnsemblURL = cfg.EnsemblURL
	}
	c.UserAgent = "seqinfo/" + version
	return c
}

// enrichFasta reads the FASTA file, gathers its statistics and enriches every
// sequence with the record of the identifier found in its description.
func enrichFasta(ctx context.Context, logger *log.Logger, client report.Lookuper, cfg *config.Config) (*report.Report, error) {
	records, err := fasta.ReadFile(cfg.InputFasta)
	if err != nil {
		return nil, err
	}
	logger.Info("parsed fasta", "path", cfg.InputFasta, "records", len(records))

	st := collectStats(ctx, logger, cfg, records)
	logger.Info("fasta stats", "type", st.Type, "num_seqs", st.NumSeqs, "sum_len", st.SumLen, "db", st.Family())

	start := time.Now()
	rep, err := report.Enrich(ctx, client, st, records)
	if err != nil {
		return nil, err
	}
	found := 0
	for _, si := range rep.SeqInfo {
		if si.DBID != nil {
			found++
		}
	}
	logger.Info("lookup finished", "sequences", len(rep.SeqInfo), "with_id", found, "duration_ms", time.Since(start).Milliseconds())
	if rep.Missing > 0 {
		logger.Warn("identified sequences without a database record", "missing", rep.Missing, "db", st.Family())
	}
	return rep, nil
}

// collectStats prefers seqkit when enabled and found, and computes the
// statistics itself otherwise.
func collectStats(ctx context.Context, logger *log.Logger, cfg *config.Config, records []fasta.FastaRecord) stats.FastaStats {
	if cfg.UseSeqkit {
		path := cfg.SeqkitPath
		if path == "" {
			if p, err := exec.LookPath("seqkit"); err == nil {
				path = p
			}
		}
		if path == "" {
			logger.Warn("seqkit not found in PATH; computing stats natively")
		} else {
			logger.Debug("seqkit path", "path", path)
			st, err := stats.RunSeqkit(ctx, path, cfg.InputFasta, time.Minute)
			if err == nil {
				return st
			}
			logger.Warn("seqkit stats failed; computing stats natively", "err", err)
		}
	}
	return stats.Compute(cfg.InputFasta, records)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
