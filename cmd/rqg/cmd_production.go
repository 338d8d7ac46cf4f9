package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/k0kubun/rqg/internal/checkpoint"
	"github.com/k0kubun/rqg/internal/entropy"
	"github.com/k0kubun/rqg/internal/grammar"
	"github.com/k0kubun/rqg/internal/metrics"
	"github.com/k0kubun/rqg/internal/pool"
	"github.com/k0kubun/rqg/internal/production"
	"github.com/k0kubun/rqg/internal/rqgerrors"
	"github.com/k0kubun/rqg/internal/rqglog"
	"github.com/k0kubun/rqg/internal/runner"
	"github.com/k0kubun/rqg/internal/uniqueness"
	"gopkg.in/yaml.v3"
)

// ProductionCommand implements the `production` mode: wire the Worker
// Pool, Uniqueness Filter, and Production Orchestrator together and
// run until --count unique queries are emitted, --duration elapses,
// or SIGINT/SIGTERM arrives — the teacher's cmd/psqldef/psqldef.go
// graceful-shutdown idiom (signal.NotifyContext), applied here rather
// than inside internal/production so the orchestrator stays signal-
// agnostic and testable.
type ProductionCommand struct {
	CommonOptions

	Config       string `long:"config" description:"Named preset: quick|standard|stress" default:"standard"`
	Custom       bool   `long:"custom" description:"Start from production.DefaultConfig() instead of a named preset (use with --config-file)"`
	ConfigFile   string `long:"config-file" description:"YAML file overriding the preset's/default's fields" value-name:"PATH"`
	Grammars     string `long:"grammars" description:"Comma-separated grammar[:rule[:weight]] entries (default: --grammar alone, weight 1)"`
	Checkpoint   string `long:"checkpoint" description:"Checkpoint file path" value-name:"PATH"`
	Metrics      string `long:"metrics" description:"Metrics JSONL file path" value-name:"PATH"`
	NoUniqueness bool   `long:"no-uniqueness" description:"Disable the uniqueness filter; every generated query is treated as unique"`

	PrepareSchema   bool   `long:"prepare-schema" description:"Create a schema on --dsn before generating (requires --dsn)"`
	Target          string `long:"target" description:"Runner to prepare the schema against: postgresql|ysql|ycql" default:"postgresql"`
	SchemaNumTables int    `long:"schema-num-tables" default:"5" description:"Prepared schema: number of tables"`
	SchemaProfile   string `long:"schema-profile" default:"moderate" description:"Prepared schema: simple|moderate|complex column profile"`
}

func (c *ProductionCommand) Execute(args []string) error {
	cfg, err := c.resolveConfig()
	if err != nil {
		return err
	}

	grammars := make(map[string]*grammar.Grammar, len(cfg.Grammars))
	for _, gw := range cfg.Grammars {
		g, ok := loadGrammar(gw.Grammar)
		if !ok {
			return rqgerrors.NewConfigError("grammars", fmt.Errorf("unknown grammar %q", gw.Grammar))
		}
		grammars[gw.Grammar] = g
	}

	mgr := entropy.NewManager(c.Seed, c.Seed != 0)
	eng := grammar.NewEngine(mgr)

	if c.PrepareSchema {
		if err := c.prepareSchema(eng); err != nil {
			return err
		}
	}

	p := pool.New(pool.DefaultConfig(), eng, grammars, mgr)
	defer p.Shutdown(true, time.Duration(cfg.DrainTimeoutMS)*time.Millisecond)

	trackerCfg := uniqueness.DefaultConfig()
	if c.NoUniqueness {
		trackerCfg = uniqueness.Config{Mode: uniqueness.None}
	}
	tracker := uniqueness.New(trackerCfg)

	var metricsExp *metrics.Exporter
	if cfg.MetricsPath != "" {
		metricsExp, err = metrics.Open(cfg.MetricsPath)
		if err != nil {
			return rqgerrors.NewConfigError("metrics", err)
		}
		defer metricsExp.Close()
	}

	orch, err := production.New(cfg, p, tracker, mgr, metricsExp, rqglog.New("production"))
	if err != nil {
		return rqgerrors.NewConfigError("production", err)
	}

	var resumedUnique int64
	if cfg.CheckpointPath != "" {
		if cp, err := checkpoint.Read(cfg.CheckpointPath); err == nil {
			orch.Resume(cp)
			resumedUnique = cp.Stats.UniqueQueries
			fmt.Fprintf(os.Stderr, "production: resumed from checkpoint %s (%d unique queries already emitted)\n", cfg.CheckpointPath, resumedUnique)
		} else if !errors.Is(err, os.ErrNotExist) {
			return rqgerrors.NewConfigError("checkpoint", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if c.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(c.Duration)*time.Second)
		defer cancel()
	}

	out, closeOut, err := openOutput(c.Output)
	if err != nil {
		return err
	}
	defer closeOut()

	count := c.Count
	if c.Duration > 0 && count <= 0 {
		count = int(^uint(0) >> 1) // run until ctx is cancelled
	} else if resumedUnique > 0 {
		count -= int(resumedUnique)
		if count < 0 {
			count = 0
		}
	}

	sink := production.SinkFunc(func(q string) error {
		_, werr := fmt.Fprintln(out, q)
		return werr
	})

	emitted, err := orch.Generate(ctx, count, sink)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return rqgerrors.NewConfigError("production", err)
	}
	fmt.Fprintf(os.Stderr, "production: emitted %d unique queries\n", emitted)
	return nil
}

// resolveConfig starts from --custom's production.DefaultConfig() or
// the --config named preset, layers --config-file YAML on top, then
// --checkpoint/--metrics/--grammars, per spec.md §4.9 "Config".
func (c *ProductionCommand) resolveConfig() (production.Config, error) {
	var cfg production.Config
	if c.Custom {
		cfg = production.DefaultConfig()
	} else {
		presets := production.Presets()
		preset, ok := presets[production.Preset(c.Config)]
		if !ok {
			return production.Config{}, rqgerrors.NewConfigError("config", fmt.Errorf("unknown preset %q", c.Config))
		}
		cfg = preset
	}

	if c.ConfigFile != "" {
		raw, err := os.ReadFile(c.ConfigFile)
		if err != nil {
			return production.Config{}, rqgerrors.NewConfigError("config-file", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return production.Config{}, rqgerrors.NewConfigError("config-file", err)
		}
	}

	if c.Checkpoint != "" {
		cfg.CheckpointPath = c.Checkpoint
	}
	if c.Metrics != "" {
		cfg.MetricsPath = c.Metrics
	}

	gws, err := c.parseGrammars()
	if err != nil {
		return production.Config{}, err
	}
	cfg.Grammars = gws
	return cfg, nil
}

// parseGrammars decodes --grammars "name[:rule[:weight]],..."; when
// empty, it falls back to --grammar alone at weight 1.
func (c *ProductionCommand) parseGrammars() ([]production.GrammarWeight, error) {
	if c.Grammars == "" {
		return []production.GrammarWeight{{Grammar: c.Grammar, Rule: c.GrammarRule, Weight: 1}}, nil
	}

	var out []production.GrammarWeight
	for _, entry := range strings.Split(c.Grammars, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		gw := production.GrammarWeight{Grammar: parts[0], Rule: "query", Weight: 1}
		if len(parts) > 1 && parts[1] != "" {
			gw.Rule = parts[1]
		}
		if len(parts) > 2 && parts[2] != "" {
			w, err := strconv.ParseFloat(parts[2], 64)
			if err != nil {
				return nil, rqgerrors.NewConfigError("grammars", fmt.Errorf("invalid weight in %q: %w", entry, err))
			}
			gw.Weight = w
		}
		out = append(out, gw)
	}
	if len(out) == 0 {
		return nil, rqgerrors.NewConfigError("grammars", fmt.Errorf("--grammars parsed to zero entries"))
	}
	return out, nil
}

// prepareSchema connects to --dsn, creates an ad hoc schema sized from
// --schema-* flags, and disconnects before generation begins.
func (c *ProductionCommand) prepareSchema(eng *grammar.Engine) error {
	if c.DSN == "" {
		return rqgerrors.NewConfigError("dsn", fmt.Errorf("--prepare-schema requires --dsn"))
	}
	dsn, err := c.resolveDSN()
	if err != nil {
		return rqgerrors.NewConfigError("password-prompt", err)
	}

	g := grammar.New("production-prepare-schema")
	g.AddRule("ddl", grammar.SchemaPrimitive{
		NumTables:           c.SchemaNumTables,
		Profile:             c.SchemaProfile,
		FKRatio:             0.5,
		IndexRatio:          0.4,
		CompositeIndexRatio: 0.15,
		PartialIndexRatio:   0.1,
	})
	ddl, err := eng.Generate(g, "ddl", c.seedPtr())
	if err != nil {
		return rqgerrors.NewConfigError("prepare-schema", err)
	}

	rb, err := runnerRegistry().Build(c.Target, runner.DefaultConfig(dsn))
	if err != nil {
		return rqgerrors.NewConfigError("target", err)
	}
	ctx := context.Background()
	if err := rb.Connect(ctx); err != nil {
		return rqgerrors.NewConfigError("dsn", err)
	}
	defer rb.Close()

	if err := rb.SetupSchema(ctx, statementsFromDDL(ddl)); err != nil {
		return rqgerrors.NewConfigError("prepare-schema", err)
	}
	return nil
}

// statementsFromDDL splits a semicolon-terminated DDL bundle back
// into individual statements; each rendered statement in
// schema_primitive.go may itself span multiple lines, so splitting on
// ";" (not "\n") is what keeps CREATE TABLE's column list intact.
func statementsFromDDL(ddl string) []string {
	var out []string
	for _, stmt := range strings.Split(ddl, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		out = append(out, stmt+";")
	}
	return out
}
