// Command cfr-trainer trains an approximate Nash equilibrium for Kuhn poker
// with one of the CFR variants and persists the average strategy profile.
package main

import (
	"context"
	"fmt"
	rand "math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lox/cfrkit/internal/cfr"
	"github.com/lox/cfrkit/internal/config"
	"github.com/lox/cfrkit/internal/game/kuhn"
	"github.com/lox/cfrkit/internal/randutil"
)

// TrainCmd holds the trainer's flags.
type TrainCmd struct {
	Debug bool `help:"enable debug logging"`

	Algorithm string `help:"CFR variant computing an equilibrium (vanilla|chance|external|outcome)"`
	Iteration int    `help:"number of iterations of CFR"`
	Seed      *int64 `help:"random seed; omitted uses OS entropy"`
	Config    string `help:"path to an HCL training preset"`
	Out       string `help:"output directory for strategy files (default ../strategies/<game>)"`

	FixedStrategy0 string `name:"fixed-strategy-0" help:"freeze player 0 to this strategy file"`
	FixedStrategy1 string `name:"fixed-strategy-1" help:"freeze player 1 to this strategy file"`
}

var cli TrainCmd

func main() {
	kong.Parse(&cli,
		kong.Name("cfr-trainer"),
		kong.Description("CFR equilibrium trainer for Kuhn poker"),
		kong.UsageOnError(),
	)

	setupLogger(cli.Debug)

	if err := cli.Run(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("training failed")
	}
}

func setupLogger(debug bool) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level)
}

// Run executes the training run described by the flags and the optional
// preset file.
func (cmd *TrainCmd) Run(ctx context.Context) error {
	cfg := config.Default()
	if cmd.Config != "" {
		loaded, err := config.Load(cmd.Config)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if cmd.Algorithm != "" {
		cfg.Training.Algorithm = cmd.Algorithm
	}
	if cmd.Iteration > 0 {
		cfg.Training.Iterations = cmd.Iteration
	}
	if cmd.Seed != nil {
		cfg.Training.Seed = cmd.Seed
	}
	if cmd.Out != "" {
		cfg.Training.OutputDir = cmd.Out
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Training.Iterations <= 0 {
		return fmt.Errorf("iteration count must be positive (flag --iteration or config iterations)")
	}

	algo, err := cfr.ParseAlgorithm(cfg.Training.Algorithm)
	if err != nil {
		return err
	}

	var rng *rand.Rand
	if cfg.Training.Seed != nil {
		rng = randutil.New(*cfg.Training.Seed)
	} else {
		rng = randutil.NewFromOS()
	}

	g := kuhn.New(rng)

	outDir := cfg.Training.OutputDir
	if outDir == "" {
		outDir = filepath.Join("..", "strategies", g.Name())
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	opts := []cfr.Option{
		cfr.WithOutputDir(outDir),
		cfr.WithProgressEvery(cfg.Training.ProgressEvery),
		cfr.WithSnapshotEvery(cfg.Training.SnapshotEvery),
	}
	for player, path := range []string{cmd.FixedStrategy0, cmd.FixedStrategy1} {
		if path == "" {
			continue
		}
		table, err := cfr.LoadProfile(path)
		if err != nil {
			return fmt.Errorf("load fixed strategy for player %d: %w", player, err)
		}
		opts = append(opts, cfr.WithFixedStrategy(player, table))
		log.Info().Int("player", player).Str("path", path).Msg("player frozen to fixed strategy")
	}

	trainer, err := cfr.NewTrainer(g, algo, rng, opts...)
	if err != nil {
		return err
	}

	log.Info().
		Str("algorithm", string(algo)).
		Int("iterations", cfg.Training.Iterations).
		Str("out", outDir).
		Msg("starting training run")

	start := time.Now()
	progress := func(p cfr.Progress) {
		log.Info().
			Int("iteration", p.Iteration).
			Int("infosets", p.InfoSets).
			Uint64("nodes", p.NodesTouched).
			Floats64("utils", p.Utilities).
			Msg("progress")
	}
	if err := trainer.Run(cfg.Training.Iterations, progress); err != nil {
		return err
	}

	log.Info().
		Dur("duration", time.Since(start)).
		Int("infosets", trainer.Nodes().Len()).
		Uint64("nodes", trainer.NodesTouched()).
		Str("path", filepath.Join(outDir, fmt.Sprintf("strategy_%s.bin", algo))).
		Msg("training completed")
	return nil
}
