// Package main is the entry point for Skirmish, a one-on-one turn-based duel.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"maps"
	"math/rand"
	"os"
	"os/signal"
	"slices"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/samdwyer/skirmish/internal/config"
	"github.com/samdwyer/skirmish/internal/entity"
	"github.com/samdwyer/skirmish/internal/game"
	"github.com/samdwyer/skirmish/internal/gamedata"
	"github.com/samdwyer/skirmish/internal/logging"
	"github.com/samdwyer/skirmish/internal/telemetry"
	"github.com/samdwyer/skirmish/internal/ui"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (default "+config.DefaultPath+" if present)")
	seed := flag.Int64("seed", 0, "random seed, overrides the config")
	auto := flag.Bool("auto", false, "let the AI play both sides without a screen")
	flag.Parse()

	// Load .env file for local development
	// This makes HONEYCOMB_SKIRMISH_API_KEY available
	if err := godotenv.Load(); err != nil {
		// Not fatal - env vars might be set directly
		log.Printf("Note: .env file not loaded: %v", err)
	}

	cfg, err := loadConfig(*configPath, *seed, *auto)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg); err != nil && !errors.Is(err, ui.ErrQuit) && !errors.Is(err, context.Canceled) {
		log.Fatalf("Game error: %v", err)
	}
}

// loadConfig layers the YAML file, SKIRMISH_* variables and flags, in that order.
func loadConfig(path string, seed int64, auto bool) (config.Config, error) {
	if path == "" {
		if _, err := os.Stat(config.DefaultPath); err == nil {
			path = config.DefaultPath
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	if seed != 0 {
		cfg.Seed = seed
	}
	if auto {
		cfg.Mode = config.ModeAuto
	}
	return cfg, cfg.Validate()
}

func run(ctx context.Context, cfg config.Config) error {
	if cfg.Telemetry.Enabled {
		setupOTelEnv(cfg.Telemetry.Dataset)
	}
	shutdown, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled: cfg.Telemetry.Enabled,
		Dataset: cfg.Telemetry.Dataset,
	})
	if err != nil {
		log.Printf("Warning: telemetry setup failed: %v", err)
		log.Printf("Game will run without observability")
	} else {
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				log.Printf("Error shutting down telemetry: %v", err)
			}
		}()
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	logger.Info("starting", zap.Int64("seed", seed), zap.String("mode", string(cfg.Mode)))

	catalog, err := gamedata.LoadAbilityRegistry()
	if err != nil {
		return err
	}
	combatants, err := gamedata.LoadCombatantRegistry(catalog)
	if err != nil {
		return err
	}

	player, err := playerRecord(cfg, catalog, combatants)
	if err != nil {
		return err
	}
	enemy, err := enemyRecord(cfg, combatants, rng)
	if err != nil {
		return err
	}

	opts := game.Options{
		Player:      player,
		Enemy:       enemy,
		Catalog:     catalog,
		EnemySource: game.NewRandomAI(rng),
		CostPolicy:  cfg.Policy(),
		Roller:      rng,
		Logger:      logger,
	}

	var outcome game.Outcome
	switch cfg.Mode {
	case config.ModeAuto:
		outcome, err = runAuto(ctx, opts, rng)
	default:
		outcome, err = runInteractive(ctx, opts, catalog, rng)
	}
	if err != nil {
		return err
	}

	result := "Defeat"
	if outcome.Winner == game.SidePlayer {
		result = "Victory"
	}
	fmt.Printf("%s: %s vs %s after %d rounds\n", result, player.Name, enemy.Name, outcome.Rounds)
	return nil
}

func runAuto(ctx context.Context, opts game.Options, rng *rand.Rand) (game.Outcome, error) {
	opts.PlayerSource = game.NewRandomAI(rng)
	opts.Presenter = game.PresenterFunc(func(_ context.Context, r game.TurnReport) error {
		fmt.Printf("[round %d] %s\n", r.Round, r.Message())
		return nil
	})

	m, err := game.NewMatch(opts)
	if err != nil {
		return game.Outcome{}, err
	}
	return m.Run(ctx)
}

func runInteractive(ctx context.Context, opts game.Options, catalog *gamedata.AbilityRegistry, rng *rand.Rand) (game.Outcome, error) {
	screen, err := ui.NewScreen()
	if err != nil {
		return game.Outcome{}, err
	}
	defer screen.Close()

	term := ui.NewTerminal(screen, catalog, rng)
	opts.PlayerSource = term
	opts.Presenter = term

	m, err := game.NewMatch(opts)
	if err != nil {
		return game.Outcome{}, err
	}
	term.Watch(m)
	return m.Run(ctx)
}

// playerRecord builds the player's record and applies the configured progression.
// Upgrades change the shared catalog templates.
func playerRecord(cfg config.Config, catalog *gamedata.AbilityRegistry, combatants *gamedata.CombatantRegistry) (*entity.Record, error) {
	def, err := combatants.Lookup(cfg.Player)
	if err != nil {
		return nil, err
	}

	record := entity.NewRecord(def)
	if cfg.Level > 0 {
		record.Level = cfg.Level
	}
	for _, id := range cfg.Unlock {
		if err := record.Unlock(id); err != nil {
			return nil, fmt.Errorf("unlock %s: %w", id, err)
		}
	}
	for _, id := range slices.Sorted(maps.Keys(cfg.Upgrades)) {
		for range cfg.Upgrades[id] {
			if err := record.UpgradeAbility(catalog, id); err != nil {
				return nil, fmt.Errorf("upgrade %s: %w", id, err)
			}
		}
	}
	return record, nil
}

func enemyRecord(cfg config.Config, combatants *gamedata.CombatantRegistry, rng *rand.Rand) (*entity.Record, error) {
	if cfg.Enemy != config.RandomEnemy {
		def, err := combatants.Lookup(cfg.Enemy)
		if err != nil {
			return nil, err
		}
		return entity.NewRecord(def), nil
	}

	def := combatants.SpawnRandom(rng)
	if def == nil {
		return nil, errors.New("no combatant has a spawn weight")
	}
	return entity.NewRecord(def), nil
}

// setupOTelEnv configures OTEL environment variables from our custom env vars.
func setupOTelEnv(dataset string) {
	// Always set endpoint to Honeycomb
	os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "https://api.honeycomb.io")

	// The .env file may hold an unexpanded variable reference, so the header is
	// built here from the raw key.
	apiKey := os.Getenv("HONEYCOMB_SKIRMISH_API_KEY")
	if dataset == "" {
		dataset = os.Getenv("HONEYCOMB_SKIRMISH_DATASET")
	}
	if dataset == "" {
		dataset = "skirmish"
	}
	if apiKey != "" {
		os.Setenv("OTEL_EXPORTER_OTLP_HEADERS",
			fmt.Sprintf("x-honeycomb-team=%s,x-honeycomb-dataset=%s", apiKey, dataset))
	}
}
