// Package main provides the battle server binary: a websocket endpoint in
// front of the battle coordinator, with parties and battle records in PostgreSQL.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/config"
	"github.com/cory-johannsen/skirmish/internal/frontend/ws"
	"github.com/cory-johannsen/skirmish/internal/game/battle"
	"github.com/cory-johannsen/skirmish/internal/game/catalog"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/session"
	"github.com/cory-johannsen/skirmish/internal/gameserver"
	"github.com/cory-johannsen/skirmish/internal/observability"
	"github.com/cory-johannsen/skirmish/internal/scripting"
	"github.com/cory-johannsen/skirmish/internal/server"
	"github.com/cory-johannsen/skirmish/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	scriptLimit := flag.Int("script-limit", scripting.DefaultInstructionLimit, "Lua opcode budget per policy call")
	stopTimeout := flag.Duration("shutdown-timeout", server.DefaultStopTimeout, "bound on graceful shutdown")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting battle server",
		zap.String("http_addr", cfg.HTTP.Addr()),
	)

	cat, err := catalog.Default()
	if err != nil {
		logger.Fatal("loading catalog", zap.Error(err))
	}
	conds, err := condition.DefaultRegistry()
	if err != nil {
		logger.Fatal("loading conditions", zap.Error(err))
	}
	logger.Info("data tables loaded",
		zap.Int("species", len(cat.SpeciesIDs())),
		zap.Int("moves", len(cat.MoveIDs())),
	)

	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	defer pool.Close()
	total, idle, _ := pool.Stats()
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Int32("conns", total),
		zap.Int32("idle", idle),
		zap.Duration("elapsed", time.Since(dbStart)),
	)

	clients := session.NewManager(cfg.HTTP.OutboxSize, logger)

	deps := gameserver.Deps{
		Catalog:    cat,
		Conditions: conds,
		Rosters:    postgres.NewRosterRepository(pool.DB()),
		Records:    postgres.NewBattleRecordRepository(pool.DB()),
		Presence:   clients,
		Movement:   clients,
		Notifier:   clients,
		Logger:     logger,
	}

	var scripts *scripting.Manager
	if cfg.Battle.PolicyScript != "" {
		scripts = scripting.NewManager(dice.NewLoggedRoller(dice.NewCryptoSource(), logger), logger)
		if err := scripts.LoadDir(gameserver.PolicyScope, cfg.Battle.PolicyScript, *scriptLimit); err != nil {
			logger.Fatal("loading policy scripts", zap.String("dir", cfg.Battle.PolicyScript), zap.Error(err))
		}
		gameserver.BindCatalog(scripts, cat)
		deps.NewOpponentPolicy = func(r *dice.Roller) battle.Policy {
			return &gameserver.ScriptedPolicy{
				Scripts:  scripts,
				Roller:   r,
				Fallback: battle.RandomMovePolicy{Rand: r},
				Logger:   logger,
			}
		}
		logger.Info("policy scripts loaded",
			zap.String("dir", cfg.Battle.PolicyScript),
			zap.Bool("choose_action", scripts.HasHook(gameserver.PolicyScope, scripting.ChooseHook)),
		)
	}

	coord, err := gameserver.NewCoordinator(gameserver.SettingsFrom(cfg.Battle), deps)
	if err != nil {
		logger.Fatal("creating coordinator", zap.Error(err))
	}

	handler := ws.NewHandler(cfg.HTTP, clients,
		gameserver.NewDispatcher(coord, clients, logger), coord,
		ws.NewVerifier(cfg.Auth), logger)
	router := ws.NewRouter(handler, func(ctx context.Context) error {
		return pool.Health(ctx, time.Second)
	})
	httpServer := ws.NewServer(cfg.HTTP.Addr(), router, logger)

	// Stopped in reverse: listener, then battles (so battle_end still reaches
	// connected clients), then the sockets themselves.
	lifecycle := server.NewLifecycle(logger, *stopTimeout)
	lifecycle.Add("websockets", &server.FuncService{StopFn: func(context.Context) error {
		handler.CloseAll()
		return nil
	}})
	lifecycle.Add("coordinator", &server.FuncService{StopFn: func(ctx context.Context) error {
		err := coord.Shutdown(ctx)
		if scripts != nil {
			scripts.Close()
		}
		return err
	}})
	lifecycle.Add("http", httpServer)

	logger.Info("battle server initialized", zap.Duration("startup", time.Since(start)))

	if err := lifecycle.Run(ctx); err != nil {
		logger.Error("battle server stopped with error", zap.Error(err))
	}
}
