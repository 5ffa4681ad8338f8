package main

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/wfunc/buzzroom/config"
	"github.com/wfunc/buzzroom/logger"
	"github.com/wfunc/buzzroom/monitor"
	"github.com/wfunc/buzzroom/persistence"
	"github.com/wfunc/buzzroom/room"
	"github.com/wfunc/buzzroom/server"
	"github.com/wfunc/buzzroom/services"
)

func main() {
	// Initialize logger
	logger.Init()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// Optional round archive; the engine runs fine without it
	var db persistence.Database
	if cfg.Database.Enabled {
		db, err = persistence.NewGormPostgreSQL(
			cfg.Database.Postgres.Host,
			cfg.Database.Postgres.Port,
			cfg.Database.Postgres.User,
			cfg.Database.Postgres.Password,
			cfg.Database.Postgres.DBName,
		)
		if err != nil {
			logger.Log.Fatalf("Failed to connect to database: %v", err)
		}
		logger.Log.Info("Round archive enabled.")
	}

	codegen := room.NewCodeGenerator(cfg.Room.CodeAlphabet, cfg.Room.CodeLength)
	roomManager := room.NewManager(codegen, clockwork.NewRealClock())
	recordService := services.NewRecordService(db)

	mon := monitor.NewMonitor("buzzroom")
	mon.StartServer(cfg.Server.MetricsAddress)

	gameServer := server.NewGameServer(server.Options{
		HTTPAddress:   cfg.Server.HTTPAddress,
		RPCAddress:    cfg.Server.RPCAddress,
		SweepInterval: time.Duration(cfg.Room.SweepInterval) * time.Second,
		IdleTTL:       time.Duration(cfg.Room.IdleTTL) * time.Second,
	}, roomManager, recordService, mon)

	logger.Log.Infof("Starting buzzer server on %s", cfg.Server.HTTPAddress)
	if err := gameServer.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
}
