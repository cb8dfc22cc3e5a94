package main

import (
	"context"

	"etwin-backend/lib/configutil"
	dplib "etwin-backend/lib/dinoparc"
	"etwin-backend/lib/etwinstore"
	etwindb "etwin-backend/lib/etwinstore/db"
	hflib "etwin-backend/lib/hammerfest"
	"etwin-backend/lib/serviceutil"
	"etwin-backend/lib/telemetry"
	dpsvc "etwin-backend/services/dinoparc"
	hfsvc "etwin-backend/services/hammerfest"
	"etwin-backend/services/rest"
)

type Config struct {
	Port     int                 `json:"port"`
	Database configutil.Database `json:"database"`
}

func main() {
	ctx := serviceutil.SignalContext()

	config, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	if config.Port == 0 {
		config.Port = 8560
	}

	database, err := config.Database.OpenDB(etwindb.Schema)
	if err != nil {
		serviceutil.Fatal("failed to open database", err)
	}

	t, err := telemetry.SetupFromEnv(ctx, "etwin-server")
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	defer t.Shutdown(context.Background())
	telemetry.InstrumentPerfStats(ctx)

	etwinStore := etwinstore.NewSqliteEtwinStore(database)
	server := rest.NewServer(
		hfsvc.NewService(
			hflib.NewHttpClient(),
			etwinstore.NewSqliteHammerfestStore(database),
			etwinStore,
			etwinStore,
		),
		dpsvc.NewService(
			dplib.NewHttpClient(),
			etwinstore.NewSqliteDinoparcStore(database),
			etwinStore,
			etwinStore,
		),
		etwinStore,
	)
	go serviceutil.StartHttpServer(config.Port, server.Handler())

	<-ctx.Done()
}
