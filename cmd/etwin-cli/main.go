package main

import (
	"context"

	"etwin-backend/cmd/etwin-cli/commands"
	"etwin-backend/lib/serviceutil"
	"etwin-backend/lib/telemetry"
)

func main() {
	ctx := context.Background()

	t, err := telemetry.SetupFromEnv(ctx, "etwin-cli")
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	defer t.Shutdown(ctx)

	commands.ExecuteContext(ctx)
}
