package main

import (
	"log/slog"
	"os"

	"catalogbridge/cmd/catalogbridge/commands"
	"catalogbridge/lib/serviceutil"
	"catalogbridge/lib/telemetry"
)

func main() {
	ctx := serviceutil.SignalContext()
	telemetry.InitSlog(false)

	// telemetry.json5 is optional, without it the run is log-only
	tel, err := telemetry.SetupFromEnv(ctx, "catalogbridge")
	if err != nil && !os.IsNotExist(err) {
		slog.Warn("telemetry setup failed", "err", err)
	} else if err == nil {
		defer tel.Shutdown(ctx)
	}

	commands.ExecuteContext(ctx)
}
