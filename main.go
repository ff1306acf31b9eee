package main

import (
	"github.com/opentalk/forum/config"
	"github.com/opentalk/forum/routes"
	"github.com/opentalk/forum/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	// Connect, migrate and seed. Failure here is the only fatal error path.
	db := config.InitDatabase()

	r := routes.SetupRouter(db)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
