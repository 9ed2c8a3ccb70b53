package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"perovskite-chain/core"
	"perovskite-chain/pkg/utils"
)

func main() {
	_ = godotenv.Load()

	dataDir := utils.EnvOrDefault("CHAIN_DATA_DIR", "./data")
	led, err := core.LoadLedger(dataDir)
	if err != nil {
		logrus.Infof("restapi: no valid snapshot at %s, starting fresh: %v", dataDir, err)
		led = core.NewLedger()
	}
	contracts := core.NewContractRegistry()

	addr := utils.EnvOrDefault("CHAIN_LISTEN_ADDR", ":8080")
	srv := NewServer(addr, led, contracts)
	logrus.Infof("restapi: listening on %s", addr)
	if err := srv.Start(); err != nil {
		logrus.Errorf("restapi: server stopped: %v", err)
		os.Exit(1)
	}
}
