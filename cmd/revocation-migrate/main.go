// Command revocation-migrate applies or rolls back the Postgres revocation
// ledger schema.
//
//	revocation-migrate -direction up
//
// The database URL is read from -database-url or DATABASE_URL.
package main

import (
	"flag"
	"os"

	"go.uber.org/zap"

	"github.com/MrEthical07/goSession/internal/logging"
	"github.com/MrEthical07/goSession/revocation"
)

func main() {
	var (
		dsn       = flag.String("database-url", "", "postgres url; defaults to DATABASE_URL")
		direction = flag.String("direction", "up", "up or down")
		mode      = flag.String("mode", os.Getenv("MODE"), "DEV or PROD log output")
	)
	flag.Parse()

	logger := logging.New("info", *mode)
	defer func() { _ = logger.Sync() }()

	url := *dsn
	if url == "" {
		url = os.Getenv("DATABASE_URL")
	}

	if err := revocation.Migrate(url, *direction); err != nil {
		logger.Fatal("migration failed", zap.String("direction", *direction), zap.Error(err))
	}
	logger.Info("migration complete", zap.String("direction", *direction))
}
