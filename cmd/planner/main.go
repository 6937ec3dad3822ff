package main

import (
	"os"

	"github.com/andresuchdata/autopo-py/planner-go/internal/config"
	"github.com/andresuchdata/autopo-py/planner-go/internal/storage"
	"github.com/andresuchdata/autopo-py/planner-go/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func newPlanningConfigFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "planning-config",
		Usage:   "YAML file with warehouse ratios, capacities and policies",
		EnvVars: []string{"PLANNING_CONFIG_FILE"},
	}
}

func newDBURLFlag(required bool) *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: required,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func storageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "storage-endpoint", Usage: "S3-compatible endpoint", EnvVars: []string{"STORAGE_ENDPOINT"}},
		&cli.StringFlag{Name: "storage-access-key", Usage: "Storage access key", EnvVars: []string{"STORAGE_ACCESS_KEY"}},
		&cli.StringFlag{Name: "storage-secret-key", Usage: "Storage secret key", EnvVars: []string{"STORAGE_SECRET_KEY"}},
		&cli.StringFlag{Name: "storage-bucket", Usage: "Bucket name", EnvVars: []string{"STORAGE_BUCKET"}},
		&cli.StringFlag{Name: "storage-region", Usage: "Bucket region", Value: "us-east-1", EnvVars: []string{"STORAGE_REGION"}},
		&cli.BoolFlag{Name: "storage-use-ssl", Usage: "Use HTTPS for the storage endpoint", Value: true, EnvVars: []string{"STORAGE_USE_SSL"}},
	}
}

func newStorage(c *cli.Context) (*storage.MinioClient, error) {
	return storage.NewMinioClient(config.StorageConfig{
		Endpoint:  c.String("storage-endpoint"),
		AccessKey: c.String("storage-access-key"),
		SecretKey: c.String("storage-secret-key"),
		Bucket:    c.String("storage-bucket"),
		Region:    c.String("storage-region"),
		UseSSL:    c.Bool("storage-use-ssl"),
	})
}

func setupLogging(c *cli.Context) error {
	logger.SetLevel(c.String("log-level"))
	return logger.EnableFileSink(logger.FileSink{Dir: c.String("log-dir"), Name: "planner-cli.log"})
}

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "planner",
		Usage: "Replenishment planning: projections, EOQ, delivery schedules and inbound calendars",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Value: "info", EnvVars: []string{"LOG_LEVEL"}},
			&cli.StringFlag{Name: "log-dir", Usage: "Also write rotating logs here", EnvVars: []string{"LOG_DIR"}},
		},
		Before: setupLogging,
		Commands: []*cli.Command{
			planCommand(),
			fetchCommand(),
			publishCommand(),
			eoqCommand(),
			calendarCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("planner failed")
	}
}
