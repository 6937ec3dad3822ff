package main

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/andresuchdata/autopo-py/planner-go/internal/pipeline"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func publishCommand() *cli.Command {
	return &cli.Command{
		Name:  "publish",
		Usage: "Upload an output directory of exports to object storage",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "output-dir", Value: "./data/output", EnvVars: []string{"APP_DATA_DIR"}},
			&cli.StringFlag{Name: "prefix", Value: "planner/exports/", EnvVars: []string{"STORAGE_PREFIX"}},
		}, storageFlags()...),
		Action: func(c *cli.Context) error {
			client, err := newStorage(c)
			if err != nil {
				return err
			}
			root := c.String("output-dir")
			uploaded := 0
			err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				ext := filepath.Ext(p)
				if d.IsDir() || (ext != ".csv" && ext != ".xlsx") {
					return nil
				}
				rel, err := filepath.Rel(root, p)
				if err != nil {
					return err
				}
				data, err := os.ReadFile(p)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", p, err)
				}
				key := path.Join(c.String("prefix"), filepath.ToSlash(rel))
				if err := client.UploadObject(c.Context, key, data, pipeline.ContentType(p)); err != nil {
					return err
				}
				uploaded++
				log.Info().Str("key", key).Int("bytes", len(data)).Msg("Published export")
				return nil
			})
			if err != nil {
				return err
			}
			log.Info().Int("files", uploaded).Msg("Publish completed")
			return nil
		},
	}
}
