package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/andresuchdata/autopo-py/planner-go/internal/drive"
	"github.com/andresuchdata/autopo-py/planner-go/internal/ingest"
	"github.com/andresuchdata/autopo-py/planner-go/internal/storage"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func fetchCommand() *cli.Command {
	dest := &cli.StringFlag{
		Name:    "dest",
		Usage:   "Local directory the input files are written to",
		Value:   "./data/input",
		EnvVars: []string{"PLANNER_INPUT_DIR"},
	}
	return &cli.Command{
		Name:  "fetch",
		Usage: "Download planner input spreadsheets",
		Subcommands: []*cli.Command{
			{
				Name:  "s3",
				Usage: "From an S3-compatible bucket",
				Flags: append([]cli.Flag{
					dest,
					&cli.StringFlag{Name: "prefix", Usage: "Object key prefix", Value: "planner/input/"},
					&cli.StringFlag{Name: "object", Usage: "Fetch only this key (relative to --prefix)"},
				}, storageFlags()...),
				Action: func(c *cli.Context) error {
					client, err := newStorage(c)
					if err != nil {
						return err
					}
					paths, err := downloadObjects(c.Context, client, c.String("prefix"), c.String("object"), c.String("dest"))
					if err != nil {
						return err
					}
					log.Info().Int("files", len(paths)).Str("dest", c.String("dest")).Msg("Fetched inputs from storage")
					return nil
				},
			},
			{
				Name:  "drive",
				Usage: "From a Google Drive folder",
				Flags: []cli.Flag{
					dest,
					&cli.StringFlag{Name: "credentials", Usage: "Service account JSON file", EnvVars: []string{"DRIVE_CREDENTIALS_FILE"}},
					&cli.StringFlag{Name: "folder-id", Usage: "Drive folder ID"},
					&cli.StringFlag{Name: "path", Usage: "Drive folder path, e.g. planner/2025-06", EnvVars: []string{"DRIVE_FOLDER_PATH"}},
				},
				Action: func(c *cli.Context) error {
					if c.String("credentials") == "" {
						return fmt.Errorf("--credentials is required")
					}
					svc, err := drive.NewServiceFromFile(c.Context, c.String("credentials"))
					if err != nil {
						return err
					}
					folderID := c.String("folder-id")
					if p := c.String("path"); p != "" {
						if folderID, err = svc.FindFolderByPath(c.Context, p); err != nil {
							return err
						}
					}
					if folderID == "" {
						return fmt.Errorf("--folder-id or --path is required")
					}
					paths, err := drive.NewImporter(svc).DownloadFolder(c.Context, folderID, c.String("dest"))
					if err != nil {
						return err
					}
					log.Info().Int("files", len(paths)).Str("dest", c.String("dest")).Msg("Fetched inputs from drive")
					return nil
				},
			},
		},
	}
}

// downloadObjects mirrors every CSV/XLSX object under prefix into destDir,
// keeping the key layout below the prefix.
func downloadObjects(ctx context.Context, client storage.ObjectStorage, prefix, override, destDir string) ([]string, error) {
	var keys []string

	if override != "" {
		keys = []string{resolveObjectKey(prefix, override)}
	} else {
		listPrefix := strings.TrimSpace(prefix)
		objects, err := client.ListObjects(ctx, listPrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects for prefix %s: %w", listPrefix, err)
		}
		for _, obj := range objects {
			if ingest.Supported(obj.Key) {
				keys = append(keys, obj.Key)
			}
		}
	}

	if len(keys) == 0 {
		return nil, fmt.Errorf("no CSV or XLSX files found for prefix %s", prefix)
	}

	localPaths := make([]string, 0, len(keys))
	for _, key := range keys {
		localPath := filepath.Join(destDir, objectRelativePath(prefix, key))
		if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to prepare directory for %s: %w", localPath, err)
		}
		if err := client.DownloadObject(ctx, key, localPath); err != nil {
			return nil, err
		}
		localPaths = append(localPaths, localPath)
	}

	sort.Strings(localPaths)
	return localPaths, nil
}

func resolveObjectKey(prefix, override string) string {
	if prefix == "" {
		return strings.TrimPrefix(override, "/")
	}
	prefixTrimmed := strings.TrimSuffix(strings.TrimSpace(prefix), "/")
	overrideTrimmed := strings.TrimPrefix(strings.TrimSpace(override), "/")
	if strings.HasPrefix(overrideTrimmed, prefixTrimmed) {
		return overrideTrimmed
	}
	return prefixTrimmed + "/" + overrideTrimmed
}

func objectRelativePath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	prefixTrimmed := strings.TrimSuffix(strings.TrimSpace(prefix), "/")
	rel := strings.TrimPrefix(key, prefixTrimmed+"/")
	if rel == "" {
		return filepath.Base(key)
	}
	return rel
}
