package drive

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/andresuchdata/autopo-py/planner-go/internal/ingest"
	"github.com/rs/zerolog/log"
)

// Importer pulls planner spreadsheets out of a Drive folder.
type Importer struct {
	source Source
}

func NewImporter(source Source) *Importer {
	return &Importer{source: source}
}

// Skipped is a folder entry the importer did not turn into a table.
type Skipped struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// ImportResult holds the tables read from one folder, keyed by detected kind.
// When two files map to the same kind the later name wins.
type ImportResult struct {
	Tables  map[ingest.Kind]*ingest.Table `json:"-"`
	Files   map[ingest.Kind]string        `json:"files"`
	Skipped []Skipped                     `json:"skipped,omitempty"`
}

// ImportFolder reads every CSV/XLSX file in the folder (by ID, or by path when
// folderPath is set) and detects its kind from the file name.
func (i *Importer) ImportFolder(ctx context.Context, folderID, folderPath string) (*ImportResult, error) {
	if folderPath != "" {
		id, err := i.source.FindFolderByPath(ctx, folderPath)
		if err != nil {
			return nil, err
		}
		folderID = id
	}

	files, err := i.source.ListFiles(ctx, folderID)
	if err != nil {
		return nil, err
	}

	res := &ImportResult{
		Tables: make(map[ingest.Kind]*ingest.Table),
		Files:  make(map[ingest.Kind]string),
	}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if f.IsFolder() {
			continue
		}
		if !ingest.Supported(f.Name) {
			res.Skipped = append(res.Skipped, Skipped{Name: f.Name, Reason: "unsupported file type"})
			continue
		}
		kind, ok := ingest.DetectKind(f.Name)
		if !ok {
			res.Skipped = append(res.Skipped, Skipped{Name: f.Name, Reason: "unrecognised table name"})
			continue
		}

		t, err := i.readFile(ctx, f)
		if err != nil {
			return nil, err
		}
		res.Tables[kind] = t
		res.Files[kind] = f.Name
		log.Info().Str("file", f.Name).Str("kind", string(kind)).Int("rows", t.Len()).Msg("Imported drive file")
	}
	return res, nil
}

// ImportFile reads a single file as the given kind.
func (i *Importer) ImportFile(ctx context.Context, fileID, name string) (*ingest.Table, error) {
	return i.readFile(ctx, &File{ID: fileID, Name: name})
}

func (i *Importer) readFile(ctx context.Context, f *File) (*ingest.Table, error) {
	var buf bytes.Buffer
	if err := i.source.DownloadFile(ctx, f.ID, &buf); err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", f.Name, err)
	}
	t, err := ingest.ReadBytes(f.Name, buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
	}
	return t, nil
}

// DownloadFolder copies the folder's CSV/XLSX files into dir unchanged and
// returns their local paths.
func (i *Importer) DownloadFolder(ctx context.Context, folderID, dir string) ([]string, error) {
	if dir == "" {
		return nil, fmt.Errorf("download dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create download dir: %w", err)
	}

	files, err := i.source.ListFiles(ctx, folderID)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if f.IsFolder() || !ingest.Supported(f.Name) {
			continue
		}

		localPath := filepath.Join(dir, filepath.Base(f.Name))
		out, err := os.Create(localPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create local file %s: %w", localPath, err)
		}
		err = i.source.DownloadFile(ctx, f.ID, out)
		out.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to download %s: %w", f.Name, err)
		}
		paths = append(paths, localPath)
	}
	return paths, nil
}
