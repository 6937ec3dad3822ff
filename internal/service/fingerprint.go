package service

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/andresuchdata/autopo-py/planner-go/internal/ingest"
)

// Fingerprint hashes the tables, in fixed kind order, together with the
// resolved parameters. Equal inputs always give the same key.
func Fingerprint(tables map[ingest.Kind]*ingest.Table, params ResolvedParams) string {
	h := sha1.New()
	for _, k := range ingest.Kinds {
		t := tables[k]
		if t == nil {
			continue
		}
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write([]byte(strings.Join(t.Header, "\x1f")))
		for _, row := range t.Rows {
			h.Write([]byte{'\n'})
			h.Write([]byte(strings.Join(row, "\x1f")))
		}
		h.Write([]byte{0})
	}
	raw, _ := json.Marshal(params)
	h.Write(raw)
	return hex.EncodeToString(h.Sum(nil))
}
