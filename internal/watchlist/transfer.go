package watchlist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/mmcdole/cineverse/internal/domain"
)

// ExportVersion tags the export document format
const ExportVersion = "1.0"

// Export is the document written by WriteExport and read by Import
type Export struct {
	ExportedAt string                  `json:"exported_at"`
	Version    string                  `json:"version"`
	Count      int                     `json:"count"`
	Watchlist  []domain.WatchlistEntry `json:"watchlist"`
}

// Export snapshots the list with a timestamp, version and count
func (w *Watchlist) Export() Export {
	entries := w.List()
	return Export{
		ExportedAt: w.now().UTC().Format(domain.ISOTimestamp),
		Version:    ExportVersion,
		Count:      len(entries),
		Watchlist:  entries,
	}
}

// WriteExport writes the export document as indented JSON
func (w *Watchlist) WriteExport(out io.Writer) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(w.Export()); err != nil {
		w.notice(domain.NoticeError, "Error exporting watchlist")
		return fmt.Errorf("failed to write export: %w", err)
	}
	w.notice(domain.NoticeSuccess, "Watchlist exported successfully")
	return nil
}

// ExportFileName is the suggested file name for an export taken at t
func ExportFileName(t time.Time) string {
	return fmt.Sprintf("cineverse_watchlist_%s.json", t.UTC().Format("2006-01-02"))
}

// importDoc only decodes the field Import consumes
type importDoc struct {
	Watchlist json.RawMessage `json:"watchlist"`
}

// Import merges the entries of an export document. Entries whose id is
// already present are skipped; new ones are appended in document order.
// It returns the number of entries added. A document without a watchlist
// array fails with domain.ErrInvalidFormat and leaves the list unchanged.
func (w *Watchlist) Import(r io.Reader) (int, error) {
	incoming, err := decodeImport(r)
	if err != nil {
		w.logger.Error("error importing watchlist", "error", err)
		w.notice(domain.NoticeError, "Error importing watchlist")
		return 0, err
	}

	w.mu.Lock()
	// Either identifier field counts, as in Contains
	existing := make(map[int64]bool, 2*len(w.entries))
	for _, e := range w.entries {
		existing[e.ID] = true
		existing[e.TMDBID] = true
	}
	delete(existing, 0)
	added := 0
	for _, e := range incoming {
		if e.Key() == 0 || existing[e.ID] || existing[e.TMDBID] {
			continue
		}
		entry := normalizeImported(e)
		existing[entry.ID] = true
		existing[entry.TMDBID] = true
		w.entries = append(w.entries, entry)
		added++
	}
	w.commit()

	w.logger.Info("imported watchlist", "added", added, "skipped", len(incoming)-added)
	w.notice(domain.NoticeSuccess, "Imported %d new items to watchlist", added)
	return added, nil
}

// ImportBytes is Import over an in-memory document
func (w *Watchlist) ImportBytes(blob []byte) (int, error) {
	return w.Import(bytes.NewReader(blob))
}

func decodeImport(r io.Reader) ([]domain.WatchlistEntry, error) {
	var doc importDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidFormat, err)
	}
	raw := bytes.TrimSpace(doc.Watchlist)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, domain.ErrInvalidFormat
	}
	var entries []domain.WatchlistEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidFormat, err)
	}
	return entries, nil
}

// normalizeImported fills the defaults a hand-edited file may omit
func normalizeImported(e domain.WatchlistEntry) domain.WatchlistEntry {
	if e.ID == 0 {
		e.ID = e.TMDBID
	}
	if e.TMDBID == 0 {
		e.TMDBID = e.ID
	}
	if e.Title == "" {
		e.Title = "Unknown Title"
	}
	if e.GenreIDs == nil {
		e.GenreIDs = []int{}
	}
	if e.MediaType == "" {
		e.MediaType = domain.KindUnknown
	}
	if e.OriginalLanguage == "" {
		e.OriginalLanguage = "en"
	}
	return e
}
