// Package history owns the persisted list of pasted images.
//
// The list is newest-first and never holds two records with the same
// fingerprint. Every mutation is written through to a single JSON file before
// it is reported as done; if the write fails the in-memory list is rolled back.
// A Store is not safe for concurrent use; callers serialise access through the
// event loop.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"

	"go.klb.dev/pinpaste/internal/fingerprint"
)

// DefaultMinFreeGiB is the free-space threshold below which Add rejects.
const DefaultMinFreeGiB = 1.0

const (
	gib = 1 << 30
	mib = 1 << 20
)

var (
	// ErrDuplicateImage is returned by Add when the image is already in history.
	ErrDuplicateImage = errors.New("image already exists")
	// ErrInsufficientStorage is returned by Add when free disk space is below
	// the configured threshold.
	ErrInsufficientStorage = errors.New("insufficient storage space")
	// ErrNotFound is returned by Delete when no record has the given id.
	ErrNotFound = errors.New("record not found")
)

// CorruptHistoryError reports a history file that exists but cannot be parsed.
// Callers recover by starting with an empty list.
type CorruptHistoryError struct {
	Path string
	Err  error
}

func (e *CorruptHistoryError) Error() string {
	return fmt.Sprintf("corrupt history file %s: %v", e.Path, e.Err)
}

func (e *CorruptHistoryError) Unwrap() error { return e.Err }

// Record is one pasted image.
type Record struct {
	ID        string
	ImageData string
	Timestamp time.Time
}

// timestampLayout is ISO 8601 in UTC with millisecond precision, the form
// existing history files use.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// recordJSON is the on-disk form of a Record. Field order matches existing
// history files so a load-then-persist round trip leaves them unchanged.
type recordJSON struct {
	ImageData string `json:"imageData"`
	Timestamp string `json:"timestamp"`
	ID        string `json:"id"`
}

func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{
		ImageData: r.ImageData,
		Timestamp: r.Timestamp.UTC().Format(timestampLayout),
		ID:        r.ID,
	})
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var raw recordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var ts time.Time
	if raw.Timestamp != "" {
		var err error
		if ts, err = time.Parse(time.RFC3339Nano, raw.Timestamp); err != nil {
			return fmt.Errorf("record %s: timestamp: %w", raw.ID, err)
		}
	}
	*r = Record{ID: raw.ID, ImageData: raw.ImageData, Timestamp: ts}
	return nil
}

// Fingerprint returns the content identity of the record's image.
func (r Record) Fingerprint() fingerprint.Digest {
	return fingerprint.OfString(r.ImageData)
}

// StorageInfo is the storage summary shown to the user after every mutation.
type StorageInfo struct {
	AvailableGiB float64 `json:"availableSpaceGiB"`
	UsedMiB      float64 `json:"usedSpaceMiB"`
	UsedBytes    int64   `json:"usedBytes"`
	TotalCount   int     `json:"totalCount"`
}

// SpaceFunc reports the bytes available to the current user on the volume
// holding dir.
type SpaceFunc func(dir string) (uint64, error)

// Options configures a Store. Zero values select defaults.
type Options struct {
	// Path is the history file. Required.
	Path string
	// MinFreeGiB is the quota gate threshold; 0 selects DefaultMinFreeGiB.
	MinFreeGiB float64
	// Space overrides the free-space probe (tests).
	Space SpaceFunc
	// Now overrides the clock (tests).
	Now func() time.Time
	// NewID overrides record id generation (tests).
	NewID func() string
}

// Store is the single process-wide history.
type Store struct {
	path    string
	minFree float64
	space   SpaceFunc
	now     func() time.Time
	newID   func() string

	records []Record
	index   map[fingerprint.Digest]string // fingerprint → record id
}

// New returns a Store for opts.Path. It does not touch the filesystem; call
// Load to read the persisted list.
func New(opts Options) *Store {
	s := &Store{
		path:    opts.Path,
		minFree: opts.MinFreeGiB,
		space:   opts.Space,
		now:     opts.Now,
		newID:   opts.NewID,
		records: []Record{},
		index:   make(map[fingerprint.Digest]string),
	}
	if s.minFree <= 0 {
		s.minFree = DefaultMinFreeGiB
	}
	if s.space == nil {
		s.space = FreeSpace
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = newRecordID
	}
	return s
}

// newRecordID returns a time-ordered UUID, falling back to a random one.
func newRecordID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Path returns the history file path.
func (s *Store) Path() string { return s.path }

// Dir returns the directory holding the history file.
func (s *Store) Dir() string { return filepath.Dir(s.path) }

// Load reads the history file and makes it the current list. A missing file
// yields an empty list. An unparseable file yields an empty list and a
// *CorruptHistoryError; the bad file is moved aside so the next write does not
// destroy it.
func (s *Store) Load() ([]Record, error) {
	s.replace([]Record{})

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s.Records(), nil
		}
		return s.Records(), fmt.Errorf("read %s: %w", s.path, err)
	}

	records, err := parse(data)
	if err != nil {
		cerr := &CorruptHistoryError{Path: s.path, Err: err}
		aside := s.path + ".corrupt"
		if rerr := os.Rename(s.path, aside); rerr != nil {
			slog.Warn("could not move corrupt history aside", "path", s.path, "err", rerr)
		} else {
			slog.Warn("corrupt history moved aside", "path", aside)
		}
		return s.Records(), cerr
	}
	s.replace(records)

	slog.Info("history loaded",
		"path", s.path,
		"count", len(records),
		"used_mib", round2(s.UsedSpace()),
	)
	return s.Records(), nil
}

// parse decodes a history file, dropping later records whose fingerprint
// repeats an earlier one.
func parse(data []byte) ([]Record, error) {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	seen := make(map[fingerprint.Digest]struct{}, len(records))
	out := make([]Record, 0, len(records))
	for _, r := range records {
		fp := r.Fingerprint()
		if _, dup := seen[fp]; dup {
			slog.Warn("dropping duplicate history record", "id", r.ID, "fingerprint", fp.Short())
			continue
		}
		seen[fp] = struct{}{}
		out = append(out, r)
	}
	return out, nil
}

// Records returns a copy of the current list, newest first.
func (s *Store) Records() []Record {
	return slices.Clone(s.records)
}

// Len returns the number of records.
func (s *Store) Len() int { return len(s.records) }

// Get returns the record with the given id.
func (s *Store) Get(id string) (Record, bool) {
	for _, r := range s.records {
		if r.ID == id {
			return r, true
		}
	}
	return Record{}, false
}

// Contains reports whether an image with fingerprint fp is in history.
func (s *Store) Contains(fp fingerprint.Digest) bool {
	_, ok := s.index[fp]
	return ok
}

// Add prepends a new record for imageData and persists the list. It rejects
// with ErrDuplicateImage or ErrInsufficientStorage without writing anything.
func (s *Store) Add(imageData string) ([]Record, Record, error) {
	fp := fingerprint.OfString(imageData)
	if id, ok := s.index[fp]; ok {
		slog.Debug("image already in history", "fingerprint", fp.Short(), "id", id)
		return s.Records(), Record{}, ErrDuplicateImage
	}

	avail := s.AvailableSpace()
	if avail < s.minFree {
		slog.Warn("insufficient storage, clear history to continue",
			"available_gib", round2(avail),
			"min_free_gib", s.minFree,
		)
		return s.Records(), Record{}, ErrInsufficientStorage
	}

	rec := Record{
		ID:        s.newID(),
		ImageData: imageData,
		Timestamp: s.now().UTC().Truncate(time.Millisecond),
	}
	next := make([]Record, 0, len(s.records)+1)
	next = append(next, rec)
	next = append(next, s.records...)

	if err := s.commit(next); err != nil {
		return s.Records(), Record{}, err
	}
	slog.Info("image added to history",
		"id", rec.ID,
		"fingerprint", fp.Short(),
		"size_bytes", len(imageData),
		"count", len(s.records),
	)
	return s.Records(), rec, nil
}

// Delete removes the record with the given id and persists the list.
func (s *Store) Delete(id string) ([]Record, error) {
	i := slices.IndexFunc(s.records, func(r Record) bool { return r.ID == id })
	if i < 0 {
		return s.Records(), ErrNotFound
	}
	next := slices.Delete(slices.Clone(s.records), i, i+1)
	if err := s.commit(next); err != nil {
		return s.Records(), err
	}
	slog.Info("history record deleted", "id", id, "count", len(s.records))
	return s.Records(), nil
}

// Clear empties the list and persists it unconditionally.
func (s *Store) Clear() ([]Record, error) {
	if err := s.commit([]Record{}); err != nil {
		return s.Records(), err
	}
	slog.Info("history cleared")
	return s.Records(), nil
}

// commit persists next and, only on success, makes it the current list.
func (s *Store) commit(next []Record) error {
	if err := s.Persist(next); err != nil {
		slog.Error("history write failed, keeping previous list", "path", s.path, "err", err)
		return err
	}
	s.replace(next)
	return nil
}

func (s *Store) replace(records []Record) {
	s.records = records
	s.index = make(map[fingerprint.Digest]string, len(records))
	for _, r := range records {
		s.index[r.Fingerprint()] = r.ID
	}
}

// Persist writes list to the history file. The file is replaced atomically: a
// temporary file in the same directory is written, synced, then renamed over
// the old one.
func (s *Store) Persist(list []Record) error {
	if list == nil {
		list = []Record{}
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	dir := s.Dir()
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".history-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err = os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("rename %s: %w", s.path, err)
	}

	slog.Debug("history written",
		"path", s.path,
		"count", len(list),
		"size_mib", round2(float64(len(data))/mib),
	)
	return nil
}

// AvailableSpace returns the free space, in GiB, on the volume holding the
// history file. A failed probe reads as zero.
func (s *Store) AvailableSpace() float64 {
	dir := s.Dir()
	if _, err := os.Stat(dir); err != nil {
		// Probe the nearest existing ancestor before the first write.
		dir = existingAncestor(dir)
	}
	free, err := s.space(dir)
	if err != nil {
		slog.Warn("free space probe failed", "dir", dir, "err", err)
		return 0
	}
	return float64(free) / gib
}

// UsedSpace returns the size of the history file in MiB.
func (s *Store) UsedSpace() float64 {
	return float64(s.usedBytes()) / mib
}

func (s *Store) usedBytes() int64 {
	fi, err := os.Stat(s.path)
	if err != nil {
		return 0
	}
	return fi.Size()
}

// Info returns the current storage summary.
func (s *Store) Info() StorageInfo {
	used := s.usedBytes()
	return StorageInfo{
		AvailableGiB: round2(s.AvailableSpace()),
		UsedMiB:      round2(float64(used) / mib),
		UsedBytes:    used,
		TotalCount:   len(s.records),
	}
}

func existingAncestor(dir string) string {
	for {
		if _, err := os.Stat(dir); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}

func round2(f float64) float64 {
	return float64(int64(f*100+0.5)) / 100
}
