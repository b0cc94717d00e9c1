// Package store keeps finished analyses in a Pebble database so a table is
// analysed once. Records are keyed by the SHA-256 fingerprint of the table.
package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"sort"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/google/uuid"
	"github.com/ledgerwatch/log/v3"
	"golang.org/x/xerrors"

	"github.com/moratsam/sbox-analysis/analyzer"
	u "github.com/moratsam/sbox-analysis/util"
)

// Key prefixes for the logical buckets in Pebble's flat key space.
var (
	prefixReport = []byte("report:") // report:fingerprint -> JSON record
	prefixRun    = []byte("run:")    // run:uuid -> fingerprint
)

var ErrNotFound = xerrors.New("no stored analysis")

type Record struct {
	ID          string           `json:"id"`
	Fingerprint string           `json:"fingerprint"`
	Name        string           `json:"name"`
	SBox        []int            `json:"sbox"`
	CreatedAt   time.Time        `json:"createdAt"`
	Report      *analyzer.Report `json:"report"`
}

// Entry is the listing view of a Record.
type Entry struct {
	ID            string                 `json:"id" yaml:"id"`
	Fingerprint   string                 `json:"fingerprint" yaml:"fingerprint"`
	Name          string                 `json:"name" yaml:"name"`
	CreatedAt     time.Time              `json:"createdAt" yaml:"createdAt"`
	SecurityLevel analyzer.SecurityLevel `json:"securityLevel" yaml:"securityLevel"`
}

type Options struct {
	ReadOnly  bool
	CacheSize int64 // Block cache size in bytes (default: 8MB)
}

type Store struct {
	db     *pebble.DB
	logger log.Logger
}

// Open opens or creates the database directory at path.
func Open(path string, opts Options) (*Store, error) {
	if opts.CacheSize == 0 {
		opts.CacheSize = 8 << 20
	}
	if opts.ReadOnly {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, xerrors.Errorf("database does not exist: %s", path)
		}
	}

	cache := pebble.NewCache(opts.CacheSize)
	defer cache.Unref()
	db, err := pebble.Open(path, &pebble.Options{
		Cache:    cache,
		ReadOnly: opts.ReadOnly,
	})
	if err != nil {
		return nil, u.WrapErr("open report store", err)
	}
	return &Store{db: db, logger: log.New("module", "store")}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Fingerprint is the hex SHA-256 of the table bytes.
func Fingerprint(values []int) string {
	b := make([]byte, len(values))
	for i, v := range values {
		b[i] = byte(v)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func reportKey(fingerprint string) []byte {
	return append(append([]byte(nil), prefixReport...), fingerprint...)
}

func runKey(id string) []byte {
	return append(append([]byte(nil), prefixRun...), id...)
}

// Put stores report under the fingerprint of values, replacing any earlier
// analysis of the same table.
func (s *Store) Put(name string, values []int, report *analyzer.Report) (Record, error) {
	rec := Record{
		ID:          uuid.NewString(),
		Fingerprint: Fingerprint(values),
		Name:        name,
		SBox:        values,
		CreatedAt:   time.Now().UTC(),
		Report:      report,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return Record{}, u.WrapErr("marshal record", err)
	}

	batch := s.db.NewBatch()
	defer batch.Close()

	// Drop the run index of the record being replaced.
	if old, err := s.Get(rec.Fingerprint); err == nil {
		if err := batch.Delete(runKey(old.ID), pebble.Sync); err != nil {
			return Record{}, u.WrapErr("delete stale run", err)
		}
	} else if !xerrors.Is(err, ErrNotFound) {
		return Record{}, err
	}

	if err := batch.Set(reportKey(rec.Fingerprint), data, pebble.Sync); err != nil {
		return Record{}, u.WrapErr("set report", err)
	}
	if err := batch.Set(runKey(rec.ID), []byte(rec.Fingerprint), pebble.Sync); err != nil {
		return Record{}, u.WrapErr("set run", err)
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return Record{}, u.WrapErr("commit", err)
	}
	s.logger.Debug("Stored analysis", "name", name, "fingerprint", rec.Fingerprint, "id", rec.ID)
	return rec, nil
}

func (s *Store) Get(fingerprint string) (Record, error) {
	data, closer, err := s.db.Get(reportKey(fingerprint))
	if err == pebble.ErrNotFound {
		return Record{}, xerrors.Errorf("%s: %w", fingerprint, ErrNotFound)
	} else if err != nil {
		return Record{}, u.WrapErr("get report", err)
	}
	defer closer.Close()

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, u.WrapErr("unmarshal record", err)
	}
	return rec, nil
}

// GetByID resolves a run ID to its record.
func (s *Store) GetByID(id string) (Record, error) {
	fp, closer, err := s.db.Get(runKey(id))
	if err == pebble.ErrNotFound {
		return Record{}, xerrors.Errorf("run %s: %w", id, ErrNotFound)
	} else if err != nil {
		return Record{}, u.WrapErr("get run", err)
	}
	fingerprint := string(fp)
	closer.Close()
	return s.Get(fingerprint)
}

// Lookup finds the stored analysis of values, if any.
func (s *Store) Lookup(values []int) (Record, error) {
	return s.Get(Fingerprint(values))
}

// List returns every stored analysis, newest first.
func (s *Store) List() ([]Entry, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefixReport,
		UpperBound: incrementLastByte(prefixReport),
	})
	if err != nil {
		return nil, u.WrapErr("new iterator", err)
	}
	defer iter.Close()

	entries := []Entry{}
	for iter.First(); iter.Valid(); iter.Next() {
		var rec Record
		if err := json.Unmarshal(iter.Value(), &rec); err != nil {
			return nil, u.WrapErr("unmarshal record", err)
		}
		e := Entry{ID: rec.ID, Fingerprint: rec.Fingerprint, Name: rec.Name, CreatedAt: rec.CreatedAt}
		if rec.Report != nil {
			e.SecurityLevel = rec.Report.Summary.SecurityLevel
		}
		entries = append(entries, e)
	}
	if err := iter.Error(); err != nil {
		return nil, u.WrapErr("iterate", err)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}

func (s *Store) Delete(fingerprint string) error {
	rec, err := s.Get(fingerprint)
	if err != nil {
		return err
	}
	batch := s.db.NewBatch()
	defer batch.Close()
	if err := batch.Delete(runKey(rec.ID), pebble.Sync); err != nil {
		return u.WrapErr("delete run", err)
	}
	if err := batch.Delete(reportKey(fingerprint), pebble.Sync); err != nil {
		return u.WrapErr("delete report", err)
	}
	return batch.Commit(pebble.Sync)
}

func incrementLastByte(b []byte) []byte {
	end := append([]byte(nil), b...)
	end[len(end)-1]++
	return end
}
