package store

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/employee-presence-engine/internal/domain"
)

// HistoryRetention is the number of daily reports kept in history.json.
const HistoryRetention = 365

// CounterFile persists the work-in-progress counters (status.json).
type CounterFile struct {
	path string
}

func NewCounterFile(path string) *CounterFile { return &CounterFile{path: path} }

// Load returns the stored counters. ok is false when nothing usable is on
// disk, in which case the caller starts fresh.
func (f *CounterFile) Load() (wc domain.WorkCounters, ok bool, err error) {
	err = readJSON(f.path, &wc)
	if errors.Is(err, os.ErrNotExist) {
		return domain.WorkCounters{}, false, nil
	}
	if err != nil {
		return domain.WorkCounters{}, false, fmt.Errorf("failed to read counters: %w", err)
	}
	if wc.Counters == nil {
		wc.Counters = map[string]float64{}
	}
	return wc, wc.Date != "", nil
}

func (f *CounterFile) Save(wc domain.WorkCounters) error {
	if wc.Counters == nil {
		wc.Counters = map[string]float64{}
	}
	if err := writeJSON(f.path, wc); err != nil {
		return fmt.Errorf("failed to write counters: %w", err)
	}
	return nil
}

// HistoryFile persists daily reports (history.json), newest first.
type HistoryFile struct {
	path      string
	retention int
	now       func() time.Time
}

func NewHistoryFile(path string) *HistoryFile {
	return &HistoryFile{path: path, retention: HistoryRetention, now: time.Now}
}

func (f *HistoryFile) Load() ([]domain.HistoryEntry, error) {
	var out []domain.HistoryEntry
	err := readJSON(f.path, &out)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return out, nil
}

// Prepend stores entry as the newest report and drops everything beyond
// the retention count. An unreadable history file is moved aside and a new
// log is started, so one bad file never blocks later reports.
func (f *HistoryFile) Prepend(entry domain.HistoryEntry) error {
	history, err := f.Load()
	if err != nil {
		if qerr := f.quarantine(err); qerr != nil {
			return qerr
		}
		history = nil
	}
	history = append([]domain.HistoryEntry{entry}, history...)
	if len(history) > f.retention {
		history = history[:f.retention]
	}
	if err := writeJSON(f.path, history); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	return nil
}

func (f *HistoryFile) quarantine(cause error) error {
	aside := fmt.Sprintf("%s.corrupt-%s", f.path, f.now().UTC().Format("20060102T150405"))
	if err := os.Rename(f.path, aside); err != nil {
		return fmt.Errorf("failed to move unreadable history aside: %w (read error: %v)", err, cause)
	}
	log.Error().Err(cause).Str("moved_to", aside).Msg("history unreadable, starting a new log")
	return nil
}
