package engine

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"
)

// Persistence writes one JSON snapshot file per store.
type Persistence struct {
	DataDir string

	fs      afero.Fs
	logger  hclog.Logger
	mu      sync.Mutex // Protects concurrent writes to the filesystem
	written map[string]uint64
	seq     atomic.Uint64
}

// NewPersistence initializes a persistence handler rooted at dir on fs.
func NewPersistence(fs afero.Fs, dir string, logger hclog.Logger) (*Persistence, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Persistence{
		DataDir: dir,
		fs:      fs,
		logger:  logger,
		written: make(map[string]uint64),
	}, nil
}

func (p *Persistence) path(storeID string) string {
	return filepath.Join(p.DataDir, storeID+".json")
}

// nextSeq numbers writes; callers take it under the same lock that produced the snapshot
// so that numbering follows mutation order.
func (p *Persistence) nextSeq() uint64 {
	return p.seq.Add(1)
}

// stale reports whether a write with seq is older than one already applied.
// It MUST be called while holding p.mu.
func (p *Persistence) stale(storeID string, seq uint64) bool {
	if seq == 0 {
		return false
	}
	if last, ok := p.written[storeID]; ok && seq <= last {
		return true
	}
	p.written[storeID] = seq
	return false
}

// SaveStore writes a store snapshot atomically (temp file + rename).
// Snapshots older than the last one applied for the same store are skipped;
// pass seq 0 to always write.
func (p *Persistence) SaveStore(snap *Snapshot, seq uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := snap.Record.ID
	if p.stale(id, seq) {
		return nil
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}

	filePath := p.path(id)
	tempPath := filePath + ".tmp"
	if err := afero.WriteFile(p.fs, tempPath, data, 0o644); err != nil {
		return err
	}
	return p.fs.Rename(tempPath, filePath)
}

// RemoveStore deletes a store's snapshot file.
func (p *Persistence) RemoveStore(storeID string, seq uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stale(storeID, seq) {
		return nil
	}
	err := p.fs.Remove(p.path(storeID))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// LoadAll returns every store snapshot found in the data directory.
// Unreadable or corrupt files are logged and skipped.
func (p *Persistence) LoadAll() (map[string]*Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	all := make(map[string]*Snapshot)

	files, err := afero.ReadDir(p.fs, p.DataDir)
	if err != nil {
		return nil, err
	}

	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".json" {
			continue
		}

		content, err := afero.ReadFile(p.fs, filepath.Join(p.DataDir, file.Name()))
		if err != nil {
			p.logger.Warn("could not read store file", "file", file.Name(), "error", err)
			continue
		}

		var snap Snapshot
		if err := json.Unmarshal(content, &snap); err != nil {
			p.logger.Warn("could not unmarshal store file", "file", file.Name(), "error", err)
			continue
		}
		if snap.Record.ID == "" {
			snap.Record.ID = strings.TrimSuffix(file.Name(), ".json")
		}
		all[snap.Record.ID] = &snap
	}
	return all, nil
}
