package persist

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const saveFileVersion = 1

// ErrNoSnapshot is returned when a slot has never been saved.
var ErrNoSnapshot = errors.New("no snapshot in slot")

// ErrChecksumMismatch marks a snapshot whose payload no longer matches its
// recorded checksum.
var ErrChecksumMismatch = errors.New("snapshot checksum mismatch")

// Snapshot is one serialized simulation state plus the metadata stores keep
// alongside it. Data is opaque to the store.
type Snapshot struct {
	Session  string // identity of the run that produced it
	Frame    uint64 // logic frame at save time
	Checksum uint64 // Checksum(Data)
	Data     []byte
}

// Store keeps snapshots by slot name. Implementations: filesystem and
// Postgres.
type Store interface {
	Save(ctx context.Context, slot string, snap Snapshot) error
	Load(ctx context.Context, slot string) (Snapshot, error)
}

// FileStore keeps one file per slot under a directory, framed with the same
// codec the snapshots themselves use.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(slot string) string {
	return filepath.Join(s.dir, slot+".sav")
}

func (s *FileStore) Save(_ context.Context, slot string, snap Snapshot) error {
	w := NewWriter()
	w.BeginBlock("savefile", saveFileVersion)
	w.WriteString(snap.Session)
	w.WriteU64(snap.Frame)
	w.WriteU64(snap.Checksum)
	w.WriteBytes(snap.Data)
	w.EndBlock()

	path := s.path(slot)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, w.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("commit snapshot %s: %w", path, err)
	}
	return nil
}

func (s *FileStore) Load(_ context.Context, slot string) (Snapshot, error) {
	data, err := os.ReadFile(s.path(slot))
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, fmt.Errorf("%w: %q", ErrNoSnapshot, slot)
		}
		return Snapshot{}, fmt.Errorf("read snapshot %q: %w", slot, err)
	}

	r := NewReader(data)
	v := r.OpenBlock("savefile")
	if err := r.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("snapshot %q: %w", slot, err)
	}
	if v > saveFileVersion {
		return Snapshot{}, fmt.Errorf("snapshot %q file v%d: %w", slot, v, ErrTooNew)
	}
	snap := Snapshot{
		Session:  r.ReadString(),
		Frame:    r.ReadU64(),
		Checksum: r.ReadU64(),
		Data:     r.ReadBytes(),
	}
	r.CloseBlock()
	if err := r.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("snapshot %q: %w", slot, err)
	}
	if Checksum(snap.Data) != snap.Checksum {
		return Snapshot{}, fmt.Errorf("snapshot %q: %w", slot, ErrChecksumMismatch)
	}
	return snap, nil
}
