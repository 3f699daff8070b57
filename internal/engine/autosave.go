package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rtsforge/sagecore/internal/core/event"
	"github.com/rtsforge/sagecore/internal/core/system"
	"github.com/rtsforge/sagecore/internal/persist"
)

// Autosaver snapshots the simulation every interval ticks and hands the bytes
// to the store off the simulation goroutine. Serialization is pure memory
// work and happens in-tick; only the store write is asynchronous, so the tick
// never blocks on I/O.
type Autosaver struct {
	d        *Driver
	store    persist.Store
	slot     string
	interval uint64
	log      *zap.Logger
}

func NewAutosaver(d *Driver, store persist.Store, slot string, interval uint64) *Autosaver {
	return &Autosaver{d: d, store: store, slot: slot, interval: interval, log: d.log}
}

func (a *Autosaver) Phase() system.Phase { return system.PhasePersist }

func (a *Autosaver) Update(frame uint64, _ time.Duration) {
	if a.interval == 0 || frame%a.interval != 0 {
		return
	}
	snap := a.d.Snapshot()
	event.Emit(a.d.bus, event.SnapshotSaved{Slot: a.slot, Frame: snap.Frame, Checksum: snap.Checksum})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := a.store.Save(ctx, a.slot, snap); err != nil {
			a.log.Error("autosave failed",
				zap.String("slot", a.slot),
				zap.Uint64("frame", snap.Frame),
				zap.Error(err))
			return
		}
		a.log.Info("autosaved",
			zap.String("slot", a.slot),
			zap.Uint64("frame", snap.Frame),
			zap.Uint64("checksum", snap.Checksum))
	}()
}
