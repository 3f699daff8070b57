package entity

import (
	"fmt"

	"github.com/rtsforge/sagecore/internal/core/sched"
	"github.com/rtsforge/sagecore/internal/persist"
)

const (
	directoryVersion = 1
	entityVersion    = 1
)

// SaveState writes the directory: its ID counter, every live entity with its
// per-module state, and the wake queue's bucket assignments so a resumed
// simulation re-derives nothing. Saves happen at tick boundaries, after the
// destruction flush, so there is never pending-destroy state to record.
func (d *Directory) SaveState(w *persist.Writer) {
	w.BeginBlock("directory", directoryVersion)
	w.WriteU64(uint64(d.nextID))

	w.WriteU32(uint32(len(d.order)))
	for _, id := range d.order {
		d.saveEntity(w, d.entities[id])
	}

	entries := d.queue.Snapshot()
	w.WriteU32(uint32(len(entries)))
	for _, e := range entries {
		w.WriteU64(uint64(e.Item.Entity))
		w.WriteU8(e.Item.Slot)
		w.WriteU64(e.Frame)
	}
	w.EndBlock()
}

func (d *Directory) saveEntity(w *persist.Writer, e *Entity) {
	w.BeginBlock("entity", entityVersion)
	w.WriteU64(uint64(e.id))
	w.WriteString(e.template.Key)
	w.WriteF64(e.Transform.Pos.X())
	w.WriteF64(e.Transform.Pos.Y())
	w.WriteF64(e.Transform.Pos.Z())
	w.WriteF64(e.Transform.Yaw)
	w.WriteU8(uint8(len(e.modules)))
	for _, m := range e.modules {
		w.WriteString(m.Kind())
		s, ok := m.(persist.Saveable)
		w.WriteBool(ok)
		if ok {
			s.SaveState(w)
		}
	}
	w.EndBlock()
}

// LoadState rebuilds the directory from a snapshot. Existing contents are
// discarded; entities are reconstructed from their templates and then have
// their module state overwritten, which keeps identity (IDs) as well as
// content.
func (d *Directory) LoadState(r *persist.Reader) error {
	v := r.OpenBlock("directory")
	if err := r.Err(); err != nil {
		return err
	}
	if v > directoryVersion {
		return fmt.Errorf("directory block v%d: %w", v, persist.ErrTooNew)
	}

	d.entities = make(map[ID]*Entity, 1024)
	d.order = d.order[:0]
	d.pendingDestroy = d.pendingDestroy[:0]
	d.pendingSet = make(map[ID]struct{}, 16)

	d.nextID = ID(r.ReadU64())
	count := int(r.ReadU32())
	for i := 0; i < count; i++ {
		if err := d.loadEntity(r); err != nil {
			return fmt.Errorf("entity %d of %d: %w", i, count, err)
		}
	}

	wakes := int(r.ReadU32())
	entries := make([]sched.Entry[ModuleRef], 0, wakes)
	for i := 0; i < wakes; i++ {
		ref := ModuleRef{Entity: ID(r.ReadU64()), Slot: r.ReadU8()}
		frame := r.ReadU64()
		if _, live := d.entities[ref.Entity]; !live {
			return fmt.Errorf("wake entry references unknown entity %d", ref.Entity)
		}
		entries = append(entries, sched.Entry[ModuleRef]{Item: ref, Frame: frame})
	}
	d.queue.Restore(entries)

	r.CloseBlock()
	return r.Err()
}

func (d *Directory) loadEntity(r *persist.Reader) error {
	v := r.OpenBlock("entity")
	if err := r.Err(); err != nil {
		return err
	}
	if v > entityVersion {
		return fmt.Errorf("entity block v%d: %w", v, persist.ErrTooNew)
	}

	id := ID(r.ReadU64())
	key := r.ReadString()
	var tr Transform
	tr.Pos[0] = r.ReadF64()
	tr.Pos[1] = r.ReadF64()
	tr.Pos[2] = r.ReadF64()
	tr.Yaw = r.ReadF64()
	moduleCount := int(r.ReadU8())
	if err := r.Err(); err != nil {
		return err
	}

	tpl, err := d.resolver.Resolve(key)
	if err != nil {
		return fmt.Errorf("entity %d: %w", id, err)
	}
	if len(tpl.Modules) != moduleCount {
		return fmt.Errorf("entity %d: snapshot has %d modules, template %q now has %d", id, moduleCount, key, len(tpl.Modules))
	}
	if _, dup := d.entities[id]; dup {
		return fmt.Errorf("entity %d appears twice in snapshot", id)
	}

	modules := make([]Module, 0, moduleCount)
	e := &Entity{id: id, template: tpl, Transform: tr}
	for i := 0; i < moduleCount; i++ {
		kind := r.ReadString()
		hasState := r.ReadBool()
		if err := r.Err(); err != nil {
			return err
		}
		if kind != tpl.Modules[i].Kind {
			return fmt.Errorf("entity %d slot %d: snapshot kind %q, template kind %q", id, i, kind, tpl.Modules[i].Kind)
		}
		m, err := d.registry.New(tpl.Modules[i])
		if err != nil {
			return fmt.Errorf("entity %d slot %d: %w", id, i, err)
		}
		m.OnAttach(e)
		if hasState {
			s, ok := m.(persist.Saveable)
			if !ok {
				return fmt.Errorf("entity %d slot %d: snapshot carries state for non-persistable kind %q", id, i, kind)
			}
			if err := s.LoadState(r); err != nil {
				return fmt.Errorf("entity %d slot %d (%s): %w", id, i, kind, err)
			}
		}
		modules = append(modules, m)
	}
	e.modules = modules

	d.entities[id] = e
	d.order = append(d.order, id)
	r.CloseBlock()
	return r.Err()
}
