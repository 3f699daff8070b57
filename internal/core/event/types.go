package event

// EntitySpawned is emitted when the directory finishes constructing an entity,
// after every module's attach notification has run.
type EntitySpawned struct {
	Entity   uint64
	Template string
	Frame    uint64
}

// EntityDestroyed is emitted after the end-of-tick flush removes the entity.
type EntityDestroyed struct {
	Entity   uint64
	Template string
	Frame    uint64
}

// UnitFaulted is emitted when a module panics during its update; the module is
// left dormant until something wakes it again.
type UnitFaulted struct {
	Entity uint64
	Slot   uint8
	Frame  uint64
}

// SnapshotSaved is emitted after an autosave snapshot has been handed to the
// store.
type SnapshotSaved struct {
	Slot     string
	Frame    uint64
	Checksum uint64
}
