package engine

import (
	"fmt"

	"github.com/rtsforge/sagecore/internal/persist"
)

// VerifyReplay restores the same snapshot into two independently built
// drivers, advances both the same number of ticks with no outside input, and
// compares full-strength digests of the results. This is the determinism
// contract made executable: any divergence means a module broke the rules
// (wall clock, unmanaged randomness, map-order iteration).
func VerifyReplay(newDriver func() *Driver, data []byte, ticks int) ([32]byte, [32]byte, error) {
	run := func() ([32]byte, error) {
		d := newDriver()
		if err := d.Restore(data); err != nil {
			return [32]byte{}, err
		}
		d.RunTicks(ticks)
		return persist.Digest(d.Snapshot().Data), nil
	}

	a, err := run()
	if err != nil {
		return [32]byte{}, [32]byte{}, fmt.Errorf("first replay: %w", err)
	}
	b, err := run()
	if err != nil {
		return [32]byte{}, [32]byte{}, fmt.Errorf("second replay: %w", err)
	}
	return a, b, nil
}
