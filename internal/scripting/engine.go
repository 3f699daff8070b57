// Package scripting embeds a Lua VM as a command source: scripts observe the
// logic frame and issue the same orders a player could. The VM runs on the
// simulation goroutine, once per tick, so scripted input is part of the
// deterministic record; a script that avoids Lua's own clock and math.random
// replays exactly.
package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/rtsforge/sagecore/internal/command"
	"github.com/rtsforge/sagecore/internal/core/system"
	"github.com/rtsforge/sagecore/internal/entity"
)

const apiVersion = 1

// Engine wraps a single gopher-lua VM. Single-goroutine access only.
type Engine struct {
	vm    *lua.LState
	queue *command.Queue
	log   *zap.Logger
}

// NewEngine creates the VM, installs the engine API, and loads every .lua
// file in scriptsDir (a missing directory just means no scripts).
func NewEngine(scriptsDir string, queue *command.Queue, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{SkipOpenLibs: false})
	vm.SetGlobal("API_VERSION", lua.LNumber(apiVersion))

	e := &Engine{vm: vm, queue: queue, log: log}
	e.installAPI()

	if err := e.loadDir(scriptsDir); err != nil {
		vm.Close()
		return nil, err
	}
	return e, nil
}

func (e *Engine) Close() { e.vm.Close() }

// System adapts the engine into an input-phase tick participant. The command
// queue it feeds is drained on the following tick, so script effects are
// ordered identically no matter where the system lands within the phase.
func (e *Engine) System() system.System { return tickSystem{e} }

type tickSystem struct{ e *Engine }

func (t tickSystem) Phase() system.Phase { return system.PhaseInput }

func (t tickSystem) Update(frame uint64, _ time.Duration) { t.e.OnTick(frame) }

func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read scripts dir %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load script %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// OnTick invokes the global on_tick(frame) hook if the loaded scripts define
// one.
func (e *Engine) OnTick(frame uint64) {
	fn := e.vm.GetGlobal("on_tick")
	if fn == lua.LNil {
		return
	}
	if err := e.vm.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, lua.LNumber(frame)); err != nil {
		e.log.Error("script on_tick failed", zap.Uint64("frame", frame), zap.Error(err))
	}
}

// installAPI exposes the command set to Lua under the global `sage` table.
func (e *Engine) installAPI() {
	api := e.vm.NewTable()

	e.vm.SetField(api, "spawn", e.vm.NewFunction(func(L *lua.LState) int {
		def := L.CheckString(1)
		x := float64(L.CheckNumber(2))
		y := float64(L.CheckNumber(3))
		z := float64(L.OptNumber(4, 0))
		e.queue.Enqueue(command.Command{
			Kind:       command.KindSpawn,
			Definition: def,
			Pos:        mgl64.Vec3{x, y, z},
		})
		return 0
	}))

	e.vm.SetField(api, "destroy", e.vm.NewFunction(func(L *lua.LState) int {
		e.queue.Enqueue(command.Command{
			Kind:   command.KindDestroy,
			Target: entity.ID(L.CheckInt64(1)),
		})
		return 0
	}))

	e.vm.SetField(api, "move", e.vm.NewFunction(func(L *lua.LState) int {
		id := entity.ID(L.CheckInt64(1))
		x := float64(L.CheckNumber(2))
		y := float64(L.CheckNumber(3))
		z := float64(L.OptNumber(4, 0))
		e.queue.Enqueue(command.Command{
			Kind:   command.KindMoveTo,
			Target: id,
			Pos:    mgl64.Vec3{x, y, z},
		})
		return 0
	}))

	e.vm.SetField(api, "damage", e.vm.NewFunction(func(L *lua.LState) int {
		e.queue.Enqueue(command.Command{
			Kind:   command.KindDamage,
			Target: entity.ID(L.CheckInt64(1)),
			Amount: L.CheckInt(2),
		})
		return 0
	}))

	e.vm.SetField(api, "wake", e.vm.NewFunction(func(L *lua.LState) int {
		e.queue.Enqueue(command.Command{
			Kind:   command.KindWake,
			Target: entity.ID(L.CheckInt64(1)),
			Slot:   uint8(L.OptInt(2, 0)),
		})
		return 0
	}))

	e.vm.SetGlobal("sage", api)
}
