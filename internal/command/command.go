// Package command is the order boundary of the simulation: player input,
// scripts, and (eventually) the network all reduce to the same small command
// set, queued between ticks and consumed by the logic driver before any
// module updates. Application reports explicit outcomes; an order whose
// target died last tick is a normal miss, not an error.
package command

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/rtsforge/sagecore/internal/entity"
)

type Kind uint8

const (
	KindSpawn Kind = iota
	KindDestroy
	KindMoveTo
	KindDamage
	KindWake
)

func (k Kind) String() string {
	switch k {
	case KindSpawn:
		return "spawn"
	case KindDestroy:
		return "destroy"
	case KindMoveTo:
		return "move_to"
	case KindDamage:
		return "damage"
	case KindWake:
		return "wake"
	default:
		return "unknown"
	}
}

// Command is one order. Fields beyond Kind are used per kind: Definition and
// Pos/Yaw for spawn, Target for everything else, Pos for move, Amount for
// damage, Slot for wake.
type Command struct {
	Kind       Kind
	Definition string
	Target     entity.ID
	Pos        mgl64.Vec3
	Yaw        float64
	Amount     int
	Slot       uint8
}

// Outcome says what happened to an order. Only genuine programming errors
// escalate beyond these.
type Outcome uint8

const (
	Accepted Outcome = iota
	TargetNotFound
	UnknownDefinition
	Rejected
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case TargetNotFound:
		return "target_not_found"
	case UnknownDefinition:
		return "unknown_definition"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Result is the response to one applied command.
type Result struct {
	Outcome Outcome
	// Spawned carries the new entity's ID for accepted spawn commands.
	Spawned entity.ID
}

// Source delivers the batch of commands a tick consumes. Drained exactly once
// per tick, before modules update.
type Source interface {
	Drain() []Command
}

// Queue is a FIFO command source. Enqueue is safe from any goroutine so CLI,
// scripts, and future transports can feed the same queue; Drain runs on the
// simulation goroutine.
type Queue struct {
	mu   sync.Mutex
	cmds []Command
}

func NewQueue() *Queue { return &Queue{} }

func (q *Queue) Enqueue(cmd Command) {
	q.mu.Lock()
	q.cmds = append(q.cmds, cmd)
	q.mu.Unlock()
}

// Drain returns all pending commands in enqueue order and empties the queue.
func (q *Queue) Drain() []Command {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.cmds) == 0 {
		return nil
	}
	out := q.cmds
	q.cmds = nil
	return out
}
