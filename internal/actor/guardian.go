package actor

import (
	"context"
	"sync"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/movierun/movie/internal/path"
)

// guardianBehavior is the root behavior for the /user and /system
// guardians. It has no user-facing logic of its own; it exists purely to
// anchor a subtree of supervised children.
type guardianBehavior struct{}

// Receive implements ActorBehavior. Guardians don't expect direct messages;
// anything sent to one is logged and dropped.
func (guardianBehavior) Receive(ctx context.Context, msg Message) fn.Result[any] {
	log.DebugS(ctx, "Guardian received unexpected direct message",
		"msg_type", msg.MessageType())

	return fn.Ok[any](nil)
}

// Guardian is the root cell type backing /user and /system.
type Guardian = Cell[Message, any]

// newGuardian constructs and starts a guardian cell at the given path.
func newGuardian(name string, addr path.Address, wg *sync.WaitGroup,
	dlo ActorRef[Message, any], registry *path.Registry,
) *Guardian {
	g := NewCell(CellConfig[Message, any]{
		ID:   addr.String() + "/" + name,
		Path: path.Root(addr).Child(name),
		BehaviorFactory: func() ActorBehavior[Message, any] {
			return guardianBehavior{}
		},
		DLO:         dlo,
		MailboxSize: 100,
		Wg:          wg,
		Supervision: DefaultSupervision(),
		Registry:    registry,
	})
	g.Start()

	return g
}
