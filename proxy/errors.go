package proxy

import (
	"errors"
	"fmt"

	"github.com/machinefabric/eeproxy-go/ipc"
)

var (
	ErrWriteDenied    = errors.New("proxy: no permission to write")
	ErrInvalidMessage = errors.New("proxy: invalid message")
	ErrNoHandler      = errors.New("proxy: no handler registered")
)

// InvalidMessageError reports a message of an unexpected kind where a reply
// (or a top-level request) of another kind was required.
type InvalidMessageError struct {
	Got      ipc.MessageKind
	Expected ipc.MessageKind
}

// Error implements error.
func (e *InvalidMessageError) Error() string {
	return fmt.Sprintf("proxy: invalid message %s, expected %s", e.Got, e.Expected)
}

// Is matches ErrInvalidMessage.
func (e *InvalidMessageError) Is(target error) bool {
	return target == ErrInvalidMessage
}
