// Package ipc is the framed transport between the sandbox and the service manager.
package ipc

import "fmt"

// Default maximum frame size (3.5 MB)
const DefaultMaxFrame int = 3_670_016

// Hard limit on frame size (16 MB) - prevents DoS
const MaxFrameHardLimit int = 16_777_216

// MessageKind identifies the payload shape of a message.
// Values MUST match the service manager.
type MessageKind uint

const (
	MessageVersion    MessageKind = 0
	MessageInvoke     MessageKind = 1
	MessageResult     MessageKind = 2
	MessageGetValue   MessageKind = 3
	MessageSetValue   MessageKind = 4
	MessageCall       MessageKind = 5
	MessageEvent      MessageKind = 6
	MessageGetInfo    MessageKind = 7
	MessageGetBalance MessageKind = 8
	MessageGetAPI     MessageKind = 9
	MessageLog        MessageKind = 10 // sandbox log line forwarded to the host
	MessageClose      MessageKind = 11 // host asks the sandbox to shut down
)

// String returns the message kind name
func (k MessageKind) String() string {
	switch k {
	case MessageVersion:
		return "VERSION"
	case MessageInvoke:
		return "INVOKE"
	case MessageResult:
		return "RESULT"
	case MessageGetValue:
		return "GETVALUE"
	case MessageSetValue:
		return "SETVALUE"
	case MessageCall:
		return "CALL"
	case MessageEvent:
		return "EVENT"
	case MessageGetInfo:
		return "GETINFO"
	case MessageGetBalance:
		return "GETBALANCE"
	case MessageGetAPI:
		return "GETAPI"
	case MessageLog:
		return "LOG"
	case MessageClose:
		return "CLOSE"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", k)
	}
}
