package proxy

import "github.com/machinefabric/eeproxy-go/wire"

// Payload shapes. Every message is a positional CBOR array.

type versionMessage struct {
	_       struct{} `cbor:",toarray"`
	Version uint16
	PID     int
	Name    string
}

// invokeLimitField is the position of Limit in invokeMessage.
const invokeLimitField = 5

type invokeMessage struct {
	_       struct{} `cbor:",toarray"`
	Code    []byte
	IsQuery bool
	From    []byte
	To      []byte
	Value   []byte
	Limit   []byte
	Method  []byte
	Params  wire.TypedObj
}

type resultMessage struct {
	_        struct{} `cbor:",toarray"`
	Status   Status
	StepUsed []byte
	Result   wire.TypedObj
}

type getValueReply struct {
	_     struct{} `cbor:",toarray"`
	Found bool
	Value []byte
}

type setValueMessage struct {
	_        struct{} `cbor:",toarray"`
	Key      []byte
	IsDelete bool
	Value    []byte
}

type callMessage struct {
	_      struct{} `cbor:",toarray"`
	To     []byte
	Value  []byte
	Limit  []byte
	Method []byte
	Params wire.TypedObj
}

type eventMessage struct {
	_       struct{} `cbor:",toarray"`
	Indexed [][]byte
	Data    [][]byte
}

type logMessage struct {
	_       struct{} `cbor:",toarray"`
	Level   LogLevel
	Message string
}

// LogLevel is the host's log level numbering.
type LogLevel uint

const (
	LogPanic LogLevel = iota
	LogFatal
	LogError
	LogWarn
	LogInfo
	LogDebug
	LogTrace
)

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
