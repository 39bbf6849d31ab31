package main

import (
	"math/big"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/machinefabric/eeproxy-go/address"
	"github.com/machinefabric/eeproxy-go/config"
	"github.com/machinefabric/eeproxy-go/ipc"
	"github.com/machinefabric/eeproxy-go/proxy"
	"github.com/machinefabric/eeproxy-go/score"
	"github.com/machinefabric/eeproxy-go/wire"
)

type invokePayload struct {
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

type resultPayload struct {
	_        struct{} `cbor:",toarray"`
	Status   uint16
	StepUsed []byte
	Result   wire.TypedObj
}

type getValueReply struct {
	_     struct{} `cbor:",toarray"`
	Found bool
	Value []byte
}

type setValuePayload struct {
	_        struct{} `cbor:",toarray"`
	Key      []byte
	IsDelete bool
	Value    []byte
}

// manager plays the service manager side of a pipe.
type manager struct {
	t     *testing.T
	c     *ipc.Client
	codec *wire.ValueCodec
}

func startSandbox(t *testing.T) *manager {
	sandboxConn, managerConn := net.Pipe()
	p := proxy.New(ipc.NewClient(sandboxConn))
	p.SetCodec(address.Codec{})
	registry := score.NewRegistry(p)
	require.NoError(t, registry.Register(helloCode, helloContract()))
	p.SetInvokeHandler(registry.Invoke)
	p.SetAPIHandler(registry.API)

	done := make(chan error, 1)
	go func() { done <- p.Loop() }()
	t.Cleanup(func() {
		managerConn.Close()
		<-done
	})
	return &manager{t: t, c: ipc.NewClient(managerConn), codec: wire.NewValueCodec(address.Codec{})}
}

func (m *manager) invoke(method string, query bool, params map[string]any) {
	m.t.Helper()
	o, err := m.codec.EncodeAny(params)
	require.NoError(m.t, err)
	require.NoError(m.t, m.c.Send(ipc.MessageInvoke, &invokePayload{
		Code:    []byte(helloCode),
		IsQuery: query,
		From:    address.MustParse("hx0000000000000000000000000000000000000001").Bytes(),
		To:      address.MustParse("cx0000000000000000000000000000000000000002").Bytes(),
		Value:   []byte{},
		Limit:   wire.EncodeInt(big.NewInt(1000)),
		Method:  []byte(method),
		Params:  o,
	}))
}

func (m *manager) expect(kind ipc.MessageKind) *ipc.Message {
	m.t.Helper()
	msg, err := m.c.Receive()
	require.NoError(m.t, err)
	require.Equal(m.t, kind, msg.Kind)
	return msg
}

func (m *manager) result() (proxy.Status, any) {
	m.t.Helper()
	var r resultPayload
	require.NoError(m.t, m.expect(ipc.MessageResult).Unmarshal(&r))
	v, err := m.codec.DecodeAny(r.Result)
	require.NoError(m.t, err)
	return proxy.Status(r.Status), v
}

// TEST701: hello reads the stored greeting, falling back to the default
func Test701_hello(t *testing.T) {
	m := startSandbox(t)
	m.invoke("hello", true, map[string]any{"name": "alice"})

	var key []byte
	require.NoError(t, m.expect(ipc.MessageGetValue).Unmarshal(&key))
	assert.Equal(t, []byte(greetingKey), key)
	require.NoError(t, m.c.Send(ipc.MessageGetValue, &getValueReply{Found: false, Value: []byte{}}))

	status, v := m.result()
	assert.Equal(t, proxy.StatusSuccess, status)
	assert.Equal(t, "Hello, alice", v)
}

// TEST702: setGreeting writes state and emits an event; as a query it is denied
func Test702_set_greeting(t *testing.T) {
	m := startSandbox(t)
	m.invoke("setGreeting", false, map[string]any{"greeting": "Hi"})

	var sv setValuePayload
	require.NoError(t, m.expect(ipc.MessageSetValue).Unmarshal(&sv))
	assert.Equal(t, []byte("Hi"), sv.Value)
	m.expect(ipc.MessageEvent)
	status, _ := m.result()
	assert.Equal(t, proxy.StatusSuccess, status)

	m.invoke("setGreeting", true, map[string]any{"greeting": "Hi"})
	status, _ = m.result()
	assert.Equal(t, proxy.StatusAccessDenied, status)
}

// TEST703: balanceOf forwards the owner address through GETBALANCE
func Test703_balance_of(t *testing.T) {
	m := startSandbox(t)
	owner := address.MustParse("hx0123456789abcdef0123456789abcdef01234567")
	m.invoke("balanceOf", true, map[string]any{"owner": owner})

	var addr []byte
	require.NoError(t, m.expect(ipc.MessageGetBalance).Unmarshal(&addr))
	assert.Equal(t, owner.Bytes(), addr)
	require.NoError(t, m.c.Send(ipc.MessageGetBalance, wire.EncodeInt(big.NewInt(31337))))

	status, v := m.result()
	assert.Equal(t, proxy.StatusSuccess, status)
	assert.Equal(t, "31337", v.(*big.Int).String())
}

// TEST704: GETAPI describes the sample contract
func Test704_get_api(t *testing.T) {
	m := startSandbox(t)
	require.NoError(t, m.c.Send(ipc.MessageGetAPI, []byte(helloCode)))

	var o wire.TypedObj
	require.NoError(t, m.expect(ipc.MessageGetAPI).Unmarshal(&o))
	v, err := m.codec.DecodeAny(o)
	require.NoError(t, err)
	assert.Len(t, v, 3)
}

// TEST705: Flags override the config file
func Test705_load_config_overrides(t *testing.T) {
	cfg, err := loadConfig("", "tcp", "127.0.0.1:9000")
	require.NoError(t, err)
	assert.Equal(t, "tcp", cfg.Network)
	assert.Equal(t, "127.0.0.1:9000", cfg.Address)
	assert.Equal(t, config.Default().Name, cfg.Name)

	_, err = loadConfig("", "udp", "")
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}
