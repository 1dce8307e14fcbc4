package dispatch_test

import (
	"context"
	"math/big"
	"testing"

	goabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/graphrunner/trigcore/chain"
	"github.com/graphrunner/trigcore/config"
	"github.com/graphrunner/trigcore/dispatch"
	"github.com/graphrunner/trigcore/guest"
	"github.com/graphrunner/trigcore/guest/memheap"
	"github.com/graphrunner/trigcore/handler"
	"github.com/graphrunner/trigcore/store"
	"github.com/graphrunner/trigcore/trigger"
)

type fakeAdapter struct {
	block *chain.Block
	txs   []*chain.Transaction
	logs  []*chain.Log
	calls []*chain.Call
}

func (a *fakeAdapter) BlockByNumber(ctx context.Context, number uint64) (*chain.Block, []*chain.Transaction, error) {
	return a.block, a.txs, nil
}
func (a *fakeAdapter) LogsForBlock(ctx context.Context, number uint64) ([]*chain.Log, error) {
	return a.logs, nil
}
func (a *fakeAdapter) CallsForBlock(ctx context.Context, number uint64) ([]*chain.Call, error) {
	return a.calls, nil
}

type fakeRuntime struct {
	*memheap.Heap
	invoked []string
}

func (f *fakeRuntime) Invoke(ctx context.Context, handlerName string, ptr guest.Ptr) error {
	f.invoked = append(f.invoked, handlerName)
	return nil
}

type fakeWriter struct {
	committed bool
	rolledBack bool
}

func (w *fakeWriter) WriteEntity(ctx context.Context, e store.EntityWrite) error { return nil }
func (w *fakeWriter) CommitBlock(ctx context.Context, deploymentID string, number uint64, hash common.Hash) error {
	w.committed = true
	return nil
}
func (w *fakeWriter) RollbackBlock(ctx context.Context) error {
	w.rolledBack = true
	return nil
}

type fakeRegistrar struct {
	completed []uint64
	errored   []error
}

func (r *fakeRegistrar) OnBlockComplete(ctx context.Context, deploymentID string, number uint64) {
	r.completed = append(r.completed, number)
}
func (r *fakeRegistrar) OnBlockError(ctx context.Context, deploymentID string, number uint64, err error) {
	r.errored = append(r.errored, err)
}

func buildRegistry(t *testing.T, eventSig string, eventAddr common.Address, fnSig string, fnAddr common.Address) *handler.Registry {
	t.Helper()
	uintTy, err := goabi.NewType("uint256", "", nil)
	require.NoError(t, err)

	r := handler.NewRegistry()
	r.AddEventHandler(&handler.EventHandler{
		Address:     eventAddr,
		Signature:   eventSig,
		HandlerName: "handleEvent",
		ABI:         goabi.Arguments{{Name: "value", Type: uintTy}},
		Indexed:     []bool{false},
	})
	r.AddCallHandler(&handler.CallHandler{
		Address:     fnAddr,
		Function:    fnSig,
		HandlerName: "handleCall",
		Inputs:      goabi.Arguments{{Name: "amount", Type: uintTy}},
	})
	r.AddBlockHandler(&handler.BlockHandler{Filter: trigger.BlockFilter{Kind: trigger.Every}, HandlerName: "handleBlock"})
	return r
}

// two logs and one call in the same transaction dispatch as Log(2), Log(5),
// Call, Block — log index ascending, call before block.
func TestProcessBlock_OrderWithinOneTransaction(t *testing.T) {
	eventSig := "Ping(uint256)"
	fnSig := "pong(uint256)"
	addr := common.HexToAddress("0xAAAA")

	registry := buildRegistry(t, eventSig, addr, fnSig, addr)
	topic0 := crypto.Keccak256Hash([]byte(eventSig))

	block := &chain.Block{Hash: common.HexToHash("0xblock"), Number: 10, GasUsed: uint256.NewInt(0), GasLimit: uint256.NewInt(0), Timestamp: uint256.NewInt(0), Difficulty: uint256.NewInt(0)}
	tx := &chain.Transaction{Hash: common.HexToHash("0xtx"), Index: big.NewInt(0), Value: uint256.NewInt(0), GasLimit: uint256.NewInt(0), GasPrice: uint256.NewInt(0)}

	data := common.LeftPadBytes(big.NewInt(1).Bytes(), 32)
	log2 := &chain.Log{Address: addr, BlockNumber: 10, BlockHash: block.Hash, TransactionHash: tx.Hash, TransactionIndex: 0, LogIndex: 2, HasLogIndex: true, Topics: []common.Hash{topic0}, Data: data}
	log5 := &chain.Log{Address: addr, BlockNumber: 10, BlockHash: block.Hash, TransactionHash: tx.Hash, TransactionIndex: 0, LogIndex: 5, HasLogIndex: true, Topics: []common.Hash{topic0}, Data: data}

	sel := crypto.Keccak256([]byte(fnSig))[:4]
	packed, err := goabi.Arguments{{Name: "amount", Type: mustUintType(t)}}.Pack(big.NewInt(9))
	require.NoError(t, err)
	call := &chain.Call{From: addr, To: addr, BlockNumber: 10, BlockHash: block.Hash, TransactionHash: tx.Hash, TransactionIndex: 0, Inputs: append(sel, packed...)}

	adapter := &fakeAdapter{block: block, txs: []*chain.Transaction{tx}, logs: []*chain.Log{log2, log5}, calls: []*chain.Call{call}}
	runtime := &fakeRuntime{Heap: memheap.New(guest.V002)}
	writer := &fakeWriter{}
	registrar := &fakeRegistrar{}

	loop := dispatch.NewLoop(config.NewDeploymentConfig("dep-1", 1), adapter, registry, runtime, writer, registrar)
	require.NoError(t, loop.ProcessBlock(context.Background(), 10))

	require.Equal(t, []string{"handleEvent", "handleEvent", "handleCall", "handleBlock"}, runtime.invoked)
	require.True(t, writer.committed)
	require.False(t, writer.rolledBack)
	require.Equal(t, []uint64{10}, registrar.completed)
	require.Empty(t, registrar.errored)
}

func mustUintType(t *testing.T) goabi.Type {
	t.Helper()
	ty, err := goabi.NewType("uint256", "", nil)
	require.NoError(t, err)
	return ty
}

// processing the same block twice with identical bindings yields identical
// dispatch order both times.
func TestProcessBlock_DeterministicReplay(t *testing.T) {
	eventSig := "Ping(uint256)"
	fnSig := "pong(uint256)"
	addr := common.HexToAddress("0xAAAA")
	registry := buildRegistry(t, eventSig, addr, fnSig, addr)
	topic0 := crypto.Keccak256Hash([]byte(eventSig))

	block := &chain.Block{Hash: common.HexToHash("0xblock"), Number: 1, GasUsed: uint256.NewInt(0), GasLimit: uint256.NewInt(0), Timestamp: uint256.NewInt(0), Difficulty: uint256.NewInt(0)}
	tx := &chain.Transaction{Hash: common.HexToHash("0xtx"), Index: big.NewInt(0), Value: uint256.NewInt(0), GasLimit: uint256.NewInt(0), GasPrice: uint256.NewInt(0)}
	data := common.LeftPadBytes(big.NewInt(1).Bytes(), 32)
	l := &chain.Log{Address: addr, BlockNumber: 1, BlockHash: block.Hash, TransactionHash: tx.Hash, TransactionIndex: 0, LogIndex: 0, HasLogIndex: true, Topics: []common.Hash{topic0}, Data: data}

	run := func() []string {
		adapter := &fakeAdapter{block: block, txs: []*chain.Transaction{tx}, logs: []*chain.Log{l}}
		runtime := &fakeRuntime{Heap: memheap.New(guest.V002)}
		loop := dispatch.NewLoop(config.NewDeploymentConfig("dep-1", 1), adapter, registry, runtime, &fakeWriter{}, &fakeRegistrar{})
		require.NoError(t, loop.ProcessBlock(context.Background(), 1))
		return runtime.invoked
	}

	require.Equal(t, run(), run())
}

// A deterministic decode error rolls back the block and reports OnBlockError
// instead of completing.
func TestProcessBlock_DeterministicErrorRollsBack(t *testing.T) {
	eventSig := "Ping(uint256)"
	addr := common.HexToAddress("0xAAAA")
	registry := buildRegistry(t, eventSig, addr, "pong(uint256)", addr)
	topic0 := crypto.Keccak256Hash([]byte(eventSig))

	block := &chain.Block{Hash: common.HexToHash("0xblock"), Number: 1, GasUsed: uint256.NewInt(0), GasLimit: uint256.NewInt(0), Timestamp: uint256.NewInt(0), Difficulty: uint256.NewInt(0)}
	tx := &chain.Transaction{Hash: common.HexToHash("0xtx"), Index: big.NewInt(0), Value: uint256.NewInt(0), GasLimit: uint256.NewInt(0), GasPrice: uint256.NewInt(0)}
	// Data too short to decode a uint256: triggers a deterministic decode error.
	l := &chain.Log{Address: addr, BlockNumber: 1, BlockHash: block.Hash, TransactionHash: tx.Hash, TransactionIndex: 0, LogIndex: 0, HasLogIndex: true, Topics: []common.Hash{topic0}, Data: []byte{1, 2, 3}}

	adapter := &fakeAdapter{block: block, txs: []*chain.Transaction{tx}, logs: []*chain.Log{l}}
	runtime := &fakeRuntime{Heap: memheap.New(guest.V002)}
	writer := &fakeWriter{}
	registrar := &fakeRegistrar{}

	loop := dispatch.NewLoop(config.NewDeploymentConfig("dep-1", 1), adapter, registry, runtime, writer, registrar)
	err := loop.ProcessBlock(context.Background(), 1)

	require.Error(t, err)
	require.True(t, writer.rolledBack)
	require.False(t, writer.committed)
	require.Len(t, registrar.errored, 1)
}
