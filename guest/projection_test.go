package guest_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/graphrunner/trigcore/chain"
	"github.com/graphrunner/trigcore/guest"
	"github.com/graphrunner/trigcore/guest/memheap"
	"github.com/graphrunner/trigcore/handler"
	"github.com/graphrunner/trigcore/mapping"
)

func sampleBlock() *chain.Block {
	return &chain.Block{
		Hash:            common.HexToHash("0x01"),
		Number:          100,
		GasUsed:         uint256.NewInt(21000),
		GasLimit:        uint256.NewInt(30000000),
		Timestamp:       uint256.NewInt(1700000000),
		Difficulty:      uint256.NewInt(0),
		TotalDifficulty: nil, // omitted upstream
	}
}

func sampleTx() *chain.Transaction {
	to := common.HexToAddress("0x02")
	return &chain.Transaction{
		Hash:     common.HexToHash("0x03"),
		Index:    big.NewInt(1),
		From:     common.HexToAddress("0x04"),
		To:       &to,
		Value:    uint256.NewInt(5),
		GasLimit: uint256.NewInt(21000),
		GasPrice: uint256.NewInt(1),
		Input:    []byte{},
	}
}

func sampleLogMapping() *mapping.Log {
	return &mapping.Log{
		Block:       sampleBlock(),
		Transaction: sampleTx(),
		Entry: &chain.Log{
			Address: common.HexToAddress("0x05"),
			// LogIndex omitted (HasLogIndex false): scenario 5.
		},
		Params:  []chain.DecodedParam{{Name: "value", Value: big.NewInt(42)}},
		Handler: &handler.EventHandler{HandlerName: "handleIt", Signature: "Transfer(address,address,uint256)"},
	}
}

// scenario 3: v0.0.1 log projection lacks from/index.
func TestProjectLog_V001(t *testing.T) {
	h := memheap.New(guest.V001)
	ptr, err := guest.Project(h, sampleLogMapping())
	require.NoError(t, err)

	ev := h.RecordAt(ptr).(guest.EthereumEvent)
	tx, ok := ev.Transaction.(*guest.EthereumTransactionV001)
	require.True(t, ok, "expected v0.0.1 transaction layout, got %T", ev.Transaction)
	require.NotNil(t, tx)
}

// scenario 3 (converse): v0.0.2+ log projection carries from/index.
func TestProjectLog_V002(t *testing.T) {
	h := memheap.New(guest.V002)
	ptr, err := guest.Project(h, sampleLogMapping())
	require.NoError(t, err)

	ev := h.RecordAt(ptr).(guest.EthereumEvent)
	tx, ok := ev.Transaction.(*guest.EthereumTransactionV002)
	require.True(t, ok, "expected v0.0.2 transaction layout, got %T", ev.Transaction)
	require.Equal(t, sampleTx().From, tx.From)
	require.Equal(t, big.NewInt(1), tx.Index)
}

// scenario 4: v0.0.3 call projection has both inputs and outputs; v0.0.2
// lacks outputs.
func TestProjectCall_VersionSelection(t *testing.T) {
	m := &mapping.Call{
		Block:       sampleBlock(),
		Transaction: sampleTx(),
		Entry:       &chain.Call{To: common.HexToAddress("0x06"), From: common.HexToAddress("0x07")},
		Inputs:      []chain.DecodedParam{{Name: "amount", Value: big.NewInt(1)}},
		Outputs:     []chain.DecodedParam{{Name: "ok", Value: true}},
		Handler:     &handler.CallHandler{HandlerName: "handleCall", Function: "transfer(address,uint256)"},
	}

	h3 := memheap.New(guest.V003)
	ptr3, err := guest.Project(h3, m)
	require.NoError(t, err)
	call3 := h3.RecordAt(ptr3).(guest.EthereumCallV003)
	require.Len(t, call3.Outputs, 1)
	require.Len(t, call3.Inputs, 1)

	h2 := memheap.New(guest.Version{Major: 0, Minor: 0, Patch: 2})
	ptr2, err := guest.Project(h2, m)
	require.NoError(t, err)
	callLegacy := h2.RecordAt(ptr2).(guest.EthereumCallLegacy)
	require.Len(t, callLegacy.Inputs, 1)
}

// scenario 5: missing log_index defaults both log_index and
// transaction_log_index to zero.
func TestProjectLog_MissingLogIndexDefaultsZero(t *testing.T) {
	h := memheap.New(guest.V002)
	ptr, err := guest.Project(h, sampleLogMapping())
	require.NoError(t, err)

	ev := h.RecordAt(ptr).(guest.EthereumEvent)
	require.Equal(t, big.NewInt(0), ev.LogIndex)
	require.Equal(t, big.NewInt(0), ev.TransactionLogIndex)
}

func TestProjectLog_PresentLogIndexDuplicated(t *testing.T) {
	m := sampleLogMapping()
	m.Entry.LogIndex = 7
	m.Entry.HasLogIndex = true

	h := memheap.New(guest.V002)
	ptr, err := guest.Project(h, m)
	require.NoError(t, err)

	ev := h.RecordAt(ptr).(guest.EthereumEvent)
	require.Equal(t, big.NewInt(7), ev.LogIndex)
	require.Equal(t, big.NewInt(7), ev.TransactionLogIndex)
}

// total_difficulty defaults to zero when the source block omits it.
func TestProjectBlock_TotalDifficultyDefaultsZero(t *testing.T) {
	m := &mapping.Block{Block: sampleBlock(), Handler: &handler.BlockHandler{HandlerName: "handleBlock"}}
	h := memheap.New(guest.V001)
	ptr, err := guest.Project(h, m)
	require.NoError(t, err)

	b := h.RecordAt(ptr).(guest.EthereumBlock)
	require.Equal(t, big.NewInt(0), b.TotalDifficulty)
}

// projecting the same MappingTrigger onto two fresh heaps yields
// byte-equal (here: deep-equal) artifacts.
func TestProject_Purity(t *testing.T) {
	m := sampleLogMapping()

	h1 := memheap.New(guest.V002)
	p1, err := guest.Project(h1, m)
	require.NoError(t, err)

	h2 := memheap.New(guest.V002)
	p2, err := guest.Project(h2, m)
	require.NoError(t, err)

	require.True(t, memheap.Equal(h1, p1, h2, p2))
}

// repeated projection on the same heap is idempotent in content even
// though the pointer changes (each write allocates fresh heap space, as a
// real guest heap would).
func TestProject_RepeatedProjectionSameContent(t *testing.T) {
	m := sampleLogMapping()
	h := memheap.New(guest.V002)

	p1, err := guest.Project(h, m)
	require.NoError(t, err)
	p2, err := guest.Project(h, m)
	require.NoError(t, err)

	require.True(t, memheap.Equal(h, p1, h, p2))
}
