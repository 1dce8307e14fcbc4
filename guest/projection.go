// Package guest converts a fully-resolved MappingTrigger into the versioned,
// serialized wire record a guest handler reads, selecting the layout that
// matches the deployment's manifest API version. Version selection is a
// small dispatch table (projectLog/projectCall below) rather than version
// checks sprinkled through the projection code itself.
package guest

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"github.com/graphrunner/trigcore/chain"
	"github.com/graphrunner/trigcore/mapping"
	"github.com/graphrunner/trigcore/xerrors"
)

// Project writes m onto heap using the layout selected by heap's declared
// API version, returning the root pointer of the written tree. Project is
// pure and idempotent: repeated calls for the same MappingTrigger onto
// equivalent heaps produce byte-equal artifacts, since it performs no
// mutation of m and every conversion below is a deterministic function of
// its input.
func Project(heap Heap, m mapping.MappingTrigger) (Ptr, error) {
	version, err := heap.APIVersion()
	if err != nil {
		return 0, xerrors.NewNonDeterministic(fmt.Errorf("query guest api version: %w", err))
	}

	switch v := m.(type) {
	case *mapping.Log:
		return projectLog(heap, version, v)
	case *mapping.Call:
		return projectCall(heap, version, v)
	case *mapping.Block:
		return projectBlock(heap, v)
	default:
		return 0, xerrors.NewDeterministic("", fmt.Errorf("guest: unknown mapping trigger type %T", m))
	}
}

func projectBlock(heap Heap, m *mapping.Block) (Ptr, error) {
	b, err := toWireBlock(m.Block)
	if err != nil {
		return 0, err
	}
	return heap.WriteBlock(b)
}

// projectLog selects the transaction layout for a Log mapping trigger: API
// >= 0.0.2 gets the v0.0.2 layout (adds from, index); below that, v0.0.1.
func projectLog(heap Heap, version Version, m *mapping.Log) (Ptr, error) {
	block, err := toWireBlock(m.Block)
	if err != nil {
		return 0, err
	}

	var tx any
	if version.AtLeast(V002) {
		tx, err = toWireTransactionV002(m.Transaction)
	} else {
		tx, err = toWireTransactionV001(m.Transaction)
	}
	if err != nil {
		return 0, err
	}

	// Known quirk, preserved verbatim: log_index and transaction_log_index
	// both receive the raw log_index value, or zero if the log omitted it.
	logIndex := big.NewInt(0)
	if m.Entry.HasLogIndex {
		logIndex = new(big.Int).SetUint64(m.Entry.LogIndex)
	}

	var logType *string
	if m.Entry.HasLogType {
		lt := m.Entry.LogType
		logType = &lt
	}

	ev := &EthereumEvent{
		Address:             m.Entry.Address,
		LogIndex:            logIndex,
		TransactionLogIndex: new(big.Int).Set(logIndex),
		LogType:             logType,
		Block:               *block,
		Transaction:         tx,
		Params:              toWireParams(m.Params),
	}
	return heap.WriteEvent(ev)
}

// projectCall selects the call layout for a Call mapping trigger: API >=
// 0.0.3 gets both inputs and outputs; below that, inputs only.
func projectCall(heap Heap, version Version, m *mapping.Call) (Ptr, error) {
	block, err := toWireBlock(m.Block)
	if err != nil {
		return 0, err
	}
	tx, err := toWireTransactionV002(m.Transaction)
	if err != nil {
		return 0, err
	}

	if version.AtLeast(V003) {
		return heap.WriteCallV003(&EthereumCallV003{
			To:          m.Entry.To,
			From:        m.Entry.From,
			Block:       *block,
			Transaction: tx,
			Inputs:      toWireParams(m.Inputs),
			Outputs:     toWireParams(m.Outputs),
		})
	}
	return heap.WriteCallLegacy(&EthereumCallLegacy{
		To:          m.Entry.To,
		From:        m.Entry.From,
		Block:       *block,
		Transaction: tx,
		Inputs:      toWireParams(m.Inputs),
	})
}

func toWireParams(params []chain.DecodedParam) []Param {
	if params == nil {
		return nil
	}
	out := make([]Param, len(params))
	for i, p := range params {
		out[i] = Param{Name: p.Name, Value: p.Value}
	}
	return out
}

func toWireBlock(b *chain.Block) (*EthereumBlock, error) {
	gasUsed, err := u256ToBig(b.GasUsed)
	if err != nil {
		return nil, xerrors.NewDeterministic("", fmt.Errorf("block %d gas_used: %w", b.Number, err))
	}
	gasLimit, err := u256ToBig(b.GasLimit)
	if err != nil {
		return nil, xerrors.NewDeterministic("", fmt.Errorf("block %d gas_limit: %w", b.Number, err))
	}
	timestamp, err := u256ToBig(b.Timestamp)
	if err != nil {
		return nil, xerrors.NewDeterministic("", fmt.Errorf("block %d timestamp: %w", b.Number, err))
	}
	difficulty, err := u256ToBig(b.Difficulty)
	if err != nil {
		return nil, xerrors.NewDeterministic("", fmt.Errorf("block %d difficulty: %w", b.Number, err))
	}

	// total_difficulty defaults to zero when the upstream block omits it.
	totalDifficulty := big.NewInt(0)
	if b.TotalDifficulty != nil {
		totalDifficulty = b.TotalDifficulty.ToBig()
	}

	var size *big.Int
	if b.Size != nil {
		size = b.Size.ToBig()
	}

	return &EthereumBlock{
		Hash:             b.Hash,
		ParentHash:       b.ParentHash,
		UnclesHash:       b.UnclesHash,
		Author:           b.Author,
		StateRoot:        b.StateRoot,
		TransactionsRoot: b.TransactionsRoot,
		ReceiptsRoot:     b.ReceiptsRoot,
		Number:           b.Number,
		GasUsed:          gasUsed,
		GasLimit:         gasLimit,
		Timestamp:        timestamp,
		Difficulty:       difficulty,
		TotalDifficulty:  totalDifficulty,
		Size:             size,
	}, nil
}

func toWireTransactionV001(t *chain.Transaction) (*EthereumTransactionV001, error) {
	value, err := u256ToBig(t.Value)
	if err != nil {
		return nil, xerrors.NewDeterministic("", fmt.Errorf("transaction %s value: %w", t.Hash.Hex(), err))
	}
	gasLimit, err := u256ToBig(t.GasLimit)
	if err != nil {
		return nil, xerrors.NewDeterministic("", fmt.Errorf("transaction %s gas_limit: %w", t.Hash.Hex(), err))
	}
	gasPrice, err := u256ToBig(t.GasPrice)
	if err != nil {
		return nil, xerrors.NewDeterministic("", fmt.Errorf("transaction %s gas_price: %w", t.Hash.Hex(), err))
	}

	var to *[20]byte
	if t.To != nil {
		addr := *t.To
		to = (*[20]byte)(&addr)
	}

	return &EthereumTransactionV001{
		Hash:     t.Hash,
		To:       to,
		Value:    value,
		GasLimit: gasLimit,
		GasPrice: gasPrice,
		Input:    t.Input,
	}, nil
}

func toWireTransactionV002(t *chain.Transaction) (*EthereumTransactionV002, error) {
	v1, err := toWireTransactionV001(t)
	if err != nil {
		return nil, err
	}
	index := big.NewInt(0)
	if t.Index != nil {
		index = new(big.Int).Set(t.Index)
	}
	return &EthereumTransactionV002{
		Hash:     v1.Hash,
		To:       v1.To,
		Value:    v1.Value,
		GasLimit: v1.GasLimit,
		GasPrice: v1.GasPrice,
		Input:    v1.Input,
		From:     t.From,
		Index:    index,
	}, nil
}

// u256ToBig converts a *uint256.Int into a *big.Int. The conversion is
// always exact (uint256.Int.ToBig never loses precision); nil is treated as
// zero since several chain-value fields are optional on the wire.
func u256ToBig(v *uint256.Int) (*big.Int, error) {
	if v == nil {
		return big.NewInt(0), nil
	}
	return v.ToBig(), nil
}
