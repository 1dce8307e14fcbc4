package handler

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/graphrunner/trigcore/chain"
	"github.com/graphrunner/trigcore/xerrors"
)

// isDynamic reports whether an ABI type's indexed-topic encoding is the
// value itself (value types: address, bool, uintN/intN, fixed bytesN) or
// only its Keccak-256 hash (reference types: string, bytes, slices,
// fixed-size arrays and tuples) — the same distinction Solidity's own event
// encoder makes. A dynamic indexed argument's original value is not
// recoverable from the log; DecodeEventParams stores the raw topic hash for
// those, matching on-chain behavior rather than a shortcut.
func isDynamic(t abi.Type) bool {
	switch t.T {
	case abi.StringTy, abi.BytesTy, abi.SliceTy, abi.ArrayTy, abi.TupleTy:
		return true
	default:
		return false
	}
}

// DecodeEventParams decodes a Log's topics[1:] (indexed arguments) and data
// (non-indexed arguments) against the handler's declared ABI schema, in
// declaration order.
func DecodeEventParams(h *EventHandler, l *chain.Log) ([]chain.DecodedParam, error) {
	ctx := fmt.Sprintf("event %s at %s", h.Signature, l.Address.Hex())

	var nonIndexed abi.Arguments
	for i, arg := range h.ABI {
		if !h.Indexed[i] {
			nonIndexed = append(nonIndexed, arg)
		}
	}
	dataValues, err := nonIndexed.Unpack(l.Data)
	if err != nil {
		return nil, xerrors.NewDeterministic(ctx, fmt.Errorf("unpack log data: %w", err))
	}

	topics := l.Topics
	if len(topics) > 0 {
		topics = topics[1:] // topics[0] is the event signature hash
	}

	out := make([]chain.DecodedParam, 0, len(h.ABI))
	topicPos, dataPos := 0, 0
	for i, arg := range h.ABI {
		if h.Indexed[i] {
			if topicPos >= len(topics) {
				return nil, &xerrors.DecodeMismatch{Context: ctx, ArgIndex: i, WantType: arg.Type.String(), GotType: "<missing topic>"}
			}
			topic := topics[topicPos]
			topicPos++

			if isDynamic(arg.Type) {
				out = append(out, chain.DecodedParam{Name: arg.Name, Value: topic})
				continue
			}
			single := abi.Arguments{abi.Argument{Type: arg.Type}}
			vals, err := single.Unpack(topic.Bytes())
			if err != nil || len(vals) != 1 {
				return nil, &xerrors.DecodeMismatch{Context: ctx, ArgIndex: i, WantType: arg.Type.String(), GotType: "topic"}
			}
			out = append(out, chain.DecodedParam{Name: arg.Name, Value: vals[0]})
			continue
		}

		if dataPos >= len(dataValues) {
			return nil, &xerrors.DecodeMismatch{Context: ctx, ArgIndex: i, WantType: arg.Type.String(), GotType: "<missing data field>"}
		}
		out = append(out, chain.DecodedParam{Name: arg.Name, Value: dataValues[dataPos]})
		dataPos++
	}
	return out, nil
}

// DecodeCallParams decodes a Call's inputs (after the 4-byte selector) and
// outputs against the handler's declared ABI schema.
func DecodeCallParams(h *CallHandler, c *chain.Call) (inputs, outputs []chain.DecodedParam, err error) {
	ctx := fmt.Sprintf("function %s at %s", h.Function, h.Address.Hex())

	inVals, err := h.Inputs.Unpack(c.Inputs[4:])
	if err != nil {
		return nil, nil, xerrors.NewDeterministic(ctx, fmt.Errorf("unpack call inputs: %w", err))
	}
	inputs = zip(h.Inputs, inVals)

	if len(h.Outputs) == 0 {
		return inputs, nil, nil
	}
	outVals, err := h.Outputs.Unpack(c.Outputs)
	if err != nil {
		return nil, nil, xerrors.NewDeterministic(ctx, fmt.Errorf("unpack call outputs: %w", err))
	}
	outputs = zip(h.Outputs, outVals)
	return inputs, outputs, nil
}

func zip(args abi.Arguments, values []interface{}) []chain.DecodedParam {
	out := make([]chain.DecodedParam, len(args))
	for i, a := range args {
		out[i] = chain.DecodedParam{Name: a.Name, Value: values[i]}
	}
	return out
}
