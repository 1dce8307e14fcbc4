// Package dispatch implements the dispatch loop (C6): for one admitted
// block, enumerate its Triggers, sort them into the total order defined by
// package trigger, materialize a MappingTrigger per matched Handler
// Binding, and hand each to the guest one at a time in order.
package dispatch

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	gethlog "github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"

	"github.com/graphrunner/trigcore/chain"
	"github.com/graphrunner/trigcore/config"
	"github.com/graphrunner/trigcore/guest"
	"github.com/graphrunner/trigcore/handler"
	"github.com/graphrunner/trigcore/mapping"
	"github.com/graphrunner/trigcore/store"
	"github.com/graphrunner/trigcore/trigger"
	"github.com/graphrunner/trigcore/xerrors"
)

// Registrar receives per-block completion and error notifications from a
// deployment's dispatch session.
type Registrar interface {
	OnBlockComplete(ctx context.Context, deploymentID string, number uint64)
	OnBlockError(ctx context.Context, deploymentID string, number uint64, err error)
}

// Loop is a single deployment's dispatch session. All of its methods are
// meant to be called sequentially from one task — one writer per
// deployment; Loop itself does not synchronize callers.
type Loop struct {
	cfg       *config.DeploymentConfig
	adapter   chain.Adapter
	registry  *handler.Registry
	runtime   guest.RuntimeHost
	writer    store.Writer
	registrar Registrar
	log       gethlog.Logger
}

func NewLoop(cfg *config.DeploymentConfig, adapter chain.Adapter, registry *handler.Registry, runtime guest.RuntimeHost, writer store.Writer, registrar Registrar) *Loop {
	return &Loop{
		cfg:       cfg,
		adapter:   adapter,
		registry:  registry,
		runtime:   runtime,
		writer:    writer,
		registrar: registrar,
		log:       gethlog.New("deployment", cfg.DeploymentID),
	}
}

// ProcessBlock enumerates, orders and dispatches every trigger for one
// block. It returns a *xerrors.Deterministic or *xerrors.NonDeterministic on
// failure (see package xerrors); callers retry on the latter and halt the
// deployment on the former.
func (l *Loop) ProcessBlock(ctx context.Context, number uint64) error {
	session := uuid.New().String()
	log := l.log.With("session", session, "block", number)

	block, txs, err := l.adapter.BlockByNumber(ctx, number)
	if err != nil {
		return xerrors.NewNonDeterministic(fmt.Errorf("fetch block %d: %w", number, err))
	}
	logs, err := l.adapter.LogsForBlock(ctx, number)
	if err != nil {
		return xerrors.NewNonDeterministic(fmt.Errorf("fetch logs for block %d: %w", number, err))
	}
	calls, err := l.adapter.CallsForBlock(ctx, number)
	if err != nil {
		return xerrors.NewNonDeterministic(fmt.Errorf("fetch calls for block %d: %w", number, err))
	}

	txByIndex := make(map[uint64]*chain.Transaction, len(txs))
	for _, tx := range txs {
		if tx.Index != nil {
			txByIndex[tx.Index.Uint64()] = tx
		}
	}

	hasCallTo := func(addr common.Address) bool {
		for _, c := range calls {
			if c.To == addr {
				return true
			}
		}
		return false
	}

	triggers, blockFilterHandlers := l.enumerateTriggers(block, logs, calls, hasCallTo)
	trigger.Sort(triggers)

	log.Debug("triggers enumerated", "count", len(triggers))

	for _, t := range triggers {
		mappings, err := l.matchedMappingTriggers(t, block, txByIndex, blockFilterHandlers)
		if err != nil {
			l.fail(ctx, log, number, err)
			return err
		}
		for _, m := range mappings {
			if err := l.dispatchOne(ctx, m); err != nil {
				l.fail(ctx, log, number, err)
				return err
			}
		}
	}

	if err := l.writer.CommitBlock(ctx, l.cfg.DeploymentID, block.Number, block.Hash); err != nil {
		nerr := xerrors.NewNonDeterministic(fmt.Errorf("commit block %d: %w", number, err))
		l.fail(ctx, log, number, nerr)
		return nerr
	}

	log.Info("block complete")
	l.registrar.OnBlockComplete(ctx, l.cfg.DeploymentID, number)
	return nil
}

func (l *Loop) fail(ctx context.Context, log gethlog.Logger, number uint64, err error) {
	log.Error("block failed", "err", err)
	if rerr := l.writer.RollbackBlock(ctx); rerr != nil {
		log.Error("rollback failed", "err", rerr)
	}
	l.registrar.OnBlockError(ctx, l.cfg.DeploymentID, number, err)
}

// enumerateTriggers produces one Block trigger per distinct registered
// block filter that matches the block, one Call trigger per internal call
// whose address any CallHandler matches, and one Log trigger per log whose
// address+topic0 any EventHandler matches.
func (l *Loop) enumerateTriggers(block *chain.Block, logs []*chain.Log, calls []*chain.Call, hasCallTo func(common.Address) bool) ([]trigger.Trigger, map[trigger.BlockFilter][]*handler.BlockHandler) {
	byFilter := make(map[trigger.BlockFilter][]*handler.BlockHandler)
	var filterOrder []trigger.BlockFilter
	for _, h := range l.registry.MatchBlock(hasCallTo) {
		if _, seen := byFilter[h.Filter]; !seen {
			filterOrder = append(filterOrder, h.Filter)
		}
		byFilter[h.Filter] = append(byFilter[h.Filter], h)
	}

	var triggers []trigger.Trigger
	for _, c := range calls {
		if len(l.registry.MatchCall(c)) > 0 {
			triggers = append(triggers, &trigger.Call{Value: c})
		}
	}
	for _, lg := range logs {
		if len(l.registry.MatchLog(lg)) > 0 {
			triggers = append(triggers, &trigger.Log{Value: lg})
		}
	}
	for _, f := range filterOrder {
		triggers = append(triggers, &trigger.Block{
			Ptr:    trigger.BlockPtr{Number: block.Number, Hash: block.Hash},
			Filter: f,
		})
	}
	return triggers, byFilter
}

// matchedMappingTriggers matches a single sorted Trigger against the
// Handler Bindings and builds one MappingTrigger per matched binding, in
// handler-registration order.
func (l *Loop) matchedMappingTriggers(t trigger.Trigger, block *chain.Block, txByIndex map[uint64]*chain.Transaction, blockFilterHandlers map[trigger.BlockFilter][]*handler.BlockHandler) ([]mapping.MappingTrigger, error) {
	switch v := t.(type) {
	case *trigger.Log:
		tx, ok := txByIndex[v.Value.TransactionIndex]
		if !ok {
			return nil, xerrors.NewDeterministic(v.ErrorContext(), fmt.Errorf("no transaction at index %d", v.Value.TransactionIndex))
		}
		var out []mapping.MappingTrigger
		for _, h := range l.registry.MatchLog(v.Value) {
			params, err := handler.DecodeEventParams(h, v.Value)
			if err != nil {
				if dm, ok := err.(*xerrors.DecodeMismatch); ok {
					return nil, dm.AsDeterministic()
				}
				return nil, err
			}
			out = append(out, &mapping.Log{Block: block, Transaction: tx, Entry: v.Value, Params: params, Handler: h})
		}
		return out, nil

	case *trigger.Call:
		tx, ok := txByIndex[v.Value.TransactionIndex]
		if !ok {
			return nil, xerrors.NewDeterministic(v.ErrorContext(), fmt.Errorf("no transaction at index %d", v.Value.TransactionIndex))
		}
		var out []mapping.MappingTrigger
		for _, h := range l.registry.MatchCall(v.Value) {
			inputs, outputs, err := handler.DecodeCallParams(h, v.Value)
			if err != nil {
				return nil, err
			}
			out = append(out, &mapping.Call{Block: block, Transaction: tx, Entry: v.Value, Inputs: inputs, Outputs: outputs, Handler: h})
		}
		return out, nil

	case *trigger.Block:
		var out []mapping.MappingTrigger
		for _, h := range blockFilterHandlers[v.Filter] {
			out = append(out, &mapping.Block{Block: block, Handler: h})
		}
		return out, nil

	default:
		return nil, xerrors.NewDeterministic("", fmt.Errorf("dispatch: unknown trigger type %T", t))
	}
}

// dispatchOne implements step 4 for a single MappingTrigger: project onto
// the guest heap and invoke the named handler.
func (l *Loop) dispatchOne(ctx context.Context, m mapping.MappingTrigger) error {
	extras := append([]any{"handler", m.HandlerName()}, m.LoggingExtras()...)
	l.log.Debug("dispatching mapping trigger", extras...)

	ptr, err := guest.Project(l.runtime, m)
	if err != nil {
		return err
	}
	if err := l.runtime.Invoke(ctx, m.HandlerName(), ptr); err != nil {
		if trap, ok := err.(*xerrors.GuestTrap); ok {
			return trap.AsDispatchError()
		}
		return xerrors.NewNonDeterministic(fmt.Errorf("invoke %s: %w", m.HandlerName(), err))
	}
	return nil
}
