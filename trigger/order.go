package trigger

import "sort"

// Less implements the protocol-critical total order over triggers:
//
//  1. two Block triggers compare equal (stable order is preserved by Sort);
//  2. any Block trigger sorts after any Call or Log trigger;
//  3. two Calls are ordered by transaction index ascending;
//  4. two Logs are ordered by log index ascending;
//  5. a Call vs a Log with equal transaction index: the Log precedes the
//     Call; otherwise ordered by transaction index ascending.
//
// Ties across kinds other than rule 1 do not occur in well-formed input.
func Less(a, b Trigger) bool {
	aBlock, aIsBlock := a.(*Block)
	bBlock, bIsBlock := b.(*Block)

	switch {
	case aIsBlock && bIsBlock:
		_ = aBlock
		_ = bBlock
		return false // rule 1: equal, Sort keeps input order
	case aIsBlock:
		return false // rule 2: Block never precedes a non-Block
	case bIsBlock:
		return true // rule 2: non-Block always precedes Block
	}

	aCall, aIsCall := a.(*Call)
	bCall, bIsCall := b.(*Call)
	aLog, aIsLog := a.(*Log)
	bLog, bIsLog := b.(*Log)

	switch {
	case aIsCall && bIsCall:
		return aCall.Value.TransactionIndex < bCall.Value.TransactionIndex // rule 3
	case aIsLog && bIsLog:
		return aLog.Value.LogIndex < bLog.Value.LogIndex // rule 4
	case aIsCall && bIsLog:
		if aCall.Value.TransactionIndex == bLog.Value.TransactionIndex {
			return false // rule 5: Log precedes Call on a tie
		}
		return aCall.Value.TransactionIndex < bLog.Value.TransactionIndex
	case aIsLog && bIsCall:
		if aLog.Value.TransactionIndex == bCall.Value.TransactionIndex {
			return true // rule 5: Log precedes Call on a tie
		}
		return aLog.Value.TransactionIndex < bCall.Value.TransactionIndex
	}

	return false
}

// Sort orders triggers in place using Less, preserving the relative order of
// triggers that compare equal (rule 1: two Block triggers from the same
// sort are stable relative to each other).
func Sort(triggers []Trigger) {
	sort.SliceStable(triggers, func(i, j int) bool {
		return Less(triggers[i], triggers[j])
	})
}

// Equal reports whether two triggers are equal under each kind's own
// equality (Block: BlockPtr+BlockFilter; Call: structural; Log:
// transaction_hash+log_index, a deliberate weakening).
func Equal(a, b Trigger) bool {
	switch av := a.(type) {
	case *Block:
		bv, ok := b.(*Block)
		return ok && av.Equal(bv)
	case *Call:
		bv, ok := b.(*Call)
		return ok && av.Equal(bv)
	case *Log:
		bv, ok := b.(*Log)
		return ok && av.Equal(bv)
	default:
		return false
	}
}
