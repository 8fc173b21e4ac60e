package domain

import "fmt"

// ListingStage is the lifecycle position of an asset registration.
type ListingStage int

const (
	ListingStageNone ListingStage = iota
	ListingStageAdded
	ListingStageInit
	ListingStageListed
)

func (s ListingStage) String() string {
	switch s {
	case ListingStageNone:
		return "NONE"
	case ListingStageAdded:
		return "ADDED"
	case ListingStageInit:
		return "INIT"
	case ListingStageListed:
		return "LISTED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(s))
	}
}

// ListingOperation is one of the operations moving a listing between stages.
type ListingOperation int

const (
	ListingOperationAdd ListingOperation = iota
	ListingOperationInit
	ListingOperationList
	ListingOperationUnlist
)

func (o ListingOperation) String() string {
	switch o {
	case ListingOperationAdd:
		return "add"
	case ListingOperationInit:
		return "init"
	case ListingOperationList:
		return "list"
	case ListingOperationUnlist:
		return "unlist"
	default:
		return fmt.Sprintf("unknown(%d)", int(o))
	}
}

// stageTransitions lists every allowed (from, via) -> to pair. Anything not
// in here is an invalid transition.
var stageTransitions = map[ListingStage]map[ListingOperation]ListingStage{
	ListingStageNone: {
		ListingOperationAdd: ListingStageAdded,
	},
	ListingStageAdded: {
		ListingOperationInit: ListingStageInit,
	},
	ListingStageInit: {
		ListingOperationList: ListingStageListed,
	},
	ListingStageListed: {
		ListingOperationUnlist: ListingStageNone,
	},
}

// NextStage returns the stage reached by applying op to a listing in stage
// from, or ErrInvalidStageTransition.
func NextStage(from ListingStage, op ListingOperation) (ListingStage, error) {
	if next, ok := stageTransitions[from][op]; ok {
		return next, nil
	}
	return from, fmt.Errorf(
		"%w: cannot %s asset in stage %s", ErrInvalidStageTransition, op, from,
	)
}

// RequiredStage returns the only stage from which op can be applied.
func RequiredStage(op ListingOperation) ListingStage {
	for from, ops := range stageTransitions {
		if _, ok := ops[op]; ok {
			return from
		}
	}
	return ListingStageNone
}
