package booking

import (
	"context"
	"fmt"
)

// WorkflowState tracks sales-contact progress for one exhibitor at one festival.
type WorkflowState string

const (
	StateNoContact            WorkflowState = "no_contact"
	StateContactMade          WorkflowState = "contact_made"
	StateInDiscussion         WorkflowState = "in_discussion"
	StateReservationConfirmed WorkflowState = "reservation_confirmed"
	StateInvoiced             WorkflowState = "invoiced"
	StateInvoicePaid          WorkflowState = "invoice_paid"
	StateWillBeAbsent         WorkflowState = "will_be_absent"
	StateConsideredAbsent     WorkflowState = "considered_absent"
)

// allowedTransitions is the full transition table. States missing a row
// (WillBeAbsent, ConsideredAbsent, InvoicePaid) are terminal.
var allowedTransitions = map[WorkflowState][]WorkflowState{
	StateNoContact:            {StateContactMade, StateInDiscussion, StateWillBeAbsent, StateConsideredAbsent},
	StateContactMade:          {StateInDiscussion, StateWillBeAbsent, StateConsideredAbsent},
	StateInDiscussion:         {StateReservationConfirmed, StateWillBeAbsent, StateConsideredAbsent},
	StateReservationConfirmed: {StateInvoiced},
	StateInvoiced:             {StateInvoicePaid},
}

// ParseWorkflowState validates a workflow state string.
func ParseWorkflowState(raw string) (WorkflowState, error) {
	switch WorkflowState(raw) {
	case StateNoContact, StateContactMade, StateInDiscussion, StateReservationConfirmed,
		StateInvoiced, StateInvoicePaid, StateWillBeAbsent, StateConsideredAbsent:
		return WorkflowState(raw), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidWorkflowState, raw)
}

// String returns the state value.
func (state WorkflowState) String() string {
	return string(state)
}

// CanTransitionTo reports whether the transition table allows moving to next.
func (state WorkflowState) CanTransitionTo(next WorkflowState) bool {
	for _, allowed := range allowedTransitions[state] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves this state.
func (state WorkflowState) Terminal() bool {
	return len(allowedTransitions[state]) == 0
}

// WorkflowFlags is the boolean checklist tracked alongside the state.
type WorkflowFlags struct {
	RequestedGameList bool
	ObtainedGameList  bool
	ReceivedGames     bool
	WillPresentGames  bool
}

// WorkflowFlagPatch overwrites only the flags that are explicitly set.
type WorkflowFlagPatch struct {
	RequestedGameList *bool
	ObtainedGameList  *bool
	ReceivedGames     *bool
	WillPresentGames  *bool
}

// ApplyTo merges the patch over existing flags.
func (patch WorkflowFlagPatch) ApplyTo(flags WorkflowFlags) WorkflowFlags {
	if patch.RequestedGameList != nil {
		flags.RequestedGameList = *patch.RequestedGameList
	}
	if patch.ObtainedGameList != nil {
		flags.ObtainedGameList = *patch.ObtainedGameList
	}
	if patch.ReceivedGames != nil {
		flags.ReceivedGames = *patch.ReceivedGames
	}
	if patch.WillPresentGames != nil {
		flags.WillPresentGames = *patch.WillPresentGames
	}
	return flags
}

// Workflow is the per (exhibitor, festival) status row.
type Workflow struct {
	WorkflowID  string
	ExhibitorID string
	FestivalID  string
	State       WorkflowState
	Flags       WorkflowFlags
}

// WorkflowService governs workflow state and flags. Concurrent writers to
// the same workflow are last-write-wins.
type WorkflowService struct {
	store  Store
	logger OperationLogger
}

// NewWorkflowService wires a WorkflowService.
func NewWorkflowService(store Store, options ...Option) (*WorkflowService, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store dependency is nil", ErrInvalidServiceConfig)
	}
	settings := applyOptions(options)
	return &WorkflowService{store: store, logger: settings.logger}, nil
}

// Get returns the workflow for the pair, creating it at NoContact when absent.
func (service *WorkflowService) Get(ctx context.Context, exhibitorID ExhibitorID, festivalID FestivalID) (Workflow, error) {
	return service.store.GetOrCreateWorkflow(ctx, exhibitorID.String(), festivalID.String())
}

// ChangeState moves the workflow to next when the transition table allows it.
// A disallowed transition returns ErrTransitionNotAllowed with the row
// untouched; the festival id is always required, there is no fallback.
func (service *WorkflowService) ChangeState(ctx context.Context, exhibitorID ExhibitorID, festivalID FestivalID, next WorkflowState) (Workflow, error) {
	var workflow Workflow
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		current, err := transactionStore.GetOrCreateWorkflow(ctx, exhibitorID.String(), festivalID.String())
		if err != nil {
			return err
		}
		workflow = current
		if !current.State.CanTransitionTo(next) {
			return fmt.Errorf("%w: %s -> %s", ErrTransitionNotAllowed, current.State, next)
		}
		if err := transactionStore.UpdateWorkflowState(ctx, current.WorkflowID, next); err != nil {
			return err
		}
		workflow.State = next
		return nil
	})
	logOperation(ctx, service.logger, OperationLog{
		Operation:   operationWorkflowChangeState,
		FestivalID:  festivalID.String(),
		ExhibitorID: exhibitorID.String(),
		Detail:      next.String(),
		Error:       operationError,
	})
	return workflow, operationError
}

// SetFlags overwrites only the flags present in the patch.
func (service *WorkflowService) SetFlags(ctx context.Context, exhibitorID ExhibitorID, festivalID FestivalID, patch WorkflowFlagPatch) (Workflow, error) {
	var workflow Workflow
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		current, err := transactionStore.GetOrCreateWorkflow(ctx, exhibitorID.String(), festivalID.String())
		if err != nil {
			return err
		}
		merged := patch.ApplyTo(current.Flags)
		if err := transactionStore.UpdateWorkflowFlags(ctx, current.WorkflowID, merged); err != nil {
			return err
		}
		workflow = current
		workflow.Flags = merged
		return nil
	})
	logOperation(ctx, service.logger, OperationLog{
		Operation:   operationWorkflowSetFlags,
		FestivalID:  festivalID.String(),
		ExhibitorID: exhibitorID.String(),
		Error:       operationError,
	})
	return workflow, operationError
}
