package errors

import "fmt"

type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return e.Field + ": " + e.Message
}

// UnpricedAcquisitionError indicates an acquisition without a USD valuation.
// No lot can be created from it until the transaction is priced.
type UnpricedAcquisitionError struct {
	TransactionID string
	Asset         string
}

func (e *UnpricedAcquisitionError) Error() string {
	return fmt.Sprintf("acquisition %s (%s) has no USD valuation", e.TransactionID, e.Asset)
}

// InsufficientLotsError indicates a disposal larger than the open quantity of
// the asset. It signals missing historical data (e.g. a deposit that was never
// imported), never a condition to clamp silently.
type InsufficientLotsError struct {
	TransactionID string
	Asset         string
	Requested     string
	Available     string
}

func (e *InsufficientLotsError) Error() string {
	return fmt.Sprintf("disposal %s requests %s %s but only %s is open", e.TransactionID, e.Requested, e.Asset, e.Available)
}

// LotNotFoundError indicates a SpecificID selection referencing a lot that does
// not exist or lacks the requested remaining quantity.
type LotNotFoundError struct {
	TransactionID string
	LotID         string
}

func (e *LotNotFoundError) Error() string {
	return fmt.Sprintf("disposal %s references lot %s which is missing or exhausted", e.TransactionID, e.LotID)
}
