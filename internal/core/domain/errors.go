package domain

import "errors"

// Invalid arguments
var (
	// ErrInvalidArgument is the parent of every input validation error.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidAddress is returned for malformed or zero addresses.
	ErrInvalidAddress = wrap(ErrInvalidArgument, "address must be a non-zero hex address")
	// ErrInvalidAmount is returned for non positive or fractional amounts.
	ErrInvalidAmount = wrap(ErrInvalidArgument, "amount must be a positive integer")
	// ErrInvalidAssetKind ...
	ErrInvalidAssetKind = wrap(ErrInvalidArgument, "unknown asset kind")
	// ErrInvalidMaxOrdersPerTrade ...
	ErrInvalidMaxOrdersPerTrade = wrap(ErrInvalidArgument, "max orders per trade must be greater than 1")
	// ErrInvalidMinListingValue ...
	ErrInvalidMinListingValue = wrap(ErrInvalidArgument, "min listing value must be greater than 0")
	// ErrInvalidBurnFeeBps ...
	ErrInvalidBurnFeeBps = wrap(ErrInvalidArgument, "burn fee must be in range [0, 9999] basis points")
	// ErrInvalidRate ...
	ErrInvalidRate = wrap(ErrInvalidArgument, "rate must be a positive integer in precision units")
	// ErrMissingOrderLists ...
	ErrMissingOrderLists = wrap(ErrInvalidArgument, "reserve requires at least one order list")
)

// Listing errors
var (
	// ErrUnsupportedAsset is returned when adding an asset the lister refuses.
	ErrUnsupportedAsset = errors.New("asset is not supported")
	// ErrInvalidStageTransition is returned for any out of turn stage operation.
	ErrInvalidStageTransition = errors.New("invalid listing stage transition")
	// ErrRateNotEligibleForUnlisting is returned when the reserve is still
	// trusted and thus can't be unlisted.
	ErrRateNotEligibleForUnlisting = errors.New("rate deviation does not allow unlisting")
	// ErrRegistryRejected wraps failures of the network registry.
	ErrRegistryRejected = errors.New("network registry rejected the request")
	// ErrOrderbookFactoryFailed wraps failures of the order book factory.
	ErrOrderbookFactoryFailed = errors.New("order book factory failed")
)

// Authorization errors
var (
	// ErrNotAuthorized is returned when the caller lacks operator permission.
	ErrNotAuthorized = errors.New("caller is not authorized")
)

// Reserve errors
var (
	// ErrInsufficientBalance ...
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrInsufficientStake ...
	ErrInsufficientStake = errors.New("insufficient unlocked stake")
	// ErrOrderTooSmall ...
	ErrOrderTooSmall = errors.New("order source amount is below min order size")
	// ErrOrderCountExceeded ...
	ErrOrderCountExceeded = errors.New("maker open order count exceeded")
	// ErrOrderNotFound ...
	ErrOrderNotFound = errors.New("order not found")
	// ErrReserveNotInitialized ...
	ErrReserveNotInitialized = errors.New("reserve is not initialized")
	// ErrReserveAlreadyInitialized ...
	ErrReserveAlreadyInitialized = errors.New("reserve is already initialized")
	// ErrRateBlocksTrade is returned when new orders are submitted while the
	// governance rate drifted too far from the reserve's base rate.
	ErrRateBlocksTrade = errors.New("governance rate deviation blocks trading")
	// ErrReserveNotFound ...
	ErrReserveNotFound = errors.New("reserve not found")
	// ErrReserveNotListed is returned when taking orders of a reserve that
	// is not listed in the network.
	ErrReserveNotListed = errors.New("reserve is not listed")
)

// Fee ledger errors
var (
	// ErrOracleInvalid is returned when the rate oracle reports invalid data.
	ErrOracleInvalid = errors.New("rate oracle reported invalid data")
	// ErrNoAccruedVolume ...
	ErrNoAccruedVolume = errors.New("reserve has no accrued volume")
	// ErrBurnAmountTooLow is returned when the accrued volume is not enough to
	// burn a positive amount.
	ErrBurnAmountTooLow = errors.New("burn amount too low")
	// ErrReserveNotRegistered ...
	ErrReserveNotRegistered = errors.New("reserve is not registered in fee ledger")
	// ErrFeeLedgerNotFound ...
	ErrFeeLedgerNotFound = errors.New("fee ledger not found")
)

type wrappedError struct {
	parent error
	msg    string
}

func wrap(parent error, msg string) error {
	return &wrappedError{parent, msg}
}

func (e *wrappedError) Error() string {
	return e.parent.Error() + ": " + e.msg
}

func (e *wrappedError) Unwrap() error {
	return e.parent
}
