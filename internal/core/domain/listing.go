package domain

// Listing tracks the registration of a single asset and the reserve bound
// to it.
type Listing struct {
	// Asset address, also the listing key.
	Asset string
	// Reserve currently bound to the asset, empty in stage NONE.
	Reserve string
	Stage   ListingStage
	// PastReserves holds, oldest first, the reserves bound to the asset
	// before being unlisted. They keep existing on their own.
	PastReserves []string
}

// NewListing returns a listing in stage NONE for the given asset.
func NewListing(asset string) (*Listing, error) {
	asset, err := validateAddress(asset)
	if err != nil {
		return nil, err
	}
	return &Listing{Asset: asset, Stage: ListingStageNone}, nil
}

// IsTracked returns whether the asset is anywhere in the listing pipeline.
func (l *Listing) IsTracked() bool {
	return l.Stage != ListingStageNone
}

// IsListed ...
func (l *Listing) IsListed() bool {
	return l.Stage == ListingStageListed
}

// Generation returns how many reserves have been bound to the asset so far,
// the current one excluded.
func (l *Listing) Generation() int {
	return len(l.PastReserves)
}

// Add binds a freshly created reserve to the asset.
func (l *Listing) Add(reserve string) error {
	next, err := NextStage(l.Stage, ListingOperationAdd)
	if err != nil {
		return err
	}
	reserve, err = validateAddress(reserve)
	if err != nil {
		return err
	}
	for _, r := range l.PastReserves {
		if r == reserve {
			return ErrInvalidAddress
		}
	}

	l.Reserve = reserve
	l.Stage = next
	return nil
}

// Init marks the bound reserve as initialized.
func (l *Listing) Init() error {
	return l.transition(ListingOperationInit)
}

// List marks the bound reserve as visible in the network registry.
func (l *Listing) List() error {
	return l.transition(ListingOperationList)
}

// Unlist brings the listing back to stage NONE and moves the bound reserve
// to the history.
func (l *Listing) Unlist() error {
	if err := l.transition(ListingOperationUnlist); err != nil {
		return err
	}
	l.PastReserves = append(l.PastReserves, l.Reserve)
	l.Reserve = ""
	return nil
}

// Clone returns a deep copy of the listing.
func (l *Listing) Clone() *Listing {
	c := *l
	c.PastReserves = append([]string(nil), l.PastReserves...)
	return &c
}

func (l *Listing) transition(op ListingOperation) error {
	next, err := NextStage(l.Stage, op)
	if err != nil {
		return err
	}
	l.Stage = next
	return nil
}
