package domain

import "context"

// ListingRepository is the abstraction for any kind of database intended to
// persist Listings.
type ListingRepository interface {
	// GetListing returns the listing for the given asset, nil if the asset
	// was never added.
	GetListing(ctx context.Context, asset string) (*Listing, error)
	// GetAllListings returns every listing, whatever the stage.
	GetAllListings(ctx context.Context) ([]Listing, error)
	// UpdateListing updates the listing of the given asset, creating it in
	// stage NONE if missing. The closure allows to commit multiple changes in
	// a transactional way.
	UpdateListing(
		ctx context.Context, asset string,
		updateFn func(l *Listing) (*Listing, error),
	) error
}
