/*
store.go - Persistence interface between the engine and the database

PURPOSE:
  Defines the repository surface the lifecycle manager needs. Different
  implementations back it with SQLite or in-memory maps; the engine
  never sees SQL.

SOFT-DELETE CONTRACT:
  Every Get* and List* method excludes soft-deleted rows. Deleting a
  disbursement sets IsDeleted/DeletedAt; the row stays for audit.

NIL MEANS ABSENT:
  Lookups return (nil, nil) when no live row matches. An error return is
  reserved for storage failures.

TRANSACTIONS:
  WithTx runs fn against a transactional view of the store. If fn
  returns an error nothing fn wrote is visible. The lifecycle manager
  wraps every mutating operation in WithTx so a failed step never leaves
  a disbursement persisted without its link row or a stale reserve
  release cache.

IMPLEMENTATIONS:
  - store/sqlite: production SQLite
  - funding/store: in-memory, for tests

SEE ALSO:
  - lifecycle.go: the only mutating caller
  - outstanding.go: read-side caller
*/
package funding

import "context"

// Store is the persistence surface for the funding engine.
type Store interface {
	// Payees
	GetPayee(ctx context.Context, id int64) (*Payee, error)
	SavePayee(ctx context.Context, p *Payee) error
	ListPayees(ctx context.Context) ([]Payee, error)

	// Client fee schedule and associations
	GetClientSettings(ctx context.Context, clientID int64) (*ClientSettings, error)
	SaveClientSettings(ctx context.Context, cs *ClientSettings) error
	GetClientPayee(ctx context.Context, clientID, payeeID int64) (*ClientPayee, error)
	SaveClientPayee(ctx context.Context, cp *ClientPayee) error

	// Obligations
	GetSOA(ctx context.Context, id int64) (*SOA, error)
	SaveSOA(ctx context.Context, s *SOA) error
	ListSOAs(ctx context.Context) ([]SOA, error)
	GetReserveRelease(ctx context.Context, id int64) (*ReserveRelease, error)
	SaveReserveRelease(ctx context.Context, r *ReserveRelease) error
	ListReserveReleases(ctx context.Context) ([]ReserveRelease, error)

	// Disbursements
	GetDisbursement(ctx context.Context, id int64) (*Disbursement, error)
	ListDisbursements(ctx context.Context) ([]Disbursement, error)
	// ListObligationDisbursements returns the live disbursements drawn
	// against one obligation: by soa_id for an SOA, via the active link
	// rows for a reserve release.
	ListObligationDisbursements(ctx context.Context, refType RefType, refID int64) ([]Disbursement, error)
	// SaveDisbursement inserts (assigning ID) or updates.
	SaveDisbursement(ctx context.Context, d *Disbursement) error
	// DeleteDisbursement soft-deletes.
	DeleteDisbursement(ctx context.Context, id int64) error

	// Reserve release <-> disbursement links
	GetLinkByDisbursement(ctx context.Context, disbursementID int64) (*ReserveReleaseDisbursement, error)
	GetLink(ctx context.Context, disbursementID, reserveReleaseID int64) (*ReserveReleaseDisbursement, error)
	SaveLink(ctx context.Context, l *ReserveReleaseDisbursement) error

	// WithTx executes fn within a transaction. fn receives a Store view
	// whose writes are committed iff fn returns nil.
	WithTx(ctx context.Context, fn func(Store) error) error
}
