package ports

import (
	"context"
	"time"

	"github.com/Paul-Karonji/Juba-Errands/internal/domain"
	"github.com/shopspring/decimal"
)

// HealthChecker pings dependencies.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// PartyStore persists senders or receivers. Lookups return domain.ErrNotFound when absent.
type PartyStore interface {
	// LockIdentity serializes find-or-create of one (name, telephone) pair until the
	// surrounding transaction ends.
	LockIdentity(ctx context.Context, name, telephone string) error
	FindByNameAndPhone(ctx context.Context, name, telephone string) (*domain.Party, error)
	Create(ctx context.Context, p domain.Party) (*domain.Party, error)
	Get(ctx context.Context, id int64) (*domain.Party, error)
	Update(ctx context.Context, id int64, p domain.Party) (*domain.Party, error)
	Search(ctx context.Context, term string, limit int) ([]domain.Party, error)
	List(ctx context.Context, limit int) ([]domain.Party, error)
	Delete(ctx context.Context, id int64) error
}

type ShipmentStore interface {
	// LockWaybillAllocation serializes waybill allocation until the surrounding transaction ends.
	LockWaybillAllocation(ctx context.Context) error
	NextWaybillNumber(ctx context.Context, baseline int64) (string, error)
	Insert(ctx context.Context, s domain.Shipment) (*domain.Shipment, error)
	Get(ctx context.Context, id int64) (*domain.Shipment, error)
	ApplyUpdate(ctx context.Context, id int64, u domain.ShipmentUpdate) error
	Delete(ctx context.Context, id int64) error
}

type ChargeStore interface {
	GetByShipment(ctx context.Context, shipmentID int64) (*domain.Charge, error)
	Insert(ctx context.Context, c domain.Charge) (*domain.Charge, error)
	Update(ctx context.Context, c domain.Charge) (*domain.Charge, error)
	Get(ctx context.Context, id int64) (*domain.Charge, error)
	List(ctx context.Context, limit int) ([]domain.Charge, error)
	Delete(ctx context.Context, id int64) error
	DeleteByShipment(ctx context.Context, shipmentID int64) error
}

type PaymentStore interface {
	Insert(ctx context.Context, p domain.Payment) (*domain.Payment, error)
	Update(ctx context.Context, p domain.Payment) (*domain.Payment, error)
	Get(ctx context.Context, id int64) (*domain.Payment, error)
	SumByShipment(ctx context.Context, shipmentID int64) (decimal.Decimal, error)
	LatestByShipment(ctx context.Context, shipmentID int64) (*domain.Payment, error)
	ListByShipment(ctx context.Context, shipmentID int64) ([]domain.Payment, error)
	List(ctx context.Context, limit int) ([]domain.Payment, error)
	Delete(ctx context.Context, id int64) error
	DeleteByShipment(ctx context.Context, shipmentID int64) error
}

// Repositories groups the write-side stores bound to one connection or transaction.
type Repositories interface {
	Parties(role domain.PartyRole) PartyStore
	Shipments() ShipmentStore
	Charges() ChargeStore
	Payments() PaymentStore
}

// Transactor runs fn against stores bound to a single transaction. The transaction
// commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	Repositories
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) error
}

// ShipmentReader serves the denormalized shipment read model.
type ShipmentReader interface {
	List(ctx context.Context, f domain.ShipmentFilter, limit, offset int) ([]domain.ShipmentView, int64, error)
	GetByID(ctx context.Context, id int64) (*domain.ShipmentView, error)
	GetByWaybill(ctx context.Context, waybillNo string) (*domain.ShipmentView, error)
	StatusCounts(ctx context.Context) (map[domain.ShipmentStatus]int64, error)
	Recent(ctx context.Context, limit int) ([]domain.ShipmentView, error)
}

type DashboardReader interface {
	Stats(ctx context.Context, from, to *time.Time) (domain.DashboardStats, error)
	RevenueSeries(ctx context.Context, days int) ([]domain.RevenuePoint, error)
	PaymentMethodBreakdown(ctx context.Context) ([]domain.PaymentMethodStat, error)
	TopDeliveryLocations(ctx context.Context, limit int) ([]domain.LocationStat, error)
}
