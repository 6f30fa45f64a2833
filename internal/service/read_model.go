package service

import (
	"context"
	"errors"

	"github.com/Paul-Karonji/Juba-Errands/internal/domain"
	"github.com/Paul-Karonji/Juba-Errands/internal/ports"
)

const (
	DefaultPageSize    = 10
	MaxPageSize        = 100
	DefaultRecentLimit = 10
)

// ReadModel answers shipment queries from the denormalized projection.
type ReadModel struct {
	Reader ports.ShipmentReader
}

// List returns one page of shipments matching f, newest first. Total counts every
// matching shipment, not just the page.
func (m ReadModel) List(ctx context.Context, f domain.ShipmentFilter, p domain.Page) (domain.ShipmentPage, error) {
	p = NormalizePage(p)
	if f.Status != "" && !f.Status.Valid() {
		return domain.ShipmentPage{}, domain.NewValidationError("status", "must be one of Pending, In Transit, Delivered, Cancelled")
	}
	if f.DateFrom != nil && f.DateTo != nil && f.DateTo.Before(*f.DateFrom) {
		return domain.ShipmentPage{}, domain.NewValidationError("endDate", "must not be before startDate")
	}
	items, total, err := m.Reader.List(ctx, f, p.PageSize, (p.Page-1)*p.PageSize)
	if err != nil {
		return domain.ShipmentPage{}, domain.Storage("list shipments", err)
	}
	if items == nil {
		items = []domain.ShipmentView{}
	}
	return domain.ShipmentPage{
		Items:      items,
		Total:      total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: totalPages(total, p.PageSize),
	}, nil
}

// ForParty lists the shipments a sender or receiver took part in, newest first.
func (m ReadModel) ForParty(ctx context.Context, role domain.PartyRole, id int64, p domain.Page) (domain.ShipmentPage, error) {
	var f domain.ShipmentFilter
	if role == domain.RoleReceiver {
		f.ReceiverID = id
	} else {
		f.SenderID = id
	}
	return m.List(ctx, f, p)
}

// Get returns the shipment or nil when it does not exist.
func (m ReadModel) Get(ctx context.Context, id int64) (*domain.ShipmentView, error) {
	return nilIfNotFound(m.Reader.GetByID(ctx, id))
}

// GetByWaybill returns the shipment or nil when no shipment carries the number.
func (m ReadModel) GetByWaybill(ctx context.Context, waybillNo string) (*domain.ShipmentView, error) {
	return nilIfNotFound(m.Reader.GetByWaybill(ctx, waybillNo))
}

// StatusBreakdown returns a count and share for every status, in display order.
func (m ReadModel) StatusBreakdown(ctx context.Context) ([]domain.StatusCount, error) {
	counts, err := m.Reader.StatusCounts(ctx)
	if err != nil {
		return nil, domain.Storage("status breakdown", err)
	}
	return breakdown(counts), nil
}

func (m ReadModel) Recent(ctx context.Context, limit int) ([]domain.ShipmentView, error) {
	if limit < 1 {
		limit = DefaultRecentLimit
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	items, err := m.Reader.Recent(ctx, limit)
	if err != nil {
		return nil, domain.Storage("recent shipments", err)
	}
	if items == nil {
		items = []domain.ShipmentView{}
	}
	return items, nil
}

// NormalizePage clamps page to at least 1 and page size to [1, MaxPageSize].
func NormalizePage(p domain.Page) domain.Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

func totalPages(total int64, size int) int {
	if total == 0 || size < 1 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}

func breakdown(counts map[domain.ShipmentStatus]int64) []domain.StatusCount {
	var total int64
	for _, n := range counts {
		total += n
	}
	out := make([]domain.StatusCount, 0, len(domain.ShipmentStatuses))
	for _, st := range domain.ShipmentStatuses {
		n := counts[st]
		out = append(out, domain.StatusCount{Status: st, Count: n, Percentage: domain.Percentage(n, total)})
	}
	return out
}

func nilIfNotFound(v *domain.ShipmentView, err error) (*domain.ShipmentView, error) {
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.Storage("get shipment", err)
	}
	return v, nil
}
