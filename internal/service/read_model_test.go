package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Paul-Karonji/Juba-Errands/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func seedShipments(t *testing.T, store *memStore) []*domain.ShipmentView {
	t.Helper()
	svc := newShipmentService(store)
	ctx := context.Background()
	var out []*domain.ShipmentView
	for i, name := range []string{"Alice", "Bob", "Carol", "Dave", "Erin"} {
		in := scenarioInput()
		in.Sender = domain.PartyInput{Name: name, Telephone: "+25470000010" + string(rune('0'+i))}
		v, err := svc.CreateShipment(ctx, in)
		require.NoError(t, err)
		out = append(out, v)
	}
	_, err := svc.UpdateShipment(ctx, out[1].ID, domain.ShipmentUpdate{Status: statusPtr(domain.StatusDelivered)})
	require.NoError(t, err)
	_, err = svc.UpdateShipment(ctx, out[3].ID, domain.ShipmentUpdate{Status: statusPtr(domain.StatusDelivered)})
	require.NoError(t, err)
	return out
}

func TestReadModel_ListFiltersAndPaginates(t *testing.T) {
	store := newMemStore()
	seeded := seedShipments(t, store)
	rm := ReadModel{Reader: store}
	ctx := context.Background()

	page, err := rm.List(ctx, domain.ShipmentFilter{}, domain.Page{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Items, 2)
	assert.Equal(t, seeded[4].ID, page.Items[0].ID, "newest first")

	last, err := rm.List(ctx, domain.ShipmentFilter{}, domain.Page{Page: 3, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, last.Items, 1)

	beyond, err := rm.List(ctx, domain.ShipmentFilter{}, domain.Page{Page: 9, PageSize: 2})
	require.NoError(t, err)
	assert.NotNil(t, beyond.Items)
	assert.Empty(t, beyond.Items)
	assert.Equal(t, int64(5), beyond.Total)

	delivered, err := rm.List(ctx, domain.ShipmentFilter{Status: domain.StatusDelivered}, domain.Page{Page: 1, PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), delivered.Total, "total counts every match, not just the page")
	assert.Len(t, delivered.Items, 1)

	search, err := rm.List(ctx, domain.ShipmentFilter{Search: "caR"}, domain.Page{})
	require.NoError(t, err)
	require.Len(t, search.Items, 1)
	assert.Equal(t, "Carol", search.Items[0].Sender.Name)
	assert.Equal(t, DefaultPageSize, search.PageSize)

	byWaybill, err := rm.List(ctx, domain.ShipmentFilter{Search: "10003"}, domain.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), byWaybill.Total)
}

func TestReadModel_ListRejectsBadFilters(t *testing.T) {
	rm := ReadModel{Reader: newMemStore()}
	_, err := rm.List(context.Background(), domain.ShipmentFilter{Status: "Lost"}, domain.Page{})
	assert.Equal(t, domain.KindValidation, domain.Kind(err))

	from := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, -1)
	_, err = rm.List(context.Background(), domain.ShipmentFilter{DateFrom: &from, DateTo: &to}, domain.Page{})
	assert.Equal(t, domain.KindValidation, domain.Kind(err))
}

func TestReadModel_GetReturnsNilWhenAbsent(t *testing.T) {
	store := newMemStore()
	seeded := seedShipments(t, store)
	rm := ReadModel{Reader: store}
	ctx := context.Background()

	v, err := rm.Get(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = rm.GetByWaybill(ctx, seeded[2].WaybillNo)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, seeded[2].ID, v.ID)

	v, err = rm.GetByWaybill(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestReadModel_ForParty(t *testing.T) {
	store := newMemStore()
	seeded := seedShipments(t, store)
	rm := ReadModel{Reader: store}
	ctx := context.Background()

	page, err := rm.ForParty(ctx, domain.RoleSender, seeded[2].SenderID, domain.Page{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, seeded[2].ID, page.Items[0].ID)

	page, err = rm.ForParty(ctx, domain.RoleReceiver, seeded[0].ReceiverID, domain.Page{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 3, page.TotalPages)

	page, err = rm.ForParty(ctx, domain.RoleSender, 999, domain.Page{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Zero(t, page.Total)
}

func TestReadModel_StatusBreakdown(t *testing.T) {
	store := newMemStore()
	seedShipments(t, store)

	items, err := ReadModel{Reader: store}.StatusBreakdown(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 4)

	byStatus := map[domain.ShipmentStatus]domain.StatusCount{}
	sum := decimal.Zero
	for _, it := range items {
		byStatus[it.Status] = it
		sum = sum.Add(it.Percentage)
	}
	assert.Equal(t, int64(3), byStatus[domain.StatusPending].Count)
	assert.True(t, byStatus[domain.StatusPending].Percentage.Equal(dec("60")))
	assert.True(t, byStatus[domain.StatusDelivered].Percentage.Equal(dec("40")))
	assert.True(t, byStatus[domain.StatusCancelled].Percentage.IsZero())
	assert.True(t, sum.Equal(dec("100")))
}

func TestBreakdown_PercentagesWithinRounding(t *testing.T) {
	items := breakdown(map[domain.ShipmentStatus]int64{
		domain.StatusPending: 1, domain.StatusInTransit: 1, domain.StatusDelivered: 1,
	})
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Percentage)
	}
	assert.True(t, sum.Sub(dec("100")).Abs().LessThanOrEqual(dec("0.02")), "sum %s", sum)
}

func TestNormalizePage(t *testing.T) {
	assert.Equal(t, domain.Page{Page: 1, PageSize: DefaultPageSize}, NormalizePage(domain.Page{}))
	assert.Equal(t, domain.Page{Page: 2, PageSize: MaxPageSize}, NormalizePage(domain.Page{Page: 2, PageSize: 5000}))
	assert.Equal(t, 0, totalPages(0, 10))
	assert.Equal(t, 1, totalPages(10, 10))
	assert.Equal(t, 2, totalPages(11, 10))
}

type mockDashboardReader struct {
	mock.Mock
}

func (m *mockDashboardReader) Stats(ctx context.Context, from, to *time.Time) (domain.DashboardStats, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).(domain.DashboardStats), args.Error(1)
}

func (m *mockDashboardReader) RevenueSeries(ctx context.Context, days int) ([]domain.RevenuePoint, error) {
	args := m.Called(ctx, days)
	items, _ := args.Get(0).([]domain.RevenuePoint)
	return items, args.Error(1)
}

func (m *mockDashboardReader) PaymentMethodBreakdown(ctx context.Context) ([]domain.PaymentMethodStat, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]domain.PaymentMethodStat)
	return items, args.Error(1)
}

func (m *mockDashboardReader) TopDeliveryLocations(ctx context.Context, limit int) ([]domain.LocationStat, error) {
	args := m.Called(ctx, limit)
	items, _ := args.Get(0).([]domain.LocationStat)
	return items, args.Error(1)
}

func TestDashboardService_ZeroFillOnFailure(t *testing.T) {
	reader := new(mockDashboardReader)
	boom := errors.New("relation does not exist")
	reader.On("Stats", mock.Anything, (*time.Time)(nil), (*time.Time)(nil)).Return(domain.DashboardStats{}, boom)
	reader.On("RevenueSeries", mock.Anything, DefaultRevenueDays).Return(nil, boom)
	reader.On("PaymentMethodBreakdown", mock.Anything).Return(nil, boom)
	reader.On("TopDeliveryLocations", mock.Anything, DefaultLocationLimit).Return(nil, boom)

	svc := DashboardService{Reader: reader, Shipments: newMemStore(), Logger: discardLogger()}
	ctx := context.Background()

	stats := svc.Stats(ctx, nil, nil)
	assert.Zero(t, stats.TotalShipments)
	assert.True(t, stats.TotalRevenue.IsZero())

	assert.Empty(t, svc.RevenueSeries(ctx, 0))
	assert.NotNil(t, svc.PaymentMethods(ctx))
	assert.Empty(t, svc.TopLocations(ctx, 0))
	reader.AssertExpectations(t)
}

func TestDashboardService_Overview(t *testing.T) {
	store := newMemStore()
	seedShipments(t, store)
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	reader := new(mockDashboardReader)
	reader.On("Stats", mock.Anything, &from, (*time.Time)(nil)).Return(domain.DashboardStats{
		TotalShipments: 5, DeliveredShipments: 2, PendingShipments: 3,
		TotalRevenue: dec("2900"), AverageShipmentValue: dec("580"), TotalWeight: dec("12.5"),
	}, nil)

	svc := DashboardService{Reader: reader, Shipments: store, Logger: discardLogger()}
	ov := svc.Overview(context.Background(), &from, nil)

	assert.Equal(t, int64(5), ov.Stats.TotalShipments)
	assert.True(t, ov.Stats.TotalRevenue.Equal(dec("2900")))
	assert.Len(t, ov.StatusBreakdown, 4)
	assert.Len(t, ov.Recent, 5)
	reader.AssertExpectations(t)
}
