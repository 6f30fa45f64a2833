package repository

import (
	"testing"
	"time"

	"github.com/Paul-Karonji/Juba-Errands/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestShipmentWhere_Empty(t *testing.T) {
	where, args := shipmentWhere(domain.ShipmentFilter{})
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestShipmentWhere_AllFilters(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	where, args := shipmentWhere(domain.ShipmentFilter{
		Status:   domain.StatusInTransit,
		Search:   " 1000 ",
		DateFrom: &from,
		DateTo:   &to,
	})
	assert.Equal(t, "WHERE d.status = $1 AND (d.waybill_no ILIKE $2 OR d.sender_name ILIKE $2 OR d.receiver_name ILIKE $2)"+
		" AND d.date >= $3 AND d.date <= $4", where)
	assert.Equal(t, []any{"In Transit", "%1000%", from, to}, args)
}

func TestShipmentWhere_Parties(t *testing.T) {
	where, args := shipmentWhere(domain.ShipmentFilter{Status: domain.StatusPending, SenderID: 7})
	assert.Equal(t, "WHERE d.status = $1 AND d.sender_id = $2", where)
	assert.Equal(t, []any{"Pending", int64(7)}, args)

	where, args = shipmentWhere(domain.ShipmentFilter{ReceiverID: 3})
	assert.Equal(t, "WHERE d.receiver_id = $1", where)
	assert.Equal(t, []any{int64(3)}, args)
}

func TestShipmentWhere_SearchOnly(t *testing.T) {
	where, args := shipmentWhere(domain.ShipmentFilter{Search: "alice"})
	assert.Contains(t, where, "$1")
	assert.NotContains(t, where, "$2")
	assert.Len(t, args, 1)
}

func TestLikePattern_EscapesWildcards(t *testing.T) {
	assert.Equal(t, `%50\%\_off%`, likePattern("50%_off"))
	assert.Equal(t, "%bob%", likePattern("  bob "))
}

func TestShipmentUpdateSet(t *testing.T) {
	qty := 3
	weight := decimal.RequireFromString("2.5")
	status := domain.StatusDelivered
	notes := ""

	set, args := shipmentUpdateSet(domain.ShipmentUpdate{Quantity: &qty, WeightKg: &weight, Status: &status, Notes: &notes})
	assert.Equal(t, "quantity=$1, weight_kg=$2, status=$3, notes=NULLIF($4, ''), updated_at=now()", set)
	assert.Equal(t, []any{3, weight, "Delivered", ""}, args)
}

func TestShipmentUpdateSet_NoFieldsStillBumpsTimestamp(t *testing.T) {
	set, args := shipmentUpdateSet(domain.ShipmentUpdate{})
	assert.Equal(t, "updated_at=now()", set)
	assert.Empty(t, args)
}

func TestPartyArgs_TrimsValues(t *testing.T) {
	args := partyArgs(domain.Party{Name: " Alice ", Telephone: "0700 000 001 ", Email: ""})
	assert.Equal(t, "Alice", args[0])
	assert.Equal(t, "0700 000 001", args[1])
	assert.Equal(t, "", args[2])
	assert.Len(t, args, 9)
}

func TestPartyRepository_Table(t *testing.T) {
	assert.Equal(t, "senders", PartyRepository{Role: domain.RoleSender}.table())
	assert.Equal(t, "receivers", PartyRepository{Role: domain.RoleReceiver}.table())
}

func TestPartyRepository_IdentityLocks(t *testing.T) {
	assert.NotEqual(t, PartyRepository{Role: domain.RoleSender}.lockClass(), PartyRepository{Role: domain.RoleReceiver}.lockClass())
	assert.Equal(t, identityKey(" Alice", "0700 000 001 "), identityKey("Alice", "0700 000 001"))
	assert.NotEqual(t, identityKey("Al", "ice0700"), identityKey("Alice", "0700"))
}
