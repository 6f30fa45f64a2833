package service

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Paul-Karonji/Juba-Errands/internal/domain"
	"github.com/Paul-Karonji/Juba-Errands/internal/ports"
	"github.com/shopspring/decimal"
)

// memStore is an in-memory ports.Transactor and ports.ShipmentReader. Transactions
// are serialized and restore a snapshot when fn fails.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex
	st   memState

	// identities locked by the running transaction
	locked map[string]bool

	// failure injection
	waybillErr      error
	conflictInserts int
	paymentErr      error
}

type memState struct {
	nextID    int64
	tick      int64
	parties   map[domain.PartyRole]map[int64]domain.Party
	shipments map[int64]domain.Shipment
	charges   map[int64]domain.Charge
	payments  map[int64]domain.Payment
}

var (
	_ ports.Transactor     = (*memStore)(nil)
	_ ports.ShipmentReader = (*memStore)(nil)
)

var digitsOnly = regexp.MustCompile(`^[0-9]+$`)

var memEpoch = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

func newMemStore() *memStore {
	return &memStore{st: memState{
		parties: map[domain.PartyRole]map[int64]domain.Party{
			domain.RoleSender:   {},
			domain.RoleReceiver: {},
		},
		shipments: map[int64]domain.Shipment{},
		charges:   map[int64]domain.Charge{},
		payments:  map[int64]domain.Payment{},
	}}
}

func (s memState) clone() memState {
	out := memState{
		nextID:    s.nextID,
		tick:      s.tick,
		parties:   map[domain.PartyRole]map[int64]domain.Party{},
		shipments: make(map[int64]domain.Shipment, len(s.shipments)),
		charges:   make(map[int64]domain.Charge, len(s.charges)),
		payments:  make(map[int64]domain.Payment, len(s.payments)),
	}
	for role, m := range s.parties {
		cp := make(map[int64]domain.Party, len(m))
		for k, v := range m {
			cp[k] = v
		}
		out.parties[role] = cp
	}
	for k, v := range s.shipments {
		out.shipments[k] = v
	}
	for k, v := range s.charges {
		out.charges[k] = v
	}
	for k, v := range s.payments {
		out.payments[k] = v
	}
	return out
}

// ids and timestamps; callers hold mu
func (m *memStore) id() int64 {
	m.st.nextID++
	return m.st.nextID
}

func (m *memStore) now() time.Time {
	m.st.tick++
	return memEpoch.Add(time.Duration(m.st.tick) * time.Second)
}

func (m *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.Repositories) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snapshot := m.st.clone()
	m.locked = map[string]bool{}
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.locked = nil
		m.mu.Unlock()
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fn(ctx, m); err != nil {
		m.mu.Lock()
		m.st = snapshot
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memStore) Parties(role domain.PartyRole) ports.PartyStore { return memParties{m: m, role: role} }
func (m *memStore) Shipments() ports.ShipmentStore                 { return memShipments{m: m} }
func (m *memStore) Charges() ports.ChargeStore                     { return memCharges{m: m} }
func (m *memStore) Payments() ports.PaymentStore                   { return memPayments{m: m} }

// counts for assertions
func (m *memStore) count() (senders, receivers, shipments, charges, payments int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.st.parties[domain.RoleSender]), len(m.st.parties[domain.RoleReceiver]),
		len(m.st.shipments), len(m.st.charges), len(m.st.payments)
}

type memParties struct {
	m    *memStore
	role domain.PartyRole
}

func (p memParties) identity(name, telephone string) string {
	return string(p.role) + "|" + name + "|" + telephone
}

func (p memParties) LockIdentity(_ context.Context, name, telephone string) error {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	if p.m.locked == nil {
		return fmt.Errorf("lock %s identity outside a transaction", p.role)
	}
	p.m.locked[p.identity(name, telephone)] = true
	return nil
}

func (p memParties) FindByNameAndPhone(_ context.Context, name, telephone string) (*domain.Party, error) {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	var found *domain.Party
	for _, party := range p.m.st.parties[p.role] {
		if party.Name == name && party.Telephone == telephone && (found == nil || party.ID < found.ID) {
			cp := party
			found = &cp
		}
	}
	if found == nil {
		return nil, domain.ErrNotFound
	}
	return found, nil
}

func (p memParties) Create(_ context.Context, party domain.Party) (*domain.Party, error) {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	if !p.m.locked[p.identity(party.Name, party.Telephone)] {
		return nil, fmt.Errorf("create %s %q without holding its identity lock", p.role, party.Name)
	}
	party.ID = p.m.id()
	party.CreatedAt = p.m.now()
	party.UpdatedAt = party.CreatedAt
	p.m.st.parties[p.role][party.ID] = party
	return &party, nil
}

func (p memParties) Get(_ context.Context, id int64) (*domain.Party, error) {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	party, ok := p.m.st.parties[p.role][id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &party, nil
}

func (p memParties) Update(_ context.Context, id int64, party domain.Party) (*domain.Party, error) {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	existing, ok := p.m.st.parties[p.role][id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	party.ID = id
	party.CreatedAt = existing.CreatedAt
	party.UpdatedAt = p.m.now()
	p.m.st.parties[p.role][id] = party
	return &party, nil
}

func (p memParties) Search(_ context.Context, term string, limit int) ([]domain.Party, error) {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	term = strings.ToLower(strings.TrimSpace(term))
	var out []domain.Party
	for _, party := range p.m.st.parties[p.role] {
		for _, field := range []string{party.Name, party.Telephone, party.Email, party.CompanyName} {
			if strings.Contains(strings.ToLower(field), term) {
				out = append(out, party)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (p memParties) List(_ context.Context, limit int) ([]domain.Party, error) {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	var out []domain.Party
	for _, party := range p.m.st.parties[p.role] {
		var n int64
		for _, s := range p.m.st.shipments {
			if (p.role == domain.RoleSender && s.SenderID == party.ID) || (p.role == domain.RoleReceiver && s.ReceiverID == party.ID) {
				n++
			}
		}
		party.ShipmentCount = &n
		out = append(out, party)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (p memParties) Delete(_ context.Context, id int64) error {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	if _, ok := p.m.st.parties[p.role][id]; !ok {
		return domain.ErrNotFound
	}
	for _, s := range p.m.st.shipments {
		if s.SenderID == id || s.ReceiverID == id {
			return domain.ErrConflict
		}
	}
	delete(p.m.st.parties[p.role], id)
	return nil
}

type memShipments struct{ m *memStore }

func (s memShipments) LockWaybillAllocation(context.Context) error { return nil }

func (s memShipments) NextWaybillNumber(_ context.Context, baseline int64) (string, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.waybillErr != nil {
		return "", s.m.waybillErr
	}
	highest := baseline
	for _, sh := range s.m.st.shipments {
		if !digitsOnly.MatchString(sh.WaybillNo) {
			continue
		}
		if n, err := strconv.ParseInt(sh.WaybillNo, 10, 64); err == nil && n > highest {
			highest = n
		}
	}
	return strconv.FormatInt(highest+1, 10), nil
}

func (s memShipments) Insert(_ context.Context, sh domain.Shipment) (*domain.Shipment, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.conflictInserts > 0 {
		s.m.conflictInserts--
		return nil, fmt.Errorf("waybill %s: %w", sh.WaybillNo, domain.ErrConflict)
	}
	for _, existing := range s.m.st.shipments {
		if existing.WaybillNo == sh.WaybillNo {
			return nil, fmt.Errorf("waybill %s: %w", sh.WaybillNo, domain.ErrConflict)
		}
	}
	sh.ID = s.m.id()
	sh.CreatedAt = s.m.now()
	sh.UpdatedAt = sh.CreatedAt
	s.m.st.shipments[sh.ID] = sh
	return &sh, nil
}

func (s memShipments) Get(_ context.Context, id int64) (*domain.Shipment, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	sh, ok := s.m.st.shipments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &sh, nil
}

func (s memShipments) ApplyUpdate(_ context.Context, id int64, u domain.ShipmentUpdate) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	sh, ok := s.m.st.shipments[id]
	if !ok {
		return domain.ErrNotFound
	}
	if u.Quantity != nil {
		sh.Quantity = *u.Quantity
	}
	if u.WeightKg != nil {
		sh.WeightKg = *u.WeightKg
	}
	if u.Description != nil {
		sh.Description = *u.Description
	}
	if u.Status != nil {
		sh.Status = *u.Status
	}
	if u.DeliveryLocation != nil {
		sh.DeliveryLocation = *u.DeliveryLocation
	}
	if u.Notes != nil {
		sh.Notes = *u.Notes
	}
	sh.UpdatedAt = s.m.now()
	s.m.st.shipments[id] = sh
	return nil
}

func (s memShipments) Delete(_ context.Context, id int64) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.st.shipments[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.m.st.shipments, id)
	return nil
}

type memCharges struct{ m *memStore }

func (c memCharges) GetByShipment(_ context.Context, shipmentID int64) (*domain.Charge, error) {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	return c.m.chargeFor(shipmentID)
}

func (m *memStore) chargeFor(shipmentID int64) (*domain.Charge, error) {
	var found *domain.Charge
	for _, ch := range m.st.charges {
		if ch.ShipmentID == shipmentID && (found == nil || ch.ID > found.ID) {
			cp := ch
			found = &cp
		}
	}
	if found == nil {
		return nil, domain.ErrNotFound
	}
	return found, nil
}

func (c memCharges) Insert(_ context.Context, ch domain.Charge) (*domain.Charge, error) {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	ch.ID = c.m.id()
	ch.CreatedAt = c.m.now()
	ch.UpdatedAt = ch.CreatedAt
	c.m.st.charges[ch.ID] = ch
	return &ch, nil
}

func (c memCharges) Update(_ context.Context, ch domain.Charge) (*domain.Charge, error) {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	existing, ok := c.m.st.charges[ch.ID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	ch.CreatedAt = existing.CreatedAt
	ch.UpdatedAt = c.m.now()
	c.m.st.charges[ch.ID] = ch
	return &ch, nil
}

func (c memCharges) Get(_ context.Context, id int64) (*domain.Charge, error) {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	ch, ok := c.m.st.charges[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &ch, nil
}

func (c memCharges) List(_ context.Context, limit int) ([]domain.Charge, error) {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	var out []domain.Charge
	for _, ch := range c.m.st.charges {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (c memCharges) Delete(_ context.Context, id int64) error {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	if _, ok := c.m.st.charges[id]; !ok {
		return domain.ErrNotFound
	}
	delete(c.m.st.charges, id)
	return nil
}

func (c memCharges) DeleteByShipment(_ context.Context, shipmentID int64) error {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	for id, ch := range c.m.st.charges {
		if ch.ShipmentID == shipmentID {
			delete(c.m.st.charges, id)
		}
	}
	return nil
}

type memPayments struct{ m *memStore }

func (p memPayments) Insert(_ context.Context, pay domain.Payment) (*domain.Payment, error) {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	if p.m.paymentErr != nil {
		return nil, p.m.paymentErr
	}
	pay.ID = p.m.id()
	pay.CreatedAt = p.m.now()
	pay.UpdatedAt = pay.CreatedAt
	p.m.st.payments[pay.ID] = pay
	return &pay, nil
}

func (p memPayments) Update(_ context.Context, pay domain.Payment) (*domain.Payment, error) {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	existing, ok := p.m.st.payments[pay.ID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	pay.CreatedAt = existing.CreatedAt
	pay.UpdatedAt = p.m.now()
	p.m.st.payments[pay.ID] = pay
	return &pay, nil
}

func (p memPayments) Get(_ context.Context, id int64) (*domain.Payment, error) {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	pay, ok := p.m.st.payments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &pay, nil
}

func (p memPayments) SumByShipment(_ context.Context, shipmentID int64) (decimal.Decimal, error) {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	total, _, _ := p.m.paymentsFor(shipmentID)
	return total, nil
}

// paymentsFor returns the sum, count and latest payment; callers hold mu.
func (m *memStore) paymentsFor(shipmentID int64) (decimal.Decimal, int64, *domain.Payment) {
	total := decimal.Zero
	var n int64
	var latest *domain.Payment
	for _, pay := range m.st.payments {
		if pay.ShipmentID != shipmentID {
			continue
		}
		total = total.Add(pay.AmountPaid)
		n++
		if latest == nil || pay.CreatedAt.After(latest.CreatedAt) {
			cp := pay
			latest = &cp
		}
	}
	return total, n, latest
}

func (p memPayments) LatestByShipment(_ context.Context, shipmentID int64) (*domain.Payment, error) {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	_, _, latest := p.m.paymentsFor(shipmentID)
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	return latest, nil
}

func (p memPayments) ListByShipment(_ context.Context, shipmentID int64) ([]domain.Payment, error) {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	var out []domain.Payment
	for _, pay := range p.m.st.payments {
		if pay.ShipmentID == shipmentID {
			out = append(out, pay)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (p memPayments) List(_ context.Context, limit int) ([]domain.Payment, error) {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	var out []domain.Payment
	for _, pay := range p.m.st.payments {
		out = append(out, pay)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (p memPayments) Delete(_ context.Context, id int64) error {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	if _, ok := p.m.st.payments[id]; !ok {
		return domain.ErrNotFound
	}
	delete(p.m.st.payments, id)
	return nil
}

func (p memPayments) DeleteByShipment(_ context.Context, shipmentID int64) error {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	for id, pay := range p.m.st.payments {
		if pay.ShipmentID == shipmentID {
			delete(p.m.st.payments, id)
		}
	}
	return nil
}

// read model

func (m *memStore) view(sh domain.Shipment) domain.ShipmentView {
	sender := m.st.parties[domain.RoleSender][sh.SenderID]
	receiver := m.st.parties[domain.RoleReceiver][sh.ReceiverID]
	v := domain.ShipmentView{
		Shipment: sh,
		Sender:   partySummary(sender),
		Receiver: partySummary(receiver),
	}
	if ch, err := m.chargeFor(sh.ID); err == nil {
		v.Charge = ch
	}
	total, n, latest := m.paymentsFor(sh.ID)
	v.TotalPaid = total
	v.PaymentCount = n
	if latest != nil {
		v.LatestPayment = &domain.LatestPayment{Method: latest.Method, PayerAccountNo: latest.PayerAccountNo, AmountPaid: latest.AmountPaid}
	}
	return v
}

func (m *memStore) List(_ context.Context, f domain.ShipmentFilter, limit, offset int) ([]domain.ShipmentView, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []domain.ShipmentView
	term := strings.ToLower(strings.TrimSpace(f.Search))
	for _, sh := range m.st.shipments {
		v := m.view(sh)
		if f.Status != "" && v.Status != f.Status {
			continue
		}
		if term != "" && !strings.Contains(strings.ToLower(v.WaybillNo), term) &&
			!strings.Contains(strings.ToLower(v.Sender.Name), term) &&
			!strings.Contains(strings.ToLower(v.Receiver.Name), term) {
			continue
		}
		if f.DateFrom != nil && v.Date.Before(*f.DateFrom) {
			continue
		}
		if f.DateTo != nil && v.Date.After(*f.DateTo) {
			continue
		}
		if (f.SenderID > 0 && v.SenderID != f.SenderID) || (f.ReceiverID > 0 && v.ReceiverID != f.ReceiverID) {
			continue
		}
		matched = append(matched, v)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (m *memStore) GetByID(_ context.Context, id int64) (*domain.ShipmentView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sh, ok := m.st.shipments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	v := m.view(sh)
	return &v, nil
}

func (m *memStore) GetByWaybill(_ context.Context, waybillNo string) (*domain.ShipmentView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sh := range m.st.shipments {
		if sh.WaybillNo == waybillNo {
			v := m.view(sh)
			return &v, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memStore) StatusCounts(context.Context) (map[domain.ShipmentStatus]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[domain.ShipmentStatus]int64{}
	for _, sh := range m.st.shipments {
		out[sh.Status]++
	}
	return out, nil
}

func (m *memStore) Recent(ctx context.Context, limit int) ([]domain.ShipmentView, error) {
	items, _, err := m.List(ctx, domain.ShipmentFilter{}, limit, 0)
	return items, err
}
