package domain

var statusTransitions = map[ShipmentStatus][]ShipmentStatus{
	StatusPending:   {StatusInTransit, StatusCancelled},
	StatusInTransit: {StatusDelivered, StatusCancelled},
	StatusDelivered: nil,
	StatusCancelled: nil,
}

func (s ShipmentStatus) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// Terminal reports whether no further transition is possible.
func (s ShipmentStatus) Terminal() bool {
	return s.Valid() && len(statusTransitions[s]) == 0
}

// CanTransitionTo reports whether next is reachable from s in one step.
// Staying on the same status is always allowed.
func (s ShipmentStatus) CanTransitionTo(next ShipmentStatus) bool {
	if !next.Valid() {
		return false
	}
	if s == next {
		return true
	}
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (m PaymentMethod) Valid() bool {
	for _, known := range PaymentMethods {
		if m == known {
			return true
		}
	}
	return false
}

// RequiresAccount reports whether a payer account number is mandatory for the method.
func (m PaymentMethod) RequiresAccount() bool {
	return m == PaymentMpesa || m == PaymentBank
}

func (r PartyRole) Valid() bool {
	return r == RoleSender || r == RoleReceiver
}

// Table is the storage table holding parties of this role.
func (r PartyRole) Table() string {
	if r == RoleReceiver {
		return "receivers"
	}
	return "senders"
}
