package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Paul-Karonji/Juba-Errands/internal/domain"
	"github.com/Paul-Karonji/Juba-Errands/internal/ports"
)

const defaultPartyListLimit = 500

// PartyRegistry resolves senders and receivers, deduplicating on (name, telephone).
type PartyRegistry struct {
	Store ports.Transactor
}

// ResolveOrCreate returns the existing party with the same name and telephone, or
// creates one. An existing party's other attributes are never overwritten.
func (r PartyRegistry) ResolveOrCreate(ctx context.Context, role domain.PartyRole, in domain.PartyInput) (*domain.Party, bool, error) {
	if err := validateParty(role, in); err != nil {
		return nil, false, err
	}
	var (
		party *domain.Party
		isNew bool
	)
	err := r.Store.WithinTx(ctx, func(ctx context.Context, tx ports.Repositories) error {
		p, created, err := resolveParty(ctx, tx.Parties(role), role, in)
		party, isNew = p, created
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return party, isNew, nil
}

func (r PartyRegistry) Get(ctx context.Context, role domain.PartyRole, id int64) (*domain.Party, error) {
	p, err := r.Store.Parties(role).Get(ctx, id)
	if err != nil {
		return nil, domain.Storage("get "+string(role), err)
	}
	return p, nil
}

// Update overwrites the mutable attributes of an existing party.
func (r PartyRegistry) Update(ctx context.Context, role domain.PartyRole, id int64, in domain.PartyInput) (*domain.Party, error) {
	if err := validateParty(role, in); err != nil {
		return nil, err
	}
	p, err := r.Store.Parties(role).Update(ctx, id, normalizeParty(in).Party())
	if err != nil {
		return nil, domain.Storage("update "+string(role), err)
	}
	return p, nil
}

// Search matches term against name, telephone, email and company. An empty term lists.
func (r PartyRegistry) Search(ctx context.Context, role domain.PartyRole, term string) ([]domain.Party, error) {
	store := r.Store.Parties(role)
	var (
		items []domain.Party
		err   error
	)
	if strings.TrimSpace(term) == "" {
		items, err = store.List(ctx, defaultPartyListLimit)
	} else {
		items, err = store.Search(ctx, term, defaultPartyListLimit)
	}
	if err != nil {
		return nil, domain.Storage("search "+string(role), err)
	}
	return items, nil
}

func (r PartyRegistry) Delete(ctx context.Context, role domain.PartyRole, id int64) error {
	return domain.Storage("delete "+string(role), r.Store.Parties(role).Delete(ctx, id))
}

// resolveParty must run inside a transaction: the identity lock is held until it ends.
func resolveParty(ctx context.Context, store ports.PartyStore, role domain.PartyRole, in domain.PartyInput) (*domain.Party, bool, error) {
	in = normalizeParty(in)
	if err := store.LockIdentity(ctx, in.Name, in.Telephone); err != nil {
		return nil, false, domain.Storage("lock "+string(role), err)
	}
	existing, err := store.FindByNameAndPhone(ctx, in.Name, in.Telephone)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, domain.Storage("find "+string(role), err)
	}
	created, err := store.Create(ctx, in.Party())
	if err != nil {
		return nil, false, domain.Storage("create "+string(role), err)
	}
	return created, true, nil
}

func normalizeParty(in domain.PartyInput) domain.PartyInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Telephone = strings.TrimSpace(in.Telephone)
	in.Email = strings.TrimSpace(in.Email)
	return in
}

// validateParty checks one party block, prefixing field names with the role.
func validateParty(role domain.PartyRole, in domain.PartyInput) error {
	return prefixFields(string(role), domain.ValidateStruct(normalizeParty(in)))
}
