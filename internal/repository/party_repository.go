package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Paul-Karonji/Juba-Errands/internal/db"
	"github.com/Paul-Karonji/Juba-Errands/internal/domain"
	"github.com/jackc/pgx/v5"
)

// PartyRepository stores senders or receivers depending on Role. Both tables share
// one shape so every query is rendered against Role.Table().
type PartyRepository struct {
	DB   db.Querier
	Role domain.PartyRole
}

const partyColumns = `id, name, telephone, COALESCE(email, ''), COALESCE(id_passport_no, ''),
	COALESCE(company_name, ''), COALESCE(building_floor, ''), COALESCE(street_address, ''),
	COALESCE(estate_town, ''), COALESCE(address, ''), created_at, updated_at`

func (r PartyRepository) table() string {
	return r.Role.Table()
}

func scanParty(row pgx.Row, extra ...any) (*domain.Party, error) {
	var p domain.Party
	dest := []any{&p.ID, &p.Name, &p.Telephone, &p.Email, &p.IDPassportNo, &p.CompanyName,
		&p.BuildingFloor, &p.StreetAddress, &p.EstateTown, &p.Address, &p.CreatedAt, &p.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// lockClass keys the identity advisory locks of each table apart.
func (r PartyRepository) lockClass() int32 {
	if r.Role == domain.RoleReceiver {
		return 0x524356
	}
	return 0x534e44
}

func (r PartyRepository) LockIdentity(ctx context.Context, name, telephone string) error {
	_, err := r.DB.Exec(ctx, `SELECT pg_advisory_xact_lock($1, hashtext($2))`, r.lockClass(), identityKey(name, telephone))
	return err
}

func identityKey(name, telephone string) string {
	return strings.TrimSpace(name) + "\x1f" + strings.TrimSpace(telephone)
}

// FindByNameAndPhone returns the oldest party with exactly this name and telephone.
func (r PartyRepository) FindByNameAndPhone(ctx context.Context, name, telephone string) (*domain.Party, error) {
	row := r.DB.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE name=$1 AND telephone=$2
		ORDER BY id ASC
		LIMIT 1
	`, partyColumns, r.table()), name, telephone)
	return scanParty(row)
}

func (r PartyRepository) Create(ctx context.Context, p domain.Party) (*domain.Party, error) {
	row := r.DB.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO %s (name, telephone, email, id_passport_no, company_name, building_floor,
			street_address, estate_town, address, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''),
			NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), now(), now())
		RETURNING %s
	`, r.table(), partyColumns), partyArgs(p)...)
	return scanParty(row)
}

func (r PartyRepository) Get(ctx context.Context, id int64) (*domain.Party, error) {
	row := r.DB.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM %s WHERE id=$1`, partyColumns, r.table()), id)
	return scanParty(row)
}

func (r PartyRepository) Update(ctx context.Context, id int64, p domain.Party) (*domain.Party, error) {
	args := append(partyArgs(p), id)
	row := r.DB.QueryRow(ctx, fmt.Sprintf(`
		UPDATE %s SET
			name=$1, telephone=$2, email=NULLIF($3, ''), id_passport_no=NULLIF($4, ''),
			company_name=NULLIF($5, ''), building_floor=NULLIF($6, ''), street_address=NULLIF($7, ''),
			estate_town=NULLIF($8, ''), address=NULLIF($9, ''), updated_at=now()
		WHERE id=$10
		RETURNING %s
	`, r.table(), partyColumns), args...)
	return scanParty(row)
}

// Search matches term case-insensitively against name, telephone, email and company.
func (r PartyRepository) Search(ctx context.Context, term string, limit int) ([]domain.Party, error) {
	rows, err := r.DB.Query(ctx, fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE name ILIKE $1 OR telephone ILIKE $1 OR email ILIKE $1 OR company_name ILIKE $1
		ORDER BY name ASC, id ASC
		LIMIT $2
	`, partyColumns, r.table()), likePattern(term), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.Party
	for rows.Next() {
		p, err := scanParty(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	return items, rows.Err()
}

// List returns parties with the number of shipments referencing each.
func (r PartyRepository) List(ctx context.Context, limit int) ([]domain.Party, error) {
	fk := "sender_id"
	if r.Role == domain.RoleReceiver {
		fk = "receiver_id"
	}
	rows, err := r.DB.Query(ctx, fmt.Sprintf(`
		SELECT %s, (SELECT COUNT(*) FROM shipments sh WHERE sh.%s = p.id)
		FROM %s p
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $1
	`, partyColumns, fk, r.table()), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.Party
	for rows.Next() {
		var count int64
		p, err := scanParty(rows, &count)
		if err != nil {
			return nil, err
		}
		p.ShipmentCount = &count
		items = append(items, *p)
	}
	return items, rows.Err()
}

// Delete removes a party. A party still referenced by a shipment yields ErrConflict.
func (r PartyRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.DB.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id=$1`, r.table()), id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return fmt.Errorf("%s %d has shipments: %w", r.Role, id, domain.ErrConflict)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func partyArgs(p domain.Party) []any {
	return []any{
		strings.TrimSpace(p.Name), strings.TrimSpace(p.Telephone), strings.TrimSpace(p.Email),
		strings.TrimSpace(p.IDPassportNo), strings.TrimSpace(p.CompanyName), strings.TrimSpace(p.BuildingFloor),
		strings.TrimSpace(p.StreetAddress), strings.TrimSpace(p.EstateTown), strings.TrimSpace(p.Address),
	}
}

// likePattern wraps term for a substring ILIKE match, escaping wildcard characters.
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(term)) + "%"
}
