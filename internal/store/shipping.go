package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ListCarriers returns all carriers ordered by name.
func (s *Store) ListCarriers(ctx context.Context) ([]Carrier, error) {
	const q = `SELECT id, name, logo, is_active FROM shipping_carriers ORDER BY name, id`
	rows, err := s.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Carrier, 0)
	for rows.Next() {
		var c Carrier
		if err := rows.Scan(&c.ID, &c.Name, &c.Logo, &c.IsActive); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetCarrier returns a single carrier by id.
func (s *Store) GetCarrier(ctx context.Context, id uuid.UUID) (Carrier, error) {
	const q = `SELECT id, name, logo, is_active FROM shipping_carriers WHERE id = $1`
	var c Carrier
	err := s.db.QueryRow(ctx, q, id).Scan(&c.ID, &c.Name, &c.Logo, &c.IsActive)
	return c, err
}

// CreateCarrier inserts a carrier.
func (s *Store) CreateCarrier(ctx context.Context, name string, logo *string, isActive bool) (Carrier, error) {
	const q = `
		INSERT INTO shipping_carriers (name, logo, is_active)
		VALUES ($1, $2, $3)
		RETURNING id, name, logo, is_active`
	var c Carrier
	err := s.db.QueryRow(ctx, q, name, logo, isActive).Scan(&c.ID, &c.Name, &c.Logo, &c.IsActive)
	return c, err
}

// UpdateCarrier replaces the mutable fields of a carrier.
func (s *Store) UpdateCarrier(ctx context.Context, c Carrier) (Carrier, error) {
	const q = `
		UPDATE shipping_carriers SET name = $2, logo = $3, is_active = $4
		WHERE id = $1
		RETURNING id, name, logo, is_active`
	var out Carrier
	err := s.db.QueryRow(ctx, q, c.ID, c.Name, c.Logo, c.IsActive).Scan(&out.ID, &out.Name, &out.Logo, &out.IsActive)
	return out, err
}

// DeleteCarrier removes a carrier. It reports whether a row was deleted.
func (s *Store) DeleteCarrier(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM shipping_carriers WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

const rateColumns = `id, carrier_id, weight_type, min_weight, max_weight, price, created_at`

// ListRates returns every rate across carriers in creation order.
func (s *Store) ListRates(ctx context.Context) ([]Rate, error) {
	rows, err := s.db.Query(ctx, `SELECT `+rateColumns+` FROM shipping_rates ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRates(rows)
}

// RatesByCarrier returns the carrier's rate bands in creation order. That order
// is the resolution contract: the first band containing a weight wins. An
// unknown carrier yields an empty slice, not an error.
func (s *Store) RatesByCarrier(ctx context.Context, carrierID uuid.UUID) ([]Rate, error) {
	const q = `SELECT ` + rateColumns + ` FROM shipping_rates WHERE carrier_id = $1 ORDER BY created_at, id`
	rows, err := s.db.Query(ctx, q, carrierID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRates(rows)
}

// CreateRate inserts a rate band.
func (s *Store) CreateRate(ctx context.Context, r Rate) (Rate, error) {
	const q = `
		INSERT INTO shipping_rates (carrier_id, weight_type, min_weight, max_weight, price)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + rateColumns
	row := s.db.QueryRow(ctx, q, r.CarrierID, r.WeightType, r.MinWeight, r.MaxWeight, r.Price)
	return scanRate(row)
}

// UpdateRate replaces the mutable fields of a rate band.
func (s *Store) UpdateRate(ctx context.Context, r Rate) (Rate, error) {
	const q = `
		UPDATE shipping_rates SET carrier_id = $2, weight_type = $3, min_weight = $4, max_weight = $5, price = $6
		WHERE id = $1
		RETURNING ` + rateColumns
	row := s.db.QueryRow(ctx, q, r.ID, r.CarrierID, r.WeightType, r.MinWeight, r.MaxWeight, r.Price)
	return scanRate(row)
}

// DeleteRate removes a rate band. It reports whether a row was deleted.
func (s *Store) DeleteRate(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM shipping_rates WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func collectRates(rows pgx.Rows) ([]Rate, error) {
	out := make([]Rate, 0)
	for rows.Next() {
		r, err := scanRate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanRate(row pgx.Row) (Rate, error) {
	var r Rate
	err := row.Scan(&r.ID, &r.CarrierID, &r.WeightType, &r.MinWeight, &r.MaxWeight, &r.Price, &r.CreatedAt)
	return r, err
}
