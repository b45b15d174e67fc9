package emergency

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medatlas/medatlas/internal/domain/hospital"
)

type alertRepoPG struct{ pool *pgxpool.Pool }

// NewAlertRepoPG returns a Postgres-backed shortage scanner.
func NewAlertRepoPG(pool *pgxpool.Pool) AlertRepository { return &alertRepoPG{pool: pool} }

// FindBreaching returns every active approved facility at or below a
// shortage threshold. The per-condition classification happens in Evaluate;
// this query only narrows the scan.
func (r *alertRepoPG) FindBreaching(ctx context.Context) ([]hospital.Hospital, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT id, name, city,
			icu_total, icu_occupied,
			ventilator_total, ventilator_occupied
		FROM hospital
		WHERE is_active = TRUE AND is_approved = TRUE
		AND (
			(icu_total - icu_occupied) <= %d
			OR (ventilator_total - ventilator_occupied) <= %d
			OR EXISTS (
				SELECT 1 FROM blood_stock bs
				WHERE bs.hospital_id = hospital.id AND bs.units <= %d)
		)
		ORDER BY name`, ICUAlertThreshold, VentilatorAlertThreshold, BloodAlertThreshold))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		result []hospital.Hospital
		ids    []uuid.UUID
	)
	for rows.Next() {
		var h hospital.Hospital
		if err := rows.Scan(&h.ID, &h.Name, &h.Address.City,
			&h.Beds.ICU.Total, &h.Beds.ICU.Occupied,
			&h.Beds.Ventilator.Total, &h.Beds.Ventilator.Occupied); err != nil {
			return nil, err
		}
		h.Beds = h.Beds.Derive()
		result = append(result, h)
		ids = append(ids, h.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return result, nil
	}

	bloodRows, err := r.pool.Query(ctx, `
		SELECT hospital_id, blood_group, units, expiry_date, last_updated
		FROM blood_stock WHERE hospital_id = ANY($1)
		ORDER BY hospital_id, blood_group`, ids)
	if err != nil {
		return nil, err
	}
	defer bloodRows.Close()

	banks := make(map[uuid.UUID][]hospital.BloodStock, len(ids))
	for bloodRows.Next() {
		var hid uuid.UUID
		var s hospital.BloodStock
		if err := bloodRows.Scan(&hid, &s.Group, &s.Units, &s.ExpiryDate, &s.LastUpdated); err != nil {
			return nil, err
		}
		banks[hid] = append(banks[hid], s)
	}
	if err := bloodRows.Err(); err != nil {
		return nil, err
	}
	for i := range result {
		result[i].BloodBank = banks[result[i].ID]
	}
	return result, nil
}
