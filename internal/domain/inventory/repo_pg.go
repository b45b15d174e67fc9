package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medatlas/medatlas/internal/domain/hospital"
)

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG returns a Postgres-backed inventory repository.
func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

// bedColumns whitelists category column prefixes; never interpolate request
// input into SQL directly.
var bedColumns = map[hospital.BedCategory]string{
	hospital.BedGeneral:    "general",
	hospital.BedICU:        "icu",
	hospital.BedOxygen:     "oxygen",
	hospital.BedVentilator: "ventilator",
}

func (r *repoPG) ApplyBedDelta(ctx context.Context, hospitalID uuid.UUID, category hospital.BedCategory, delta int) (hospital.BedCount, error) {
	col, ok := bedColumns[category]
	if !ok {
		return hospital.BedCount{}, fmt.Errorf("%w: unknown bed category %q", hospital.ErrValidation, category)
	}

	// A delta on available moves occupied the opposite way. Both bounds are
	// enforced in the WHERE so the check and the write are one atomic step.
	query := fmt.Sprintf(`
		UPDATE hospital
		SET %[1]s_occupied = %[1]s_occupied - $2,
			last_bed_update = NOW(), updated_at = NOW()
		WHERE id = $1 AND is_active = TRUE
			AND %[1]s_occupied - $2 >= 0
			AND %[1]s_occupied - $2 <= %[1]s_total
		RETURNING %[1]s_total, %[1]s_occupied`, col)

	var count hospital.BedCount
	err := r.pool.QueryRow(ctx, query, hospitalID, delta).Scan(&count.Total, &count.Occupied)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return hospital.BedCount{}, r.classifyMiss(ctx, hospitalID)
		}
		return hospital.BedCount{}, err
	}
	return count.Derive(), nil
}

// classifyMiss distinguishes a guard failure from a missing facility after
// a conditional update affected zero rows.
func (r *repoPG) classifyMiss(ctx context.Context, hospitalID uuid.UUID) error {
	var active bool
	err := r.pool.QueryRow(ctx,
		`SELECT is_active FROM hospital WHERE id = $1`, hospitalID).Scan(&active)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && !active) {
		return hospital.ErrNotFound
	}
	if err != nil {
		return err
	}
	return hospital.ErrInsufficientResource
}

func (r *repoPG) SetBedCounts(ctx context.Context, hospitalID uuid.UUID, counts map[hospital.BedCategory]BedSet) (hospital.Beds, error) {
	var (
		sets []string
		args = []interface{}{hospitalID}
	)
	// Iterate the fixed category order so the statement is deterministic.
	for _, category := range hospital.BedCategories {
		set, ok := counts[category]
		if !ok {
			continue
		}
		col := bedColumns[category]
		args = append(args, set.Total)
		sets = append(sets, fmt.Sprintf("%s_total = $%d", col, len(args)))
		args = append(args, set.Occupied)
		sets = append(sets, fmt.Sprintf("%s_occupied = $%d", col, len(args)))
	}
	if len(sets) == 0 {
		return hospital.Beds{}, fmt.Errorf("%w: no bed categories supplied", hospital.ErrValidation)
	}
	sets = append(sets, "last_bed_update = NOW()", "updated_at = NOW()")

	query := fmt.Sprintf(`
		UPDATE hospital SET %s
		WHERE id = $1 AND is_active = TRUE
		RETURNING general_total, general_occupied, icu_total, icu_occupied,
			oxygen_total, oxygen_occupied, ventilator_total, ventilator_occupied`,
		strings.Join(sets, ", "))

	var beds hospital.Beds
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&beds.General.Total, &beds.General.Occupied,
		&beds.ICU.Total, &beds.ICU.Occupied,
		&beds.Oxygen.Total, &beds.Oxygen.Occupied,
		&beds.Ventilator.Total, &beds.Ventilator.Occupied)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return hospital.Beds{}, hospital.ErrNotFound
		}
		return hospital.Beds{}, err
	}
	return beds.Derive(), nil
}

func (r *repoPG) ApplyBloodDelta(ctx context.Context, hospitalID uuid.UUID, group hospital.BloodGroup, delta int) (int, error) {
	var units int
	if delta >= 0 {
		// Additions may create the row; a missing group reads as zero.
		err := r.pool.QueryRow(ctx, `
			INSERT INTO blood_stock (hospital_id, blood_group, units)
			VALUES ($1, $2, $3)
			ON CONFLICT (hospital_id, blood_group) DO UPDATE
				SET units = blood_stock.units + EXCLUDED.units, last_updated = NOW()
			RETURNING units`, hospitalID, group, delta).Scan(&units)
		if err != nil {
			return 0, err
		}
	} else {
		err := r.pool.QueryRow(ctx, `
			UPDATE blood_stock SET units = units + $3, last_updated = NOW()
			WHERE hospital_id = $1 AND blood_group = $2 AND units + $3 >= 0
			RETURNING units`, hospitalID, group, delta).Scan(&units)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				// Either the guard failed or the row is absent; an absent
				// row holds zero units, so both are a drain below zero.
				return 0, hospital.ErrInsufficientResource
			}
			return 0, err
		}
	}

	if _, err := r.pool.Exec(ctx, `
		UPDATE hospital SET last_blood_update = NOW(), updated_at = NOW()
		WHERE id = $1`, hospitalID); err != nil {
		return 0, err
	}
	return units, nil
}

func (r *repoPG) UpsertBlood(ctx context.Context, hospitalID uuid.UUID, entries []BloodEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, e := range entries {
		if _, err := tx.Exec(ctx, `
			INSERT INTO blood_stock (hospital_id, blood_group, units, expiry_date)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (hospital_id, blood_group) DO UPDATE
				SET units = EXCLUDED.units, expiry_date = EXCLUDED.expiry_date, last_updated = NOW()`,
			hospitalID, e.Group, e.Units, e.ExpiryDate); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(ctx, `
		UPDATE hospital SET last_blood_update = NOW(), updated_at = NOW()
		WHERE id = $1`, hospitalID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *repoPG) GetBloodBank(ctx context.Context, hospitalID uuid.UUID) ([]hospital.BloodStock, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT blood_group, units, expiry_date, last_updated
		FROM blood_stock WHERE hospital_id = $1
		ORDER BY blood_group`, hospitalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bank []hospital.BloodStock
	for rows.Next() {
		var s hospital.BloodStock
		if err := rows.Scan(&s.Group, &s.Units, &s.ExpiryDate, &s.LastUpdated); err != nil {
			return nil, err
		}
		bank = append(bank, s)
	}
	return bank, rows.Err()
}
