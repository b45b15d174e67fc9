package hospital

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG returns a Postgres-backed facility repository.
func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const hospitalCols = `id, owner_id, name, registration_number, type, description,
	street, city, state, pincode, latitude, longitude,
	phone, emergency_phone, email,
	general_total, general_occupied, icu_total, icu_occupied,
	oxygen_total, oxygen_occupied, ventilator_total, ventilator_occupied,
	facilities, rating_overall, rating_reviews,
	is_open_24x7, has_emergency_services, is_approved, is_active,
	last_bed_update, last_blood_update, created_at, updated_at`

// bedColumns whitelists the per-category column prefixes used when filters
// or updates are built dynamically.
var bedColumns = map[BedCategory]string{
	BedGeneral:    "general",
	BedICU:        "icu",
	BedOxygen:     "oxygen",
	BedVentilator: "ventilator",
}

// distanceExpr is the great-circle distance in meters between the stored
// coordinates and a query point, spherical law of cosines. The LEAST/GREATEST
// clamp guards acos against floating point drift at near-zero distances.
func distanceExpr(latArg, lngArg int) string {
	return fmt.Sprintf(`6371000 * acos(LEAST(1.0, GREATEST(-1.0,
		cos(radians($%d)) * cos(radians(latitude)) * cos(radians(longitude) - radians($%d))
		+ sin(radians($%d)) * sin(radians(latitude)))))`, latArg, lngArg, latArg)
}

func scanHospital(row pgx.Row) (*Hospital, error) {
	var h Hospital
	err := row.Scan(&h.ID, &h.OwnerID, &h.Name, &h.RegistrationNumber, &h.Type, &h.Description,
		&h.Address.Street, &h.Address.City, &h.Address.State, &h.Address.Pincode,
		&h.Latitude, &h.Longitude,
		&h.Contact.Phone, &h.Contact.Emergency, &h.Contact.Email,
		&h.Beds.General.Total, &h.Beds.General.Occupied,
		&h.Beds.ICU.Total, &h.Beds.ICU.Occupied,
		&h.Beds.Oxygen.Total, &h.Beds.Oxygen.Occupied,
		&h.Beds.Ventilator.Total, &h.Beds.Ventilator.Occupied,
		&h.Facilities, &h.Rating.Overall, &h.Rating.TotalReviews,
		&h.IsOpen24x7, &h.HasEmergencyServices, &h.IsApproved, &h.IsActive,
		&h.LastBedUpdate, &h.LastBloodUpdate, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	h.Beds = h.Beds.Derive()
	return &h, nil
}

func (r *repoPG) Create(ctx context.Context, h *Hospital) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO hospital (id, owner_id, name, registration_number, type, description,
			street, city, state, pincode, latitude, longitude,
			phone, emergency_phone, email,
			general_total, general_occupied, icu_total, icu_occupied,
			oxygen_total, oxygen_occupied, ventilator_total, ventilator_occupied,
			facilities, rating_overall, rating_reviews,
			is_open_24x7, has_emergency_services, is_approved, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,
			$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27,$28,$29,$30)`,
		h.ID, h.OwnerID, h.Name, h.RegistrationNumber, h.Type, h.Description,
		h.Address.Street, h.Address.City, h.Address.State, h.Address.Pincode,
		h.Latitude, h.Longitude,
		h.Contact.Phone, h.Contact.Emergency, h.Contact.Email,
		h.Beds.General.Total, h.Beds.General.Occupied,
		h.Beds.ICU.Total, h.Beds.ICU.Occupied,
		h.Beds.Oxygen.Total, h.Beds.Oxygen.Occupied,
		h.Beds.Ventilator.Total, h.Beds.Ventilator.Occupied,
		h.Facilities, h.Rating.Overall, h.Rating.TotalReviews,
		h.IsOpen24x7, h.HasEmergencyServices, h.IsApproved, h.IsActive)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicate
		}
		return err
	}

	for _, s := range h.BloodBank {
		if _, err := r.pool.Exec(ctx, `
			INSERT INTO blood_stock (hospital_id, blood_group, units, expiry_date)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (hospital_id, blood_group) DO UPDATE
				SET units = EXCLUDED.units, expiry_date = EXCLUDED.expiry_date, last_updated = NOW()`,
			h.ID, s.Group, s.Units, s.ExpiryDate); err != nil {
			return err
		}
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	h, err := scanHospital(r.pool.QueryRow(ctx,
		`SELECT `+hospitalCols+` FROM hospital WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	banks, err := r.loadBloodBanks(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	h.BloodBank = banks[id]
	return h, nil
}

func (r *repoPG) loadBloodBanks(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]BloodStock, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT hospital_id, blood_group, units, expiry_date, last_updated
		FROM blood_stock WHERE hospital_id = ANY($1)
		ORDER BY hospital_id, blood_group`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	banks := make(map[uuid.UUID][]BloodStock, len(ids))
	for rows.Next() {
		var hid uuid.UUID
		var s BloodStock
		if err := rows.Scan(&hid, &s.Group, &s.Units, &s.ExpiryDate, &s.LastUpdated); err != nil {
			return nil, err
		}
		banks[hid] = append(banks[hid], s)
	}
	return banks, rows.Err()
}

func (r *repoPG) Search(ctx context.Context, f SearchFilter, limit, offset int) ([]SearchResult, int, error) {
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) int {
		args = append(args, v)
		return len(args)
	}

	where = append(where, "is_active = TRUE")
	switch f.ApprovalStatus {
	case ApprovalAll:
	case ApprovalPending:
		where = append(where, "is_approved = FALSE")
	default:
		where = append(where, "is_approved = TRUE")
	}
	if f.City != "" {
		where = append(where, fmt.Sprintf("city ILIKE '%%' || $%d || '%%'", arg(f.City)))
	}
	if f.Type != "" {
		where = append(where, fmt.Sprintf("type = $%d", arg(f.Type)))
	}
	if f.MinRating > 0 {
		where = append(where, fmt.Sprintf("rating_overall >= $%d", arg(f.MinRating)))
	}
	if f.Open24x7 != nil {
		where = append(where, fmt.Sprintf("is_open_24x7 = $%d", arg(*f.Open24x7)))
	}
	if f.HasEmergency != nil {
		where = append(where, fmt.Sprintf("has_emergency_services = $%d", arg(*f.HasEmergency)))
	}
	if f.BedType != "" {
		col, ok := bedColumns[f.BedType]
		if !ok {
			return nil, 0, fmt.Errorf("%w: unknown bed type %q", ErrValidation, f.BedType)
		}
		where = append(where, fmt.Sprintf("(%s_total - %s_occupied) > 0", col, col))
	}
	if f.BloodGroup != "" {
		minUnits := f.MinBloodUnits
		if minUnits <= 0 {
			minUnits = 1
		}
		where = append(where, fmt.Sprintf(`EXISTS (
			SELECT 1 FROM blood_stock bs
			WHERE bs.hospital_id = hospital.id AND bs.blood_group = $%d AND bs.units >= $%d)`,
			arg(string(f.BloodGroup)), arg(minUnits)))
	}

	geoMode := f.Latitude != nil && f.Longitude != nil
	var distExpr string
	if geoMode {
		latArg := arg(*f.Latitude)
		lngArg := arg(*f.Longitude)
		distExpr = distanceExpr(latArg, lngArg)
		radius := f.RadiusMeters
		if radius <= 0 {
			radius = DefaultRadiusMeters
		}
		where = append(where, fmt.Sprintf("%s <= $%d", distExpr, arg(radius)))
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM hospital WHERE `+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	selectCols := hospitalCols
	orderBy := orderClause(f.SortBy)
	if geoMode {
		selectCols += ", " + distExpr + " AS distance_m"
		orderBy = "distance_m ASC, id ASC"
	} else {
		selectCols += ", NULL::float8 AS distance_m"
	}

	query := fmt.Sprintf(`SELECT %s FROM hospital WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		selectCols, whereClause, orderBy, arg(limit), arg(offset))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		results []SearchResult
		ids     []uuid.UUID
	)
	for rows.Next() {
		var h Hospital
		var dist *float64
		if err := rows.Scan(&h.ID, &h.OwnerID, &h.Name, &h.RegistrationNumber, &h.Type, &h.Description,
			&h.Address.Street, &h.Address.City, &h.Address.State, &h.Address.Pincode,
			&h.Latitude, &h.Longitude,
			&h.Contact.Phone, &h.Contact.Emergency, &h.Contact.Email,
			&h.Beds.General.Total, &h.Beds.General.Occupied,
			&h.Beds.ICU.Total, &h.Beds.ICU.Occupied,
			&h.Beds.Oxygen.Total, &h.Beds.Oxygen.Occupied,
			&h.Beds.Ventilator.Total, &h.Beds.Ventilator.Occupied,
			&h.Facilities, &h.Rating.Overall, &h.Rating.TotalReviews,
			&h.IsOpen24x7, &h.HasEmergencyServices, &h.IsApproved, &h.IsActive,
			&h.LastBedUpdate, &h.LastBloodUpdate, &h.CreatedAt, &h.UpdatedAt,
			&dist); err != nil {
			return nil, 0, err
		}
		h.Beds = h.Beds.Derive()
		results = append(results, SearchResult{Hospital: h, DistanceMeters: dist})
		ids = append(ids, h.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if len(ids) > 0 {
		banks, err := r.loadBloodBanks(ctx, ids)
		if err != nil {
			return nil, 0, err
		}
		for i := range results {
			results[i].Hospital.BloodBank = banks[results[i].Hospital.ID]
		}
	}
	return results, total, nil
}

func orderClause(sortBy string) string {
	switch sortBy {
	case SortByRating:
		return "rating_overall DESC, id ASC"
	case SortByBeds:
		return `(GREATEST(general_total - general_occupied, 0)
			+ GREATEST(icu_total - icu_occupied, 0)
			+ GREATEST(oxygen_total - oxygen_occupied, 0)
			+ GREATEST(ventilator_total - ventilator_occupied, 0)) DESC, id ASC`
	case SortByUpdated:
		return "last_bed_update DESC, id ASC"
	default:
		return "created_at DESC, id ASC"
	}
}

func (r *repoPG) SetApproval(ctx context.Context, id uuid.UUID, approved bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE hospital SET is_approved = $2, updated_at = NOW()
		WHERE id = $1 AND is_active = TRUE`, id, approved)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE hospital SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1 AND is_active = TRUE`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
