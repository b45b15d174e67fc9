package admin

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medatlas/medatlas/internal/domain/hospital"
)

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG returns a Postgres-backed dashboard repository.
func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{
		Beds:              make(map[string]BedTotals, len(hospital.BedCategories)),
		BloodDistribution: make(map[string]int),
	}

	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE is_active),
			COUNT(*) FILTER (WHERE is_active AND NOT is_approved),
			COUNT(*) FILTER (WHERE is_active AND is_approved
				AND last_bed_update < NOW() - INTERVAL '12 hours')
		FROM hospital`).Scan(
		&stats.TotalHospitals, &stats.ActiveHospitals,
		&stats.PendingApprovals, &stats.StaleDataHospitals)
	if err != nil {
		return nil, err
	}

	for _, category := range hospital.BedCategories {
		col := string(category)
		var totals BedTotals
		err := r.pool.QueryRow(ctx, fmt.Sprintf(`
			SELECT COALESCE(SUM(%[1]s_total), 0),
				COALESCE(SUM(%[1]s_occupied), 0),
				COALESCE(SUM(GREATEST(%[1]s_total - %[1]s_occupied, 0)), 0)
			FROM hospital WHERE is_active AND is_approved`, col)).Scan(
			&totals.Total, &totals.Occupied, &totals.Available)
		if err != nil {
			return nil, err
		}
		stats.Beds[col] = totals
	}

	bloodRows, err := r.pool.Query(ctx, `
		SELECT bs.blood_group, COALESCE(SUM(bs.units), 0)
		FROM blood_stock bs
		JOIN hospital h ON h.id = bs.hospital_id
		WHERE h.is_active AND h.is_approved
		GROUP BY bs.blood_group`)
	if err != nil {
		return nil, err
	}
	defer bloodRows.Close()
	for bloodRows.Next() {
		var group string
		var units int
		if err := bloodRows.Scan(&group, &units); err != nil {
			return nil, err
		}
		stats.BloodDistribution[group] = units
	}
	if err := bloodRows.Err(); err != nil {
		return nil, err
	}

	cityRows, err := r.pool.Query(ctx, `
		SELECT city, COUNT(*)
		FROM hospital WHERE is_active AND is_approved
		GROUP BY city ORDER BY COUNT(*) DESC, city ASC
		LIMIT 5`)
	if err != nil {
		return nil, err
	}
	defer cityRows.Close()
	for cityRows.Next() {
		var cc CityCount
		if err := cityRows.Scan(&cc.City, &cc.Count); err != nil {
			return nil, err
		}
		stats.TopCities = append(stats.TopCities, cc)
	}
	return stats, cityRows.Err()
}
