package storage

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"

	"github.com/example/sharego/internal/models"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

const postColumns = `id, role, poster_id, pickup_text, dropoff_text,
	pickup_lat, pickup_lon, dropoff_lat, dropoff_lon,
	vehicle_type, distance_km, fare, commission, scheduled_at, booked,
	cp_id, cp_name, cp_contact, cp_vehicle_number, cp_vehicle_color, cp_vehicle_model,
	created_at`

func (p *PostgresStore) Create(ctx context.Context, r *models.RidePost) error {
	var pLat, pLon, dLat, dLon sql.NullFloat64
	if r.PickupCoord != nil {
		pLat = sql.NullFloat64{Float64: r.PickupCoord.Lat, Valid: true}
		pLon = sql.NullFloat64{Float64: r.PickupCoord.Lon, Valid: true}
	}
	if r.DropoffCoord != nil {
		dLat = sql.NullFloat64{Float64: r.DropoffCoord.Lat, Valid: true}
		dLon = sql.NullFloat64{Float64: r.DropoffCoord.Lon, Valid: true}
	}
	_, err := p.db.ExecContext(ctx, `INSERT INTO ride_posts(
		id, role, poster_id, pickup_text, dropoff_text,
		pickup_lat, pickup_lon, dropoff_lat, dropoff_lon,
		vehicle_type, distance_km, fare, commission, scheduled_at, booked, created_at)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,false,$15)`,
		r.ID, r.Role, r.PosterID, r.PickupText, r.DropoffText,
		pLat, pLon, dLat, dLon,
		r.VehicleType, r.DistanceKm, r.Fare, r.Commission, r.ScheduledAt, r.CreatedAt)
	return err
}

func (p *PostgresStore) Get(ctx context.Context, id string) (*models.RidePost, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM ride_posts WHERE id=$1`, id)
	post, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return post, err
}

// ListUnbooked orders by the bigserial seq column, which preserves
// insertion order across restarts.
func (p *PostgresStore) ListUnbooked(ctx context.Context, role models.Role) ([]*models.RidePost, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT `+postColumns+` FROM ride_posts WHERE booked=false AND role=$1 ORDER BY seq`, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.RidePost
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, post)
	}
	return out, rows.Err()
}

// Book relies on the conditional UPDATE for atomicity: only one concurrent
// attempt can match booked=false.
func (p *PostgresStore) Book(ctx context.Context, id string, cp models.Counterparty) (*models.RidePost, error) {
	res, err := p.db.ExecContext(ctx, `UPDATE ride_posts
		SET booked=true, cp_id=$2, cp_name=$3, cp_contact=$4,
		    cp_vehicle_number=$5, cp_vehicle_color=$6, cp_vehicle_model=$7
		WHERE id=$1 AND booked=false`,
		id, cp.ID, cp.Name, cp.Contact, cp.VehicleNumber, cp.VehicleColor, cp.VehicleModel)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		if _, err := p.Get(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrAlreadyBooked
	}
	return p.Get(ctx, id)
}

func (p *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM ride_posts WHERE id=$1 AND booked=false`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := p.Get(ctx, id); err != nil {
			return err
		}
		return ErrAlreadyBooked
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.RidePost, error) {
	var r models.RidePost
	var pLat, pLon, dLat, dLon sql.NullFloat64
	var cpID, cpName, cpContact, cpVNum, cpVColor, cpVModel sql.NullString
	err := row.Scan(&r.ID, &r.Role, &r.PosterID, &r.PickupText, &r.DropoffText,
		&pLat, &pLon, &dLat, &dLon,
		&r.VehicleType, &r.DistanceKm, &r.Fare, &r.Commission, &r.ScheduledAt, &r.Booked,
		&cpID, &cpName, &cpContact, &cpVNum, &cpVColor, &cpVModel,
		&r.CreatedAt)
	if err != nil {
		return nil, err
	}
	if pLat.Valid && pLon.Valid {
		r.PickupCoord = &models.Coord{Lat: pLat.Float64, Lon: pLon.Float64}
	}
	if dLat.Valid && dLon.Valid {
		r.DropoffCoord = &models.Coord{Lat: dLat.Float64, Lon: dLon.Float64}
	}
	if cpID.Valid {
		r.Counterparty = &models.Counterparty{
			ID:            cpID.String,
			Name:          cpName.String,
			Contact:       cpContact.String,
			VehicleNumber: cpVNum.String,
			VehicleColor:  cpVColor.String,
			VehicleModel:  cpVModel.String,
		}
	}
	return &r, nil
}
