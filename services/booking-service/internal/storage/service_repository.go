package storage

import (
	"context"

	"github.com/jmoss-dev/salonbook/libs/db"
	"github.com/jmoss-dev/salonbook/services/booking-service/internal/model"
)

type ServiceRepository struct {
	pool *db.Pool
}

func NewServiceRepository(pool *db.Pool) *ServiceRepository {
	return &ServiceRepository{pool: pool}
}

func (r *ServiceRepository) Get(ctx context.Context, id string) (model.Service, error) {
	var svc model.Service
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, name, price, duration_label, description, image_url, created_at
		FROM services
		WHERE id = $1
	`, id).Scan(&svc.ID, &svc.Name, &svc.Price, &svc.DurationLabel, &svc.Description, &svc.ImageURL, &svc.CreatedAt)
	if err != nil {
		return model.Service{}, err
	}
	return svc, nil
}

func (r *ServiceRepository) List(ctx context.Context) ([]model.Service, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, name, price, duration_label, description, image_url, created_at
		FROM services
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var services []model.Service
	for rows.Next() {
		var svc model.Service
		if err := rows.Scan(&svc.ID, &svc.Name, &svc.Price, &svc.DurationLabel, &svc.Description, &svc.ImageURL, &svc.CreatedAt); err != nil {
			return nil, err
		}
		services = append(services, svc)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return services, nil
}

func (r *ServiceRepository) Create(ctx context.Context, svc *model.Service) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO services (name, price, duration_label, description, image_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, svc.Name, svc.Price, svc.DurationLabel, svc.Description, svc.ImageURL).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}
