package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/StudioOnboardBack/internal/models"
)

type CatalogRepository struct {
	db DBTX
}

func NewCatalogRepository(db DBTX) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) ListSteps(ctx context.Context) ([]models.StepDescriptor, error) {
	query := `
		SELECT id, title, description, actions
		FROM onboarding_steps
		ORDER BY position ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.StepDescriptor, error) {
		var (
			step       models.StepDescriptor
			rawActions []byte
		)
		if err := row.Scan(&step.ID, &step.Title, &step.Description, &rawActions); err != nil {
			return step, err
		}
		if len(rawActions) > 0 {
			if err := json.Unmarshal(rawActions, &step.Actions); err != nil {
				return step, fmt.Errorf("decode actions for step %q: %w", step.ID, err)
			}
		}
		return step, nil
	})
}

func (r *CatalogRepository) ListPackages(ctx context.Context) ([]models.Package, error) {
	query := `
		SELECT code, title, summary, description, sessions_total, sessions_per_week,
			   price_pence, promo_price_pence, badge, cta_label
		FROM pt_packages
		WHERE active = TRUE
		ORDER BY position ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Package, error) {
		var pkg models.Package
		err := row.Scan(
			&pkg.Code,
			&pkg.Title,
			&pkg.Summary,
			&pkg.Description,
			&pkg.SessionsTotal,
			&pkg.SessionsPerWeek,
			&pkg.PricePence,
			&pkg.PromoPricePence,
			&pkg.Badge,
			&pkg.CTALabel,
		)
		return pkg, err
	})
}
