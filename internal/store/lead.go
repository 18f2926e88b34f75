package store

import (
	"context"
	"fmt"
	"time"

	"studybridge/internal/popup"
	"studybridge/internal/utils"
	"studybridge/pkg/types"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const leadTableName = schemaName + ".leads"

var leadTableColumns = utils.StructTagValues(types.Lead{})

type LeadRepository struct {
	pool *pgxpool.Pool
}

func NewLeadRepository(pool *pgxpool.Pool) *LeadRepository {
	return &LeadRepository{pool: pool}
}

// CreateLead inserts a captured lead
func (r *LeadRepository) CreateLead(ctx context.Context, lead *types.Lead) error {
	if lead.ID == "" {
		lead.ID = utils.NanoIDSize(21)
	}
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now().UTC()
	}

	query, args, err := psql().
		Insert(leadTableName).
		SetMap(utils.StructToMap(lead)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build lead insert: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.WrapError(err, "insert lead")
}

// SubmitLead adapts popup engine submissions onto CreateLead, satisfying
// the engine's lead sink port.
func (r *LeadRepository) SubmitLead(ctx context.Context, lead popup.Lead) error {
	return r.CreateLead(ctx, &types.Lead{
		OfferID:   lead.OfferID,
		Value:     lead.Value,
		InputType: string(lead.InputType),
		Source:    lead.Source,
		Page:      lead.Page,
	})
}

// LatestLeads returns the most recently captured leads
func (r *LeadRepository) LatestLeads(ctx context.Context, limit uint64) ([]*types.Lead, error) {
	query, args, err := psql().
		Select(leadTableColumns...).
		From(leadTableName).
		OrderBy("created_at DESC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build latest leads query: %w", err)
	}

	out := make([]*types.Lead, 0)
	if err := pgxscan.Select(ctx, r.pool, &out, query, args...); err != nil {
		return nil, fmt.Errorf("select latest leads: %w", err)
	}

	return out, nil
}
