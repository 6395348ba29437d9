package repository

import (
	"context"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/jurisprudence/internal/entity"
)

type SearchHistoryRepository interface {
	Record(ctx context.Context, h *entity.SearchHistory) error
	CountByUser(ctx context.Context, userID int64) (int, error)
}

type searchHistoryRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewSearchHistoryRepository(db *DB, logger *slog.Logger) SearchHistoryRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &searchHistoryRepository{db: db, logger: logger}
}

func (r *searchHistoryRepository) Record(ctx context.Context, h *entity.SearchHistory) error {
	h.CreatedAt = time.Now().UTC()
	q, args := entsql.Dialect(r.db.Dialect()).Insert(tableSearchHistory).
		Columns("user_id", "query_encrypted", "results_count", "created_at").
		Values(nullInt(h.UserID), h.Query, h.ResultsCount, h.CreatedAt).
		Returning("id").Query()
	rows, err := queryRows(ctx, r.db.drv, q, args)
	if err != nil {
		r.logger.Error("failed to record search", "user_id", h.UserID, "error", err)
		return dbError(err)
	}
	defer rows.Close()
	if h.ID, err = entsql.ScanInt64(rows); err != nil {
		return dbError(err)
	}
	return nil
}

func (r *searchHistoryRepository) CountByUser(ctx context.Context, userID int64) (int, error) {
	q, args := entsql.Dialect(r.db.Dialect()).Select(entsql.Count("*")).From(entsql.Table(tableSearchHistory)).
		Where(entsql.EQ("user_id", userID)).Query()
	n, err := queryInt(ctx, r.db.drv, q, args)
	if err != nil {
		r.logger.Error("failed to count searches", "user_id", userID, "error", err)
		return 0, dbError(err)
	}
	return n, nil
}
