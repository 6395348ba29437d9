package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/sqlgraph"

	"github.com/joseph-ayodele/jurisprudence/constants"
	"github.com/joseph-ayodele/jurisprudence/internal/common"
	"github.com/joseph-ayodele/jurisprudence/internal/entity"
)

var batchColumns = []string{"id", "total_files", "cursor", "status", "processing_until", "lease_owner", "created_by", "created_at", "updated_at"}

var batchFileColumns = []string{"batch_id", "position", "filename", "ok", "case_id", "ref", "titre", "error", "processed_at"}

// BatchRepository keeps the server-owned cursor and processing lease of
// every import batch.
type BatchRepository interface {
	Create(ctx context.Context, b *entity.Batch) error
	Get(ctx context.Context, id string) (*entity.Batch, error)
	// AcquireLease claims the batch for one processing window on behalf of
	// owner. It fails with ErrConflict while another lease is live or once
	// the batch is locked.
	AcquireLease(ctx context.Context, id, owner string, now time.Time, ttl time.Duration) (*entity.Batch, error)
	// RenewLease pushes the expiry of owner's lease to now+ttl. It fails with
	// ErrConflict when owner no longer holds the lease.
	RenewLease(ctx context.Context, id, owner string, now time.Time, ttl time.Duration) error
	// Advance records results, moves the cursor from -> to and drops the
	// lease. Only the lease owner can advance.
	Advance(ctx context.Context, id, owner string, from, to int, status constants.BatchStatus, results []entity.BatchFileResult) error
	// ReleaseLease drops the lease if owner still holds it.
	ReleaseLease(ctx context.Context, id, owner string) error
	// Lock marks the batch immutable. It fails with ErrConflict while a lease is live.
	Lock(ctx context.Context, id string, now time.Time) error
	Delete(ctx context.Context, id string) error
	FileResults(ctx context.Context, id string) ([]entity.BatchFileResult, error)
}

type batchRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewBatchRepository(db *DB, logger *slog.Logger) BatchRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &batchRepository{db: db, logger: logger}
}

func (r *batchRepository) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.db.Dialect())
}

func (r *batchRepository) Create(ctx context.Context, b *entity.Batch) error {
	now := time.Now().UTC()
	b.CreatedAt, b.UpdatedAt = now, now
	if b.Status == "" {
		b.Status = constants.BatchStatusCreated
	}
	q, args := r.builder().Insert(tableBatches).Columns(batchColumns...).
		Values(b.ID, b.TotalFiles, b.Cursor, string(b.Status), nil, nil, nullInt(b.CreatedBy), b.CreatedAt, b.UpdatedAt).
		Query()
	if _, err := execResult(ctx, r.db.drv, q, args); err != nil {
		if sqlgraph.IsUniqueConstraintError(err) {
			return fmt.Errorf("%w: batch %s", common.ErrDuplicate, b.ID)
		}
		r.logger.Error("failed to create batch", "batch_id", b.ID, "error", err)
		return dbError(err)
	}
	return nil
}

func (r *batchRepository) Get(ctx context.Context, id string) (*entity.Batch, error) {
	q, args := r.builder().Select(batchColumns...).From(entsql.Table(tableBatches)).
		Where(entsql.EQ("id", id)).Query()
	rows, err := queryRows(ctx, r.db.drv, q, args)
	if err != nil {
		r.logger.Error("failed to get batch", "batch_id", id, "error", err)
		return nil, dbError(err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, dbError(err)
		}
		return nil, common.NotFoundf("batch %s not found", id)
	}
	var (
		b         entity.Batch
		status    string
		until     sql.NullInt64
		owner     sql.NullString
		createdBy sql.NullInt64
	)
	if err := rows.Scan(&b.ID, &b.TotalFiles, &b.Cursor, &status, &until, &owner, &createdBy, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, dbError(err)
	}
	b.Status = constants.BatchStatus(status)
	b.CreatedBy = createdBy.Int64
	b.LeaseOwner = owner.String
	if until.Valid {
		t := time.UnixMilli(until.Int64).UTC()
		b.ProcessingUntil = &t
	}
	return &b, nil
}

func leaseFree(now time.Time) *entsql.Predicate {
	return entsql.Or(entsql.IsNull("processing_until"), entsql.LT("processing_until", now.UnixMilli()))
}

func heldBy(owner string) *entsql.Predicate {
	return entsql.EQ("lease_owner", owner)
}

func (r *batchRepository) AcquireLease(ctx context.Context, id, owner string, now time.Time, ttl time.Duration) (*entity.Batch, error) {
	if owner == "" {
		return nil, common.InvalidInputf("lease owner required")
	}
	q, args := r.builder().Update(tableBatches).
		Set("processing_until", now.Add(ttl).UnixMilli()).
		Set("lease_owner", owner).
		Set("updated_at", now.UTC()).
		Where(entsql.And(
			entsql.EQ("id", id),
			entsql.NEQ("status", string(constants.BatchStatusLocked)),
			leaseFree(now),
		)).Query()
	res, err := execResult(ctx, r.db.drv, q, args)
	if err != nil {
		r.logger.Error("failed to acquire batch lease", "batch_id", id, "error", err)
		return nil, dbError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		b, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if b.Status == constants.BatchStatusLocked {
			return nil, common.Conflictf("batch %s is locked for cleanup", id)
		}
		return nil, common.Conflictf("batch %s is already being processed", id)
	}
	return r.Get(ctx, id)
}

func (r *batchRepository) RenewLease(ctx context.Context, id, owner string, now time.Time, ttl time.Duration) error {
	q, args := r.builder().Update(tableBatches).
		Set("processing_until", now.Add(ttl).UnixMilli()).
		Set("updated_at", now.UTC()).
		Where(entsql.And(
			entsql.EQ("id", id),
			entsql.NEQ("status", string(constants.BatchStatusLocked)),
			heldBy(owner),
		)).Query()
	res, err := execResult(ctx, r.db.drv, q, args)
	if err != nil {
		r.logger.Error("failed to renew batch lease", "batch_id", id, "error", err)
		return dbError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.Conflictf("batch %s lease lost", id)
	}
	return nil
}

func (r *batchRepository) Advance(ctx context.Context, id, owner string, from, to int, status constants.BatchStatus, results []entity.BatchFileResult) error {
	now := time.Now().UTC()
	return r.db.WithTx(ctx, func(tx dialectTx) error {
		if len(results) > 0 {
			ins := r.builder().Insert(tableBatchFiles).Columns(batchFileColumns...)
			for _, fr := range results {
				ins = ins.Values(fr.BatchID, fr.Position, fr.Filename, fr.OK, nullInt(fr.CaseID),
					nullString(fr.Ref), nullString(fr.Titre), nullString(fr.Error), fr.At.UTC())
			}
			q, args := ins.Query()
			if _, err := execResult(ctx, tx, q, args); err != nil {
				r.logger.Error("failed to record batch results", "batch_id", id, "error", err)
				if sqlgraph.IsUniqueConstraintError(err) {
					return common.Conflictf("batch %s window %d already recorded", id, from)
				}
				return dbError(err)
			}
		}

		q, args := r.builder().Update(tableBatches).
			Set("cursor", to).
			Set("status", string(status)).
			SetNull("processing_until").
			SetNull("lease_owner").
			Set("updated_at", now).
			Where(entsql.And(entsql.EQ("id", id), entsql.EQ("cursor", from), heldBy(owner))).
			Query()
		res, err := execResult(ctx, tx, q, args)
		if err != nil {
			r.logger.Error("failed to advance batch cursor", "batch_id", id, "error", err)
			return dbError(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return common.Conflictf("batch %s cursor moved past %d or lease lost", id, from)
		}
		return nil
	})
}

func (r *batchRepository) ReleaseLease(ctx context.Context, id, owner string) error {
	q, args := r.builder().Update(tableBatches).
		SetNull("processing_until").
		SetNull("lease_owner").
		Set("updated_at", time.Now().UTC()).
		Where(entsql.And(entsql.EQ("id", id), heldBy(owner))).Query()
	if _, err := execResult(ctx, r.db.drv, q, args); err != nil {
		r.logger.Error("failed to release batch lease", "batch_id", id, "error", err)
		return dbError(err)
	}
	return nil
}

func (r *batchRepository) Lock(ctx context.Context, id string, now time.Time) error {
	q, args := r.builder().Update(tableBatches).
		Set("status", string(constants.BatchStatusLocked)).
		Set("updated_at", now.UTC()).
		Where(entsql.And(entsql.EQ("id", id), leaseFree(now))).Query()
	res, err := execResult(ctx, r.db.drv, q, args)
	if err != nil {
		r.logger.Error("failed to lock batch", "batch_id", id, "error", err)
		return dbError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return common.Conflictf("batch %s is being processed", id)
	}
	return nil
}

func (r *batchRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithTx(ctx, func(tx dialectTx) error {
		q, args := r.builder().Delete(tableBatchFiles).Where(entsql.EQ("batch_id", id)).Query()
		if _, err := execResult(ctx, tx, q, args); err != nil {
			return dbError(err)
		}
		q, args = r.builder().Delete(tableBatches).Where(entsql.EQ("id", id)).Query()
		if _, err := execResult(ctx, tx, q, args); err != nil {
			return dbError(err)
		}
		return nil
	})
}

func (r *batchRepository) FileResults(ctx context.Context, id string) ([]entity.BatchFileResult, error) {
	q, args := r.builder().Select(batchFileColumns...).From(entsql.Table(tableBatchFiles)).
		Where(entsql.EQ("batch_id", id)).OrderBy(entsql.Asc("position")).Query()
	rows, err := queryRows(ctx, r.db.drv, q, args)
	if err != nil {
		r.logger.Error("failed to list batch results", "batch_id", id, "error", err)
		return nil, dbError(err)
	}
	defer rows.Close()

	var out []entity.BatchFileResult
	for rows.Next() {
		var (
			fr                  entity.BatchFileResult
			caseID              sql.NullInt64
			ref, titre, errText sql.NullString
		)
		if err := rows.Scan(&fr.BatchID, &fr.Position, &fr.Filename, &fr.OK, &caseID, &ref, &titre, &errText, &fr.At); err != nil {
			return nil, dbError(err)
		}
		fr.CaseID = caseID.Int64
		fr.Ref = ref.String
		fr.Titre = titre.String
		fr.Error = errText.String
		out = append(out, fr)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err)
	}
	return out, nil
}
