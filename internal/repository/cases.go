package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/sqlgraph"

	"github.com/joseph-ayodele/jurisprudence/internal/common"
	"github.com/joseph-ayodele/jurisprudence/internal/entity"
)

var caseColumns = []string{
	"id", "ref", "titre", "juridiction", "pays_ville", "numero_decision", "date_decision",
	"numero_dossier", "type_decision", "chambre", "theme", "mots_cles", "base_legale", "source",
	"resume_francais_encrypted", "resume_arabe_encrypted", "texte_integral_encrypted",
	"pdf_file_path", "created_by", "created_at", "updated_at",
}

// ListCasesParams pages through cases. PerPage <= 0 returns everything.
type ListCasesParams struct {
	Page    int
	PerPage int
}

type CaseRepository interface {
	ExistsByRef(ctx context.Context, ref string) (bool, error)
	Insert(ctx context.Context, c *entity.StoredCase) (*entity.StoredCase, error)
	Update(ctx context.Context, c *entity.StoredCase) (*entity.StoredCase, error)
	GetByID(ctx context.Context, id int64) (*entity.StoredCase, error)
	GetByRef(ctx context.Context, ref string) (*entity.StoredCase, error)
	List(ctx context.Context, p ListCasesParams) ([]*entity.StoredCase, int, error)
	ListByRefs(ctx context.Context, refs []string) ([]*entity.StoredCase, error)
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) (int, error)
	DeleteByIDs(ctx context.Context, ids []int64) (int, error)
	Stats(ctx context.Context, actor int64, now time.Time) (entity.CaseStats, error)
}

type caseRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewCaseRepository(db *DB, logger *slog.Logger) CaseRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &caseRepository{db: db, logger: logger}
}

func (r *caseRepository) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.db.Dialect())
}

func (r *caseRepository) ExistsByRef(ctx context.Context, ref string) (bool, error) {
	q, args := r.builder().Select(entsql.Count("*")).From(entsql.Table(tableCases)).
		Where(entsql.EQ("ref", ref)).Query()
	n, err := queryInt(ctx, r.db.drv, q, args)
	if err != nil {
		r.logger.Error("failed to check case ref", "ref", ref, "error", err)
		return false, dbError(err)
	}
	return n > 0, nil
}

// Insert stores c in its own transaction. A unique violation on ref is
// reported as ErrDuplicate.
func (r *caseRepository) Insert(ctx context.Context, c *entity.StoredCase) (*entity.StoredCase, error) {
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now

	q, args := r.builder().Insert(tableCases).
		Columns(caseColumns[1:]...).
		Values(
			c.Ref, c.Titre, nullString(c.Juridiction), nullString(c.PaysVille), nullString(c.NumeroDecision),
			nullTime(c.DateDecision), nullString(c.NumeroDossier), nullString(c.TypeDecision),
			nullString(c.Chambre), nullString(c.Theme), nullString(c.MotsCles), nullString(c.BaseLegale),
			nullString(c.Source), nullString(c.ResumeFrancaisEnc), nullString(c.ResumeArabeEnc),
			nullString(c.TexteIntegralEnc), nullString(c.PDFFilePath), nullInt(c.CreatedBy),
			c.CreatedAt, c.UpdatedAt,
		).
		Returning("id").Query()

	err := r.db.WithTx(ctx, func(tx dialectTx) error {
		rows, err := queryRows(ctx, tx, q, args)
		if err != nil {
			return err
		}
		defer rows.Close()
		id, err := entsql.ScanInt64(rows)
		if err != nil {
			return err
		}
		c.ID = id
		return nil
	})
	if err != nil {
		if sqlgraph.IsUniqueConstraintError(err) {
			r.logger.Warn("case ref already stored", "ref", c.Ref)
			return nil, fmt.Errorf("%w: %s", common.ErrDuplicate, c.Ref)
		}
		r.logger.Error("failed to insert case", "ref", c.Ref, "error", err)
		return nil, dbError(err)
	}
	r.logger.Info("case stored", "id", c.ID, "ref", c.Ref)
	return c, nil
}

func (r *caseRepository) Update(ctx context.Context, c *entity.StoredCase) (*entity.StoredCase, error) {
	c.UpdatedAt = time.Now().UTC()
	u := r.builder().Update(tableCases).
		Set("ref", c.Ref).
		Set("titre", c.Titre).
		Set("juridiction", nullString(c.Juridiction)).
		Set("pays_ville", nullString(c.PaysVille)).
		Set("numero_decision", nullString(c.NumeroDecision)).
		Set("date_decision", nullTime(c.DateDecision)).
		Set("numero_dossier", nullString(c.NumeroDossier)).
		Set("type_decision", nullString(c.TypeDecision)).
		Set("chambre", nullString(c.Chambre)).
		Set("theme", nullString(c.Theme)).
		Set("mots_cles", nullString(c.MotsCles)).
		Set("base_legale", nullString(c.BaseLegale)).
		Set("source", nullString(c.Source)).
		Set("resume_francais_encrypted", nullString(c.ResumeFrancaisEnc)).
		Set("resume_arabe_encrypted", nullString(c.ResumeArabeEnc)).
		Set("texte_integral_encrypted", nullString(c.TexteIntegralEnc)).
		Set("pdf_file_path", nullString(c.PDFFilePath)).
		Set("updated_at", c.UpdatedAt).
		Where(entsql.EQ("id", c.ID))
	q, args := u.Query()

	var n int64
	err := r.db.WithTx(ctx, func(tx dialectTx) error {
		res, err := execResult(ctx, tx, q, args)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		if sqlgraph.IsUniqueConstraintError(err) {
			return nil, fmt.Errorf("%w: %s", common.ErrDuplicate, c.Ref)
		}
		r.logger.Error("failed to update case", "id", c.ID, "error", err)
		return nil, dbError(err)
	}
	if n == 0 {
		return nil, common.NotFoundf("case %d not found", c.ID)
	}
	return r.GetByID(ctx, c.ID)
}

func (r *caseRepository) GetByID(ctx context.Context, id int64) (*entity.StoredCase, error) {
	return r.getOne(ctx, entsql.EQ("id", id), fmt.Sprintf("case %d not found", id))
}

func (r *caseRepository) GetByRef(ctx context.Context, ref string) (*entity.StoredCase, error) {
	return r.getOne(ctx, entsql.EQ("ref", ref), fmt.Sprintf("case with ref %s not found", ref))
}

func (r *caseRepository) getOne(ctx context.Context, p *entsql.Predicate, notFound string) (*entity.StoredCase, error) {
	q, args := r.builder().Select(caseColumns...).From(entsql.Table(tableCases)).Where(p).Limit(1).Query()
	out, err := r.queryCases(ctx, q, args)
	if err != nil {
		r.logger.Error("failed to get case", "error", err)
		return nil, dbError(err)
	}
	if len(out) == 0 {
		return nil, common.NotFoundf("%s", notFound)
	}
	return out[0], nil
}

// List orders by decision date (most recent first, undated last), then id.
func (r *caseRepository) List(ctx context.Context, p ListCasesParams) ([]*entity.StoredCase, int, error) {
	cq, cargs := r.builder().Select(entsql.Count("*")).From(entsql.Table(tableCases)).Query()
	total, err := queryInt(ctx, r.db.drv, cq, cargs)
	if err != nil {
		r.logger.Error("failed to count cases", "error", err)
		return nil, 0, dbError(err)
	}

	s := r.builder().Select(caseColumns...).From(entsql.Table(tableCases)).
		OrderExpr(entsql.Expr("date_decision IS NULL")).
		OrderBy(entsql.Desc("date_decision"), entsql.Desc("id"))
	if p.PerPage > 0 {
		page := max(p.Page, 1)
		s = s.Limit(p.PerPage).Offset((page - 1) * p.PerPage)
	}
	q, args := s.Query()
	out, err := r.queryCases(ctx, q, args)
	if err != nil {
		r.logger.Error("failed to list cases", "error", err)
		return nil, 0, dbError(err)
	}
	return out, total, nil
}

func (r *caseRepository) ListByRefs(ctx context.Context, refs []string) ([]*entity.StoredCase, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	vals := make([]any, len(refs))
	for i, ref := range refs {
		vals[i] = ref
	}
	q, args := r.builder().Select(caseColumns...).From(entsql.Table(tableCases)).
		Where(entsql.In("ref", vals...)).Query()
	out, err := r.queryCases(ctx, q, args)
	if err != nil {
		r.logger.Error("failed to list cases by ref", "refs", len(refs), "error", err)
		return nil, dbError(err)
	}
	return out, nil
}

func (r *caseRepository) Delete(ctx context.Context, id int64) error {
	q, args := r.builder().Delete(tableCases).Where(entsql.EQ("id", id)).Query()
	res, err := execResult(ctx, r.db.drv, q, args)
	if err != nil {
		r.logger.Error("failed to delete case", "id", id, "error", err)
		return dbError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.NotFoundf("case %d not found", id)
	}
	return nil
}

func (r *caseRepository) DeleteAll(ctx context.Context) (int, error) {
	q, args := r.builder().Delete(tableCases).Query()
	return r.deleteCount(ctx, q, args)
}

func (r *caseRepository) DeleteByIDs(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	vals := make([]any, len(ids))
	for i, id := range ids {
		vals[i] = id
	}
	q, args := r.builder().Delete(tableCases).Where(entsql.In("id", vals...)).Query()
	return r.deleteCount(ctx, q, args)
}

func (r *caseRepository) deleteCount(ctx context.Context, q string, args []any) (int, error) {
	var n int64
	err := r.db.WithTx(ctx, func(tx dialectTx) error {
		res, err := execResult(ctx, tx, q, args)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		r.logger.Error("failed to delete cases", "error", err)
		return 0, dbError(err)
	}
	r.logger.Info("cases deleted", "count", n)
	return int(n), nil
}

func (r *caseRepository) Stats(ctx context.Context, actor int64, now time.Time) (entity.CaseStats, error) {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).UTC()
	count := func(p *entsql.Predicate) (int, error) {
		s := r.builder().Select(entsql.Count("*")).From(entsql.Table(tableCases))
		if p != nil {
			s = s.Where(p)
		}
		q, args := s.Query()
		return queryInt(ctx, r.db.drv, q, args)
	}

	var st entity.CaseStats
	var err error
	if st.Total, err = count(nil); err != nil {
		return st, dbError(err)
	}
	if st.ThisMonth, err = count(entsql.GTE("created_at", monthStart)); err != nil {
		return st, dbError(err)
	}
	if st.MyCases, err = count(entsql.EQ("created_by", actor)); err != nil {
		return st, dbError(err)
	}
	if st.WithPDF, err = count(entsql.And(entsql.NotNull("pdf_file_path"), entsql.NEQ("pdf_file_path", ""))); err != nil {
		return st, dbError(err)
	}
	return st, nil
}

func (r *caseRepository) queryCases(ctx context.Context, q string, args []any) ([]*entity.StoredCase, error) {
	rows, err := queryRows(ctx, r.db.drv, q, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entity.StoredCase
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanCase(rows *entsql.Rows) (*entity.StoredCase, error) {
	var (
		c                                               entity.StoredCase
		juridiction, paysVille, numDecision, numDossier sql.NullString
		typeDecision, chambre, theme, motsCles          sql.NullString
		baseLegale, source, resumeFr, resumeAr          sql.NullString
		texte, pdfPath                                  sql.NullString
		dateDecision                                    sql.NullTime
		createdBy                                       sql.NullInt64
	)
	if err := rows.Scan(
		&c.ID, &c.Ref, &c.Titre, &juridiction, &paysVille, &numDecision, &dateDecision,
		&numDossier, &typeDecision, &chambre, &theme, &motsCles, &baseLegale, &source,
		&resumeFr, &resumeAr, &texte, &pdfPath, &createdBy, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	c.Juridiction = juridiction.String
	c.PaysVille = paysVille.String
	c.NumeroDecision = numDecision.String
	c.NumeroDossier = numDossier.String
	c.TypeDecision = typeDecision.String
	c.Chambre = chambre.String
	c.Theme = theme.String
	c.MotsCles = motsCles.String
	c.BaseLegale = baseLegale.String
	c.Source = source.String
	c.ResumeFrancaisEnc = resumeFr.String
	c.ResumeArabeEnc = resumeAr.String
	c.TexteIntegralEnc = texte.String
	c.PDFFilePath = pdfPath.String
	c.CreatedBy = createdBy.Int64
	if dateDecision.Valid {
		d := dateDecision.Time
		c.DateDecision = &d
	}
	return &c, nil
}
