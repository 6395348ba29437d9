package cases

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/jurisprudence/internal/common"
	"github.com/joseph-ayodele/jurisprudence/internal/entity"
	"github.com/joseph-ayodele/jurisprudence/internal/repository"
	"github.com/joseph-ayodele/jurisprudence/internal/textnorm"
)

// Placeholders shown instead of a body whose token no longer decrypts.
const (
	DecryptFailedFR = "[Erreur de déchiffrement - clé de chiffrement invalide]"
	DecryptFailedAR = "[خطأ في فك التشفير - مفتاح تشفير غير صالح]"
)

const maxPerPage = 100

// Input is a case as sent by a client. Nil fields are left untouched on
// update.
type Input struct {
	Ref            *string `json:"ref"`
	Titre          *string `json:"titre"`
	Juridiction    *string `json:"juridiction"`
	PaysVille      *string `json:"pays_ville"`
	NumeroDecision *string `json:"numero_decision"`
	DateDecision   *string `json:"date_decision"`
	NumeroDossier  *string `json:"numero_dossier"`
	TypeDecision   *string `json:"type_decision"`
	Chambre        *string `json:"chambre"`
	Theme          *string `json:"theme"`
	MotsCles       *string `json:"mots_cles"`
	BaseLegale     *string `json:"base_legale"`
	Source         *string `json:"source"`
	ResumeFrancais *string `json:"resume_francais"`
	ResumeArabe    *string `json:"resume_arabe"`
	TexteIntegral  *string `json:"texte_integral"`
}

// Page is one page of the case list.
type Page struct {
	Cases []*entity.Case `json:"cases"`
	Total int            `json:"total"`
	Page  int            `json:"page"`
	Pages int            `json:"pages"`
}

// UserStats is the per-user dashboard counter pair.
type UserStats struct {
	TotalCases   int `json:"total_cases"`
	UserSearches int `json:"user_searches"`
}

// Service is the case CRUD surface.
type Service struct {
	repo     repository.CaseRepository
	searches repository.SearchHistoryRepository
	builder  *Builder
	cipher   Cipher
	logger   *slog.Logger
}

func NewService(repo repository.CaseRepository, searches repository.SearchHistoryRepository, builder *Builder, cipher Cipher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, searches: searches, builder: builder, cipher: cipher, logger: logger}
}

// Builder exposes the record builder shared with the import paths.
func (s *Service) Builder() *Builder { return s.builder }

func (s *Service) List(ctx context.Context, page, perPage int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}
	perPage = min(perPage, maxPerPage)

	rows, total, err := s.repo.List(ctx, repository.ListCasesParams{Page: page, PerPage: perPage})
	if err != nil {
		return nil, err
	}
	out := &Page{Cases: make([]*entity.Case, 0, len(rows)), Total: total, Page: page, Pages: (total + perPage - 1) / perPage}
	for _, r := range rows {
		out.Cases = append(out.Cases, s.Open(r))
	}
	return out, nil
}

// All returns every case decrypted, in list order.
func (s *Service) All(ctx context.Context) ([]*entity.Case, error) {
	rows, _, err := s.repo.List(ctx, repository.ListCasesParams{})
	if err != nil {
		return nil, err
	}
	out := make([]*entity.Case, 0, len(rows))
	for _, r := range rows {
		out = append(out, s.Open(r))
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*entity.Case, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.Open(row), nil
}

// Open decrypts the bodies of a stored row and strips extraction artifacts
// from its text fields.
func (s *Service) Open(row *entity.StoredCase) *entity.Case {
	c := row.Case
	c.ResumeFrancais = s.decrypt(row.ResumeFrancaisEnc, DecryptFailedFR, "resume_francais", c.ID)
	c.ResumeArabe = s.decrypt(row.ResumeArabeEnc, DecryptFailedAR, "resume_arabe", c.ID)
	c.TexteIntegral = s.decrypt(row.TexteIntegralEnc, DecryptFailedFR, "texte_integral", c.ID)
	for _, p := range []*string{
		&c.Titre, &c.Juridiction, &c.PaysVille, &c.NumeroDecision, &c.NumeroDossier,
		&c.TypeDecision, &c.Chambre, &c.Theme, &c.MotsCles, &c.BaseLegale, &c.Source,
		&c.ResumeFrancais, &c.ResumeArabe, &c.TexteIntegral,
	} {
		*p = textnorm.Clean(*p)
	}
	return &c
}

func (s *Service) decrypt(token, placeholder, field string, id int64) string {
	if token == "" {
		return ""
	}
	plain, err := s.cipher.Decrypt(token)
	if err != nil {
		s.logger.Warn("cases.decrypt.failed", "id", id, "field", field, "error", err)
		return placeholder
	}
	return plain
}

// Create validates in and stores it through the record builder.
func (s *Service) Create(ctx context.Context, in Input, actor int64) (*entity.Case, error) {
	v := common.NewValidator().
		Field("ref", in.Ref, common.Required).
		Field("titre", in.Titre, common.Required).
		Field("date_decision", in.DateDecision, common.ISODate)
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}
	c := &entity.Case{}
	apply(c, in)
	return s.builder.Create(ctx, c, actor)
}

// Update patches the fields present in in.
func (s *Service) Update(ctx context.Context, id int64, in Input) (*entity.Case, error) {
	v := common.NewValidator().Field("date_decision", in.DateDecision, common.ISODate)
	if in.Ref != nil {
		v.Field("ref", in.Ref, common.Required)
	}
	if in.Titre != nil {
		v.Field("titre", in.Titre, common.Required)
	}
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c := s.Open(row)
	apply(c, in)
	c = Bound(c)

	sealed, err := s.builder.seal(c)
	if err != nil {
		return nil, err
	}
	// bodies not in the patch keep their stored tokens, even undecryptable ones
	if in.ResumeFrancais == nil {
		sealed.ResumeFrancaisEnc = row.ResumeFrancaisEnc
	}
	if in.ResumeArabe == nil {
		sealed.ResumeArabeEnc = row.ResumeArabeEnc
	}
	if in.TexteIntegral == nil {
		sealed.TexteIntegralEnc = row.TexteIntegralEnc
	}
	updated, err := s.repo.Update(ctx, sealed)
	if err != nil {
		if isDuplicate(err) {
			return nil, &DuplicateError{Ref: c.Ref}
		}
		return nil, err
	}
	s.logger.Info("cases.update.ok", "id", id, "ref", updated.Ref)
	return s.Open(updated), nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("cases.delete.ok", "id", id)
	return nil
}

func (s *Service) DeleteAll(ctx context.Context) (int, error) {
	return s.repo.DeleteAll(ctx)
}

func (s *Service) DeleteSelected(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, common.InvalidInputf("case_ids is empty")
	}
	return s.repo.DeleteByIDs(ctx, ids)
}

func (s *Service) Stats(ctx context.Context, actor int64) (entity.CaseStats, error) {
	return s.repo.Stats(ctx, actor, time.Now())
}

func (s *Service) UserStats(ctx context.Context, actor int64) (UserStats, error) {
	st, err := s.repo.Stats(ctx, actor, time.Now())
	if err != nil {
		return UserStats{}, err
	}
	n, err := s.searches.CountByUser(ctx, actor)
	if err != nil {
		return UserStats{}, err
	}
	return UserStats{TotalCases: st.Total, UserSearches: n}, nil
}

func apply(c *entity.Case, in Input) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&c.Ref, in.Ref)
	set(&c.Titre, in.Titre)
	set(&c.Juridiction, in.Juridiction)
	set(&c.PaysVille, in.PaysVille)
	set(&c.NumeroDecision, in.NumeroDecision)
	set(&c.NumeroDossier, in.NumeroDossier)
	set(&c.TypeDecision, in.TypeDecision)
	set(&c.Chambre, in.Chambre)
	set(&c.Theme, in.Theme)
	set(&c.MotsCles, in.MotsCles)
	set(&c.BaseLegale, in.BaseLegale)
	set(&c.Source, in.Source)
	if in.ResumeFrancais != nil {
		c.ResumeFrancais = *in.ResumeFrancais
	}
	if in.ResumeArabe != nil {
		c.ResumeArabe = *in.ResumeArabe
	}
	if in.TexteIntegral != nil {
		c.TexteIntegral = *in.TexteIntegral
	}
	if in.DateDecision != nil {
		if d, err := time.Parse("2006-01-02", strings.TrimSpace(*in.DateDecision)); err == nil {
			c.DateDecision = &d
		} else {
			c.DateDecision = nil
		}
	}
}
