package cases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/jurisprudence/internal/common"
	"github.com/joseph-ayodele/jurisprudence/internal/entity"
	"github.com/joseph-ayodele/jurisprudence/internal/repository"
)

// Cipher is the at-rest encryption collaborator.
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(token string) (string, error)
}

// Builder persists prepared case records.
type Builder struct {
	repo   repository.CaseRepository
	cipher Cipher
	logger *slog.Logger
}

func NewBuilder(repo repository.CaseRepository, cipher Cipher, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{repo: repo, cipher: cipher, logger: logger}
}

// Create encrypts the bodies of c and inserts it. The ref pre-check only
// saves work; the unique index decides, and either path yields
// *DuplicateError.
func (b *Builder) Create(ctx context.Context, c *entity.Case, actor int64) (*entity.Case, error) {
	start := time.Now()
	c = Bound(c)
	if c.Ref == "" {
		return nil, errMissingRef
	}

	exists, err := b.repo.ExistsByRef(ctx, c.Ref)
	if err != nil {
		return nil, err
	}
	if exists {
		b.logger.Info("cases.create.duplicate", "ref", c.Ref, "stage", "precheck")
		return nil, &DuplicateError{Ref: c.Ref}
	}

	stored, err := b.seal(c)
	if err != nil {
		return nil, err
	}
	stored.CreatedBy = actor

	out, err := b.repo.Insert(ctx, stored)
	if err != nil {
		if isDuplicate(err) {
			b.logger.Info("cases.create.duplicate", "ref", c.Ref, "stage", "constraint")
			return nil, &DuplicateError{Ref: c.Ref}
		}
		b.logger.Error("cases.create.failed", "ref", c.Ref, "error", err)
		return nil, err
	}

	created := out.Case
	created.ResumeFrancais, created.ResumeArabe, created.TexteIntegral = c.ResumeFrancais, c.ResumeArabe, c.TexteIntegral
	b.logger.Info("cases.create.ok",
		"id", created.ID,
		"ref", created.Ref,
		"actor", actor,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return &created, nil
}

// seal copies c with its bodies replaced by encryption tokens.
func (b *Builder) seal(c *entity.Case) (*entity.StoredCase, error) {
	s := &entity.StoredCase{Case: *c}
	s.ResumeFrancais, s.ResumeArabe, s.TexteIntegral = "", "", ""

	pairs := []struct {
		name  string
		plain string
		dst   *string
	}{
		{"resume_francais", c.ResumeFrancais, &s.ResumeFrancaisEnc},
		{"resume_arabe", c.ResumeArabe, &s.ResumeArabeEnc},
		{"texte_integral", c.TexteIntegral, &s.TexteIntegralEnc},
	}
	for _, p := range pairs {
		if strings.TrimSpace(p.plain) == "" {
			continue
		}
		tok, err := b.cipher.Encrypt(p.plain)
		if err != nil {
			b.logger.Error("cases.encrypt.failed", "field", p.name, "error", err)
			return nil, common.NewAppError("ENCRYPTION_ERROR", fmt.Sprintf("encrypt %s", p.name), errors.Join(common.ErrInternal, err))
		}
		*p.dst = tok
	}
	return s, nil
}
