package cases

import (
	"errors"
	"fmt"

	"github.com/joseph-ayodele/jurisprudence/internal/common"
)

// DuplicateError reports a reference that is already stored.
type DuplicateError struct {
	Ref string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("Cas avec ref %s déjà existant", e.Ref)
}

func (e *DuplicateError) Unwrap() error { return common.ErrDuplicate }

// errMissingRef is returned for a record without a reference number.
var errMissingRef = common.NewAppError("MISSING_REFERENCE", "Impossible d'extraire la référence (ref)", common.ErrMissingRef)

func isDuplicate(err error) bool {
	return errors.Is(err, common.ErrDuplicate)
}
