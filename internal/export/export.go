package export

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/jurisprudence/constants"
	"github.com/joseph-ayodele/jurisprudence/internal/entity"
	"github.com/joseph-ayodele/jurisprudence/internal/repository"
)

// maxCellRunes stays under the XLSX per-cell limit of 32767 characters.
const maxCellRunes = 32000

// CaseLister reads stored rows without decrypting them;
// repository.CaseRepository implements it.
type CaseLister interface {
	List(ctx context.Context, p repository.ListCasesParams) ([]*entity.StoredCase, int, error)
}

// CaseCreator persists one imported row; *cases.Builder implements it.
type CaseCreator interface {
	Create(ctx context.Context, c *entity.Case, actor int64) (*entity.Case, error)
}

// Service turns cases into workbooks and spreadsheets back into cases.
type Service struct {
	cases   CaseLister
	creator CaseCreator
	logger  *slog.Logger
}

func NewService(cases CaseLister, creator CaseCreator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{cases: cases, creator: creator, logger: logger}
}

// column is one exported case column. field is the case field it maps to
// on import; width is the column width in the sheet.
type column struct {
	header string
	field  string
	width  float64
	value  func(c *entity.Case) string
}

var caseColumns = []column{
	{"Réf", constants.FieldRef, 10, func(c *entity.Case) string { return c.Ref }},
	{"Titre", constants.FieldTitre, 40, func(c *entity.Case) string { return c.Titre }},
	{"Juridiction", constants.FieldJuridiction, 28, func(c *entity.Case) string { return c.Juridiction }},
	{"Pays/Ville", constants.FieldPaysVille, 20, func(c *entity.Case) string { return c.PaysVille }},
	{"N° de décision", constants.FieldNumeroDecision, 16, func(c *entity.Case) string { return c.NumeroDecision }},
	{"Date de décision", constants.FieldDateDecision, 14, func(c *entity.Case) string { return c.DateString() }},
	{"N° de dossier", constants.FieldNumeroDossier, 18, func(c *entity.Case) string { return c.NumeroDossier }},
	{"Type de décision", constants.FieldTypeDecision, 16, func(c *entity.Case) string { return c.TypeDecision }},
	{"Chambre", constants.FieldChambre, 16, func(c *entity.Case) string { return c.Chambre }},
	{"Thème", constants.FieldTheme, 30, func(c *entity.Case) string { return c.Theme }},
	{"Mots clés", constants.FieldMotsCles, 36, func(c *entity.Case) string { return c.MotsCles }},
	{"Base légale", constants.FieldBaseLegale, 30, func(c *entity.Case) string { return c.BaseLegale }},
	{"Source", constants.FieldSource, 24, func(c *entity.Case) string { return c.Source }},
	{"Fichier PDF", "pdf_file_path", 50, func(c *entity.Case) string { return c.PDFFilePath }},
}

// ExportCasesXLSX returns every case as an XLSX workbook, one row per case
// in list order. Summaries and full text are not exported.
func (s *Service) ExportCasesXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()
	rows, _, err := s.cases.List(ctx, repository.ListCasesParams{})
	if err != nil {
		return nil, fmt.Errorf("query cases: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	const sheet = "Jurisprudence"
	if err := useSheet(f, sheet); err != nil {
		return nil, err
	}

	headers := make([]string, 0, len(caseColumns)+1)
	for _, c := range caseColumns {
		headers = append(headers, c.header)
	}
	headers = append(headers, "Créé le")
	writeRow(f, sheet, 1, toAny(headers))

	for i, r := range rows {
		vals := make([]any, 0, len(caseColumns)+1)
		for _, c := range caseColumns {
			vals = append(vals, truncate(c.value(&r.Case), maxCellRunes))
		}
		vals = append(vals, r.CreatedAt.UTC().Format(time.RFC3339))
		writeRow(f, sheet, i+2, vals)
	}

	for i, c := range caseColumns {
		name, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(sheet, name, name, c.width)
	}
	last, _ := excelize.ColumnNumberToName(len(caseColumns) + 1)
	_ = f.SetColWidth(sheet, last, last, 22)
	_ = f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	s.logger.Info("export.xlsx.ok",
		"rows", len(rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// BatchReportXLSX renders the per-file outcomes of a batch import.
func BatchReportXLSX(batchID string, results []entity.BatchFileResult) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	const sheet = "Import"
	if err := useSheet(f, sheet); err != nil {
		return nil, err
	}
	writeRow(f, sheet, 1, []any{"Lot", "Position", "Fichier", "Statut", "Réf", "Titre", "ID", "Erreur", "Traité le"})
	for i, r := range results {
		status := "OK"
		if !r.OK {
			status = "Erreur"
		}
		id := ""
		if r.CaseID != 0 {
			id = strconv.FormatInt(r.CaseID, 10)
		}
		writeRow(f, sheet, i+2, []any{batchID, r.Position, r.Filename, status, r.Ref, r.Titre, id, r.Error, r.At.UTC().Format(time.RFC3339)})
	}
	_ = f.SetColWidth(sheet, "A", "A", 24)
	_ = f.SetColWidth(sheet, "C", "C", 36)
	_ = f.SetColWidth(sheet, "F", "F", 40)
	_ = f.SetColWidth(sheet, "H", "H", 48)
	_ = f.SetColWidth(sheet, "I", "I", 22)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

// useSheet makes sheet the only, active sheet of a new workbook.
func useSheet(f *excelize.File, sheet string) error {
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	idx, err := f.GetSheetIndex(sheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, vals []any) {
	cell, _ := excelize.CoordinatesToCellName(1, row)
	_ = f.SetSheetRow(sheet, cell, &vals)
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
