package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/jurisprudence/constants"
	"github.com/joseph-ayodele/jurisprudence/internal/common"
	"github.com/joseph-ayodele/jurisprudence/internal/entity"
	"github.com/joseph-ayodele/jurisprudence/internal/extract"
)

// RowError is a rejected spreadsheet row. Row is the 1-based sheet row.
type RowError struct {
	Row   int    `json:"row"`
	Ref   string `json:"ref,omitempty"`
	Error string `json:"error"`
}

type ImportReport struct {
	Rows     int        `json:"rows"`
	Imported int        `json:"imported"`
	Errors   []RowError `json:"errors"`
}

// headerFields maps accepted header spellings (lowercased) to case fields:
// the raw field names and the exported column titles.
var headerFields = func() map[string]string {
	m := make(map[string]string)
	for _, f := range constants.MetadataFields {
		m[f] = f
	}
	for _, f := range constants.SectionFields {
		m[f] = f
	}
	m["pdf_file_path"] = "pdf_file_path"
	for _, c := range caseColumns {
		m[strings.ToLower(c.header)] = c.field
	}
	return m
}()

// ImportCases reads a .xlsx or .csv file whose first row names case fields
// and creates one case per following row. Rows that fail are reported and
// skipped; the import continues.
func (s *Service) ImportCases(ctx context.Context, filename string, r io.Reader, actor int64) (*ImportReport, error) {
	start := time.Now()
	rows, err := readRows(filename, r)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, common.InvalidInputf("Fichier vide")
	}

	cols := mapHeader(rows[0])
	if _, ok := cols[constants.FieldRef]; !ok {
		return nil, common.InvalidInputf("colonne %q manquante", constants.FieldRef)
	}

	rep := &ImportReport{Errors: []RowError{}}
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		rep.Rows++
		line := i + 2
		c, err := rowCase(row, cols)
		if err != nil {
			rep.Errors = append(rep.Errors, RowError{Row: line, Ref: c.Ref, Error: common.UserMessage(err)})
			continue
		}
		if _, err := s.creator.Create(ctx, c, actor); err != nil {
			rep.Errors = append(rep.Errors, RowError{Row: line, Ref: c.Ref, Error: common.UserMessage(err)})
			continue
		}
		rep.Imported++
	}

	s.logger.Info("import.sheet.ok",
		"filename", filepath.Base(filename),
		"rows", rep.Rows,
		"imported", rep.Imported,
		"errors", len(rep.Errors),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return rep, nil
}

func readRows(filename string, r io.Reader) ([][]string, error) {
	ext := constants.NormalizeExt(filepath.Ext(filename))
	if _, ok := constants.SpreadsheetExtensions[ext]; !ok {
		return nil, common.NewAppError("INVALID_INPUT", "Fichier .xlsx ou .csv requis", common.ErrUnsupportedFile)
	}
	switch ext {
	case "xlsx":
		f, err := excelize.OpenReader(r)
		if err != nil {
			return nil, common.InvalidInputf("classeur illisible: %v", err)
		}
		defer f.Close()
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, nil
		}
		return f.GetRows(sheets[0])
	case "csv":
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		data = bytes.TrimPrefix(data, []byte("\ufeff"))
		cr := csv.NewReader(bytes.NewReader(data))
		cr.Comma = sniffComma(data)
		cr.FieldsPerRecord = -1
		cr.LazyQuotes = true
		rows, err := cr.ReadAll()
		if err != nil {
			return nil, common.InvalidInputf("CSV illisible: %v", err)
		}
		return rows, nil
	}
	return nil, nil
}

// sniffComma picks ';' when the header line has more of them than commas,
// as spreadsheets exported with a French locale do.
func sniffComma(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
		return ';'
	}
	return ','
}

func mapHeader(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		if f, ok := headerFields[strings.ToLower(strings.TrimSpace(h))]; ok {
			if _, dup := cols[f]; !dup {
				cols[f] = i
			}
		}
	}
	return cols
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// rowCase builds a case from one row. The returned case is non-nil even on
// error so the caller can report its ref.
func rowCase(row []string, cols map[string]int) (*entity.Case, error) {
	get := func(field string) string {
		i, ok := cols[field]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	c := &entity.Case{
		Ref:            get(constants.FieldRef),
		Titre:          get(constants.FieldTitre),
		Juridiction:    get(constants.FieldJuridiction),
		PaysVille:      get(constants.FieldPaysVille),
		NumeroDecision: get(constants.FieldNumeroDecision),
		NumeroDossier:  get(constants.FieldNumeroDossier),
		TypeDecision:   get(constants.FieldTypeDecision),
		Chambre:        get(constants.FieldChambre),
		Theme:          get(constants.FieldTheme),
		MotsCles:       get(constants.FieldMotsCles),
		BaseLegale:     get(constants.FieldBaseLegale),
		Source:         get(constants.FieldSource),
		ResumeFrancais: get(constants.FieldResumeFrancais),
		ResumeArabe:    get(constants.FieldResumeArabe),
		TexteIntegral:  get(constants.FieldTexteIntegral),
		PDFFilePath:    get("pdf_file_path"),
	}
	if raw := get(constants.FieldDateDecision); raw != "" {
		d, ok := extract.ParseDate(raw)
		if !ok {
			return c, common.InvalidInputf("date_decision invalide: %s", raw)
		}
		c.DateDecision = &d
	}
	return c, nil
}
