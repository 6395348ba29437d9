package repository

import (
	"context"
	"log/slog"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const (
	tableCases         = "jurisprudence_cases"
	tableBatches       = "import_batches"
	tableBatchFiles    = "import_batch_files"
	tableSearchHistory = "search_history"
)

var textType = map[string]string{dialect.Postgres: "text"}

var (
	casesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "ref", Type: field.TypeString, Size: 50, Unique: true},
		{Name: "titre", Type: field.TypeString, SchemaType: textType},
		{Name: "juridiction", Type: field.TypeString, Size: 200, Nullable: true},
		{Name: "pays_ville", Type: field.TypeString, Size: 200, Nullable: true},
		{Name: "numero_decision", Type: field.TypeString, Size: 100, Nullable: true},
		{Name: "date_decision", Type: field.TypeTime, Nullable: true, SchemaType: map[string]string{dialect.Postgres: "date"}},
		{Name: "numero_dossier", Type: field.TypeString, Size: 100, Nullable: true},
		{Name: "type_decision", Type: field.TypeString, Size: 100, Nullable: true},
		{Name: "chambre", Type: field.TypeString, Size: 100, Nullable: true},
		{Name: "theme", Type: field.TypeString, Nullable: true, SchemaType: textType},
		{Name: "mots_cles", Type: field.TypeString, Nullable: true, SchemaType: textType},
		{Name: "base_legale", Type: field.TypeString, Nullable: true, SchemaType: textType},
		{Name: "source", Type: field.TypeString, Size: 200, Nullable: true},
		{Name: "resume_francais_encrypted", Type: field.TypeString, Nullable: true, SchemaType: textType},
		{Name: "resume_arabe_encrypted", Type: field.TypeString, Nullable: true, SchemaType: textType},
		{Name: "texte_integral_encrypted", Type: field.TypeString, Nullable: true, SchemaType: textType},
		{Name: "pdf_file_path", Type: field.TypeString, Size: 500, Nullable: true},
		{Name: "created_by", Type: field.TypeInt64, Nullable: true},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	casesTable = &schema.Table{
		Name:       tableCases,
		Columns:    casesColumns,
		PrimaryKey: []*schema.Column{casesColumns[0]},
		Indexes: []*schema.Index{
			{Name: "jurisprudence_cases_date_decision", Columns: []*schema.Column{casesColumns[6]}},
			{Name: "jurisprudence_cases_created_by", Columns: []*schema.Column{casesColumns[18]}},
		},
	}

	batchesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 64},
		{Name: "total_files", Type: field.TypeInt},
		{Name: "cursor", Type: field.TypeInt, Default: 0},
		{Name: "status", Type: field.TypeString, Size: 32},
		{Name: "processing_until", Type: field.TypeInt64, Nullable: true}, // lease expiry, unix milliseconds
		{Name: "lease_owner", Type: field.TypeString, Size: 64, Nullable: true},
		{Name: "created_by", Type: field.TypeInt64, Nullable: true},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	batchesTable = &schema.Table{
		Name:       tableBatches,
		Columns:    batchesColumns,
		PrimaryKey: []*schema.Column{batchesColumns[0]},
	}

	batchFilesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "batch_id", Type: field.TypeString, Size: 64},
		{Name: "position", Type: field.TypeInt},
		{Name: "filename", Type: field.TypeString, Size: 255},
		{Name: "ok", Type: field.TypeBool},
		{Name: "case_id", Type: field.TypeInt64, Nullable: true},
		{Name: "ref", Type: field.TypeString, Size: 50, Nullable: true},
		{Name: "titre", Type: field.TypeString, Nullable: true, SchemaType: textType},
		{Name: "error", Type: field.TypeString, Nullable: true, SchemaType: textType},
		{Name: "processed_at", Type: field.TypeTime},
	}
	batchFilesTable = &schema.Table{
		Name:       tableBatchFiles,
		Columns:    batchFilesColumns,
		PrimaryKey: []*schema.Column{batchFilesColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "import_batch_files_import_batches_files",
				Columns:    []*schema.Column{batchFilesColumns[1]},
				RefColumns: []*schema.Column{batchesColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{Name: "import_batch_files_batch_id_position", Unique: true, Columns: []*schema.Column{batchFilesColumns[1], batchFilesColumns[2]}},
		},
	}

	searchHistoryColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "user_id", Type: field.TypeInt64, Nullable: true},
		{Name: "query_encrypted", Type: field.TypeString, SchemaType: textType},
		{Name: "results_count", Type: field.TypeInt, Default: 0},
		{Name: "created_at", Type: field.TypeTime},
	}
	searchHistoryTable = &schema.Table{
		Name:       tableSearchHistory,
		Columns:    searchHistoryColumns,
		PrimaryKey: []*schema.Column{searchHistoryColumns[0]},
		Indexes: []*schema.Index{
			{Name: "search_history_user_id", Columns: []*schema.Column{searchHistoryColumns[1]}},
		},
	}

	tables = []*schema.Table{casesTable, batchesTable, batchFilesTable, searchHistoryTable}
)

func init() {
	batchFilesTable.ForeignKeys[0].RefTable = batchesTable
}

// Migrate creates or updates every table the service uses.
func (db *DB) Migrate(ctx context.Context, logger *slog.Logger) error {
	m, err := schema.NewMigrate(db.drv)
	if err != nil {
		logger.Error("failed to build migrator", "error", err)
		return err
	}
	if err := m.Create(ctx, tables...); err != nil {
		logger.Error("schema migration failed", "error", err)
		return err
	}
	logger.Info("schema migration complete", "tables", len(tables))
	return nil
}
