package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/kpaulsen/apflow/internal/category"
	"github.com/kpaulsen/apflow/internal/document"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanDocument reads a document row from the scanner.
// Expected column order: id, vendor_name, vendor_key, invoice_number, invoice_date,
// received_at, total_before_tax, gst, pst, total, po_number, po_core, service_stock,
// credit_memo, source_path, source_size, content_hash, status, created_at, updated_at
func scanDocument(s scanner) (*document.Document, error) {
	var doc document.Document

	var statusStr string

	var poNumber, poCore, contentHash sql.NullString

	if err := s.Scan(
		&doc.ID, &doc.VendorName, &doc.VendorKey, &doc.InvoiceNumber, &doc.InvoiceDate,
		&doc.ReceivedAt, &doc.TotalBeforeTax, &doc.GST, &doc.PST, &doc.Total,
		&poNumber, &poCore, &doc.ServiceStock, &doc.CreditMemo,
		&doc.SourcePath, &doc.SourceSize, &contentHash,
		&statusStr, &doc.CreatedAt, &doc.UpdatedAt,
	); err != nil {
		return nil, err
	}

	doc.PONumber = poNumber.String
	doc.POCore = poCore.String
	doc.ContentHash = contentHash.String
	doc.Status = document.Status(statusStr)

	return &doc, nil
}

const selectDocumentColumns = `
	d.id, d.vendor_name, d.vendor_key, d.invoice_number, d.invoice_date,
	d.received_at, d.total_before_tax, d.gst, d.pst, d.total,
	d.po_number, d.po_core, d.service_stock, d.credit_memo,
	d.source_path, d.source_size, d.content_hash, d.status, d.created_at, d.updated_at
`

func (s *Store) CreateDocument(ctx context.Context, doc *document.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO documents (vendor_name, vendor_key, invoice_number, invoice_date, received_at,
			total_before_tax, gst, pst, total, po_number, po_core, service_stock, credit_memo,
			source_path, source_size, content_hash, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err = tx.QueryRowContext(ctx, query,
		doc.VendorName,
		doc.VendorKey,
		doc.InvoiceNumber,
		doc.InvoiceDate,
		doc.ReceivedAt,
		doc.TotalBeforeTax,
		doc.GST,
		doc.PST,
		doc.Total,
		nullString(doc.PONumber),
		nullString(doc.POCore),
		doc.ServiceStock,
		doc.CreditMemo,
		doc.SourcePath,
		doc.SourceSize,
		nullString(doc.ContentHash),
		doc.Status,
	).Scan(&doc.ID, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating document: %w", err)
	}

	lineQuery := `
		INSERT INTO document_lines (document_id, position, description, quantity, unit_price, line_total, category, in_pricebook)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	for i, line := range doc.Lines {
		if _, err := tx.ExecContext(ctx, lineQuery,
			doc.ID, i, line.Description, line.Quantity,
			line.UnitPrice, line.LineTotal, line.Category, line.InPricebook,
		); err != nil {
			return fmt.Errorf("creating document line %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing document: %w", err)
	}

	return nil
}

func (s *Store) GetDocument(ctx context.Context, id uuid.UUID) (*document.Document, error) {
	query := `SELECT ` + selectDocumentColumns + ` FROM documents d WHERE d.id = $1`

	doc, err := scanDocument(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, document.ErrNotFound
		}

		return nil, fmt.Errorf("getting document: %w", err)
	}

	lines, err := s.listLines(ctx, id)
	if err != nil {
		return nil, err
	}

	doc.Lines = lines

	return doc, nil
}

func (s *Store) listLines(ctx context.Context, docID uuid.UUID) ([]document.LineItem, error) {
	query := `
		SELECT description, quantity, unit_price, line_total, category, in_pricebook
		FROM document_lines
		WHERE document_id = $1
		ORDER BY position
	`

	rows, err := s.db.QueryContext(ctx, query, docID)
	if err != nil {
		return nil, fmt.Errorf("listing document lines: %w", err)
	}
	defer rows.Close()

	var lines []document.LineItem

	for rows.Next() {
		var line document.LineItem

		var catStr string

		if err := rows.Scan(&line.Description, &line.Quantity, &line.UnitPrice, &line.LineTotal, &catStr, &line.InPricebook); err != nil {
			return nil, fmt.Errorf("scanning document line: %w", err)
		}

		line.Category = category.Category(catStr)
		lines = append(lines, line)
	}

	return lines, rows.Err()
}

func (s *Store) ListDocuments(ctx context.Context, filter document.ListFilter) ([]*document.Document, error) {
	query := `SELECT ` + selectDocumentColumns + ` FROM documents d WHERE 1=1`

	var args []any

	argIdx := 1

	if filter.Status != nil {
		query += fmt.Sprintf(" AND d.status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}

	if filter.VendorKey != nil {
		query += fmt.Sprintf(" AND d.vendor_key = $%d", argIdx)
		args = append(args, *filter.VendorKey)
		argIdx++
	}

	if filter.StartDate != nil {
		query += fmt.Sprintf(" AND d.received_at >= $%d", argIdx)
		args = append(args, *filter.StartDate)
		argIdx++
	}

	if filter.EndDate != nil {
		query += fmt.Sprintf(" AND d.received_at <= $%d", argIdx)
		args = append(args, *filter.EndDate)
		argIdx++
	}

	query += " ORDER BY d.received_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []*document.Document

	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}

		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

func (s *Store) UpdateStatus(ctx context.Context, id uuid.UUID, status document.Status) error {
	query := `UPDATE documents SET status = $1, updated_at = NOW() WHERE id = $2`

	res, err := s.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("updating document status: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return document.ErrNotFound
	}

	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
