package store

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"github.com/hellboyz13/bankstatement/internal/domain"
)

const (
	documentsTable    = "documents"
	transactionsTable = "transactions"
	dateFormat        = "2006-01-02"
)

// Document parsing statuses as stored in the documents table.
const (
	StatusUploaded = "UPLOADED"
	StatusParsing  = "PARSING"
	StatusParsed   = "PARSED"
	StatusFailed   = "FAILED"
)

type DocumentRow struct {
	DocumentID       string                 `bigquery:"document_id"`
	GCSURI           string                 `bigquery:"gcs_uri"`
	OriginalFilename string                 `bigquery:"original_filename"`
	FileMimeType     string                 `bigquery:"file_mime_type"`
	UploadTS         time.Time              `bigquery:"upload_ts"`
	ProcessedTS      bigquery.NullTimestamp `bigquery:"processed_ts"`
	ParsingStatus    string                 `bigquery:"parsing_status"`

	BankName           bigquery.NullString `bigquery:"bank_name"`
	AccountType        bigquery.NullString `bigquery:"account_type"`
	Currency           bigquery.NullString `bigquery:"currency"`
	StatementStartDate bigquery.NullDate   `bigquery:"statement_start_date"`
	StatementEndDate   bigquery.NullDate   `bigquery:"statement_end_date"`
}

type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"`
	DocumentID    string `bigquery:"document_id"`

	TransactionDate civil.Date        `bigquery:"transaction_date"`
	PostingDate     bigquery.NullDate `bigquery:"posting_date"`

	Amount       *big.Rat `bigquery:"amount"`
	Currency     string   `bigquery:"currency"`
	BalanceAfter *big.Rat `bigquery:"balance_after"`

	Type           string              `bigquery:"type"`
	RawDescription string              `bigquery:"raw_description"`
	CategoryName   bigquery.NullString `bigquery:"category_name"`

	FraudLikelihood bigquery.NullFloat64 `bigquery:"fraud_likelihood"`
	FraudReason     bigquery.NullString  `bigquery:"fraud_reason"`

	CreatedTS time.Time `bigquery:"created_ts"`
}

// BigQuery wraps a client scoped to one project and dataset.
type BigQuery struct {
	client    *bigquery.Client
	projectID string
	datasetID string
}

func NewBigQuery(ctx context.Context, projectID, datasetID string) (*BigQuery, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("bigquery client: %w", err)
	}
	return &BigQuery{client: client, projectID: projectID, datasetID: datasetID}, nil
}

func (b *BigQuery) Close() error { return b.client.Close() }

func (b *BigQuery) table(name string) *bigquery.Table {
	// Fully qualified to avoid default-project surprises.
	return b.client.DatasetInProject(b.projectID, b.datasetID).Table(name)
}

// InsertDocument records an uploaded document.
func (b *BigQuery) InsertDocument(ctx context.Context, row *DocumentRow) error {
	if err := b.table(documentsTable).Inserter().Put(ctx, row); err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// InsertStatement persists every transaction of a parsed statement under the
// given document ID.
func (b *BigQuery) InsertStatement(ctx context.Context, documentID string, stmt *domain.ParsedStatement) error {
	if len(stmt.Transactions) == 0 {
		return nil
	}

	currency := "SGD"
	if stmt.Meta.Currency != nil {
		currency = *stmt.Meta.Currency
	}

	rows := make([]*TransactionRow, 0, len(stmt.Transactions))
	now := time.Now().UTC()
	for _, tx := range stmt.Transactions {
		rows = append(rows, transactionRow(documentID, currency, now, tx))
	}

	if err := b.table(transactionsTable).Inserter().Put(ctx, rows); err != nil {
		return fmt.Errorf("insert transactions: %w", err)
	}
	return nil
}

func transactionRow(documentID, defaultCurrency string, now time.Time, tx domain.Transaction) *TransactionRow {
	row := &TransactionRow{
		TransactionID:   uuid.NewString(),
		DocumentID:      documentID,
		TransactionDate: civil.DateOf(tx.Date),
		Amount:          new(big.Rat).SetFloat64(tx.Amount),
		Currency:        defaultCurrency,
		Type:            string(tx.Type),
		RawDescription:  tx.Description,
		CreatedTS:       now,
	}
	if tx.Currency != nil {
		row.Currency = *tx.Currency
	}
	if tx.PostingDate != nil {
		row.PostingDate = bigquery.NullDate{Date: civil.DateOf(*tx.PostingDate), Valid: true}
	}
	if tx.Balance != nil {
		row.BalanceAfter = new(big.Rat).SetFloat64(*tx.Balance)
	}
	if tx.Category != "" {
		row.CategoryName = bigquery.NullString{StringVal: tx.Category, Valid: true}
	}
	if tx.FraudLikelihood != nil {
		row.FraudLikelihood = bigquery.NullFloat64{Float64: *tx.FraudLikelihood, Valid: true}
	}
	if tx.FraudReason != nil {
		row.FraudReason = bigquery.NullString{StringVal: *tx.FraudReason, Valid: true}
	}
	return row
}

// QueryTransactionsByDateRange returns stored transactions whose date falls
// inside [startDate, endDate], oldest first.
func (b *BigQuery) QueryTransactionsByDateRange(ctx context.Context, startDate, endDate time.Time) ([]*TransactionRow, error) {
	q := b.client.Query(fmt.Sprintf(`
		SELECT
			transaction_id,
			document_id,
			transaction_date,
			posting_date,
			amount,
			currency,
			balance_after,
			type,
			raw_description,
			category_name,
			fraud_likelihood,
			fraud_reason,
			created_ts
		FROM %s.%s
		WHERE transaction_date >= @start_date
		  AND transaction_date <= @end_date
		ORDER BY transaction_date, created_ts
	`, b.datasetID, transactionsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "start_date", Value: startDate.Format(dateFormat)},
		{Name: "end_date", Value: endDate.Format(dateFormat)},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("query read: %w", err)
	}

	var rows []*TransactionRow
	for {
		var r TransactionRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iter next: %w", err)
		}
		rows = append(rows, &r)
	}
	return rows, nil
}

// NewDocumentRow builds the row for a freshly uploaded statement.
func NewDocumentRow(documentID, gcsURI, filename, mimeType string) *DocumentRow {
	return &DocumentRow{
		DocumentID:       documentID,
		GCSURI:           gcsURI,
		OriginalFilename: filename,
		FileMimeType:     mimeType,
		UploadTS:         time.Now().UTC(),
		ParsingStatus:    StatusUploaded,
	}
}
