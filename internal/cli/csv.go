package cli

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/logger"
	"tally/internal/models"
	"tally/internal/uuid"
)

// csvUserID owns every transaction read from a file. The CLI works on a
// single export, so there is only ever one user.
const csvUserID = "00000000-0000-7000-8000-000000000000"

// LoadResult is the outcome of reading a transaction export.
type LoadResult struct {
	Transactions []models.Transaction
	Skipped      int
}

// LoadTransactionsFile reads a CSV export from path.
func LoadTransactionsFile(path string) (*LoadResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	return LoadTransactions(file)
}

// LoadTransactions parses rows of id,date,merchant,amount,currency[,category_id].
// A leading header row is optional. Rows that cannot be parsed are counted
// and skipped. Amounts keep their sign: positive is spending and negative is
// a refund, which is what budget evaluation expects.
func LoadTransactions(r io.Reader) (*LoadResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	result := &LoadResult{Transactions: []models.Transaction{}}
	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				logger.Named("cli").Warnw("skipping unreadable CSV row", "line", line, "error", err)
				result.Skipped++
				continue
			}
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		if line == 1 && isHeader(record) {
			continue
		}

		tx, err := parseRow(record)
		if err != nil {
			logger.Named("cli").Warnw("skipping malformed CSV row", "line", line, "error", err)
			result.Skipped++
			continue
		}
		result.Transactions = append(result.Transactions, tx)
	}
	return result, nil
}

func isHeader(record []string) bool {
	return len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), "id")
}

func parseRow(record []string) (models.Transaction, error) {
	if len(record) < 5 {
		return models.Transaction{}, fmt.Errorf("expected at least 5 columns, got %d", len(record))
	}
	field := func(i int) string { return strings.TrimSpace(record[i]) }

	date, err := parseDate(field(1))
	if err != nil {
		return models.Transaction{}, err
	}
	amount, err := decimal.NewFromString(field(3))
	if err != nil {
		return models.Transaction{}, fmt.Errorf("invalid amount %q", field(3))
	}
	merchant := field(2)
	currency := strings.ToUpper(field(4))
	if merchant == "" || len(currency) != 3 {
		return models.Transaction{}, errors.New("merchant and 3-letter currency are required")
	}

	id := field(0)
	if id == "" {
		id = uuid.New()
	}
	tx := models.Transaction{
		Base:         models.Base{ID: id},
		UserID:       csvUserID,
		MerchantName: merchant,
		Amount:       amount,
		Currency:     currency,
		Date:         date,
	}
	if len(record) > 5 && field(5) != "" {
		tx.CategoryID = models.Some(field(5))
	}
	if !tx.Valid() {
		return models.Transaction{}, errors.New("zero amount")
	}
	return tx, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return models.DateOnly(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}
