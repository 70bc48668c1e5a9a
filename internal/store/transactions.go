package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	TypeIncome  = "INCOME"
	TypeExpense = "EXPENSE"

	InvestmentSingle = "SINGLE"
	InvestmentTeam   = "TEAM"

	DefaultPaymentMethod = "CASH"
)

type Transaction struct {
	ID             string          `json:"_id"`
	UserID         string          `json:"userId"`
	UserName       string          `json:"userName,omitempty"`
	Date           string          `json:"date"`
	Type           string          `json:"type"`
	Category       string          `json:"category"`
	Amount         decimal.Decimal `json:"amount"`
	PaymentMethod  string          `json:"paymentMethod"`
	Description    string          `json:"description,omitempty"`
	InvestmentType string          `json:"investmentType"`
	Investors      []string        `json:"investors"`
	// Attachment is a data URL or a link.
	Attachment string    `json:"attachment,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (t *Transaction) normalize() error {
	t.UserID = strings.TrimSpace(t.UserID)
	t.Category = strings.TrimSpace(t.Category)
	t.Type = strings.ToUpper(strings.TrimSpace(t.Type))
	if t.PaymentMethod == "" {
		t.PaymentMethod = DefaultPaymentMethod
	}
	if t.InvestmentType == "" {
		t.InvestmentType = InvestmentSingle
	}
	t.InvestmentType = strings.ToUpper(t.InvestmentType)
	if t.Investors == nil {
		t.Investors = []string{}
	}

	if t.UserID == "" {
		return invalid("userId is required")
	}
	if _, err := time.Parse(time.DateOnly, t.Date); err != nil {
		return invalid("date must be YYYY-MM-DD, got %q", t.Date)
	}
	if t.Type != TypeIncome && t.Type != TypeExpense {
		return invalid("type must be %s or %s, got %q", TypeIncome, TypeExpense, t.Type)
	}
	if t.Category == "" {
		return invalid("category is required")
	}
	if !t.Amount.IsPositive() {
		return invalid("amount must be positive")
	}
	if t.InvestmentType != InvestmentSingle && t.InvestmentType != InvestmentTeam {
		return invalid("investmentType must be %s or %s, got %q", InvestmentSingle, InvestmentTeam, t.InvestmentType)
	}
	return nil
}

const transactionColumns = `id, user_id, user_name, date, type, category, amount, payment_method, description,
	investment_type, investors_json, attachment, created_at, updated_at`

func scanTransaction(row scanner) (*Transaction, error) {
	var t Transaction
	var userName, paymentMethod, description, investmentType, investors, attachment sql.NullString
	var amount, created, updated string
	if err := row.Scan(&t.ID, &t.UserID, &userName, &t.Date, &t.Type, &t.Category, &amount, &paymentMethod,
		&description, &investmentType, &investors, &attachment, &created, &updated); err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	t.Amount = d
	t.UserName = userName.String
	t.PaymentMethod = paymentMethod.String
	t.Description = description.String
	t.InvestmentType = investmentType.String
	t.Attachment = attachment.String
	t.Investors = []string{}
	if investors.String != "" {
		if err := json.Unmarshal([]byte(investors.String), &t.Investors); err != nil {
			return nil, fmt.Errorf("decode investors: %w", err)
		}
	}
	t.CreatedAt = parseStamp(created)
	t.UpdatedAt = parseStamp(updated)
	return &t, nil
}

func (s *Store) CreateTransaction(t Transaction) (*Transaction, error) {
	if s == nil || s.db == nil {
		return nil, errNotInitialized
	}
	if err := t.normalize(); err != nil {
		return nil, err
	}
	investors, err := json.Marshal(t.Investors)
	if err != nil {
		return nil, fmt.Errorf("encode investors: %w", err)
	}
	t.ID = newID()
	now := s.stamp()
	_, err = s.db.Exec(
		`INSERT INTO transactions (`+transactionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.UserName, t.Date, t.Type, t.Category, t.Amount.String(), t.PaymentMethod,
		t.Description, t.InvestmentType, string(investors), t.Attachment, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}
	t.CreatedAt = parseStamp(now)
	t.UpdatedAt = t.CreatedAt
	return &t, nil
}

// ListTransactions returns transactions ordered by date then creation time,
// newest first. An empty userID lists everything.
func (s *Store) ListTransactions(userID string) ([]Transaction, error) {
	if s == nil || s.db == nil {
		return nil, errNotInitialized
	}
	query := `SELECT ` + transactionColumns + ` FROM transactions`
	var args []any
	if userID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY date DESC, created_at DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	out := make([]Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows transaction: %w", err)
	}
	return out, nil
}

func (s *Store) GetTransaction(id string) (*Transaction, error) {
	if s == nil || s.db == nil {
		return nil, errNotInitialized
	}
	t, err := scanTransaction(s.db.QueryRow(`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// UpdateTransaction loads the record, lets apply modify it, validates and
// writes it back. The id and creation time are preserved.
func (s *Store) UpdateTransaction(id string, apply func(*Transaction) error) (*Transaction, error) {
	cur, err := s.GetTransaction(id)
	if err != nil {
		return nil, err
	}
	next := *cur
	if err := apply(&next); err != nil {
		return nil, invalid("%v", err)
	}
	next.ID, next.CreatedAt = cur.ID, cur.CreatedAt
	if err := next.normalize(); err != nil {
		return nil, err
	}
	investors, err := json.Marshal(next.Investors)
	if err != nil {
		return nil, fmt.Errorf("encode investors: %w", err)
	}
	now := s.stamp()
	res, err := s.db.Exec(
		`UPDATE transactions SET user_id = ?, user_name = ?, date = ?, type = ?, category = ?, amount = ?,
			payment_method = ?, description = ?, investment_type = ?, investors_json = ?, attachment = ?, updated_at = ?
		 WHERE id = ?`,
		next.UserID, next.UserName, next.Date, next.Type, next.Category, next.Amount.String(),
		next.PaymentMethod, next.Description, next.InvestmentType, string(investors), next.Attachment, now, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update transaction: %w", err)
	}
	if err := checkAffected(res, "update transaction"); err != nil {
		return nil, err
	}
	next.UpdatedAt = parseStamp(now)
	return &next, nil
}

func (s *Store) DeleteTransaction(id string) error {
	if s == nil || s.db == nil {
		return errNotInitialized
	}
	res, err := s.db.Exec(`DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return checkAffected(res, "delete transaction")
}
