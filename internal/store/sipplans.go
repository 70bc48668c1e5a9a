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
	SplitEqual  = "EQUAL"
	SplitCustom = "CUSTOM"
)

type SipMember struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

type SipPlan struct {
	ID          string          `json:"_id"`
	Name        string          `json:"name"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	StartDate   string          `json:"startDate"`
	// DayOfMonth is the monthly deduction day.
	DayOfMonth int         `json:"dayOfMonth"`
	SplitType  string      `json:"splitType"`
	Members    []SipMember `json:"members"`
	Active     bool        `json:"active"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

func (p *SipPlan) normalize() error {
	p.Name = strings.TrimSpace(p.Name)
	p.StartDate = strings.TrimSpace(p.StartDate)
	if p.SplitType == "" {
		p.SplitType = SplitEqual
	}
	p.SplitType = strings.ToUpper(p.SplitType)
	if p.Members == nil {
		p.Members = []SipMember{}
	}

	switch {
	case p.Name == "":
		return invalid("name is required")
	case !p.TotalAmount.IsPositive():
		return invalid("totalAmount must be positive")
	case p.StartDate == "":
		return invalid("startDate is required")
	case p.DayOfMonth < 1 || p.DayOfMonth > 31:
		return invalid("dayOfMonth must be within 1..31, got %d", p.DayOfMonth)
	}
	for i := range p.Members {
		p.Members[i].Name = strings.TrimSpace(p.Members[i].Name)
		if p.Members[i].Name == "" {
			return invalid("member %d has no name", i)
		}
	}

	switch p.SplitType {
	case SplitEqual:
		splitEqually(p.TotalAmount, p.Members)
	case SplitCustom:
		sum := decimal.Zero
		for _, m := range p.Members {
			sum = sum.Add(m.Amount)
		}
		if !sum.Equal(p.TotalAmount) {
			return invalid("member amounts sum to %s, want %s", sum, p.TotalAmount)
		}
	default:
		return invalid("splitType must be %s or %s, got %q", SplitEqual, SplitCustom, p.SplitType)
	}
	return nil
}

// splitEqually gives every member total/n truncated to two decimals and puts
// the remainder on the last member.
func splitEqually(total decimal.Decimal, members []SipMember) {
	n := len(members)
	if n == 0 {
		return
	}
	share := total.Div(decimal.NewFromInt(int64(n))).Truncate(2)
	for i := range members {
		members[i].Amount = share
	}
	members[n-1].Amount = total.Sub(share.Mul(decimal.NewFromInt(int64(n - 1))))
}

const sipPlanColumns = `id, name, total_amount, start_date, day_of_month, split_type, members_json, active, created_at, updated_at`

func scanSipPlan(row scanner) (*SipPlan, error) {
	var p SipPlan
	var total, created, updated string
	var members sql.NullString
	var active int
	if err := row.Scan(&p.ID, &p.Name, &total, &p.StartDate, &p.DayOfMonth, &p.SplitType, &members, &active, &created, &updated); err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(total)
	if err != nil {
		return nil, fmt.Errorf("parse total %q: %w", total, err)
	}
	p.TotalAmount = d
	p.Members = []SipMember{}
	if members.String != "" {
		if err := json.Unmarshal([]byte(members.String), &p.Members); err != nil {
			return nil, fmt.Errorf("decode members: %w", err)
		}
	}
	p.Active = active == 1
	p.CreatedAt = parseStamp(created)
	p.UpdatedAt = parseStamp(updated)
	return &p, nil
}

// CreateSipPlan inserts an active plan, recomputing member shares for EQUAL
// plans.
func (s *Store) CreateSipPlan(p SipPlan) (*SipPlan, error) {
	if s == nil || s.db == nil {
		return nil, errNotInitialized
	}
	if err := p.normalize(); err != nil {
		return nil, err
	}
	members, err := json.Marshal(p.Members)
	if err != nil {
		return nil, fmt.Errorf("encode members: %w", err)
	}
	p.ID = newID()
	p.Active = true
	now := s.stamp()
	_, err = s.db.Exec(
		`INSERT INTO sip_plans (`+sipPlanColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		p.ID, p.Name, p.TotalAmount.String(), p.StartDate, p.DayOfMonth, p.SplitType, string(members), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert sip plan: %w", err)
	}
	p.CreatedAt = parseStamp(now)
	p.UpdatedAt = p.CreatedAt
	return &p, nil
}

// ListSipPlans returns active plans, newest first.
func (s *Store) ListSipPlans() ([]SipPlan, error) {
	if s == nil || s.db == nil {
		return nil, errNotInitialized
	}
	rows, err := s.db.Query(`SELECT ` + sipPlanColumns + ` FROM sip_plans WHERE active = 1 ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query sip plans: %w", err)
	}
	defer rows.Close()

	out := make([]SipPlan, 0)
	for rows.Next() {
		p, err := scanSipPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sip plan: %w", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows sip plan: %w", err)
	}
	return out, nil
}

// GetSipPlan returns the plan whether or not it is active.
func (s *Store) GetSipPlan(id string) (*SipPlan, error) {
	if s == nil || s.db == nil {
		return nil, errNotInitialized
	}
	p, err := scanSipPlan(s.db.QueryRow(`SELECT `+sipPlanColumns+` FROM sip_plans WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get sip plan: %w", err)
	}
	return p, nil
}

func (s *Store) UpdateSipPlan(id string, apply func(*SipPlan) error) (*SipPlan, error) {
	cur, err := s.GetSipPlan(id)
	if err != nil {
		return nil, err
	}
	next := *cur
	next.Members = append([]SipMember(nil), cur.Members...)
	if err := apply(&next); err != nil {
		return nil, invalid("%v", err)
	}
	next.ID, next.CreatedAt = cur.ID, cur.CreatedAt
	if err := next.normalize(); err != nil {
		return nil, err
	}
	members, err := json.Marshal(next.Members)
	if err != nil {
		return nil, fmt.Errorf("encode members: %w", err)
	}
	active := 0
	if next.Active {
		active = 1
	}
	now := s.stamp()
	res, err := s.db.Exec(
		`UPDATE sip_plans SET name = ?, total_amount = ?, start_date = ?, day_of_month = ?, split_type = ?,
			members_json = ?, active = ?, updated_at = ?
		 WHERE id = ?`,
		next.Name, next.TotalAmount.String(), next.StartDate, next.DayOfMonth, next.SplitType,
		string(members), active, now, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update sip plan: %w", err)
	}
	if err := checkAffected(res, "update sip plan"); err != nil {
		return nil, err
	}
	next.UpdatedAt = parseStamp(now)
	return &next, nil
}

// DeactivateSipPlan hides the plan from listings and keeps its history.
func (s *Store) DeactivateSipPlan(id string) error {
	if s == nil || s.db == nil {
		return errNotInitialized
	}
	res, err := s.db.Exec(`UPDATE sip_plans SET active = 0, updated_at = ? WHERE id = ?`, s.stamp(), id)
	if err != nil {
		return fmt.Errorf("deactivate sip plan: %w", err)
	}
	return checkAffected(res, "deactivate sip plan")
}
