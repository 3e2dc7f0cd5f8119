package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/taskdeck/taskdeck/internal/models"
)

// ErrNoFields is returned by UpdatePlanItem when the patch results in no
// column changes, such as a date move to the item's current date.
var ErrNoFields = fmt.Errorf("no fields to update")

func scanPlanItem(row interface{ Scan(...interface{}) error }) (*models.DailyPlanItem, error) {
	var item models.DailyPlanItem
	var done int
	var createdAt string
	var updatedAt sql.NullString

	if err := row.Scan(&item.ID, &item.PlanDate, &item.Content, &done, &item.Position, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	item.Done = done != 0
	var err error
	if item.CreatedAt, err = parseDBTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if updatedAt.Valid {
		at, err := parseDBTime(updatedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse updated_at: %w", err)
		}
		item.UpdatedAt = &at
	}
	return &item, nil
}

const planItemColumns = `id, plan_date, content, done, position, created_at, updated_at`

// nextPlanPosition returns the append position for a date: max+1, or 0 for
// an empty date.
func (s *Store) nextPlanPosition(planDate string) (int, error) {
	var maxPos int
	err := s.db.QueryRow(
		`SELECT COALESCE(MAX(position), -1) FROM daily_plan_items WHERE plan_date = ?`,
		planDate,
	).Scan(&maxPos)
	if err != nil {
		return 0, fmt.Errorf("query max position: %w", err)
	}
	return maxPos + 1, nil
}

// AddPlanItem appends a checklist item to the given date's ordering.
func (s *Store) AddPlanItem(planDate, content string) (*models.DailyPlanItem, error) {
	pos, err := s.nextPlanPosition(planDate)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC().Truncate(time.Second)
	item := &models.DailyPlanItem{
		ID:        uuid.New().String(),
		PlanDate:  planDate,
		Content:   content,
		Position:  pos,
		CreatedAt: now,
	}
	_, err = s.db.Exec(
		`INSERT INTO daily_plan_items (id, plan_date, content, position, created_at) VALUES (?, ?, ?, ?, ?)`,
		item.ID, item.PlanDate, item.Content, item.Position, formatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("insert plan item: %w", err)
	}
	return item, nil
}

// GetPlanItem retrieves a checklist item by ID. Returns nil if absent.
func (s *Store) GetPlanItem(id string) (*models.DailyPlanItem, error) {
	row := s.db.QueryRow(`SELECT `+planItemColumns+` FROM daily_plan_items WHERE id = ?`, id)
	item, err := scanPlanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query plan item: %w", err)
	}
	return item, nil
}

// ListPlanItems returns a date's checklist in position order.
func (s *Store) ListPlanItems(planDate string) ([]models.DailyPlanItem, error) {
	rows, err := s.db.Query(
		`SELECT `+planItemColumns+` FROM daily_plan_items WHERE plan_date = ? ORDER BY position ASC, id ASC`,
		planDate,
	)
	if err != nil {
		return nil, fmt.Errorf("query plan items: %w", err)
	}
	defer rows.Close()

	var items []models.DailyPlanItem
	for rows.Next() {
		item, err := scanPlanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// PlanItemPatch carries the optional fields of a partial plan item update.
type PlanItemPatch struct {
	Content  *string
	Done     *bool
	Position *int
	PlanDate *string
}

// Empty reports whether the patch changes nothing.
func (p PlanItemPatch) Empty() bool {
	return p.Content == nil && p.Done == nil && p.Position == nil && p.PlanDate == nil
}

// UpdatePlanItem applies a partial update. Moving an item to a different
// date appends it at the end of that date's ordering; old-date siblings are
// left as they are. Returns nil if the item does not exist.
func (s *Store) UpdatePlanItem(id string, patch PlanItemPatch) (*models.DailyPlanItem, error) {
	existing, err := s.GetPlanItem(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	var sets []string
	var args []interface{}
	if patch.Content != nil {
		sets = append(sets, "content = ?")
		args = append(args, *patch.Content)
	}
	if patch.Done != nil {
		done := 0
		if *patch.Done {
			done = 1
		}
		sets = append(sets, "done = ?")
		args = append(args, done)
	}
	if patch.Position != nil {
		sets = append(sets, "position = ?")
		args = append(args, *patch.Position)
	}
	if patch.PlanDate != nil && *patch.PlanDate != existing.PlanDate {
		newPos, err := s.nextPlanPosition(*patch.PlanDate)
		if err != nil {
			return nil, err
		}
		sets = append(sets, "plan_date = ?", "position = ?")
		args = append(args, *patch.PlanDate, newPos)
	}
	if len(sets) == 0 {
		// date patch equal to the current date writes nothing
		return nil, ErrNoFields
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, formatTime(s.now().UTC()), id)
	query := `UPDATE daily_plan_items SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	if _, err := s.db.Exec(query, args...); err != nil {
		return nil, fmt.Errorf("update plan item: %w", err)
	}
	return s.GetPlanItem(id)
}

// TogglePlanItem flips an item's done flag. Position is untouched. Returns
// nil if the item does not exist.
func (s *Store) TogglePlanItem(id string) (*models.DailyPlanItem, error) {
	existing, err := s.GetPlanItem(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	done := 1
	if existing.Done {
		done = 0
	}
	_, err = s.db.Exec(
		`UPDATE daily_plan_items SET done = ?, updated_at = ? WHERE id = ?`,
		done, formatTime(s.now().UTC()), id,
	)
	if err != nil {
		return nil, fmt.Errorf("toggle plan item: %w", err)
	}
	return s.GetPlanItem(id)
}

// DeletePlanItem removes a checklist item. Reports whether a row was
// deleted.
func (s *Store) DeletePlanItem(id string) (bool, error) {
	result, err := s.db.Exec(`DELETE FROM daily_plan_items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete plan item: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SummarizePlans returns total/remaining counts per date. Dates with no
// items are absent from the result.
func (s *Store) SummarizePlans(dates ...string) (map[string]models.PlanCounts, error) {
	if len(dates) == 0 {
		return map[string]models.PlanCounts{}, nil
	}

	placeholders := strings.Repeat("?,", len(dates))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]interface{}, len(dates))
	for i, d := range dates {
		args[i] = d
	}

	rows, err := s.db.Query(
		`SELECT plan_date, COUNT(*), SUM(CASE WHEN done = 0 THEN 1 ELSE 0 END)
		 FROM daily_plan_items WHERE plan_date IN (`+placeholders+`) GROUP BY plan_date`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query plan summary: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]models.PlanCounts)
	for rows.Next() {
		var date string
		var c models.PlanCounts
		if err := rows.Scan(&date, &c.Total, &c.Remaining); err != nil {
			return nil, fmt.Errorf("scan plan summary: %w", err)
		}
		counts[date] = c
	}
	return counts, rows.Err()
}
