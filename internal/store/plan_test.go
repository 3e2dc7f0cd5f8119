package store

import (
	"testing"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func TestAddPlanItemPositions(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	first, err := s.AddPlanItem("2026-03-10", "morning review")
	if err != nil {
		t.Fatalf("AddPlanItem failed: %v", err)
	}
	if first.Position != 0 {
		t.Errorf("First item on an empty date should sit at 0, got %d", first.Position)
	}

	second, err := s.AddPlanItem("2026-03-10", "write report")
	if err != nil {
		t.Fatalf("AddPlanItem failed: %v", err)
	}
	if second.Position != 1 {
		t.Errorf("Expected position 1, got %d", second.Position)
	}

	// Positions are scoped per date
	other, err := s.AddPlanItem("2026-03-11", "tomorrow's first")
	if err != nil {
		t.Fatalf("AddPlanItem failed: %v", err)
	}
	if other.Position != 0 {
		t.Errorf("New date should start at 0, got %d", other.Position)
	}
}

func TestListPlanItemsOrder(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	for _, content := range []string{"one", "two", "three"} {
		if _, err := s.AddPlanItem("2026-03-10", content); err != nil {
			t.Fatalf("AddPlanItem failed: %v", err)
		}
	}

	items, err := s.ListPlanItems("2026-03-10")
	if err != nil {
		t.Fatalf("ListPlanItems failed: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("Expected 3 items, got %d", len(items))
	}
	for i, want := range []string{"one", "two", "three"} {
		if items[i].Content != want {
			t.Errorf("Item %d: expected %q, got %q", i, want, items[i].Content)
		}
		if items[i].Position != i {
			t.Errorf("Item %d: expected position %d, got %d", i, i, items[i].Position)
		}
	}
}

func TestTogglePlanItem(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	item, err := s.AddPlanItem("2026-03-10", "stretch")
	if err != nil {
		t.Fatalf("AddPlanItem failed: %v", err)
	}
	if item.Done {
		t.Error("New item must start not done")
	}

	toggled, err := s.TogglePlanItem(item.ID)
	if err != nil {
		t.Fatalf("TogglePlanItem failed: %v", err)
	}
	if !toggled.Done {
		t.Error("Expected item done after toggle")
	}
	if toggled.Position != item.Position {
		t.Error("Toggle must not move the item")
	}

	back, err := s.TogglePlanItem(item.ID)
	if err != nil {
		t.Fatalf("TogglePlanItem failed: %v", err)
	}
	if back.Done {
		t.Error("Expected item not done after second toggle")
	}

	// Missing item
	missing, err := s.TogglePlanItem("no-such-id")
	if err != nil {
		t.Fatalf("TogglePlanItem failed: %v", err)
	}
	if missing != nil {
		t.Error("Expected nil for missing item")
	}
}

func TestUpdatePlanItem(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	item, err := s.AddPlanItem("2026-03-10", "draft agenda")
	if err != nil {
		t.Fatalf("AddPlanItem failed: %v", err)
	}

	got, err := s.UpdatePlanItem(item.ID, PlanItemPatch{
		Content:  strPtr("final agenda"),
		Position: intPtr(5),
	})
	if err != nil {
		t.Fatalf("UpdatePlanItem failed: %v", err)
	}
	if got.Content != "final agenda" {
		t.Errorf("Expected patched content, got %q", got.Content)
	}
	if got.Position != 5 {
		t.Errorf("Expected position 5, got %d", got.Position)
	}
	if got.UpdatedAt == nil {
		t.Error("Patched item should carry updated_at")
	}
}

func TestMovePlanItemAcrossDates(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	// Target date already has two items
	if _, err := s.AddPlanItem("2026-03-11", "existing a"); err != nil {
		t.Fatalf("AddPlanItem failed: %v", err)
	}
	if _, err := s.AddPlanItem("2026-03-11", "existing b"); err != nil {
		t.Fatalf("AddPlanItem failed: %v", err)
	}

	item, err := s.AddPlanItem("2026-03-10", "carry over")
	if err != nil {
		t.Fatalf("AddPlanItem failed: %v", err)
	}

	moved, err := s.UpdatePlanItem(item.ID, PlanItemPatch{PlanDate: strPtr("2026-03-11")})
	if err != nil {
		t.Fatalf("UpdatePlanItem failed: %v", err)
	}
	if moved.PlanDate != "2026-03-11" {
		t.Errorf("Expected new date, got %s", moved.PlanDate)
	}
	if moved.Position != 2 {
		t.Errorf("Moved item should append at the end of its new date, got position %d", moved.Position)
	}

	// Old date no longer lists it, and nothing was renumbered
	old, err := s.ListPlanItems("2026-03-10")
	if err != nil {
		t.Fatalf("ListPlanItems failed: %v", err)
	}
	if len(old) != 0 {
		t.Errorf("Expected old date empty, got %d items", len(old))
	}

	// A move to the item's current date changes nothing, and is rejected
	if _, err := s.UpdatePlanItem(moved.ID, PlanItemPatch{PlanDate: strPtr("2026-03-11")}); err != ErrNoFields {
		t.Errorf("Expected ErrNoFields for a same-date move, got %v", err)
	}
	same, err := s.GetPlanItem(moved.ID)
	if err != nil {
		t.Fatalf("GetPlanItem failed: %v", err)
	}
	if same.Position != 2 || same.PlanDate != "2026-03-11" {
		t.Errorf("Rejected move must not change the item, got %s/%d", same.PlanDate, same.Position)
	}
}

func TestDeletePlanItem(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	item, err := s.AddPlanItem("2026-03-10", "short lived")
	if err != nil {
		t.Fatalf("AddPlanItem failed: %v", err)
	}

	ok, err := s.DeletePlanItem(item.ID)
	if err != nil {
		t.Fatalf("DeletePlanItem failed: %v", err)
	}
	if !ok {
		t.Error("DeletePlanItem reported no row deleted")
	}
	ok, err = s.DeletePlanItem(item.ID)
	if err != nil {
		t.Fatalf("DeletePlanItem failed: %v", err)
	}
	if ok {
		t.Error("Second delete should report nothing deleted")
	}
}

func TestSummarizePlans(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	a, err := s.AddPlanItem("2026-03-10", "done thing")
	if err != nil {
		t.Fatalf("AddPlanItem failed: %v", err)
	}
	if _, err := s.TogglePlanItem(a.ID); err != nil {
		t.Fatalf("TogglePlanItem failed: %v", err)
	}
	if _, err := s.AddPlanItem("2026-03-10", "open thing"); err != nil {
		t.Fatalf("AddPlanItem failed: %v", err)
	}
	if _, err := s.AddPlanItem("2026-03-11", "tomorrow thing"); err != nil {
		t.Fatalf("AddPlanItem failed: %v", err)
	}

	counts, err := s.SummarizePlans("2026-03-09", "2026-03-10", "2026-03-11")
	if err != nil {
		t.Fatalf("SummarizePlans failed: %v", err)
	}

	if c := counts["2026-03-10"]; c.Total != 2 || c.Remaining != 1 {
		t.Errorf("Expected 2 total / 1 remaining, got %+v", c)
	}
	if c := counts["2026-03-11"]; c.Total != 1 || c.Remaining != 1 {
		t.Errorf("Expected 1 total / 1 remaining, got %+v", c)
	}
	// Dates with no items are simply absent; the zero value reads as 0/0
	if c := counts["2026-03-09"]; c.Total != 0 || c.Remaining != 0 {
		t.Errorf("Expected empty counts for a bare date, got %+v", c)
	}
}
