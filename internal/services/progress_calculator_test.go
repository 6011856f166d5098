package services

import (
  "fmt"
  "reflect"
  "testing"

  "github.com/google/uuid"

  "github.com/nexushq/nexus-backend/internal/types"
)

func calcItem(order int, required bool) *types.PlaybookItem {
  return &types.PlaybookItem{
    ID:         uuid.New(),
    OrderIndex: order,
    Title:      fmt.Sprintf("Step %d", order),
    Required:   required,
  }
}

func doneSet(items ...*types.PlaybookItem) map[uuid.UUID]struct{} {
  set := map[uuid.UUID]struct{}{}
  for _, item := range items {
    set[item.ID] = struct{}{}
  }
  return set
}

func assertStatuses(t *testing.T, report ProgressReport, want ...ItemStatus) {
  t.Helper()
  if len(report.Items) != len(want) {
    t.Fatalf("got %d items, want %d", len(report.Items), len(want))
  }
  for i, ip := range report.Items {
    if ip.Status != want[i] {
      t.Errorf("item %d (order %d): status = %q, want %q", i, ip.Item.OrderIndex, ip.Status, want[i])
    }
  }
}

func TestComputeProgressFirstItemAlwaysAvailable(t *testing.T) {
  items := []*types.PlaybookItem{calcItem(1, true), calcItem(2, true), calcItem(3, true)}

  report := ComputeProgress(items, nil)
  assertStatuses(t, report, ItemStatusAvailable, ItemStatusBlocked, ItemStatusBlocked)
  if report.NextAvailable == nil || report.NextAvailable.ID != items[0].ID {
    t.Fatalf("next available = %v, want first item", report.NextAvailable)
  }
  if report.Percentage != 0 {
    t.Fatalf("percentage = %v, want 0", report.Percentage)
  }

  // A later completion out of band never blocks the entry point.
  report = ComputeProgress(items, doneSet(items[2]))
  if got := report.StatusOf(items[0].ID); got != ItemStatusAvailable {
    t.Fatalf("first item status = %q, want available", got)
  }
}

func TestComputeProgressRequiredGating(t *testing.T) {
  items := []*types.PlaybookItem{calcItem(1, true), calcItem(2, true), calcItem(3, true)}

  report := ComputeProgress(items, doneSet(items[0]))
  assertStatuses(t, report, ItemStatusCompleted, ItemStatusAvailable, ItemStatusBlocked)
  if report.NextAvailable == nil || report.NextAvailable.ID != items[1].ID {
    t.Fatalf("next available = %v, want second item", report.NextAvailable)
  }

  report = ComputeProgress(items, doneSet(items[0], items[1]))
  assertStatuses(t, report, ItemStatusCompleted, ItemStatusCompleted, ItemStatusAvailable)

  report = ComputeProgress(items, doneSet(items[0], items[1], items[2]))
  assertStatuses(t, report, ItemStatusCompleted, ItemStatusCompleted, ItemStatusCompleted)
  if report.NextAvailable != nil {
    t.Fatalf("next available = %v, want nil when everything is done", report.NextAvailable)
  }
}

func TestComputeProgressOptionalNeverGates(t *testing.T) {
  items := []*types.PlaybookItem{calcItem(1, true), calcItem(2, false), calcItem(3, true)}

  // After the first required item, the incomplete optional item does not
  // block the required item behind it.
  report := ComputeProgress(items, doneSet(items[0]))
  assertStatuses(t, report, ItemStatusCompleted, ItemStatusAvailable, ItemStatusAvailable)

  // Completing the optional item changes nothing for its siblings.
  withOptional := ComputeProgress(items, doneSet(items[0], items[1]))
  if got := withOptional.StatusOf(items[2].ID); got != ItemStatusAvailable {
    t.Fatalf("third item status = %q, want available", got)
  }
  if withOptional.Percentage != report.Percentage {
    t.Fatalf("optional completion moved percentage from %v to %v", report.Percentage, withOptional.Percentage)
  }
}

func TestComputeProgressPercentage(t *testing.T) {
  items := []*types.PlaybookItem{calcItem(1, true), calcItem(2, true), calcItem(3, true)}

  cases := []struct {
    name string
    done []*types.PlaybookItem
    want float64
  }{
    {"none", nil, 0},
    {"one of three", items[:1], 33.3},
    {"two of three", items[:2], 66.7},
    {"all", items, 100},
  }
  for _, tc := range cases {
    t.Run(tc.name, func(t *testing.T) {
      report := ComputeProgress(items, doneSet(tc.done...))
      if report.Percentage != tc.want {
        t.Fatalf("percentage = %v, want %v", report.Percentage, tc.want)
      }
    })
  }
}

func TestComputeProgressOptionalExcludedFromPercentage(t *testing.T) {
  items := []*types.PlaybookItem{calcItem(1, true), calcItem(2, false), calcItem(3, true)}

  report := ComputeProgress(items, doneSet(items[0], items[2]))
  if report.Percentage != 100 {
    t.Fatalf("percentage = %v, want 100 with all required items done", report.Percentage)
  }
  if report.TotalRequired != 2 || report.CompletedRequired != 2 {
    t.Fatalf("required counts = %d/%d, want 2/2", report.CompletedRequired, report.TotalRequired)
  }
}

func TestComputeProgressNoRequiredItems(t *testing.T) {
  items := []*types.PlaybookItem{calcItem(1, false), calcItem(2, false)}

  report := ComputeProgress(items, nil)
  if report.Percentage != 100 {
    t.Fatalf("percentage = %v, want vacuous 100", report.Percentage)
  }
  assertStatuses(t, report, ItemStatusAvailable, ItemStatusAvailable)
}

func TestComputeProgressEmptyTemplate(t *testing.T) {
  report := ComputeProgress(nil, nil)
  if report.Percentage != 100 {
    t.Fatalf("percentage = %v, want 100", report.Percentage)
  }
  if len(report.Items) != 0 || report.NextAvailable != nil {
    t.Fatalf("empty template produced items: %+v", report)
  }
}

func TestComputeProgressIgnoresForeignIDs(t *testing.T) {
  items := []*types.PlaybookItem{calcItem(1, true), calcItem(2, true)}

  foreign := map[uuid.UUID]struct{}{uuid.New(): {}}
  report := ComputeProgress(items, foreign)
  if report.Percentage != 0 || report.CompletedRequired != 0 {
    t.Fatalf("foreign ids counted: %+v", report)
  }
}

func TestComputeProgressDeterministic(t *testing.T) {
  // Items arrive in storage order, not necessarily display order.
  shuffled := []*types.PlaybookItem{calcItem(3, true), calcItem(1, true), calcItem(2, false)}
  done := doneSet(shuffled[1])

  first := ComputeProgress(shuffled, done)
  second := ComputeProgress(shuffled, done)
  if !reflect.DeepEqual(first, second) {
    t.Fatalf("two runs over identical inputs disagree:\n%+v\n%+v", first, second)
  }

  if first.Items[0].Item.OrderIndex != 1 || first.Items[2].Item.OrderIndex != 3 {
    t.Fatalf("report not ordered by order_index: %+v", first.Items)
  }
  // The caller's slice must come back untouched.
  if shuffled[0].OrderIndex != 3 {
    t.Fatalf("input slice was reordered")
  }
}

func TestComputeProgressStatusOfUnknownStep(t *testing.T) {
  items := []*types.PlaybookItem{calcItem(1, true)}
  report := ComputeProgress(items, nil)
  if got := report.StatusOf(uuid.New()); got != "" {
    t.Fatalf("status of foreign step = %q, want empty", got)
  }
}
