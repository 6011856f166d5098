package services

import (
  "math"
  "sort"

  "github.com/google/uuid"

  "github.com/nexushq/nexus-backend/internal/types"
)

type ItemStatus string

const (
  ItemStatusCompleted ItemStatus = "completed"
  ItemStatusAvailable ItemStatus = "available"
  ItemStatusBlocked   ItemStatus = "blocked"
)

type ItemProgress struct {
  Item   *types.PlaybookItem `json:"item"`
  Status ItemStatus          `json:"status"`
}

type ProgressReport struct {
  Items             []ItemProgress      `json:"items"`
  Percentage        float64             `json:"progress_percentage"`
  CompletedRequired int                 `json:"completed_required"`
  TotalRequired     int                 `json:"total_required"`
  NextAvailable     *types.PlaybookItem `json:"next_available_item,omitempty"`
}

// ComputeProgress derives each item's status and the overall completion
// percentage from the template's items and the set of completed step ids.
// Pure: no I/O, no clock, no mutation of the input slice.
//
// Rules:
//   - an item is completed when its id is in completedIDs
//   - the lowest-order item is always available, so every journey has an
//     entry point
//   - otherwise an item is available iff every preceding required item is
//     completed; optional items never gate anything
//   - percentage = round(100 * completedRequired / totalRequired, 1), and a
//     template with no required items counts as 100
func ComputeProgress(items []*types.PlaybookItem, completedIDs map[uuid.UUID]struct{}) ProgressReport {
  sorted := make([]*types.PlaybookItem, len(items))
  copy(sorted, items)
  // order_index is the authoritative sort key even if the caller pre-sorted
  sort.SliceStable(sorted, func(i, j int) bool {
    return sorted[i].OrderIndex < sorted[j].OrderIndex
  })

  report := ProgressReport{Items: make([]ItemProgress, 0, len(sorted))}
  priorRequiredDone := true
  for i, item := range sorted {
    _, done := completedIDs[item.ID]

    var status ItemStatus
    switch {
    case done:
      status = ItemStatusCompleted
    case i == 0:
      status = ItemStatusAvailable
    case priorRequiredDone:
      status = ItemStatusAvailable
    default:
      status = ItemStatusBlocked
    }

    if item.Required {
      report.TotalRequired++
      if done {
        report.CompletedRequired++
      } else {
        priorRequiredDone = false
      }
    }

    if status == ItemStatusAvailable && report.NextAvailable == nil {
      report.NextAvailable = item
    }
    report.Items = append(report.Items, ItemProgress{Item: item, Status: status})
  }

  if report.TotalRequired == 0 {
    report.Percentage = 100
  } else {
    report.Percentage = roundToTenth(100 * float64(report.CompletedRequired) / float64(report.TotalRequired))
  }
  return report
}

// StatusOf returns the computed status for one step id, or "" when the id is
// not part of the report.
func (r ProgressReport) StatusOf(stepID uuid.UUID) ItemStatus {
  for _, ip := range r.Items {
    if ip.Item != nil && ip.Item.ID == stepID {
      return ip.Status
    }
  }
  return ""
}

func roundToTenth(v float64) float64 {
  return math.Round(v*10) / 10
}
