package task

import (
	"time"
)

// Patch represents a partial update. A nil pointer means "no change".
type Patch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Status      *Status   `json:"status,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
}

// IsZero reports whether the patch changes nothing.
func (p Patch) IsZero() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil && p.Priority == nil
}

// Apply merges the patch into a copy of t, stamping UpdatedAt and
// appending an "updated" history entry that records the field-level diff.
// Fields whose new value equals the old one are excluded from the diff;
// a patch that changes nothing returns t unchanged.
func (p Patch) Apply(t Task, actor string, now time.Time) Task {
	diff := map[string]FieldDelta{}

	out := t.Clone()
	if p.Title != nil && *p.Title != out.Title {
		diff["title"] = FieldDelta{From: out.Title, To: *p.Title}
		out.Title = *p.Title
	}
	if p.Description != nil && *p.Description != out.Description {
		diff["description"] = FieldDelta{From: out.Description, To: *p.Description}
		out.Description = *p.Description
	}
	if p.Status != nil && *p.Status != out.Status {
		diff["status"] = FieldDelta{From: string(out.Status), To: string(*p.Status)}
		out.Status = *p.Status
	}
	if p.Priority != nil && *p.Priority != out.Priority {
		diff["priority"] = FieldDelta{From: string(out.Priority), To: string(*p.Priority)}
		out.Priority = *p.Priority
	}

	if len(diff) == 0 {
		return t
	}

	// History timestamps are non-decreasing; never stamp earlier than the
	// last recorded entry.
	if n := len(out.History); n > 0 && now.Before(out.History[n-1].Timestamp) {
		now = out.History[n-1].Timestamp
	}

	out.UpdatedAt = now
	out.History = append(out.History, ChangeEntry{
		Timestamp: now,
		Actor:     actor,
		Kind:      ChangeKindUpdated,
		Diff:      diff,
	})

	return out
}
