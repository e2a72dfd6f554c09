package planner

import "github.com/warp/paycheck-planner/generic"

// MarkPaid records a payment. A recurring bill rolls forward to its next due
// date and waits for a new assignment; a one-off bill (or one whose rule has
// run out) is tagged CyclePrevious and kept, since the planner never deletes.
func MarkPaid(b Bill) Bill {
	if b.IsRecurring() {
		if next, ok := generic.NextAfter(*b.Rule, b.RuleAnchor(), b.Due); ok {
			b.Anchor = b.RuleAnchor()
			b.Due = next
			b.Cycle = CycleCurrent
			b.AssignedPaycheckID = Unassigned
			b.Paid = false
			return b
		}
	}

	b.Paid = true
	b.Cycle = CyclePrevious
	b.AssignedPaycheckID = Unassigned
	return b
}
