// Package approval implements the Approval Gate (C9): mode-dependent
// handling of a freshly-planned Plan before it reaches the Executor.
package approval

import (
	"fmt"
	"strings"
	"time"

	"github.com/premanandc/agent-fleet/router"
)

// Decision is the gate's verdict for a Plan under review.
type Decision struct {
	// Approved means the driver should proceed to Execute.
	Approved bool
	// Suspend means the run must be persisted and the scheduling loop exited
	// pending an external Resume call (interactive mode, first pass).
	Suspend bool
	// ReplanReason is set when Approved is false and the driver should loop
	// back to Plan rather than terminate (rejection or free-text feedback).
	ReplanReason string
}

// Gate evaluates a Plan against a run's Mode.
type Gate struct{}

// New constructs a Gate. It is stateless; state lives in RunContext.
func New() *Gate { return &Gate{} }

// Review evaluates rc.Plan against rc.Mode. For ModeAuto it approves
// immediately. For ModeReview it approves and records the rendered plan to
// the message log. For ModeInteractive it requests suspension: the driver
// must persist rc and stop scheduling until Resume is called with the
// external answer.
func (g *Gate) Review(rc *router.RunContext, now time.Time) Decision {
	switch rc.Mode {
	case router.ModeAuto:
		return Decision{Approved: true}
	case router.ModeReview:
		rc.AppendMessage(router.MessageRoleAssistant, renderPlan(rc.Plan), now)
		return Decision{Approved: true}
	case router.ModeInteractive:
		return Decision{Suspend: true}
	default:
		return Decision{Approved: true}
	}
}

// Resume interprets the external answer to a suspended interactive-mode
// approval request (§4.3):
//   - "yes"/"y"/"approve"/"approved" (case-insensitive) -> approve
//   - "no"/"n"/"reject"/"rejected" (case-insensitive) -> reject, replan with
//     a fixed reason
//   - any other non-empty text -> treated as free-text modification: reject
//     with that text as the replan reason
//   - empty string -> reject, same as explicit "no"
func (g *Gate) Resume(answer string) Decision {
	trimmed := strings.TrimSpace(answer)
	lower := strings.ToLower(trimmed)

	switch lower {
	case "yes", "y", "approve", "approved":
		return Decision{Approved: true}
	case "no", "n", "reject", "rejected", "":
		return Decision{Approved: false, ReplanReason: "user rejected the plan"}
	default:
		return Decision{Approved: false, ReplanReason: trimmed}
	}
}

func renderPlan(p *router.Plan) string {
	if p == nil || len(p.Tasks) == 0 {
		return "Proposed plan: (no tasks)"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Proposed plan (%s strategy): %s\n", p.Strategy, p.Analysis)
	for _, t := range p.Tasks {
		fmt.Fprintf(&b, "- %s -> %s: %s", t.TaskID, t.WorkerName, t.Description)
		if len(t.Dependencies) > 0 {
			fmt.Fprintf(&b, " (depends on %s)", strings.Join(t.Dependencies, ", "))
		}
		b.WriteString("\n")
	}
	return b.String()
}
