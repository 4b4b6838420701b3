package temporal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApprovalDecisionApproves(t *testing.T) {
	d := approvalDecision("yes")
	assert.True(t, d.approved)
	assert.Empty(t, d.reason)
}

func TestApprovalDecisionRejectsWithReason(t *testing.T) {
	d := approvalDecision("please try a cheaper worker")
	assert.False(t, d.approved)
	assert.Equal(t, "please try a cheaper worker", d.reason)
}

func TestApprovalDecisionRejectsEmptyAnswer(t *testing.T) {
	d := approvalDecision("")
	assert.False(t, d.approved)
	assert.Equal(t, "user rejected the plan", d.reason)
}
