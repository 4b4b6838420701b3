package approval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/premanandc/agent-fleet/router"
)

func TestReviewAutoApprovesImmediately(t *testing.T) {
	g := New()
	rc := &router.RunContext{Mode: router.ModeAuto, Plan: &router.Plan{}}

	d := g.Review(rc, time.Now())
	assert.True(t, d.Approved)
	assert.False(t, d.Suspend)
	assert.Empty(t, rc.MessageLog)
}

func TestReviewReviewModeApprovesAndRecordsPlan(t *testing.T) {
	g := New()
	rc := &router.RunContext{Mode: router.ModeReview, Plan: &router.Plan{
		Strategy: router.StrategySequential,
		Tasks:    []*router.Task{{TaskID: "t1", WorkerName: "w", Description: "do it"}},
	}}

	d := g.Review(rc, time.Now())
	assert.True(t, d.Approved)
	require.Len(t, rc.MessageLog, 1)
	assert.Contains(t, rc.MessageLog[0].Content, "t1")
}

func TestReviewInteractiveSuspends(t *testing.T) {
	g := New()
	rc := &router.RunContext{Mode: router.ModeInteractive, Plan: &router.Plan{}}

	d := g.Review(rc, time.Now())
	assert.False(t, d.Approved)
	assert.True(t, d.Suspend)
}

func TestResumeApprovesYesVariants(t *testing.T) {
	g := New()
	for _, answer := range []string{"yes", "Y", "approve", "APPROVED", "  yes  "} {
		d := g.Resume(answer)
		assert.True(t, d.Approved, "answer=%q", answer)
	}
}

func TestResumeRejectsNoVariants(t *testing.T) {
	g := New()
	for _, answer := range []string{"no", "N", "reject", "rejected", ""} {
		d := g.Resume(answer)
		assert.False(t, d.Approved, "answer=%q", answer)
		assert.Equal(t, "user rejected the plan", d.ReplanReason)
	}
}

func TestResumeFreeTextIsModificationRequest(t *testing.T) {
	g := New()
	d := g.Resume("please use a cheaper worker instead")
	assert.False(t, d.Approved)
	assert.Equal(t, "please use a cheaper worker instead", d.ReplanReason)
}
