package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRenewalStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want RenewalStatus
		ok   bool
	}{
		{"pending", RenewalPending, true},
		{"payment_link_sent", RenewalLinkSent, true},
		{"payment_proof_uploaded", RenewalProofUploaded, true},
		{"approved", RenewalApproved, true},
		{"rejected", RenewalRejected, true},
		// Legacy uppercase spellings.
		{"PENDING", RenewalPending, true},
		{"APPROVED", RenewalApproved, true},
		{"REJECTED", RenewalRejected, true},
		// Legacy terminal success state folds into approved.
		{"FULFILLED", RenewalApproved, true},
		{"fulfilled", RenewalApproved, true},
		{"", "", false},
		{"cancelled", "", false},
	}

	for _, tc := range cases {
		got, ok := NormalizeRenewalStatus(tc.raw)
		require.Equal(t, tc.ok, ok, "raw=%q", tc.raw)
		assert.Equal(t, tc.want, got, "raw=%q", tc.raw)
	}
}

func TestRenewalStatusTransitions(t *testing.T) {
	allowed := map[RenewalStatus][]RenewalStatus{
		RenewalPending:       {RenewalLinkSent, RenewalProofUploaded},
		RenewalLinkSent:      {RenewalProofUploaded},
		RenewalProofUploaded: {RenewalProofUploaded, RenewalApproved, RenewalRejected},
		RenewalApproved:      {},
		RenewalRejected:      {},
	}
	all := []RenewalStatus{RenewalPending, RenewalLinkSent, RenewalProofUploaded, RenewalApproved, RenewalRejected}

	for from, targets := range allowed {
		permitted := make(map[RenewalStatus]bool)
		for _, to := range targets {
			permitted[to] = true
		}
		for _, to := range all {
			assert.Equal(t, permitted[to], from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestRenewalStatusTerminal(t *testing.T) {
	assert.True(t, RenewalApproved.Terminal())
	assert.True(t, RenewalRejected.Terminal())
	assert.False(t, RenewalPending.Terminal())
	assert.False(t, RenewalLinkSent.Terminal())
	assert.False(t, RenewalProofUploaded.Terminal())
}
