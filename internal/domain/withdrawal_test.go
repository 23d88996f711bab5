package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithdrawalStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from WithdrawalStatus
		to   WithdrawalStatus
		want bool
	}{
		{WithdrawalRequested, WithdrawalApproved, true},
		{WithdrawalRequested, WithdrawalRejected, true},
		{WithdrawalRequested, WithdrawalSettled, false},
		{WithdrawalRequested, WithdrawalRequested, false},
		{WithdrawalApproved, WithdrawalSettled, true},
		{WithdrawalApproved, WithdrawalRejected, false},
		{WithdrawalRejected, WithdrawalSettled, false},
		{WithdrawalSettled, WithdrawalApproved, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}
