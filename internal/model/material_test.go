package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariancePercent(t *testing.T) {
	tests := []struct {
		name        string
		contractQty float64
		actualQty   *float64
		want        *float64
	}{
		{
			name:        "over contract is positive",
			contractQty: 100,
			actualQty:   ptr(120.0),
			want:        ptr(20.0),
		},
		{
			name:        "under contract is negative",
			contractQty: 100,
			actualQty:   ptr(80.0),
			want:        ptr(-20.0),
		},
		{
			name:        "exact match is zero",
			contractQty: 50,
			actualQty:   ptr(50.0),
			want:        ptr(0.0),
		},
		{
			name:        "zero contract quantity is undefined",
			contractQty: 0,
			actualQty:   ptr(10.0),
			want:        nil,
		},
		{
			name:        "no actual recorded yet",
			contractQty: 100,
			actualQty:   nil,
			want:        nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VariancePercent(tt.contractQty, tt.actualQty)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-9)
		})
	}
}

func TestDeriveStatusOrderIndependent(t *testing.T) {
	assert.Equal(t, MaterialRequestStatusPending, DeriveStatus(false, false))
	assert.Equal(t, MaterialRequestStatusPartiallyApproved, DeriveStatus(true, false))
	assert.Equal(t, MaterialRequestStatusPartiallyApproved, DeriveStatus(false, true))
	assert.Equal(t, MaterialRequestStatusApproved, DeriveStatus(true, true))
}

func TestMaterialRequestStatusMutability(t *testing.T) {
	assert.True(t, MaterialRequestStatusPending.Mutable())
	assert.True(t, MaterialRequestStatusRejected.Mutable())
	assert.False(t, MaterialRequestStatusPartiallyApproved.Mutable())
	assert.False(t, MaterialRequestStatusApproved.Mutable())
}

func ptr(v float64) *float64 { return &v }
