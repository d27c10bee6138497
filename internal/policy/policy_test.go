package policy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Defaults(t *testing.T) {
	s := NewStore().Snapshot()
	assert.Equal(t, 15.0, s.TaxRate)
	assert.Equal(t, 25.0, s.EducationBudget)
	assert.Equal(t, 20.0, s.HealthBudget)
	assert.Equal(t, 15.0, s.SecurityBudget)
	assert.Equal(t, 20.0, s.InfrastructureBudget)
	assert.Empty(t, s.Active)
}

func TestStore_SetClamps(t *testing.T) {
	tests := []struct {
		field Field
		in    float64
		want  float64
	}{
		{FieldTax, 80, 60},
		{FieldTax, -5, 0},
		{FieldEducation, 70, 50},
		{FieldHealth, 51, 50},
		{FieldSecurity, 45, 40},
		{FieldInfrastructure, 12, 12},
	}
	for _, tc := range tests {
		t.Run(string(tc.field), func(t *testing.T) {
			s := NewStore()
			got, _ := s.Set(tc.field, tc.in, 1)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestStore_HistoryCapped(t *testing.T) {
	s := NewStore()
	for i := 0; i < 70; i++ {
		s.Set(FieldTax, float64(i%60), uint64(i))
	}
	h := s.History()
	require.Len(t, h, maxHistory)
	assert.Equal(t, uint64(69), h[len(h)-1].Tick)
}

func TestStore_ApplyPartial(t *testing.T) {
	s := NewStore()
	tax := 45.0
	adv := s.Apply(Update{TaxRate: &tax}, 3)
	snap := s.Snapshot()
	assert.Equal(t, 45.0, snap.TaxRate)
	assert.Equal(t, 25.0, snap.EducationBudget)
	require.Len(t, adv, 1)
	assert.Equal(t, "warning", adv[0].Category)
}

func TestStore_ActivateOnce(t *testing.T) {
	s := NewStore()
	ok, adv := s.Activate(UniversalHealthcare, 1)
	assert.True(t, ok)
	assert.NotEmpty(t, adv)
	assert.Equal(t, 35.0, s.Snapshot().HealthBudget)

	ok, _ = s.Activate(UniversalHealthcare, 2)
	assert.False(t, ok)
	assert.Equal(t, 35.0, s.Snapshot().HealthBudget)
	assert.Contains(t, s.Snapshot().Active, UniversalHealthcare)
}

func TestParseSpecial(t *testing.T) {
	p, err := ParseSpecial("green_energy")
	require.NoError(t, err)
	assert.Equal(t, GreenEnergy, p)

	_, err = ParseSpecial("martial_law")
	assert.True(t, errors.Is(err, ErrUnknownSpecialPolicy))
}

func TestClassifyTax(t *testing.T) {
	assert.Equal(t, TaxLow, ClassifyTax(20))
	assert.Equal(t, TaxMedium, ClassifyTax(30))
	assert.Equal(t, TaxHigh, ClassifyTax(50))
	assert.Equal(t, TaxExtreme, ClassifyTax(55))
}
