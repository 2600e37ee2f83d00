package filter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_SortsAndDedups(t *testing.T) {
	s := New([]string{"NC", "GA", "GA", "", "  "}, []string{"2021", "2020", "2021"})

	assert.Equal(t, []string{"GA", "NC"}, s.States())
	assert.Equal(t, []string{"2020", "2021"}, s.Years())
	assert.False(t, s.IsEmpty())
}

func TestNew_EmptyMeansUnrestricted(t *testing.T) {
	s := New(nil, []string{})

	assert.True(t, s.IsEmpty())
	assert.False(t, s.HasStates())
	assert.False(t, s.HasYears())
}

func TestState_IsImmutable(t *testing.T) {
	input := []string{"GA"}
	s := New(input, nil)
	input[0] = "NC"

	states := s.States()
	states[0] = "TX"

	assert.Equal(t, []string{"GA"}, s.States())
}

func TestState_WithoutYears(t *testing.T) {
	s := New([]string{"GA"}, []string{"2020"}).WithoutYears()

	assert.Equal(t, []string{"GA"}, s.States())
	assert.False(t, s.HasYears())
}

func TestDomain_Validate(t *testing.T) {
	domain := NewDomain([]string{"GA", "NC", "O'Brien"}, []string{"2020", "2021"}, []string{"PrEP"})

	tests := []struct {
		name      string
		state     State
		wantField Field
		wantBad   []string
	}{
		{name: "empty selection is valid", state: New(nil, nil)},
		{name: "known values are valid", state: New([]string{"GA", "O'Brien"}, []string{"2021"})},
		{
			name:      "unknown state is rejected",
			state:     New([]string{"GA", "ZZ' OR 1=1 --"}, nil),
			wantField: FieldState,
			wantBad:   []string{"ZZ' OR 1=1 --"},
		},
		{
			name:      "unknown year is rejected",
			state:     New(nil, []string{"1999"}),
			wantField: FieldYear,
			wantBad:   []string{"1999"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := domain.Validate(tt.state)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.wantField, verr.Field)
			assert.Equal(t, tt.wantBad, verr.Values)
			assert.ErrorIs(t, err, ErrInvalidValue)
		})
	}
}

func TestDomain_KeepsStoredValuesExactly(t *testing.T) {
	domain := NewDomain([]string{"GA ", "NC", " "}, []string{"2021"}, nil)

	assert.Equal(t, []string{"GA ", "NC"}, domain.States)

	err := domain.Validate(New([]string{"GA"}, nil))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, FieldState, verr.Field)
	assert.Equal(t, []string{"GA"}, verr.Values)

	assert.NoError(t, domain.Validate(New([]string{"GA "}, nil)))
	assert.Equal(t, []string{"GA "}, New([]string{"GA "}, nil).States())
}

func TestDomain_ValidateCategory(t *testing.T) {
	domain := NewDomain(nil, nil, []string{"ART", "PrEP"})

	assert.NoError(t, domain.ValidateCategory(""))
	assert.NoError(t, domain.ValidateCategory("PrEP"))

	err := domain.ValidateCategory("Dental")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, FieldCategory, verr.Field)
}
