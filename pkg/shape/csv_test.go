package shape

import (
	"bytes"
	"testing"

	"github.com/nastad/tmsis-dashboard/pkg/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	f, err := frame.New(
		&frame.Column{Name: "state", Kind: frame.KindString, Values: []any{"GA", "NC"}},
		&frame.Column{Name: "total_claims", Kind: frame.KindInt, Values: []any{int64(175), nil}},
		&frame.Column{Name: "total_paid", Kind: frame.KindFloat, Values: []any{4600.75, 800.0}},
		&frame.Column{Name: "description", Kind: frame.KindString, Values: []any{"Injection, cabotegravir", "HIV-1 \"rapid\""}},
	)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, f, []DisplayColumn{
		{Key: "state", Label: "State", Format: FormatText},
		{Key: "description", Label: "Description", Format: FormatText},
		{Key: "total_claims", Label: "Total Claims", Format: FormatInt},
		{Key: "total_paid", Label: "Total Paid", Format: FormatMoney},
	}))

	assert.Equal(t, "state,description,total_claims,total_paid\n"+
		"GA,\"Injection, cabotegravir\",175,4600.75\n"+
		"NC,\"HIV-1 \"\"rapid\"\"\",,800.00\n", buf.String())
}

func TestWriteCSV_AllColumnsAndErrors(t *testing.T) {
	f, err := frame.New(
		&frame.Column{Name: "hcpcs_code", Kind: frame.KindString, Values: []any{"86701"}},
		&frame.Column{Name: "category", Kind: frame.KindString, Values: []any{"HIV Testing"}},
	)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, f, nil))
	assert.Equal(t, "hcpcs_code,category\n86701,HIV Testing\n", buf.String())

	err = WriteCSV(&bytes.Buffer{}, f, []DisplayColumn{{Key: "nope"}})
	assert.ErrorIs(t, err, ErrUnknownColumn)
}
