package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayout_SerializeIsOrderSensitive(t *testing.T) {
	a := Layout{"Date", "Amount"}
	b := Layout{"Amount", "Date"}

	assert.NotEqual(t, a.Serialize(), b.Serialize())
	assert.Equal(t, a.Serialize(), Layout{"Date", "Amount"}.Serialize())
}

func TestLayout_SerializeNilEqualsEmpty(t *testing.T) {
	assert.Equal(t, "[]", Layout(nil).Serialize())
	assert.Equal(t, "[]", Layout{}.Serialize())
}

func TestLayout_ScanRoundTrip(t *testing.T) {
	original := Layout{"Invoice No", "Total"}

	v, err := original.Value()
	require.NoError(t, err)

	var decoded Layout
	require.NoError(t, decoded.Scan(v))
	assert.Equal(t, original, decoded)
}

func TestLayout_ScanNull(t *testing.T) {
	var l Layout
	require.NoError(t, l.Scan(nil))
	assert.Equal(t, Layout{}, l)
}
