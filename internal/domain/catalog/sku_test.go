package catalog

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSKUCodes(t *testing.T) {
	assert.Equal(t, "ARS", TeamCode("Arsenal"))
	assert.Equal(t, "PSG", TeamCode("p.s.g"))
	assert.Equal(t, "ACX", TeamCode("AC"))
	assert.Equal(t, "XXX", TeamCode(""))

	assert.Equal(t, "2425", SeasonCode("2024/25"))
	assert.Equal(t, "2425", SeasonCode("2024-2025"))
	assert.Equal(t, "24", SeasonCode("2024"))
	assert.Equal(t, "00", SeasonCode("retro"))

	assert.Equal(t, "HOM", TypeCode("Home"))
	assert.Equal(t, "AWY", TypeCode("away kit"))
	assert.Equal(t, "GKP", TypeCode("Goalkeeper Home"))
	assert.Equal(t, "TRN", TypeCode("training"))
	assert.Equal(t, "CUP", TypeCode("Cup"))
}

func TestGenerateSKU(t *testing.T) {
	a := Attributes{Team: "Abc United", Season: "2024/25", Type: "Home"}

	sku, err := GenerateSKU(a, bytes.NewReader([]byte{0, 1, 2, 26, 35}))
	require.NoError(t, err)
	assert.Equal(t, "ABC-2425-HOM-ABC09", sku)
	assert.True(t, IsGeneratedSKU(sku))

	random, err := GenerateSKU(a, nil)
	require.NoError(t, err)
	assert.True(t, IsGeneratedSKU(random))
	assert.Equal(t, "ABC-2425-HOM-", random[:13])
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("no entropy") }

func TestGenerateSKU_RandomFailure(t *testing.T) {
	_, err := GenerateSKU(Attributes{}, failingReader{})
	assert.Error(t, err)
}

func TestIsGeneratedSKU(t *testing.T) {
	assert.True(t, IsGeneratedSKU("ABC-2425-HOM-X1Y2Z"))
	assert.False(t, IsGeneratedSKU("abc-2425-HOM-X1Y2Z"))
	assert.False(t, IsGeneratedSKU("ABC-2425-HOM-X1Y2"))
}
