package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddOrder(t *testing.T) {
	payment, address, description, err := parseAddOrder("5000;ул. Тестовая, д. 1;Доставка мебели")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), payment)
	assert.Equal(t, "ул. Тестовая, д. 1", address)
	assert.Equal(t, "Доставка мебели", description)

	// The description keeps embedded separators.
	_, _, description, err = parseAddOrder("100; адрес ;а;б;в")
	require.NoError(t, err)
	assert.Equal(t, "а;б;в", description)

	_, _, _, err = parseAddOrder("5000;только адрес")
	assert.Error(t, err)

	_, _, _, err = parseAddOrder("пять тысяч;адрес;описание")
	assert.Error(t, err)

	_, _, _, err = parseAddOrder("")
	assert.Error(t, err)
}
