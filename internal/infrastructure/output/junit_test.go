package output

import (
	"bytes"
	"encoding/xml"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJUnitFormatter_Format(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, NewJUnitFormatter(&buf).Format(createTestResult()))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, xml.Header))

	var suites JUnitTestSuites
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &suites))

	assert.Equal(t, "orders", suites.Name)
	assert.Equal(t, 4, suites.Tests)
	assert.Equal(t, 1, suites.Failures)
	assert.Equal(t, 1, suites.Errors)
	assert.Equal(t, 1, suites.Skipped)

	// One suite per validated type, sorted by name.
	require.Len(t, suites.TestSuites, 3)
	assert.Equal(t, "Line", suites.TestSuites[0].Name)
	assert.Equal(t, "Order", suites.TestSuites[1].Name)
	assert.Equal(t, "Price", suites.TestSuites[2].Name)

	order := suites.TestSuites[1]
	require.Len(t, order.TestCases, 2)
	assert.Equal(t, "has-lines at $", order.TestCases[0].Name)
	assert.Nil(t, order.TestCases[0].Failure)
	require.NotNil(t, order.TestCases[1].Skipped)
	assert.Contains(t, order.TestCases[1].Skipped.Message, "did not pass")
	assert.Equal(t, 1, order.Skipped)

	line := suites.TestSuites[0].TestCases[0]
	require.NotNil(t, line.Failure)
	assert.Contains(t, line.Failure.Content, "Identity: sku-b")
	assert.Contains(t, line.Failure.Content, "expression: value.quantity > 0")

	price := suites.TestSuites[2].TestCases[0]
	assert.Equal(t, "price-known/strict at $.lines[1].price", price.Name)
	require.NotNil(t, price.Error)
	assert.Equal(t, "Value at $.lines[1].price could not be read", price.Error.Message)
	assert.Contains(t, price.Error.Content, "Error: accessor failed")
}
