package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV_QuotesAndEmptyCells(t *testing.T) {
	var buf bytes.Buffer
	delivered := time.Date(2026, 10, 16, 9, 30, 0, 0, time.FixedZone("IST", 5*3600+1800))

	err := WriteCSV(&buf, []string{"Order ID", "User", "Delivered At"}, [][]string{
		{"o-1", "Sharma, Asha", Time(&delivered)},
		{"o-2", "Ravi", Time(nil)},
	})
	require.NoError(t, err)
	assert.Equal(t,
		"Order ID,User,Delivered At\n"+
			"o-1,\"Sharma, Asha\",2026-10-16T04:00:00Z\n"+
			"o-2,Ravi,\n",
		buf.String())
}

func TestWriteCSV_RejectsRaggedRows(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, []string{"a", "b"}, [][]string{{"1"}})
	assert.Error(t, err)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "orders-2026-10-16.csv", Filename("orders", time.Date(2026, 10, 16, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, "12", Int(12))
}
