package ingestion

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const leaderboardCSV = "\uFEFFRank,Trader Address,PNL (All time),Trading Volume (All time)\n" +
	"1,0xaaa,\"$1,500.25\",900000\n" +
	"2,Other,99999999,1\n" +
	"3,0xbbb,250,100\n" +
	"4,0xccc,-40,5000\n" +
	"5,0xaaa,10,1\n" +
	"6,,300,1\n" +
	"7,nan,300,1\n" +
	"8,0xddd,n/a,1\n" +
	"9,0xeee,3200,50\n"

func TestLoadAddressesCSV(t *testing.T) {
	rows, err := LoadAddressesCSV(strings.NewReader(leaderboardCSV), CSVOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"0xeee", "0xaaa", "0xbbb"}, Addresses(rows))
	assert.Equal(t, "1500.25", rows[1].PnL.String())
	assert.Equal(t, "900000", rows[1].Volume.String())
}

func TestLoadAddressesCSV_Filters(t *testing.T) {
	rows, err := LoadAddressesCSV(strings.NewReader(leaderboardCSV), CSVOptions{
		MinPnL:       decimal.NewFromInt(200),
		MinVolume:    decimal.NewFromInt(60),
		MaxAddresses: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"0xaaa"}, Addresses(rows))
}

func TestLoadAddressesCSV_CustomColumns(t *testing.T) {
	input := "User,Daily USD Volume\n0x1,10\n0x2,30\n"
	rows, err := LoadAddressesCSV(strings.NewReader(input), CSVOptions{
		AddressColumn: "User",
		PnLColumn:     "Daily USD Volume",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"0x2", "0x1"}, Addresses(rows))
	assert.True(t, rows[0].Volume.IsZero())
}

func TestLoadAddressesCSV_MissingColumn(t *testing.T) {
	_, err := LoadAddressesCSV(strings.NewReader("Address,PnL\n0x1,5\n"), CSVOptions{})
	require.ErrorIs(t, err, ErrMissingColumn)
}

func TestLoadAddressesCSV_Empty(t *testing.T) {
	rows, err := LoadAddressesCSV(strings.NewReader(""), CSVOptions{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}
