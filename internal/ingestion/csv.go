package ingestion

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Default column names of the trader leaderboard export.
const (
	DefaultAddressColumn = "Trader Address"
	DefaultPnLColumn     = "PNL (All time)"
	DefaultVolumeColumn  = "Trading Volume (All time)"
	DefaultMaxAddresses  = 1000
)

// ErrMissingColumn is returned when a required CSV column is absent.
var ErrMissingColumn = errors.New("missing csv column")

// aggregate rows that do not name a single account.
var placeholderAddresses = map[string]struct{}{
	"":            {},
	"nan":         {},
	"other":       {},
	"others":      {},
	"other users": {},
	"aggregated":  {},
}

// CSVOptions configures LoadAddressesCSV. Zero values select the defaults.
type CSVOptions struct {
	AddressColumn string
	PnLColumn     string
	VolumeColumn  string // optional; ignored when absent from the header

	MinPnL       decimal.Decimal // rows need PnL strictly greater
	MinVolume    decimal.Decimal // applied only when positive
	MaxAddresses int
}

// AddressRow is one selected CSV row.
type AddressRow struct {
	Address string
	PnL     decimal.Decimal
	Volume  decimal.Decimal
}

// LoadAddressesCSV selects candidate addresses from a leaderboard export.
// Placeholder rows are skipped, unparseable numbers count as zero, rows must
// have PnL > MinPnL, the first row of each address wins, and the result is
// sorted by PnL descending and truncated to MaxAddresses.
func LoadAddressesCSV(r io.Reader, opts CSVOptions) ([]AddressRow, error) {
	if opts.AddressColumn == "" {
		opts.AddressColumn = DefaultAddressColumn
	}
	if opts.PnLColumn == "" {
		opts.PnLColumn = DefaultPnLColumn
	}
	if opts.VolumeColumn == "" {
		opts.VolumeColumn = DefaultVolumeColumn
	}
	if opts.MaxAddresses <= 0 {
		opts.MaxAddresses = DefaultMaxAddresses
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))] = i
	}
	addrIdx, ok := cols[opts.AddressColumn]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, opts.AddressColumn)
	}
	pnlIdx, ok := cols[opts.PnLColumn]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, opts.PnLColumn)
	}
	volIdx, hasVolume := cols[opts.VolumeColumn]

	seen := make(map[string]struct{})
	var rows []AddressRow
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}

		addr := strings.TrimSpace(field(rec, addrIdx))
		if _, skip := placeholderAddresses[strings.ToLower(addr)]; skip {
			continue
		}
		pnl := parseAmount(field(rec, pnlIdx))
		if !pnl.GreaterThan(opts.MinPnL) {
			continue
		}
		var vol decimal.Decimal
		if hasVolume {
			vol = parseAmount(field(rec, volIdx))
			if opts.MinVolume.IsPositive() && vol.LessThan(opts.MinVolume) {
				continue
			}
		}
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		rows = append(rows, AddressRow{Address: addr, PnL: pnl, Volume: vol})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].PnL.GreaterThan(rows[j].PnL)
	})
	if len(rows) > opts.MaxAddresses {
		rows = rows[:opts.MaxAddresses]
	}
	return rows, nil
}

// Addresses returns the addresses of rows in order.
func Addresses(rows []AddressRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Address
	}
	return out
}

func field(rec []string, idx int) string {
	if idx < len(rec) {
		return rec[idx]
	}
	return ""
}

// parseAmount parses "$1,234.5" style amounts; anything else is zero.
func parseAmount(raw string) decimal.Decimal {
	s := strings.NewReplacer("$", "", ",", "", " ", "").Replace(strings.TrimSpace(raw))
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
