package feed

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"quantra/internal/domain"
)

// Compile-time interface check.
var _ Feed = (*ParquetFeed)(nil)

// barRecord is the on-disk Parquet schema for bar data.
type barRecord struct {
	Symbol    string  `parquet:"symbol"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open      float64 `parquet:"open"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
	Close     float64 `parquet:"close"`
	Volume    float64 `parquet:"volume"`
	Frequency string  `parquet:"frequency"`
}

// ParquetFeed records bar events into Parquet files and plays them back.
// Bars are laid out per symbol and year:
//
//	<DataDir>/<SYMBOL>/<YYYY>.parquet
//
// Re-recording into an existing directory merges and deduplicates by
// (symbol, timestamp), preferring the newer record.
type ParquetFeed struct {
	DataDir string
}

// NewParquetFeed creates a feed rooted at the given data directory.
func NewParquetFeed(dataDir string) *ParquetFeed {
	return &ParquetFeed{DataDir: dataDir}
}

// barPath returns the file for a symbol and year.
func (f *ParquetFeed) barPath(symbol string, year int) string {
	return filepath.Join(f.DataDir, strings.ToUpper(symbol), fmt.Sprintf("%d.parquet", year))
}

// Symbols lists the symbols with recorded data, sorted.
func (f *ParquetFeed) Symbols() ([]string, error) {
	entries, err := os.ReadDir(f.DataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var symbols []string
	for _, e := range entries {
		if e.IsDir() {
			symbols = append(symbols, e.Name())
		}
	}
	sort.Strings(symbols)
	return symbols, nil
}

// Record plays the source feed and stores all bar items it produces. Items
// that are not bars are skipped.
func (f *ParquetFeed) Record(ctx context.Context, source Feed) error {
	type key struct {
		symbol string
		year   int
	}
	groups := map[key][]barRecord{}

	channel := PlayBackground(ctx, source, 100)
	for {
		evt, ok := channel.Get(0)
		if !ok {
			break
		}
		for _, item := range evt.Items {
			b, ok := item.(domain.Bar)
			if !ok {
				continue
			}
			k := key{symbol: strings.ToUpper(b.Sym), year: evt.Time.Year()}
			groups[k] = append(groups[k], barRecord{
				Symbol:    strings.ToUpper(b.Sym),
				Timestamp: evt.Time.UnixMilli(),
				Open:      b.Open,
				High:      b.High,
				Low:       b.Low,
				Close:     b.Close,
				Volume:    b.Vol,
				Frequency: b.Frequency,
			})
		}
	}

	// Write even when the context was cancelled mid-stream, so an
	// interrupted recording keeps what it collected.
	for k, records := range groups {
		path := f.barPath(k.symbol, k.year)

		// Merge with whatever was recorded earlier.
		existing, _ := readParquetFile[barRecord](path)
		merged := mergeBarRecords(existing, records)

		if err := writeParquetFile(path, merged); err != nil {
			return fmt.Errorf("writing bars for %s/%d: %w", k.symbol, k.year, err)
		}
	}
	return nil
}

// Play replays all recorded bars in ascending time order, grouping bars that
// share a timestamp into a single event.
func (f *ParquetFeed) Play(ctx context.Context, channel *EventChannel) error {
	symbols, err := f.Symbols()
	if err != nil {
		return err
	}

	var all []barRecord
	for _, symbol := range symbols {
		dir := filepath.Join(f.DataDir, symbol)
		entries, err := os.ReadDir(dir)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".parquet") {
				continue
			}
			records, err := readParquetFile[barRecord](filepath.Join(dir, e.Name()))
			if err != nil {
				return fmt.Errorf("reading %s: %w", e.Name(), err)
			}
			all = append(all, records...)
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Timestamp < all[j].Timestamp })

	var (
		evtTime time.Time
		items   []domain.PriceItem
	)
	flush := func() error {
		if len(items) == 0 {
			return nil
		}
		err := replay(ctx, channel, domain.NewEvent(evtTime, items...))
		items = nil
		return err
	}

	for _, r := range all {
		t := time.UnixMilli(r.Timestamp).UTC()
		if !t.Equal(evtTime) {
			if err := flush(); err != nil {
				return err
			}
			evtTime = t
		}
		items = append(items, domain.Bar{
			Sym:       r.Symbol,
			Open:      r.Open,
			High:      r.High,
			Low:       r.Low,
			Close:     r.Close,
			Vol:       r.Volume,
			Frequency: r.Frequency,
		})
	}
	return flush()
}

// ---------------------------------------------------------------------------
// Parquet file helpers
// ---------------------------------------------------------------------------

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	return parquet.ReadFile[T](path)
}

// mergeBarRecords deduplicates bar records by (symbol, timestamp), preferring
// incoming records over existing ones. Results are sorted by timestamp.
func mergeBarRecords(existing, incoming []barRecord) []barRecord {
	type key struct {
		symbol string
		ts     int64
	}
	seen := make(map[key]barRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[key{r.Symbol, r.Timestamp}] = r
	}
	for _, r := range incoming {
		seen[key{r.Symbol, r.Timestamp}] = r
	}

	merged := make([]barRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Timestamp < merged[j].Timestamp })
	return merged
}
