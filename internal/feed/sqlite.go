package feed

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"quantra/internal/domain"
)

// Compile-time interface check.
var _ Feed = (*SQLFeed)(nil)

// PriceKind selects which price-item variant a recording feed stores.
type PriceKind string

const (
	KindBar   PriceKind = "bar"
	KindQuote PriceKind = "quote"
)

// SQL statements used by SQLFeed.
const (
	sqlSelectAll        = "SELECT * FROM prices ORDER BY date"
	sqlSelectTimespan   = "SELECT min(date), max(date) FROM prices"
	sqlCountItems       = "SELECT count(*) FROM prices"
	sqlCreateBarTable   = "CREATE TABLE IF NOT EXISTS prices(date, symbol, open, high, low, close, volume, frequency)"
	sqlCreateQuoteTable = "CREATE TABLE IF NOT EXISTS prices(date, symbol, ap, av, bp, bv)"
	sqlInsertBar        = "INSERT INTO prices VALUES(?,?,?,?,?,?,?,?)"
	sqlInsertQuote      = "INSERT INTO prices VALUES(?,?,?,?,?,?)"
	sqlCreateIndex      = "CREATE INDEX IF NOT EXISTS date_idx ON prices(date)"
)

const sqlTimeLayout = time.RFC3339Nano

// SQLFeed records bar or quote events into a SQLite database and plays them
// back later. Appending to an existing database is supported; playback
// groups rows sharing a timestamp into a single event, in ascending time
// order.
type SQLFeed struct {
	dbFile string
	kind   PriceKind
}

// NewSQLFeed creates a feed backed by the SQLite database at dbFile, storing
// and serving the given price kind.
func NewSQLFeed(dbFile string, kind PriceKind) *SQLFeed {
	return &SQLFeed{dbFile: dbFile, kind: kind}
}

// Exists reports whether the database file already exists.
func (f *SQLFeed) Exists() bool {
	_, err := os.Stat(f.dbFile)
	return err == nil
}

func (f *SQLFeed) open() (*sql.DB, error) {
	return sql.Open("sqlite", f.dbFile)
}

// CreateIndex creates the date index used for playback, if not present.
func (f *SQLFeed) CreateIndex() error {
	db, err := f.open()
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.Exec(sqlCreateIndex)
	return err
}

// NumItems returns the number of stored price items.
func (f *SQLFeed) NumItems() (int, error) {
	db, err := f.open()
	if err != nil {
		return 0, err
	}
	defer db.Close()

	var n int
	if err := db.QueryRow(sqlCountItems).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Timespan returns the earliest and latest stored timestamps.
func (f *SQLFeed) Timespan() (time.Time, time.Time, error) {
	db, err := f.open()
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	defer db.Close()

	var minDate, maxDate sql.NullString
	if err := db.QueryRow(sqlSelectTimespan).Scan(&minDate, &maxDate); err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !minDate.Valid || !maxDate.Valid {
		return time.Time{}, time.Time{}, fmt.Errorf("feed: database %s holds no prices", f.dbFile)
	}
	start, err := time.Parse(sqlTimeLayout, minDate.String)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := time.Parse(sqlTimeLayout, maxDate.String)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// Record plays the source feed and stores all items of the configured price
// kind. Items of other kinds are skipped.
func (f *SQLFeed) Record(ctx context.Context, source Feed) error {
	db, err := f.open()
	if err != nil {
		return err
	}
	defer db.Close()

	createStmt := sqlCreateBarTable
	if f.kind == KindQuote {
		createStmt = sqlCreateQuoteTable
	}
	if _, err := db.Exec(createStmt); err != nil {
		return fmt.Errorf("creating prices table: %w", err)
	}

	// The transaction must survive ctx cancellation so an interrupted
	// recording still commits what it collected.
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	channel := PlayBackground(ctx, source, 100)
	for {
		evt, ok := channel.Get(0)
		if !ok {
			break
		}
		date := evt.Time.UTC().Format(sqlTimeLayout)
		for _, item := range evt.Items {
			switch v := item.(type) {
			case domain.Bar:
				if f.kind != KindBar {
					continue
				}
				if _, err := tx.Exec(sqlInsertBar,
					date, v.Sym, v.Open, v.High, v.Low, v.Close, v.Vol, v.Frequency); err != nil {
					return fmt.Errorf("inserting bar: %w", err)
				}
			case domain.Quote:
				if f.kind != KindQuote {
					continue
				}
				if _, err := tx.Exec(sqlInsertQuote,
					date, v.Sym, v.AskPrice, v.AskSize, v.BidPrice, v.BidSize); err != nil {
					return fmt.Errorf("inserting quote: %w", err)
				}
			}
		}
	}
	return tx.Commit()
}

// Play replays the stored prices in ascending time order, grouping rows that
// share a timestamp into a single event.
func (f *SQLFeed) Play(ctx context.Context, channel *EventChannel) error {
	db, err := f.open()
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, sqlSelectAll)
	if err != nil {
		return err
	}
	defer rows.Close()

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

	for rows.Next() {
		var dateStr string
		var item domain.PriceItem

		if f.kind == KindBar {
			var b domain.Bar
			if err := rows.Scan(&dateStr, &b.Sym, &b.Open, &b.High, &b.Low, &b.Close, &b.Vol, &b.Frequency); err != nil {
				return err
			}
			item = b
		} else {
			var q domain.Quote
			if err := rows.Scan(&dateStr, &q.Sym, &q.AskPrice, &q.AskSize, &q.BidPrice, &q.BidSize); err != nil {
				return err
			}
			item = q
		}

		t, err := time.Parse(sqlTimeLayout, dateStr)
		if err != nil {
			return fmt.Errorf("parsing stored date %q: %w", dateStr, err)
		}
		if !t.Equal(evtTime) {
			if err := flush(); err != nil {
				return err
			}
			evtTime = t
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return flush()
}
