package money

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// ecbHistURL is the daily euro foreign exchange reference rates published by
// the European Central Bank.
const ecbHistURL = "https://www.ecb.europa.eu/stats/eurofxref/eurofxref-hist.zip"

const ecbFileName = "eurofxref-hist.csv"

// ECB rows carry a date only; the reference rates are fixed around 16:00 CET,
// recorded here as 15:00 UTC.
const ecbRateHour = 15

// ECBConversion builds a HistoricalConversion from the ECB euro reference
// rate history. The rate file is cached in cacheDir and re-downloaded when
// older than 12 hours. Pass forceDownload to refresh regardless of age.
func ECBConversion(cacheDir string, forceDownload bool) (*HistoricalConversion, error) {
	path := filepath.Join(cacheDir, ecbFileName)
	if forceDownload || !ecbFileFresh(path) {
		if err := downloadECBRates(cacheDir); err != nil {
			return nil, err
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening ECB rate file: %w", err)
	}
	defer f.Close()

	return ParseECBRates(f)
}

// ecbFileFresh reports whether the cached rate file exists and was modified
// less than 12 hours ago.
func ecbFileFresh(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) < 12*time.Hour
}

// downloadECBRates fetches the zipped rate history and extracts the CSV file
// into cacheDir.
func downloadECBRates(cacheDir string) error {
	slog.Info("downloading ECB exchange rate history", "url", ecbHistURL)

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(ecbHistURL)
	if err != nil {
		return fmt.Errorf("downloading ECB rates: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("downloading ECB rates: unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading ECB response: %w", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return fmt.Errorf("opening ECB zip archive: %w", err)
	}

	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return err
	}

	for _, zf := range zr.File {
		if zf.Name != ecbFileName {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return fmt.Errorf("extracting %s: %w", zf.Name, err)
		}
		defer rc.Close()

		out, err := os.Create(filepath.Join(cacheDir, ecbFileName))
		if err != nil {
			return err
		}
		defer out.Close()

		if _, err := io.Copy(out, rc); err != nil {
			return fmt.Errorf("writing %s: %w", ecbFileName, err)
		}
		return nil
	}
	return fmt.Errorf("ECB archive does not contain %s", ecbFileName)
}

// ParseECBRates parses the ECB eurofxref-hist CSV format into a
// HistoricalConversion with EUR as the base currency. The first column of
// each row is the date, the remaining columns follow the currency order of
// the header; empty and "N/A" cells are skipped.
func ParseECBRates(r io.Reader) (*HistoricalConversion, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading ECB header: %w", err)
	}

	currencies := make([]Currency, len(header))
	for i, name := range header {
		currencies[i] = Currency(name)
	}

	conv := NewHistoricalConversion(EUR)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading ECB row: %w", err)
		}
		if len(row) == 0 {
			continue
		}
		date, err := time.Parse("2006-01-02", row[0])
		if err != nil {
			continue
		}
		at := date.Add(ecbRateHour * time.Hour)
		for i := 1; i < len(row) && i < len(currencies); i++ {
			if rate, ok := parseECBRate(row[i]); ok {
				conv.AddRate(currencies[i], at, rate)
			}
		}
	}
	return conv, nil
}

func parseECBRate(s string) (float64, bool) {
	if s == "" || s == "N/A" {
		return 0, false
	}
	var v float64
	if _, err := fmt.Sscanf(s, "%g", &v); err != nil {
		return 0, false
	}
	return v, true
}
