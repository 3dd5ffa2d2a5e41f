package services

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/ggbackup/internal/core/domain"
	"github.com/custodia-labs/ggbackup/internal/logger"
)

// Output filenames.
const (
	membershipSuffix = "-membership.csv"
	settingsFilename = "settings.csv"
)

// ExportOptions configures an Exporter.
type ExportOptions struct {
	// Datestamp inserts the ISO-8601 date before each file extension.
	Datestamp bool
	// Date is the date used for stamping. Zero means today.
	Date time.Time
}

// Exporter writes a finished registry to CSV files. It never mutates the registry.
type Exporter struct {
	dir       string
	registry  *domain.Registry
	datestamp string
}

// NewExporter creates an exporter writing into dir, creating it if needed.
// It fails if dir exists and is not a directory.
func NewExporter(dir string, registry *domain.Registry, opts ExportOptions) (*Exporter, error) {
	info, err := os.Stat(dir)
	switch {
	case err == nil && !info.IsDir():
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrWrite, dir, domain.ErrNotDirectory)
	case errors.Is(err, os.ErrNotExist):
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: creating %s: %w", domain.ErrWrite, dir, err)
		}
	case err != nil:
		return nil, fmt.Errorf("%w: %w", domain.ErrWrite, err)
	}

	e := &Exporter{dir: dir, registry: registry}
	if opts.Datestamp {
		date := opts.Date
		if date.IsZero() {
			date = time.Now()
		}
		e.datestamp = date.Format(time.DateOnly)
	}
	return e, nil
}

// Dir returns the output directory.
func (e *Exporter) Dir() string {
	return e.dir
}

// Filename applies the datestamp, if enabled, to a base filename.
// "foo-membership.csv" becomes "foo-membership2024-01-15.csv".
func (e *Exporter) Filename(name string) string {
	if e.datestamp == "" {
		return name
	}
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + e.datestamp + ext
}

// WriteMemberships writes one membership file per group. A group without
// members gets a header-only file. A failed file is logged and the
// remaining groups are still written.
func (e *Exporter) WriteMemberships() error {
	var errs []error
	for _, group := range e.registry.Groups() {
		path := filepath.Join(e.dir, e.Filename(group.Email()+membershipSuffix))
		logger.Debug("Writing %s...", path)

		rows := make([][]string, 0, len(group.Members))
		for _, m := range group.Members {
			rows = append(rows, m.Row())
		}

		if err := writeCSV(path, domain.MemberColumns, rows); err != nil {
			logger.WithField("group", group.Email()).Warnf("Could not write membership: %v", err)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: membership: %w", domain.ErrWrite, errors.Join(errs...))
	}
	return nil
}

// WriteSettings writes the consolidated settings file with one row per group.
func (e *Exporter) WriteSettings() error {
	path := filepath.Join(e.dir, e.Filename(settingsFilename))
	logger.Debug("Writing %s...", path)

	columns := SettingsColumns(e.registry)
	groups := e.registry.Groups()
	rows := make([][]string, 0, len(groups))
	for _, group := range groups {
		row := make([]string, len(columns))
		for i, col := range columns {
			row[i] = formatCell(col, group.Fields[col])
		}
		rows = append(rows, row)
	}

	if err := writeCSV(path, columns, rows); err != nil {
		return fmt.Errorf("%w: settings: %w", domain.ErrWrite, err)
	}
	return nil
}

// SettingsColumns returns the settings header: "email" followed by every
// other key present on any group, sorted. Membership is excluded.
func SettingsColumns(registry *domain.Registry) []string {
	seen := make(map[string]struct{})
	for _, group := range registry.Groups() {
		for key := range group.Fields {
			seen[key] = struct{}{}
		}
	}
	delete(seen, domain.FieldMembers)
	delete(seen, domain.FieldEmail)

	columns := make([]string, 0, len(seen)+1)
	for key := range seen {
		columns = append(columns, key)
	}
	sort.Strings(columns)
	return append([]string{domain.FieldEmail}, columns...)
}

// formatCell renders one record value as a CSV cell. Absent values are empty.
func formatCell(key string, value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case []string:
		if key == domain.FieldAliases {
			return strings.Join(v, ",")
		}
	case []any:
		if key == domain.FieldAliases {
			parts := make([]string, len(v))
			for i, item := range v {
				parts[i] = fmt.Sprint(item)
			}
			return strings.Join(parts, ",")
		}
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprint(value)
	}
	return string(data)
}

// writeCSV writes one complete file: header then rows, CRLF-terminated.
func writeCSV(path string, header []string, rows [][]string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	w := csv.NewWriter(f)
	w.UseCRLF = true
	if err := w.Write(header); err != nil {
		return err
	}
	return w.WriteAll(rows)
}
