package database

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
)

// Timestamp scans time values that SQLite returns as text, which happens
// for aggregates such as MAX(loaned_at) where the column type is lost.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v.UTC()
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	default:
		return fmt.Errorf("cannot scan %T into Timestamp", value)
	}
}

func (t Timestamp) Value() (driver.Value, error) {
	if t.IsZero() {
		return nil, nil
	}
	return t.Time.UTC(), nil
}

// GormDataType lets gorm map the field to a column.
func (Timestamp) GormDataType() string {
	return "datetime"
}

func (t *Timestamp) parse(s string) error {
	s = strings.TrimSuffix(strings.TrimSpace(s), "Z")
	for _, layout := range sqlite3.SQLiteTimestampFormats {
		if parsed, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", s)
}

// FormatTime renders t the way the SQLite driver stores bound time values,
// so it compares correctly against stored columns inside literal SQL.
func FormatTime(t time.Time) string {
	return t.UTC().Format(sqlite3.SQLiteTimestampFormats[0])
}
