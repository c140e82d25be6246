package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Document represents one processed upload in the registry.
type Document struct {
	ID            int64        `db:"id" json:"id"`
	Filename      string       `db:"filename" json:"filename"`
	FileType      string       `db:"file_type" json:"file_type"`
	ClientName    string       `db:"client_name" json:"client_name"`
	Language      string       `db:"language" json:"language"`
	Layout        Layout       `db:"layout" json:"layout"`
	PromptHistory PromptLedger `db:"prompt_history" json:"prompt_history"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
}

// Layout is the ordered list of column headers describing a document's
// dominant tabular structure. Two documents belong to the same layout group
// iff their layouts serialize identically, order included.
type Layout []string

// Serialize returns the canonical JSON form used as the layout group key.
func (l Layout) Serialize() string {
	if l == nil {
		l = Layout{}
	}
	b, _ := json.Marshal(l)
	return string(b)
}

// Value implements driver.Valuer, storing the layout as JSON text.
func (l Layout) Value() (driver.Value, error) {
	return l.Serialize(), nil
}

// Scan implements sql.Scanner.
func (l *Layout) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = Layout{}
		return nil
	case []byte:
		return l.decode(v)
	case string:
		return l.decode([]byte(v))
	default:
		return fmt.Errorf("layout: cannot scan %T", src)
	}
}

func (l *Layout) decode(b []byte) error {
	if len(b) == 0 {
		*l = Layout{}
		return nil
	}
	var cols []string
	if err := json.Unmarshal(b, &cols); err != nil {
		return fmt.Errorf("layout: decoding %q: %w", string(b), err)
	}
	*l = cols
	return nil
}

// Metadata holds the coarse document properties detected during processing.
type Metadata struct {
	FileType   string `json:"file_type"`
	Language   string `json:"language"`
	ClientName string `json:"client_name"`
	Layout     Layout `json:"layout"`
}
