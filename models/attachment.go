package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type Attachment struct {
	Name       string     `json:"name"`
	Path       string     `json:"path"`
	URL        string     `json:"url"`
	Size       int64      `json:"size"`
	MimeType   string     `json:"mime_type,omitempty"`
	UploadedAt *time.Time `json:"uploaded_at,omitempty"`
}

// Attachments is stored as a JSON array in the attachments column.
type Attachments []Attachment

func (a Attachments) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}

	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}

	return string(b), nil
}

func (a *Attachments) Scan(value any) error {
	var raw []byte

	switch v := value.(type) {
	case nil:
		*a = Attachments{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("Unsupported attachments type %T.", value)
	}

	if len(raw) < 1 || string(raw) == "null" {
		*a = Attachments{}
		return nil
	}

	list := Attachments{}
	if err := json.Unmarshal(raw, &list); err != nil {
		return errors.Join(errors.New("Could not decode attachments."), err)
	}

	*a = list

	return nil
}

func (Attachments) GormDataType() string {
	return "jsonb"
}

func (a Attachments) Paths() []string {
	paths := make([]string, 0, len(a))

	for _, f := range a {
		if len(f.Path) > 0 {
			paths = append(paths, f.Path)
		}
	}

	return paths
}

// Without returns a copy of the list minus the element at index i.
func (a Attachments) Without(i int) Attachments {
	list := make(Attachments, 0, len(a))

	for k, f := range a {
		if k != i {
			list = append(list, f)
		}
	}

	return list
}

func (a Attachments) TotalSize() int64 {
	var total int64

	for _, f := range a {
		total += f.Size
	}

	return total
}
