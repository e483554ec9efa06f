package report

import (
	"encoding/json"
	"strings"
)

// AddNewSentinel is the option value older editors send for "+Add New".
const AddNewSentinel = "[+Add New]"

// Selection is a reference to a buyer, broker or province. It is either an
// existing entity (ID and/or Name) or a request to create one (Create).
type Selection struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	Create bool   `json:"create,omitempty"`
}

func Existing(id string, name string) Selection {
	return Selection{ID: id, Name: name}
}

func Named(name string) Selection {
	return Selection{Name: name}
}

func CreateNew(name string) Selection {
	return Selection{Name: name, Create: true}
}

// Pending reports whether the selection still needs its entity created.
func (s Selection) Pending() bool {
	return s.Create
}

func (s Selection) IsZero() bool {
	return s.ID == "" && strings.TrimSpace(s.Name) == "" && !s.Create
}

func (s *Selection) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		*s = selectionFromName(plain)
		return nil
	}

	type rawSelection Selection
	var raw rawSelection
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if strings.TrimSpace(raw.Name) == AddNewSentinel {
		raw.Name = ""
		raw.Create = true
	}
	*s = Selection(raw)
	return nil
}

func selectionFromName(name string) Selection {
	if strings.TrimSpace(name) == AddNewSentinel {
		return CreateNew("")
	}
	return Named(name)
}
