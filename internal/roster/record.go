package roster

import "strings"

const (
	FieldName         = "name"
	FieldEmployment   = "employment"
	FieldBoardService = "board_service"
)

// Record is a single roster entry. Its identity is its position in the
// uploaded sequence; Name is only a display key and may repeat.
type Record struct {
	Name         string `json:"name" mapstructure:"name"`
	Employment   string `json:"employment" mapstructure:"employment"`
	BoardService string `json:"board_service" mapstructure:"board_service"`
}

// Text joins the non-empty text fields of the record with a single space.
// The name is included only when withName is set.
func (r Record) Text(withName bool) string {
	parts := make([]string, 0, 3)
	if withName {
		parts = append(parts, r.Name)
	}
	parts = append(parts, r.Employment, r.BoardService)

	var b strings.Builder
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(p)
	}
	return b.String()
}

// GetStringField returns the value of the named field or an empty string.
func (r Record) GetStringField(name string) string {
	switch name {
	case FieldName:
		return r.Name
	case FieldEmployment:
		return r.Employment
	case FieldBoardService:
		return r.BoardService
	default:
		return ""
	}
}
