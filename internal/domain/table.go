package domain

import "regexp"

var tableCodePattern = regexp.MustCompile(`^table-(\d+)$`)

// TableSession binds a session to a physical table after a QR scan. It is
// only cleared explicitly.
type TableSession struct {
	TableNumber *string `json:"tableNumber,omitempty"`
}

// ParseTableCode extracts the table identifier from decoded QR text. The
// digits are kept as scanned, so "table-007" yields "007".
func ParseTableCode(text string) (string, error) {
	m := tableCodePattern.FindStringSubmatch(text)
	if m == nil {
		return "", ErrInvalidTableCode
	}
	return m[1], nil
}

// BindFromScan leaves the current binding untouched when text is not a
// table code.
func (t *TableSession) BindFromScan(text string) (string, error) {
	n, err := ParseTableCode(text)
	if err != nil {
		return "", err
	}
	t.TableNumber = &n
	return n, nil
}

func (t TableSession) HasActiveTable() bool {
	return t.TableNumber != nil
}

func (t TableSession) Number() (string, bool) {
	if t.TableNumber == nil {
		return "", false
	}
	return *t.TableNumber, true
}

func (t *TableSession) Clear() {
	t.TableNumber = nil
}
