// Package csvclient reads client lists exported from spreadsheets or phone
// contacts.
package csvclient

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/MrJamesThe3rd/cartera/internal/client"
	enc "github.com/MrJamesThe3rd/cartera/internal/encoding"
)

// Parser auto-detects encoding, delimiter and column layout.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader) ([]client.CreateParams, error) {
	utf8r, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	data, err := io.ReadAll(utf8r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = detectDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	profile, cols, headerIdx := detectProfile(rows)
	if profile == nil {
		return nil, fmt.Errorf("no matching client list format found: expected columns Nombre;Teléfono;Correo")
	}

	return parseRows(profile, cols, rows[headerIdx+1:], headerIdx+1)
}

// detectDelimiter picks ';' (Excel with Spanish locale) unless the first
// line has more commas.
func detectDelimiter(data []byte) rune {
	line, _, _ := bytes.Cut(data, []byte("\n"))

	if bytes.Count(line, []byte(",")) > bytes.Count(line, []byte(";")) {
		return ','
	}

	return ';'
}

type colIndex map[string]int

func detectProfile(rows [][]string) (*Profile, colIndex, int) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			name := strings.ToLower(strings.TrimSpace(cell))
			if name != "" {
				cols[name] = i
			}
		}

		for i := range profiles {
			if matchesProfile(&profiles[i], cols) {
				return &profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

func matchesProfile(p *Profile, cols colIndex) bool {
	for _, name := range p.requiredCols() {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

// headerRowNum is the 0-based index of the header in the original file (for error messages).
func parseRows(p *Profile, cols colIndex, rows [][]string, headerRowNum int) ([]client.CreateParams, error) {
	nameIdx := cols[p.NameCol]
	phoneIdx := cols[p.PhoneCol]

	emailIdx := -1
	if i, ok := cols[p.EmailCol]; ok {
		emailIdx = i
	}

	var out []client.CreateParams

	for i, row := range rows {
		rowNum := headerRowNum + i + 1

		name := cellValue(row, nameIdx)
		phone := cellValue(row, phoneIdx)
		email := cellValue(row, emailIdx)

		if name == "" && phone == "" && email == "" {
			continue
		}

		if name == "" {
			return nil, fmt.Errorf("row %d: missing name", rowNum)
		}

		out = append(out, client.CreateParams{
			Name:  name,
			Phone: stripFormulaQuotes(phone),
			Email: email,
		})
	}

	return out, nil
}

// stripFormulaQuotes undoes Excel's ="0300..." trick for keeping leading
// zeros in phone numbers.
func stripFormulaQuotes(s string) string {
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) {
		return s[2 : len(s)-1]
	}

	return s
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
