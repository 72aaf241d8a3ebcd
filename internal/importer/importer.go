package importer

import (
	"errors"
	"io"

	"github.com/MrJamesThe3rd/cartera/internal/client"
)

// ErrInvalidFile wraps every failure to read an uploaded file.
var ErrInvalidFile = errors.New("invalid import file")

type Format string

const (
	FormatCSV Format = "csv"
)

type Importer interface {
	Parse(r io.Reader) ([]client.CreateParams, error)
}

// Skipped is a parsed row that did not become a client.
type Skipped struct {
	// Row is the 1-based position among parsed entries.
	Row    int
	Name   string
	Reason string
}

type Result struct {
	Charset string
	Created []*client.Client
	Skipped []Skipped
}
