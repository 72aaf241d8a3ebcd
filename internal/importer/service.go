package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/MrJamesThe3rd/cartera/internal/apperr"
	"github.com/MrJamesThe3rd/cartera/internal/client"
	enc "github.com/MrJamesThe3rd/cartera/internal/encoding"
	"github.com/MrJamesThe3rd/cartera/internal/importer/csvclient"
)

//go:generate mockgen -source=service.go -destination=clients_mock.go -package=importer
type ClientCreator interface {
	FindByPhone(ctx context.Context, phone string) (*client.Client, error)
	Create(ctx context.Context, params client.CreateParams) (*client.Client, error)
}

type Service struct {
	clients     ClientCreator
	csvImporter Importer
}

func NewService(clients ClientCreator) *Service {
	return &Service{
		clients:     clients,
		csvImporter: csvclient.NewParser(),
	}
}

// Parse decodes r without creating anything, for previews.
func (s *Service) Parse(format Format, r io.Reader) ([]client.CreateParams, string, error) {
	var importer Importer

	switch format {
	case FormatCSV:
		importer = s.csvImporter
	default:
		return nil, "", fmt.Errorf("%w: unknown format: %s", ErrInvalidFile, format)
	}

	utf8r, charset, err := enc.Detect(r)
	if err != nil {
		return nil, "", fmt.Errorf("detect encoding: %w", err)
	}

	rows, err := importer.Parse(utf8r)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}

	return rows, charset, nil
}

// Import creates a client per parsed row. Rows whose phone already belongs
// to a client, or repeats an earlier row, are skipped; so are rows the
// client service rejects. Any other error aborts the import.
func (s *Service) Import(ctx context.Context, format Format, r io.Reader) (*Result, error) {
	rows, charset, err := s.Parse(format, r)
	if err != nil {
		return nil, err
	}

	res := &Result{Charset: charset}
	seen := make(map[string]bool)

	for i, params := range rows {
		skip := func(reason string) {
			res.Skipped = append(res.Skipped, Skipped{Row: i + 1, Name: params.Name, Reason: reason})
		}

		phone := client.NormalizePhone(params.Phone)
		if phone != "" {
			if seen[phone] {
				skip(apperr.ReasonDuplicatePhone)
				continue
			}

			seen[phone] = true

			_, err := s.clients.FindByPhone(ctx, phone)
			switch {
			case err == nil:
				skip(apperr.ReasonDuplicatePhone)
				continue
			case !errors.Is(err, client.ErrNotFound):
				return nil, fmt.Errorf("row %d: looking up phone: %w", i+1, err)
			}
		}

		c, err := s.clients.Create(ctx, params)
		if err != nil {
			var verr *apperr.ValidationError
			if errors.As(err, &verr) {
				skip(verr.Reason)
				continue
			}

			return nil, fmt.Errorf("row %d: creating client: %w", i+1, err)
		}

		res.Created = append(res.Created, c)
	}

	slog.InfoContext(ctx, "clients imported",
		"charset", charset,
		"created", len(res.Created),
		"skipped", len(res.Skipped),
	)

	return res, nil
}
