// Package lookups loads the reference tables (violations, incident types, equipment
// damage, document types) that saga requests are validated against.
package lookups

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"fleetevents/internal/bootstrap/logging"
	"fleetevents/internal/ports"
)

type catalogEntry struct {
	ID          uint64 `toml:"id"`
	Code        string `toml:"code"`
	Description string `toml:"description"`
}

type Catalog struct {
	Version          int            `toml:"version"`
	Violations       []catalogEntry `toml:"violations"`
	IncidentTypes    []catalogEntry `toml:"incident_types"`
	EquipmentDamages []catalogEntry `toml:"equipment_damages"`
	DocumentTypes    []catalogEntry `toml:"document_types"`
}

func LoadCatalog(catalogFile string) (Catalog, error) {
	path := strings.TrimSpace(catalogFile)
	if path == "" {
		return Catalog{}, errors.New("catalog file is required")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, err
	}

	var catalog Catalog
	if err := toml.Unmarshal(raw, &catalog); err != nil {
		return Catalog{}, err
	}
	if err := catalog.validate(); err != nil {
		return Catalog{}, err
	}
	return catalog, nil
}

func (c Catalog) validate() error {
	if c.Version != 1 {
		return errors.New("unsupported catalog version: expected version = 1")
	}
	for table, entries := range c.tables() {
		seen := make(map[uint64]struct{}, len(entries))
		for _, entry := range entries {
			if entry.ID == 0 || strings.TrimSpace(entry.Code) == "" {
				return fmt.Errorf("%s: every entry needs id and code", table)
			}
			if _, dup := seen[entry.ID]; dup {
				return fmt.Errorf("%s: duplicate id %d", table, entry.ID)
			}
			seen[entry.ID] = struct{}{}
		}
	}
	return nil
}

func (c Catalog) tables() map[ports.LookupTable][]ports.LookupEntry {
	convert := func(entries []catalogEntry) []ports.LookupEntry {
		out := make([]ports.LookupEntry, 0, len(entries))
		for _, e := range entries {
			out = append(out, ports.LookupEntry{ID: e.ID, Code: e.Code, Description: e.Description})
		}
		return out
	}
	return map[ports.LookupTable][]ports.LookupEntry{
		ports.LookupViolations:       convert(c.Violations),
		ports.LookupIncidentTypes:    convert(c.IncidentTypes),
		ports.LookupEquipmentDamages: convert(c.EquipmentDamages),
		ports.LookupDocumentTypes:    convert(c.DocumentTypes),
	}
}

// Seed upserts the whole catalog in one transaction and reports rows per table.
func Seed(ctx context.Context, uow ports.UnitOfWork, repo ports.LookupRepository, catalog Catalog) (map[ports.LookupTable]int, error) {
	if err := catalog.validate(); err != nil {
		return nil, err
	}

	counts := make(map[ports.LookupTable]int)
	err := uow.WithTx(ctx, func(txCtx context.Context) error {
		for table, entries := range catalog.tables() {
			n, err := repo.UpsertLookups(txCtx, table, entries)
			if err != nil {
				return err
			}
			counts[table] = n
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for table, n := range counts {
		logging.Info(ctx, "lookup table seeded",
			slog.String("component", "lookups"),
			slog.String("table", string(table)),
			slog.Int("rows", n),
		)
	}
	return counts, nil
}
