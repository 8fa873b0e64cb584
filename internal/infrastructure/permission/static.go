// Package permission answers access questions from the role table in configuration.
package permission

import (
	"context"
	"fmt"
	"strings"

	"fleetevents/internal/ports"
)

// ModuleEvents is the module name checked before any event saga runs.
const ModuleEvents = "events"

var levels = map[string]ports.AccessLevel{
	"none":  ports.AccessNone,
	"read":  ports.AccessRead,
	"write": ports.AccessWrite,
	"admin": ports.AccessAdmin,
}

func ParseLevel(raw string) (ports.AccessLevel, error) {
	level, ok := levels[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return ports.AccessNone, fmt.Errorf("unknown access level %q", raw)
	}
	return level, nil
}

// Static grants a role the configured level per module; anything unlisted is none.
type Static struct {
	table map[string]map[string]ports.AccessLevel
}

var _ ports.PermissionChecker = (*Static)(nil)

func NewStatic(table map[string]map[string]string) (*Static, error) {
	parsed := make(map[string]map[string]ports.AccessLevel, len(table))
	for role, modules := range table {
		roleKey := strings.ToLower(strings.TrimSpace(role))
		parsed[roleKey] = make(map[string]ports.AccessLevel, len(modules))
		for module, raw := range modules {
			level, err := ParseLevel(raw)
			if err != nil {
				return nil, fmt.Errorf("permissions.%s.%s: %w", role, module, err)
			}
			parsed[roleKey][strings.ToLower(strings.TrimSpace(module))] = level
		}
	}
	return &Static{table: parsed}, nil
}

func (s *Static) HasAccess(ctx context.Context, roleID string, module string, required ports.AccessLevel) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	modules, ok := s.table[strings.ToLower(strings.TrimSpace(roleID))]
	if !ok {
		return false, nil
	}
	return modules[strings.ToLower(strings.TrimSpace(module))] >= required, nil
}
