package handlers

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ersonp/kin-core/internal/domain/ports"
	"github.com/ersonp/kin-core/internal/infrastructure/config"
)

// OpenDBFunc opens the family database stored at path.
type OpenDBFunc func(path string) (ports.RelationalDB, error)

// FamilyHandler manages the registry of family databases.
type FamilyHandler struct {
	basePath string
	open     OpenDBFunc
}

// NewFamilyHandler creates a new FamilyHandler rooted at basePath.
func NewFamilyHandler(basePath string, open OpenDBFunc) *FamilyHandler {
	return &FamilyHandler{basePath: basePath, open: open}
}

// FamilyInfo describes a registered family.
type FamilyInfo struct {
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	DatabasePath string `json:"databasePath"`
}

// HandleCreate registers a family and creates its database schema.
func (h *FamilyHandler) HandleCreate(ctx context.Context, name, description string) (*FamilyInfo, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidInput("family name is required")
	}

	families, err := config.LoadFamilies(h.basePath)
	if err != nil {
		return nil, err
	}
	if families.Exists(name) {
		return nil, fmt.Errorf("family %q already exists", name)
	}
	sanitized := config.SanitizeFamilyName(name)
	for _, other := range families.Names() {
		if config.SanitizeFamilyName(other) == sanitized {
			return nil, fmt.Errorf("family %q would share a database with %q", name, other)
		}
	}

	if err := os.MkdirAll(config.FamilyDir(h.basePath, name), 0755); err != nil {
		return nil, fmt.Errorf("creating family directory: %w", err)
	}
	path := config.SQLitePathForFamily(h.basePath, name)
	db, err := h.open(path)
	if err != nil {
		return nil, fmt.Errorf("opening family database: %w", err)
	}
	defer db.Close()
	if err := db.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	families.Add(name, config.FamilyEntry{Description: description})
	if err := families.Save(h.basePath); err != nil {
		return nil, err
	}
	return &FamilyInfo{Name: name, Description: description, DatabasePath: path}, nil
}

// HandleList returns every registered family in name order.
func (h *FamilyHandler) HandleList() ([]FamilyInfo, error) {
	families, err := config.LoadFamilies(h.basePath)
	if err != nil {
		return nil, err
	}
	out := make([]FamilyInfo, 0, len(families.Families))
	for _, name := range families.Names() {
		out = append(out, FamilyInfo{
			Name:         name,
			Description:  families.Families[name].Description,
			DatabasePath: config.SQLitePathForFamily(h.basePath, name),
		})
	}
	return out, nil
}

// HandleDelete unregisters a family and removes its database.
func (h *FamilyHandler) HandleDelete(name string) error {
	families, err := config.LoadFamilies(h.basePath)
	if err != nil {
		return err
	}
	if _, err := families.Get(name); err != nil {
		return err
	}
	if err := os.RemoveAll(config.FamilyDir(h.basePath, name)); err != nil {
		return fmt.Errorf("removing family directory: %w", err)
	}
	families.Remove(name)
	return families.Save(h.basePath)
}
