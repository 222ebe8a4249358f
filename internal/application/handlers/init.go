package handlers

import (
	"context"
	"fmt"

	"github.com/ersonp/kin-core/internal/infrastructure/config"
)

// DefaultFamily is the family created by init when none is named.
const DefaultFamily = "default"

// InitHandler handles workspace initialization.
type InitHandler struct {
	families *FamilyHandler
}

// NewInitHandler creates a new init handler.
func NewInitHandler(families *FamilyHandler) *InitHandler {
	return &InitHandler{families: families}
}

// InitResult contains the result of initialization.
type InitResult struct {
	ConfigPath string
	Family     *FamilyInfo
}

// Handle writes the default config and creates the first family.
func (h *InitHandler) Handle(ctx context.Context, family string) (*InitResult, error) {
	basePath := h.families.basePath
	if config.Exists(basePath) {
		return nil, fmt.Errorf("kin already initialized in %s", basePath)
	}
	if family == "" {
		family = DefaultFamily
	}

	if err := config.WriteDefault(basePath); err != nil {
		return nil, fmt.Errorf("writing default config: %w", err)
	}
	if _, err := config.Load(basePath); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	info, err := h.families.HandleCreate(ctx, family, "")
	if err != nil {
		return nil, err
	}
	return &InitResult{
		ConfigPath: config.ConfigFilePath(basePath),
		Family:     info,
	}, nil
}
