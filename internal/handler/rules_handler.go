package handler

import (
	"net/http"

	"eicr-case-reader/internal/domain"
	"eicr-case-reader/internal/service"
)

// RulesHandler exposes a read-only view of the loaded extraction rules
type RulesHandler struct {
	engine *service.Engine
	logger domain.Logger
}

// NewRulesHandler creates a new rules handler
func NewRulesHandler(engine *service.Engine, logger domain.Logger) *RulesHandler {
	return &RulesHandler{engine: engine, logger: logger}
}

type rulesSummary struct {
	Version       string   `json:"version"`
	Headings      int      `json:"headings"`
	Fields        int      `json:"fields"`
	Tables        int      `json:"tables"`
	DocumentID    bool     `json:"documentId"`
	ExpectedKinds []string `json:"expectedKinds"`
}

// GetRules handles GET /rules: a summary of the rule set in effect.
func (h *RulesHandler) GetRules(w http.ResponseWriter, r *http.Request) {
	ruleSet := h.engine.Rules()

	kinds := ruleSet.ExpectedKinds()
	names := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		names = append(names, string(kind))
	}

	writeJSON(w, http.StatusOK, rulesSummary{
		Version:       ruleSet.Version,
		Headings:      len(ruleSet.Headings),
		Fields:        len(ruleSet.Fields),
		Tables:        len(ruleSet.Tables),
		DocumentID:    ruleSet.DocumentID != nil,
		ExpectedKinds: names,
	})
}
