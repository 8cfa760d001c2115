package rules

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"eicr-case-reader/internal/domain"
)

func TestDefault(t *testing.T) {
	rs := Default()

	if rs.Version == "" {
		t.Error("Expected default rule set to carry a version")
	}
	if got := len(rs.ExpectedKinds()); got != len(domain.KnownSectionKinds) {
		t.Errorf("Expected %d expected kinds, got %d", len(domain.KnownSectionKinds), got)
	}
	if rs.TableFor(domain.SectionLabResult) == nil {
		t.Error("Expected a table rule for the lab result kind")
	}
	if rs.TableFor(domain.SectionPatient) != nil {
		t.Error("Expected no table rule for the patient kind")
	}
	if len(rs.FieldsFor(domain.SectionPatient)) == 0 {
		t.Error("Expected field rules for the patient kind")
	}
	if rs.DocumentID == nil {
		t.Fatal("Expected a document id rule")
	}
	if id, ok := rs.DocumentID.Find("eICR ID: 2024-WA-000123\nPatient Name: Jane Doe"); !ok || id != "2024-WA-000123" {
		t.Errorf("Expected document id 2024-WA-000123, got %q (ok=%v)", id, ok)
	}
}

func TestRuleSet_MatchHeading(t *testing.T) {
	rs := &RuleSet{
		Version: "test",
		Headings: []HeadingRule{
			{Kind: domain.SectionLabResult, Literals: []string{"LAB", "LAB RESULTS"}},
			{Kind: domain.SectionPatient, Literals: []string{"PATIENT INFORMATION"}},
		},
	}
	if err := rs.compile(); err != nil {
		t.Fatalf("Failed to compile rule set: %v", err)
	}

	tests := []struct {
		name     string
		line     string
		wantKind domain.SectionKind
		wantOK   bool
	}{
		{
			name:     "Exact literal",
			line:     "PATIENT INFORMATION",
			wantKind: domain.SectionPatient,
			wantOK:   true,
		},
		{
			name:     "Case insensitive with trailing colon",
			line:     "Patient Information:",
			wantKind: domain.SectionPatient,
			wantOK:   true,
		},
		{
			name:     "Collapsed whitespace",
			line:     "  PATIENT    INFORMATION  ",
			wantKind: domain.SectionPatient,
			wantOK:   true,
		},
		{
			// Both LAB and LAB RESULTS match; the longer literal decides.
			name:     "Longest literal wins",
			line:     "LAB RESULTS",
			wantKind: domain.SectionLabResult,
			wantOK:   true,
		},
		{
			name:     "Literal followed by qualifier",
			line:     "LAB RESULTS - FINAL",
			wantKind: domain.SectionLabResult,
			wantOK:   true,
		},
		{
			name:   "Body line",
			line:   "Patient Name: Jane Doe",
			wantOK: false,
		},
		{
			name:   "Blank line",
			line:   "   ",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, ok := rs.MatchHeading(tt.line)
			if ok != tt.wantOK {
				t.Errorf("MatchHeading(%q) ok = %v, want %v", tt.line, ok, tt.wantOK)
				return
			}
			if ok && kind != tt.wantKind {
				t.Errorf("MatchHeading(%q) kind = %q, want %q", tt.line, kind, tt.wantKind)
			}
		})
	}
}

func TestFieldRule_FindAnchor(t *testing.T) {
	rule := FieldRule{
		Field:      "conditions.description",
		Kind:       domain.SectionCondition,
		Anchors:    []string{"Condition Name", "Condition"},
		Normalizer: NormalizerString,
	}
	if err := rule.compile(); err != nil {
		t.Fatalf("Failed to compile rule: %v", err)
	}

	tests := []struct {
		name     string
		line     string
		wantRest string
		wantOK   bool
	}{
		{
			name:     "Colon separator",
			line:     "Condition: Influenza A",
			wantRest: "Influenza A",
			wantOK:   true,
		},
		{
			name:     "Column gap separator",
			line:     "Condition Name    Pertussis",
			wantRest: "Pertussis",
			wantOK:   true,
		},
		{
			name:     "Anchor alone on line",
			line:     "Condition:",
			wantRest: "",
			wantOK:   true,
		},
		{
			// "Condition" must not anchor inside a longer label.
			name:   "Longer label is not anchored",
			line:   "Condition Code: 840539006",
			wantOK: false,
		},
		{
			name:   "No anchor",
			line:   "Onset Date: 2024-03-01",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rest, ok := rule.FindAnchor(tt.line)
			if ok != tt.wantOK {
				t.Errorf("FindAnchor(%q) ok = %v, want %v", tt.line, ok, tt.wantOK)
				return
			}
			if ok && rest != tt.wantRest {
				t.Errorf("FindAnchor(%q) rest = %q, want %q", tt.line, rest, tt.wantRest)
			}
		})
	}
}

func TestFieldRule_ExtractValue(t *testing.T) {
	withGroup := FieldRule{
		Field:      "patient.birthDate",
		Kind:       domain.SectionPatient,
		Anchors:    []string{"DOB"},
		Value:      `(\d{2}/\d{2}/\d{4})`,
		Normalizer: NormalizerDate,
	}
	if err := withGroup.compile(); err != nil {
		t.Fatalf("Failed to compile rule: %v", err)
	}

	if v, ok := withGroup.ExtractValue("03/12/1984 (age 40)"); !ok || v != "03/12/1984" {
		t.Errorf("Expected captured date 03/12/1984, got %q (ok=%v)", v, ok)
	}
	if _, ok := withGroup.ExtractValue("unknown"); ok {
		t.Error("Expected value extraction to fail on non-matching text")
	}

	defaulted := FieldRule{
		Field:      "patient.name",
		Kind:       domain.SectionPatient,
		Anchors:    []string{"Patient Name"},
		Normalizer: NormalizerString,
	}
	if err := defaulted.compile(); err != nil {
		t.Fatalf("Failed to compile rule: %v", err)
	}
	if v, ok := defaulted.ExtractValue("Jane Doe"); !ok || v != "Jane Doe" {
		t.Errorf("Expected default pattern to capture whole text, got %q (ok=%v)", v, ok)
	}
	if _, ok := defaulted.ExtractValue(""); ok {
		t.Error("Expected default pattern to fail on empty text")
	}
}

func TestTableRule_Columns(t *testing.T) {
	rs := Default()
	table := rs.TableFor(domain.SectionLabResult)
	if table == nil {
		t.Fatal("Expected a lab result table rule")
	}

	col, ok := table.ColumnFor("Test Name")
	if !ok || col.Field != "labResults.testName" {
		t.Errorf("Expected Test Name column to map to labResults.testName, got %+v (ok=%v)", col, ok)
	}
	col, ok = table.ColumnFor("  Reference Range ")
	if !ok || col.Field != "labResults.referenceRange" {
		t.Errorf("Expected Reference Range column to map to labResults.referenceRange, got %+v (ok=%v)", col, ok)
	}
	if _, ok := table.ColumnFor("Comments"); ok {
		t.Error("Expected unmapped header cell to have no column")
	}

	if !table.IsStop("End of Results") {
		t.Error("Expected stop literal to end the table")
	}
	if table.IsStop("SARS-CoV-2 RNA") {
		t.Error("Expected body row not to be a stop line")
	}
}

func TestFromJSON(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantErr bool
	}{
		{
			name: "Valid rule set",
			json: `{
				"version": "custom-1",
				"headings": [{"kind": "patient", "literals": ["SUBJECT"]}],
				"fields": [{"field": "patient.name", "kind": "patient", "anchors": ["Subject Name"], "normalizer": "string"}]
			}`,
			wantErr: false,
		},
		{
			name:    "Missing headings",
			json:    `{"version": "custom-1"}`,
			wantErr: true,
		},
		{
			name: "Unknown kind",
			json: `{
				"version": "custom-1",
				"headings": [{"kind": "subject", "literals": ["SUBJECT"]}]
			}`,
			wantErr: true,
		},
		{
			name: "Unknown normalizer",
			json: `{
				"version": "custom-1",
				"headings": [{"kind": "patient", "literals": ["SUBJECT"]}],
				"fields": [{"field": "patient.name", "kind": "patient", "anchors": ["Subject"], "normalizer": "lowercase"}]
			}`,
			wantErr: true,
		},
		{
			name: "Bad value regex",
			json: `{
				"version": "custom-1",
				"headings": [{"kind": "patient", "literals": ["SUBJECT"]}],
				"fields": [{"field": "patient.name", "kind": "patient", "anchors": ["Subject"], "value": "(", "normalizer": "string"}]
			}`,
			wantErr: true,
		},
		{
			name:    "Not JSON",
			json:    `version: custom`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs, err := FromJSON([]byte(tt.json))
			if (err != nil) != tt.wantErr {
				t.Errorf("FromJSON() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				if !errors.Is(err, domain.ErrRuleSetInvalid) {
					t.Errorf("Expected ErrRuleSetInvalid, got %v", err)
				}
				return
			}
			if rs.Version != "custom-1" {
				t.Errorf("Expected version custom-1, got %q", rs.Version)
			}
			if kind, ok := rs.MatchHeading("SUBJECT"); !ok || kind != domain.SectionPatient {
				t.Errorf("Expected SUBJECT heading to map to patient, got %q (ok=%v)", kind, ok)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.json")
	content := `{
		"version": "file-1",
		"headings": [{"kind": "labResult", "literals": ["RESULTS"]}],
		"tables": [{"kind": "labResult", "columns": [{"match": "(?i)^test", "field": "labResults.testName", "normalizer": "string"}]}]
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write rules file: %v", err)
	}

	rs, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if rs.Version != "file-1" {
		t.Errorf("Expected version file-1, got %q", rs.Version)
	}
	if rs.TableFor(domain.SectionLabResult) == nil {
		t.Error("Expected loaded table rule for lab results")
	}

	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("Expected error for missing rules file")
	}
}
