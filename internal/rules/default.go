package rules

import "eicr-case-reader/internal/domain"

// Default returns the built-in rule set for initial case report PDFs
// rendered by the common EHR templates. Used when no rules file is
// configured.
func Default() *RuleSet {
	rs := &RuleSet{
		Version: "eicr-default-1",
		Headings: []HeadingRule{
			{Kind: domain.SectionPatient, Literals: []string{
				"PATIENT INFORMATION",
				"PATIENT DEMOGRAPHICS",
			}},
			{Kind: domain.SectionReporter, Literals: []string{
				"REPORTER INFORMATION",
				"REPORTING PROVIDER",
				"PROVIDER INFORMATION",
			}},
			{Kind: domain.SectionEncounter, Literals: []string{
				"ENCOUNTER INFORMATION",
				"ENCOUNTER DETAILS",
				"VISIT INFORMATION",
			}},
			{Kind: domain.SectionCondition, Literals: []string{
				"REPORTABLE CONDITIONS",
				"REPORTABLE CONDITION",
				"PROBLEM LIST",
			}},
			{Kind: domain.SectionLabResult, Literals: []string{
				"LABORATORY RESULTS",
				"LAB RESULTS",
				"LABORATORY DATA",
				"LABORATORY FINDINGS",
			}},
		},
		Fields: []FieldRule{
			{Field: "patient.name", Kind: domain.SectionPatient,
				Anchors: []string{"Patient Name", "Name of Patient"}, Normalizer: NormalizerString},
			{Field: "patient.birthDate", Kind: domain.SectionPatient,
				Anchors: []string{"Date of Birth", "Birth Date", "DOB"}, Normalizer: NormalizerDate},
			{Field: "patient.id", Kind: domain.SectionPatient,
				Anchors: []string{"Patient ID", "Medical Record Number", "MRN"}, Normalizer: NormalizerIdentifier},
			{Field: "patient.sex", Kind: domain.SectionPatient,
				Anchors: []string{"Sex", "Gender"}, Normalizer: NormalizerCode,
				Vocabulary: map[string]string{
					"m": "male", "male": "male",
					"f": "female", "female": "female",
					"o": "other", "other": "other",
					"u": "unknown", "unknown": "unknown", "unk": "unknown",
				}},
			{Field: "patient.address", Kind: domain.SectionPatient,
				Anchors: []string{"Address", "Home Address"}, Normalizer: NormalizerString},
			{Field: "patient.phone", Kind: domain.SectionPatient,
				Anchors: []string{"Phone Number", "Telephone", "Phone"}, Normalizer: NormalizerPhone},

			{Field: "reporter.name", Kind: domain.SectionReporter,
				Anchors: []string{"Reporter Name", "Provider Name", "Reported By", "Submitted By"}, Normalizer: NormalizerString},
			{Field: "reporter.facility", Kind: domain.SectionReporter,
				Anchors: []string{"Facility Name", "Facility", "Organization"}, Normalizer: NormalizerString},
			{Field: "reporter.phone", Kind: domain.SectionReporter,
				Anchors: []string{"Phone Number", "Contact Phone", "Telephone", "Phone"}, Normalizer: NormalizerPhone},

			{Field: "encounter.facility", Kind: domain.SectionEncounter,
				Anchors: []string{"Facility Name", "Facility", "Location"}, Normalizer: NormalizerString},
			{Field: "encounter.class", Kind: domain.SectionEncounter,
				Anchors: []string{"Encounter Class", "Encounter Type", "Visit Type"}, Normalizer: NormalizerCode,
				Vocabulary: map[string]string{
					"i": "inpatient", "imp": "inpatient", "inpatient": "inpatient",
					"o": "outpatient", "amb": "outpatient", "outpatient": "outpatient", "ambulatory": "outpatient",
					"e": "emergency", "emer": "emergency", "emergency": "emergency",
					"v": "virtual", "vr": "virtual", "virtual": "virtual", "telehealth": "virtual",
				}},
			{Field: "encounter.admissionDate", Kind: domain.SectionEncounter,
				Anchors: []string{"Admission Date", "Admit Date", "Date of Admission"}, Normalizer: NormalizerDate},
			{Field: "encounter.dischargeDate", Kind: domain.SectionEncounter,
				Anchors: []string{"Discharge Date", "Date of Discharge"}, Normalizer: NormalizerDate},

			{Field: "conditions.code", Kind: domain.SectionCondition,
				Anchors: []string{"Condition Code", "SNOMED CT Code", "SNOMED Code", "Diagnosis Code", "Code"}, Normalizer: NormalizerCode},
			{Field: "conditions.description", Kind: domain.SectionCondition,
				Anchors: []string{"Condition Name", "Condition", "Diagnosis"}, Normalizer: NormalizerString},
			{Field: "conditions.onsetDate", Kind: domain.SectionCondition,
				Anchors: []string{"Onset Date", "Date of Onset", "Symptom Onset"}, Normalizer: NormalizerDate},

			// Fallback for lab sections rendered as label/value pairs
			// instead of a table.
			{Field: "labResults.testName", Kind: domain.SectionLabResult,
				Anchors: []string{"Test Name", "Test"}, Normalizer: NormalizerString},
			{Field: "labResults.value", Kind: domain.SectionLabResult,
				Anchors: []string{"Result Value", "Result", "Value"}, Normalizer: NormalizerString},
			{Field: "labResults.unit", Kind: domain.SectionLabResult,
				Anchors: []string{"Units", "Unit"}, Normalizer: NormalizerString},
			{Field: "labResults.referenceRange", Kind: domain.SectionLabResult,
				Anchors: []string{"Reference Range", "Ref Range", "Normal Range"}, Normalizer: NormalizerString},
			{Field: "labResults.date", Kind: domain.SectionLabResult,
				Anchors: []string{"Collection Date", "Date Collected", "Specimen Date"}, Normalizer: NormalizerDate},
		},
		Tables: []TableRule{
			{Kind: domain.SectionLabResult,
				Columns: []TableColumn{
					{Match: `(?i)^test`, Field: "labResults.testName", Normalizer: NormalizerString},
					{Match: `(?i)^(result|value)`, Field: "labResults.value", Normalizer: NormalizerString},
					{Match: `(?i)^unit`, Field: "labResults.unit", Normalizer: NormalizerString},
					{Match: `(?i)^(ref|normal)`, Field: "labResults.referenceRange", Normalizer: NormalizerString},
					{Match: `(?i)^(date|collected)`, Field: "labResults.date", Normalizer: NormalizerDate},
				},
				Stop: []string{"END OF RESULTS", "END OF REPORT"},
			},
		},
		DocumentID: &DocumentIDRule{
			Patterns: []string{
				`(?i)\beICR\s*(?:ID|Number|No\.?)?\s*[:#]\s*([A-Za-z0-9][A-Za-z0-9.\-]{3,})`,
				`(?i)\bReport\s*(?:ID|Number|No\.?)\s*[:#]?\s*([A-Za-z0-9][A-Za-z0-9.\-]{3,})`,
				`(?i)\bDocument\s*(?:ID|Number)\s*[:#]?\s*([A-Za-z0-9][A-Za-z0-9.\-]{3,})`,
			},
		},
	}
	if err := rs.compile(); err != nil {
		// The built-in set is static; failing to compile it is a programming
		// error.
		panic(err)
	}
	return rs
}
