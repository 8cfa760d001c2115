package domain

import "strconv"

// Unknown marks a leaf field whose value could not be extracted. Record
// leaves are never empty strings.
const Unknown = "unknown"

// PatientInfo groups the patient demographics of a case report.
type PatientInfo struct {
	Name      string `json:"name"`
	BirthDate string `json:"birthDate"`
	ID        string `json:"id"`
	Sex       string `json:"sex"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
}

// ReporterInfo identifies the provider or facility that filed the report.
type ReporterInfo struct {
	Name     string `json:"name"`
	Facility string `json:"facility"`
	Phone    string `json:"phone"`
}

// EncounterInfo describes the clinical encounter the report stems from.
type EncounterInfo struct {
	Facility      string `json:"facility"`
	Class         string `json:"class"`
	AdmissionDate string `json:"admissionDate"`
	DischargeDate string `json:"dischargeDate"`
}

// ReportableCondition is one condition that triggered the report.
type ReportableCondition struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	OnsetDate   string `json:"onsetDate"`
}

// LabResult is one laboratory result line.
type LabResult struct {
	TestName       string `json:"testName"`
	Value          string `json:"value"`
	Unit           string `json:"unit"`
	ReferenceRange string `json:"referenceRange"`
	Date           string `json:"date"`
}

// EicrRecord is the structured output of one extraction pass. Immutable
// after assembly; owned by the caller once the engine returns it.
type EicrRecord struct {
	DocumentID string                `json:"documentId"`
	Patient    PatientInfo           `json:"patient"`
	Reporter   ReporterInfo          `json:"reporter"`
	Encounter  EncounterInfo         `json:"encounter"`
	Conditions []ReportableCondition `json:"conditions"`
	LabResults []LabResult           `json:"labResults"`
}

// NewEicrRecord returns a record with every leaf set to the unknown marker
// and empty (non-nil) repeated groups.
func NewEicrRecord() *EicrRecord {
	return &EicrRecord{
		DocumentID: Unknown,
		Patient: PatientInfo{
			Name:      Unknown,
			BirthDate: Unknown,
			ID:        Unknown,
			Sex:       Unknown,
			Address:   Unknown,
			Phone:     Unknown,
		},
		Reporter: ReporterInfo{
			Name:     Unknown,
			Facility: Unknown,
			Phone:    Unknown,
		},
		Encounter: EncounterInfo{
			Facility:      Unknown,
			Class:         Unknown,
			AdmissionDate: Unknown,
			DischargeDate: Unknown,
		},
		Conditions: make([]ReportableCondition, 0),
		LabResults: make([]LabResult, 0),
	}
}

// Validate checks the record invariant: every leaf field holds either a
// normalized value or the unknown marker, never an empty string, and the
// repeated groups are non-nil.
func (r *EicrRecord) Validate() error {
	leaves := []struct {
		field string
		value string
	}{
		{"documentId", r.DocumentID},
		{"patient.name", r.Patient.Name},
		{"patient.birthDate", r.Patient.BirthDate},
		{"patient.id", r.Patient.ID},
		{"patient.sex", r.Patient.Sex},
		{"patient.address", r.Patient.Address},
		{"patient.phone", r.Patient.Phone},
		{"reporter.name", r.Reporter.Name},
		{"reporter.facility", r.Reporter.Facility},
		{"reporter.phone", r.Reporter.Phone},
		{"encounter.facility", r.Encounter.Facility},
		{"encounter.class", r.Encounter.Class},
		{"encounter.admissionDate", r.Encounter.AdmissionDate},
		{"encounter.dischargeDate", r.Encounter.DischargeDate},
	}
	for i, c := range r.Conditions {
		leaves = append(leaves,
			struct{ field, value string }{conditionPath(i, "code"), c.Code},
			struct{ field, value string }{conditionPath(i, "description"), c.Description},
			struct{ field, value string }{conditionPath(i, "onsetDate"), c.OnsetDate},
		)
	}
	for i, l := range r.LabResults {
		leaves = append(leaves,
			struct{ field, value string }{labPath(i, "testName"), l.TestName},
			struct{ field, value string }{labPath(i, "value"), l.Value},
			struct{ field, value string }{labPath(i, "unit"), l.Unit},
			struct{ field, value string }{labPath(i, "referenceRange"), l.ReferenceRange},
			struct{ field, value string }{labPath(i, "date"), l.Date},
		)
	}
	for _, leaf := range leaves {
		if leaf.value == "" {
			return &ValidationError{Field: leaf.field, Message: "leaf field must not be empty"}
		}
	}
	if r.Conditions == nil {
		return &ValidationError{Field: "conditions", Message: "conditions must not be nil"}
	}
	if r.LabResults == nil {
		return &ValidationError{Field: "labResults", Message: "labResults must not be nil"}
	}
	return nil
}

func conditionPath(i int, leaf string) string {
	return "conditions[" + strconv.Itoa(i) + "]." + leaf
}

func labPath(i int, leaf string) string {
	return "labResults[" + strconv.Itoa(i) + "]." + leaf
}

// NewReportableCondition returns a condition with all leaves unknown.
func NewReportableCondition() ReportableCondition {
	return ReportableCondition{
		Code:        Unknown,
		Description: Unknown,
		OnsetDate:   Unknown,
	}
}

// NewLabResult returns a lab result with all leaves unknown.
func NewLabResult() LabResult {
	return LabResult{
		TestName:       Unknown,
		Value:          Unknown,
		Unit:           Unknown,
		ReferenceRange: Unknown,
		Date:           Unknown,
	}
}
