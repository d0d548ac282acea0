package domain

import "strings"

// ============================================================
// Intake wizard
// ============================================================

// Wizard step indexes. The client may not advance past a step until its
// gate passes; steps 5 and 6 have no gate.
const (
	StepIdentification = 1
	StepLocation       = 2
	StepManager        = 3
	StepAssociates     = 4
	StepServices       = 5
	StepSummary        = 6
)

// AssociateDraft is the per-associate data bag collected by step 4:
// identity, ID documents (already uploaded to storage, only the URLs
// travel here) and the capital contribution split.
type AssociateDraft struct {
	FullName         string `json:"full_name"`
	Phone            string `json:"phone"`
	Email            string `json:"email,omitempty"`
	Profession       string `json:"profession,omitempty"`
	BirthDate        string `json:"birth_date,omitempty"`
	BirthPlace       string `json:"birth_place,omitempty"`
	ResidenceAddress string `json:"residence_address,omitempty"`
	MaritalStatus    string `json:"marital_status,omitempty"`
	MaritalRegime    string `json:"marital_regime,omitempty"`
	IDRectoURL       string `json:"id_recto_url,omitempty"`
	IDVersoURL       string `json:"id_verso_url,omitempty"`
	IsManager        bool   `json:"is_manager"`

	CashContribution  int     `json:"cash_contribution,omitempty"`
	NatureDescription string  `json:"nature_contribution_description,omitempty"`
	NatureValue       int     `json:"nature_contribution_value,omitempty"`
	Percentage        float64 `json:"percentage,omitempty"`
	NumberOfShares    int     `json:"number_of_shares,omitempty"`
	ShareStart        int     `json:"share_start,omitempty"`
	ShareEnd          int     `json:"share_end,omitempty"`
	TotalContribution int     `json:"total_contribution,omitempty"`
}

// CompanyDraft is the full data collected across the wizard steps. It is a
// plain value so the gate and pricing rules stay unit-testable without any
// transport or storage.
type CompanyDraft struct {
	// Step 1 — identification
	StructureType string `json:"structure_type"`
	CompanyName   string `json:"company_name"`
	Sigle         string `json:"sigle,omitempty"`
	Capital       string `json:"capital"`
	Activity      string `json:"activity,omitempty"`
	Bank          string `json:"bank,omitempty"`

	// Step 2 — location
	City     string `json:"city"`
	Commune  string `json:"commune"`
	Quarter  string `json:"quarter"`
	Landmark string `json:"landmark,omitempty"`
	PostBox  string `json:"post_box,omitempty"`

	// Step 3 — manager
	ManagerFullName      string `json:"manager_full_name"`
	ManagerMandate       string `json:"manager_mandate,omitempty"`
	ManagerPhone         string `json:"manager_phone"`
	ManagerEmail         string `json:"manager_email"`
	ManagerResidence     string `json:"manager_residence,omitempty"`
	ManagerMaritalStatus string `json:"manager_marital_status,omitempty"`
	ManagerMaritalRegime string `json:"manager_marital_regime,omitempty"`

	// Step 4 — associates
	Associates []AssociateDraft `json:"associates"`

	// Step 5 — additional services (all quoted manually)
	AdditionalServices []string `json:"additional_services,omitempty"`
}

// CanAdvance checks the gate for the given step. It returns nil when the
// client may move past the step, or an *ErrValidation naming the first
// missing field.
func CanAdvance(step int, d *CompanyDraft) error {
	switch step {
	case StepIdentification:
		if d.StructureType == "" {
			return &ErrValidation{Field: "structure_type", Message: "required"}
		}
		if !IsValidStructureType(d.StructureType) {
			return &ErrValidation{Field: "structure_type", Message: "unknown legal form"}
		}
		if d.CompanyName == "" {
			return &ErrValidation{Field: "company_name", Message: "required"}
		}
		if d.Capital == "" {
			return &ErrValidation{Field: "capital", Message: "required"}
		}
	case StepLocation:
		if d.City == "" {
			return &ErrValidation{Field: "city", Message: "required"}
		}
		if d.Commune == "" {
			return &ErrValidation{Field: "commune", Message: "required"}
		}
		if d.Quarter == "" {
			return &ErrValidation{Field: "quarter", Message: "required"}
		}
	case StepManager:
		if d.ManagerFullName == "" {
			return &ErrValidation{Field: "manager_full_name", Message: "required"}
		}
		if d.ManagerPhone == "" {
			return &ErrValidation{Field: "manager_phone", Message: "required"}
		}
		if d.ManagerEmail == "" {
			return &ErrValidation{Field: "manager_email", Message: "required"}
		}
	case StepAssociates:
		if len(d.Associates) == 0 {
			return &ErrValidation{Field: "associates", Message: "at least one associate is required"}
		}
		if IsSoleProprietor(d.StructureType) && len(d.Associates) > 1 {
			return &ErrValidation{Field: "associates", Message: "sole-proprietor forms admit exactly one associate"}
		}
		first := d.Associates[0]
		if first.FullName == "" {
			return &ErrValidation{Field: "associates[0].full_name", Message: "required"}
		}
		if first.Phone == "" {
			return &ErrValidation{Field: "associates[0].phone", Message: "required"}
		}
	case StepServices, StepSummary:
		// no gate
	default:
		return &ErrValidation{Field: "step", Message: "unknown wizard step"}
	}
	return nil
}

// ValidateDraft runs every step gate in order and returns the first
// failure. Used at submission time so a crafted request cannot skip the
// per-step checks.
func ValidateDraft(d *CompanyDraft) error {
	for step := StepIdentification; step <= StepSummary; step++ {
		if err := CanAdvance(step, d); err != nil {
			return err
		}
	}
	for _, s := range d.AdditionalServices {
		if !IsValidAdditionalService(s) {
			return &ErrValidation{Field: "additional_services", Message: "unknown service: " + s}
		}
	}
	return nil
}

// Tariffs holds the two fixed creation price tiers, keyed by whether the
// declared city matches the configured capital city.
type Tariffs struct {
	CapitalCity    string
	CapitalTariff  int
	InteriorTariff int
}

// ComputePrice derives the creation price from the draft. Selecting any
// additional service overrides the base computation: the commercial answer
// becomes "quote required", expressed as nil.
func ComputePrice(d *CompanyDraft, t Tariffs) *int {
	if len(d.AdditionalServices) > 0 {
		return nil
	}
	price := t.InteriorTariff
	if strings.Contains(strings.ToLower(d.City), strings.ToLower(t.CapitalCity)) {
		price = t.CapitalTariff
	}
	return &price
}
