package source

import (
	"github.com/shopspring/decimal"

	"github.com/FedericoTs/dora-comply/internal/registry"
)

// =============================================================================
// TYPED SOURCE RECORDS
// =============================================================================
//
// Each RoI template is fed by exactly one record type. Field tags name the
// internal column the registry's DBColumn refers to, so the mapper can read
// any record generically while sources stay statically typed.
//
// Nullable values use pointer, Date or decimal.NullDecimal fields so a
// missing value is never confused with zero.
//
// =============================================================================

// EntityRecord feeds B_01.01.
type EntityRecord struct {
	Meta
	LEI                string `db:"lei"`
	Name               string `db:"name"`
	Country            string `db:"country"`
	EntityType         string `db:"entity_type"`
	CompetentAuthority string `db:"competent_authority"`
	SubmissionDate     Date   `db:"submission_date"`
}

func (EntityRecord) TemplateID() string { return registry.EntityRegister }

// ScopeEntityRecord feeds B_01.02.
type ScopeEntityRecord struct {
	Meta
	LEI             string              `db:"lei"`
	Name            string              `db:"name"`
	Country         string              `db:"country"`
	EntityType      string              `db:"entity_type"`
	Hierarchy       string              `db:"hierarchy"`
	ParentLEI       string              `db:"parent_lei"`
	LastUpdated     Date                `db:"last_updated"`
	IntegrationDate Date                `db:"integration_date"`
	DeletionDate    Date                `db:"deletion_date"`
	Currency        string              `db:"currency"`
	TotalAssets     decimal.NullDecimal `db:"total_assets"`
}

func (ScopeEntityRecord) TemplateID() string { return registry.EntitiesInScope }

// BranchRecord feeds B_01.03.
type BranchRecord struct {
	Meta
	BranchID      string `db:"branch_id"`
	HeadOfficeLEI string `db:"head_office_lei"`
	Name          string `db:"name"`
	Country       string `db:"country"`
}

func (BranchRecord) TemplateID() string { return registry.Branches }

// ContractRecord feeds B_02.01.
type ContractRecord struct {
	Meta
	ContractRef    string              `db:"contract_ref"`
	ContractType   string              `db:"contract_type"`
	OverarchingRef string              `db:"overarching_ref"`
	Currency       string              `db:"currency"`
	AnnualCost     decimal.NullDecimal `db:"annual_cost"`
}

func (ContractRecord) TemplateID() string { return registry.ContractsGeneral }

// ContractDetailRecord feeds B_02.02.
type ContractDetailRecord struct {
	Meta
	ContractRef          string `db:"contract_ref"`
	EntityLEI            string `db:"entity_lei"`
	ProviderCode         string `db:"provider_code"`
	ProviderCodeType     string `db:"provider_code_type"`
	FunctionID           string `db:"function_id"`
	ServiceType          string `db:"service_type"`
	StartDate            Date   `db:"start_date"`
	EndDate              Date   `db:"end_date"`
	TerminationReason    string `db:"termination_reason"`
	NoticePeriodEntity   *int64 `db:"notice_period_entity"`
	NoticePeriodProvider *int64 `db:"notice_period_provider"`
	GoverningLaw         string `db:"governing_law"`
	ProvisionCountry     string `db:"provision_country"`
	StoresData           *bool  `db:"stores_data"`
	DataLocation         string `db:"data_location"`
	ProcessingLocation   string `db:"processing_location"`
	DataSensitiveness    string `db:"data_sensitiveness"`
	RelianceLevel        string `db:"reliance_level"`
}

func (ContractDetailRecord) TemplateID() string { return registry.ContractsSpecific }

// IntraGroupLinkRecord feeds B_02.03.
type IntraGroupLinkRecord struct {
	Meta
	ContractRef       string `db:"contract_ref"`
	LinkedContractRef string `db:"linked_contract_ref"`
	IsLinked          *bool  `db:"is_linked"`
}

func (IntraGroupLinkRecord) TemplateID() string { return registry.IntraGroupLinks }

// EntitySignatoryRecord feeds B_03.01.
type EntitySignatoryRecord struct {
	Meta
	ContractRef string `db:"contract_ref"`
	EntityLEI   string `db:"entity_lei"`
	IsSignatory *bool  `db:"is_signatory"`
}

func (EntitySignatoryRecord) TemplateID() string { return registry.EntitySignatories }

// ProviderSignatoryRecord feeds B_03.02.
type ProviderSignatoryRecord struct {
	Meta
	ContractRef      string `db:"contract_ref"`
	ProviderCode     string `db:"provider_code"`
	ProviderCodeType string `db:"provider_code_type"`
	IsSignatory      *bool  `db:"is_signatory"`
}

func (ProviderSignatoryRecord) TemplateID() string { return registry.ProviderSignatories }

// IntraGroupSignatoryRecord feeds B_03.03.
type IntraGroupSignatoryRecord struct {
	Meta
	ContractRef       string `db:"contract_ref"`
	ProviderEntityLEI string `db:"provider_entity_lei"`
	IsSignatory       *bool  `db:"is_signatory"`
}

func (IntraGroupSignatoryRecord) TemplateID() string { return registry.IntraGroupSignatories }

// ServiceUserRecord feeds B_04.01.
type ServiceUserRecord struct {
	Meta
	ContractRef  string `db:"contract_ref"`
	EntityLEI    string `db:"entity_lei"`
	EntityNature string `db:"entity_nature"`
	BranchID     string `db:"branch_id"`
}

func (ServiceUserRecord) TemplateID() string { return registry.ServiceUsers }

// ProviderRecord feeds B_05.01.
type ProviderRecord struct {
	Meta
	ProviderCode        string              `db:"provider_code"`
	ProviderCodeType    string              `db:"provider_code_type"`
	AdditionalCode      string              `db:"additional_code"`
	AdditionalCodeType  string              `db:"additional_code_type"`
	LegalName           string              `db:"legal_name"`
	LatinName           string              `db:"latin_name"`
	PersonType          string              `db:"person_type"`
	HeadquartersCountry string              `db:"headquarters_country"`
	Currency            string              `db:"currency"`
	AnnualExpense       decimal.NullDecimal `db:"annual_expense"`
	ParentCode          string              `db:"parent_code"`
	ParentCodeType      string              `db:"parent_code_type"`
}

func (ProviderRecord) TemplateID() string { return registry.Providers }

// SupplyChainRecord feeds B_05.02.
type SupplyChainRecord struct {
	Meta
	ContractRef       string `db:"contract_ref"`
	ServiceType       string `db:"service_type"`
	ProviderCode      string `db:"provider_code"`
	ProviderCodeType  string `db:"provider_code_type"`
	Rank              *int64 `db:"rank"`
	RecipientCode     string `db:"recipient_code"`
	RecipientCodeType string `db:"recipient_code_type"`
}

func (SupplyChainRecord) TemplateID() string { return registry.SupplyChains }

// FunctionRecord feeds B_06.01.
type FunctionRecord struct {
	Meta
	FunctionID            string              `db:"function_id"`
	LicensedActivity      string              `db:"licensed_activity"`
	FunctionName          string              `db:"function_name"`
	EntityLEI             string              `db:"entity_lei"`
	Criticality           string              `db:"criticality"`
	CriticalityReasons    string              `db:"criticality_reasons"`
	LastAssessed          Date                `db:"last_assessed"`
	RTOHours              decimal.NullDecimal `db:"rto_hours"`
	RPOHours              decimal.NullDecimal `db:"rpo_hours"`
	DiscontinuationImpact string              `db:"discontinuation_impact"`
}

func (FunctionRecord) TemplateID() string { return registry.Functions }

// AssessmentRecord feeds B_07.01.
type AssessmentRecord struct {
	Meta
	ContractRef            string `db:"contract_ref"`
	ProviderCode           string `db:"provider_code"`
	ProviderCodeType       string `db:"provider_code_type"`
	ServiceType            string `db:"service_type"`
	Substitutability       string `db:"substitutability"`
	NonSubstitutableReason string `db:"non_substitutable_reason"`
	LastAudit              Date   `db:"last_audit"`
	HasExitPlan            *bool  `db:"has_exit_plan"`
	Reintegration          string `db:"reintegration"`
	DiscontinuationImpact  string `db:"discontinuation_impact"`
	HasAlternatives        *bool  `db:"has_alternatives"`
	AlternativeProviders   string `db:"alternative_providers"`
}

func (AssessmentRecord) TemplateID() string { return registry.ServiceAssessments }

// DefinitionRecord feeds B_99.01.
type DefinitionRecord struct {
	Meta
	ColumnRef  string `db:"column_ref"`
	Option     string `db:"option"`
	Definition string `db:"definition"`
}

func (DefinitionRecord) TemplateID() string { return registry.Definitions }

// NewRecord returns an empty record for a template. It is the single place
// mapping template IDs to record types.
func NewRecord(templateID string) (Record, error) {
	switch templateID {
	case registry.EntityRegister:
		return &EntityRecord{}, nil
	case registry.EntitiesInScope:
		return &ScopeEntityRecord{}, nil
	case registry.Branches:
		return &BranchRecord{}, nil
	case registry.ContractsGeneral:
		return &ContractRecord{}, nil
	case registry.ContractsSpecific:
		return &ContractDetailRecord{}, nil
	case registry.IntraGroupLinks:
		return &IntraGroupLinkRecord{}, nil
	case registry.EntitySignatories:
		return &EntitySignatoryRecord{}, nil
	case registry.ProviderSignatories:
		return &ProviderSignatoryRecord{}, nil
	case registry.IntraGroupSignatories:
		return &IntraGroupSignatoryRecord{}, nil
	case registry.ServiceUsers:
		return &ServiceUserRecord{}, nil
	case registry.Providers:
		return &ProviderRecord{}, nil
	case registry.SupplyChains:
		return &SupplyChainRecord{}, nil
	case registry.Functions:
		return &FunctionRecord{}, nil
	case registry.ServiceAssessments:
		return &AssessmentRecord{}, nil
	case registry.Definitions:
		return &DefinitionRecord{}, nil
	}
	return nil, &registry.UnknownTemplateError{TemplateID: templateID}
}
