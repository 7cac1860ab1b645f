package registry

// =============================================================================
// COLUMN BUILDERS
// =============================================================================

func col(code, dbColumn, description string, t DataType) ColumnDefinition {
	return ColumnDefinition{
		ESACode:     code,
		DBColumn:    dbColumn,
		Description: description,
		DataType:    t,
	}
}

func (c ColumnDefinition) req() ColumnDefinition {
	c.Required = true
	return c
}

func (c ColumnDefinition) key() ColumnDefinition {
	c.Key = true
	return c
}

func (c ColumnDefinition) lei() ColumnDefinition {
	c.Format = FormatLEI
	return c
}

func (c ColumnDefinition) ref(template, column string) ColumnDefinition {
	c.References = &ColumnRef{Template: template, Column: column}
	return c
}

func (c ColumnDefinition) enum(l Codelist) ColumnDefinition {
	c.DataType = TypeEnum
	c.Enumeration = l.Enumeration()
	c.Translations = l.Translations()
	return c
}

func (c ColumnDefinition) nonNeg() ColumnDefinition {
	c.NonNegative = true
	return c
}

func (c ColumnDefinition) notAfterRef() ColumnDefinition {
	c.DateRule = DateNotAfterReference
	return c
}

// Template IDs of the RoI.
const (
	EntityRegister        = "B_01.01"
	EntitiesInScope       = "B_01.02"
	Branches              = "B_01.03"
	ContractsGeneral      = "B_02.01"
	ContractsSpecific     = "B_02.02"
	IntraGroupLinks       = "B_02.03"
	EntitySignatories     = "B_03.01"
	ProviderSignatories   = "B_03.02"
	IntraGroupSignatories = "B_03.03"
	ServiceUsers          = "B_04.01"
	Providers             = "B_05.01"
	SupplyChains          = "B_05.02"
	Functions             = "B_06.01"
	ServiceAssessments    = "B_07.01"
	Definitions           = "B_99.01"
)

// =============================================================================
// BUILT-IN TEMPLATES
// =============================================================================

func builtinTemplates() []TemplateDefinition {
	return []TemplateDefinition{
		{
			ID:      EntityRegister,
			Name:    "Entity maintaining the register of information",
			DBTable: "roi_entity_register",
			Weight:  3,
			Columns: []ColumnDefinition{
				col("c0010", "lei", "LEI of the entity maintaining the register of information", TypeString).req().key().lei(),
				col("c0020", "name", "Name of the entity", TypeString).req(),
				col("c0030", "country", "Country of the entity", TypeEnum).req().enum(Countries),
				col("c0040", "entity_type", "Type of entity", TypeEnum).req().enum(EntityTypes),
				col("c0050", "competent_authority", "Competent authority", TypeString).req(),
				col("c0060", "submission_date", "Date of the reporting", TypeDate).req(),
			},
		},
		{
			ID:      EntitiesInScope,
			Name:    "List of financial entities within the scope of the register",
			DBTable: "roi_entities_in_scope",
			Weight:  3,
			Columns: []ColumnDefinition{
				col("c0010", "lei", "LEI of the financial entity", TypeString).req().key().lei(),
				col("c0020", "name", "Name of the financial entity", TypeString).req(),
				col("c0030", "country", "Country of the financial entity", TypeEnum).req().enum(Countries),
				col("c0040", "entity_type", "Type of financial entity", TypeEnum).req().enum(EntityTypes),
				col("c0050", "hierarchy", "Hierarchy of the financial entity within the group", TypeEnum).req().enum(Hierarchy),
				col("c0060", "parent_lei", "LEI of the direct parent undertaking", TypeString).lei(),
				col("c0070", "last_updated", "Date of the last update of the register", TypeDate).req().notAfterRef(),
				col("c0080", "integration_date", "Date of integration in the register", TypeDate).req().notAfterRef(),
				col("c0090", "deletion_date", "Date of deletion in the register", TypeDate),
				col("c0100", "currency", "Currency", TypeEnum).req().enum(Currencies),
				col("c0110", "total_assets", "Value of total assets", TypeNumber).req().nonNeg(),
			},
		},
		{
			ID:                Branches,
			Name:              "List of branches",
			DBTable:           "roi_branches",
			Weight:            1,
			OptionalWhenEmpty: true,
			Columns: []ColumnDefinition{
				col("c0010", "branch_id", "Identification code of the branch", TypeString).req().key(),
				col("c0020", "head_office_lei", "LEI of the financial entity head office of the branch", TypeString).req().lei().ref(EntitiesInScope, "c0010"),
				col("c0030", "name", "Name of the branch", TypeString).req(),
				col("c0040", "country", "Country of the branch", TypeEnum).req().enum(Countries),
			},
		},
		{
			ID:      ContractsGeneral,
			Name:    "Contractual arrangements - general information",
			DBTable: "roi_contracts",
			Weight:  3,
			Columns: []ColumnDefinition{
				col("c0010", "contract_ref", "Contractual arrangement reference number", TypeString).req().key(),
				col("c0020", "contract_type", "Type of contractual arrangement", TypeEnum).req().enum(ContractTypes),
				col("c0030", "overarching_ref", "Overarching contractual arrangement reference number", TypeString),
				col("c0040", "currency", "Currency of the amount reported", TypeEnum).req().enum(Currencies),
				col("c0050", "annual_cost", "Annual expense or estimated cost of the arrangement", TypeNumber).req().nonNeg(),
			},
		},
		{
			ID:      ContractsSpecific,
			Name:    "Contractual arrangements - specific information",
			DBTable: "roi_contract_details",
			Weight:  3,
			Columns: []ColumnDefinition{
				col("c0010", "contract_ref", "Contractual arrangement reference number", TypeString).req().ref(ContractsGeneral, "c0010"),
				col("c0020", "entity_lei", "LEI of the financial entity making use of the ICT services", TypeString).req().lei().ref(EntitiesInScope, "c0010"),
				col("c0030", "provider_code", "Identification code of the ICT third-party service provider", TypeString).req().ref(Providers, "c0010"),
				col("c0040", "provider_code_type", "Type of code to identify the provider", TypeEnum).req().enum(ProviderCodeTypes),
				col("c0050", "function_id", "Function identifier", TypeString).req().ref(Functions, "c0010"),
				col("c0060", "service_type", "Type of ICT services", TypeEnum).req().enum(ICTServiceTypes),
				col("c0070", "start_date", "Start date of the contractual arrangement", TypeDate).req(),
				col("c0080", "end_date", "End date of the contractual arrangement", TypeDate).req(),
				col("c0090", "termination_reason", "Reason of the termination or ending", TypeEnum).enum(TerminationReasons),
				col("c0100", "notice_period_entity", "Notice period for the financial entity (days)", TypeNumber).req().nonNeg(),
				col("c0110", "notice_period_provider", "Notice period for the provider (days)", TypeNumber).req().nonNeg(),
				col("c0120", "governing_law", "Country of the governing law", TypeEnum).req().enum(Countries),
				col("c0130", "provision_country", "Country of provision of the ICT services", TypeEnum).req().enum(Countries),
				col("c0140", "stores_data", "Storage of data", TypeBoolean).req(),
				col("c0150", "data_location", "Location of the data at rest", TypeEnum).enum(Countries),
				col("c0160", "processing_location", "Location of management of the data", TypeEnum).enum(Countries),
				col("c0170", "data_sensitiveness", "Sensitiveness of the data stored", TypeEnum).enum(Sensitiveness),
				col("c0180", "reliance_level", "Level of reliance on the ICT service", TypeEnum).req().enum(RelianceLevels),
			},
		},
		{
			ID:                IntraGroupLinks,
			Name:              "Intra-group contractual arrangements",
			DBTable:           "roi_intragroup_links",
			Weight:            1,
			OptionalWhenEmpty: true,
			Columns: []ColumnDefinition{
				col("c0010", "contract_ref", "Contractual arrangement reference number", TypeString).req().ref(ContractsGeneral, "c0010"),
				col("c0020", "linked_contract_ref", "Contractual arrangement linked to the reported arrangement", TypeString).req().ref(ContractsGeneral, "c0010"),
				col("c0030", "is_linked", "Link", TypeBoolean).req(),
			},
		},
		{
			ID:      EntitySignatories,
			Name:    "Entities signing the contractual arrangements for receiving ICT services",
			DBTable: "roi_entity_signatories",
			Weight:  1,
			Columns: []ColumnDefinition{
				col("c0010", "contract_ref", "Contractual arrangement reference number", TypeString).req().ref(ContractsGeneral, "c0010"),
				col("c0020", "entity_lei", "LEI of the entity signing the arrangement", TypeString).req().lei().ref(EntitiesInScope, "c0010"),
				col("c0030", "is_signatory", "Link", TypeBoolean).req(),
			},
		},
		{
			ID:      ProviderSignatories,
			Name:    "ICT third-party service providers signing the contractual arrangements",
			DBTable: "roi_provider_signatories",
			Weight:  1,
			Columns: []ColumnDefinition{
				col("c0010", "contract_ref", "Contractual arrangement reference number", TypeString).req().ref(ContractsGeneral, "c0010"),
				col("c0020", "provider_code", "Identification code of the ICT third-party service provider", TypeString).req().ref(Providers, "c0010"),
				col("c0030", "provider_code_type", "Type of code to identify the provider", TypeEnum).req().enum(ProviderCodeTypes),
				col("c0040", "is_signatory", "Link", TypeBoolean).req(),
			},
		},
		{
			ID:                IntraGroupSignatories,
			Name:              "Entities signing intra-group contractual arrangements for providing ICT services",
			DBTable:           "roi_intragroup_signatories",
			Weight:            1,
			OptionalWhenEmpty: true,
			Columns: []ColumnDefinition{
				col("c0010", "contract_ref", "Contractual arrangement reference number", TypeString).req().ref(ContractsGeneral, "c0010"),
				col("c0020", "provider_entity_lei", "LEI of the entity providing ICT services", TypeString).req().lei().ref(EntitiesInScope, "c0010"),
				col("c0030", "is_signatory", "Link", TypeBoolean).req(),
			},
		},
		{
			ID:      ServiceUsers,
			Name:    "Entities making use of the ICT services",
			DBTable: "roi_service_users",
			Weight:  1,
			Columns: []ColumnDefinition{
				col("c0010", "contract_ref", "Contractual arrangement reference number", TypeString).req().ref(ContractsGeneral, "c0010"),
				col("c0020", "entity_lei", "LEI of the financial entity making use of the ICT services", TypeString).req().lei().ref(EntitiesInScope, "c0010"),
				col("c0030", "entity_nature", "Nature of the financial entity", TypeEnum).req().enum(NatureOfEntity),
				col("c0040", "branch_id", "Identification code of the branch", TypeString).ref(Branches, "c0010"),
			},
		},
		{
			ID:      Providers,
			Name:    "ICT third-party service providers",
			DBTable: "roi_providers",
			Weight:  3,
			Columns: []ColumnDefinition{
				col("c0010", "provider_code", "Identification code of the ICT third-party service provider", TypeString).req().key(),
				col("c0020", "provider_code_type", "Type of code to identify the provider", TypeEnum).req().enum(ProviderCodeTypes),
				col("c0030", "additional_code", "Additional identification code of the provider", TypeString),
				col("c0040", "additional_code_type", "Type of the additional identification code", TypeEnum).enum(ProviderCodeTypes),
				col("c0050", "legal_name", "Legal name of the ICT third-party service provider", TypeString).req(),
				col("c0060", "latin_name", "Name of the provider in Latin alphabet", TypeString),
				col("c0070", "person_type", "Type of person of the provider", TypeEnum).req().enum(PersonTypes),
				col("c0080", "headquarters_country", "Country of the provider's headquarters", TypeEnum).req().enum(Countries),
				col("c0090", "currency", "Currency of the amount reported", TypeEnum).req().enum(Currencies),
				col("c0100", "annual_expense", "Total annual expense or estimated cost of the provider", TypeNumber).req().nonNeg(),
				col("c0110", "parent_code", "Identification code of the provider's ultimate parent undertaking", TypeString),
				col("c0120", "parent_code_type", "Type of code of the ultimate parent undertaking", TypeEnum).enum(ProviderCodeTypes),
			},
		},
		{
			ID:                SupplyChains,
			Name:              "ICT service supply chains",
			DBTable:           "roi_supply_chains",
			Weight:            1,
			OptionalWhenEmpty: true,
			Columns: []ColumnDefinition{
				col("c0010", "contract_ref", "Contractual arrangement reference number", TypeString).req().ref(ContractsGeneral, "c0010"),
				col("c0020", "service_type", "Type of ICT services", TypeEnum).req().enum(ICTServiceTypes),
				col("c0030", "provider_code", "Identification code of the ICT third-party service provider", TypeString).req().ref(Providers, "c0010"),
				col("c0040", "provider_code_type", "Type of code to identify the provider", TypeEnum).req().enum(ProviderCodeTypes),
				col("c0050", "rank", "Rank in the supply chain", TypeNumber).req().nonNeg(),
				col("c0060", "recipient_code", "Identification code of the recipient of sub-contracted services", TypeString).ref(Providers, "c0010"),
				col("c0070", "recipient_code_type", "Type of code of the recipient", TypeEnum).enum(ProviderCodeTypes),
			},
		},
		{
			ID:      Functions,
			Name:    "Functions identification",
			DBTable: "roi_functions",
			Weight:  2,
			Columns: []ColumnDefinition{
				col("c0010", "function_id", "Function identifier", TypeString).req().key(),
				col("c0020", "licensed_activity", "Licensed activity", TypeEnum).req().enum(LicensedActivities),
				col("c0030", "function_name", "Function name", TypeString).req(),
				col("c0040", "entity_lei", "LEI of the financial entity", TypeString).req().lei().ref(EntitiesInScope, "c0010"),
				col("c0050", "criticality", "Criticality or importance assessment", TypeEnum).req().enum(Criticality),
				col("c0060", "criticality_reasons", "Reasons for criticality or importance", TypeString),
				col("c0070", "last_assessed", "Date of the last assessment of criticality", TypeDate).req().notAfterRef(),
				col("c0080", "rto_hours", "Recovery time objective of the function (hours)", TypeNumber).nonNeg(),
				col("c0090", "rpo_hours", "Recovery point objective of the function (hours)", TypeNumber).nonNeg(),
				col("c0100", "discontinuation_impact", "Impact of discontinuing the function", TypeEnum).req().enum(ImpactLevels),
			},
		},
		{
			ID:      ServiceAssessments,
			Name:    "Assessment of the ICT services",
			DBTable: "roi_service_assessments",
			Weight:  2,
			Columns: []ColumnDefinition{
				col("c0010", "contract_ref", "Contractual arrangement reference number", TypeString).req().ref(ContractsGeneral, "c0010"),
				col("c0020", "provider_code", "Identification code of the ICT third-party service provider", TypeString).req().ref(Providers, "c0010"),
				col("c0030", "provider_code_type", "Type of code to identify the provider", TypeEnum).req().enum(ProviderCodeTypes),
				col("c0040", "service_type", "Type of ICT services", TypeEnum).req().enum(ICTServiceTypes),
				col("c0050", "substitutability", "Substitutability of the ICT third-party service provider", TypeEnum).req().enum(Substitutability),
				col("c0060", "non_substitutable_reason", "Reason if the provider is not substitutable", TypeString),
				col("c0070", "last_audit", "Date of the last audit on the provider", TypeDate).notAfterRef(),
				col("c0080", "has_exit_plan", "Existence of an exit plan", TypeBoolean).req(),
				col("c0090", "reintegration", "Possibility of reintegration of the contracted service", TypeEnum).enum(ReintegrationPossibility),
				col("c0100", "discontinuation_impact", "Impact of discontinuing the ICT services", TypeEnum).req().enum(ImpactLevels),
				col("c0110", "has_alternatives", "Are there alternative providers identified", TypeBoolean).req(),
				col("c0120", "alternative_providers", "Identification of alternative providers", TypeString),
			},
		},
		{
			ID:                Definitions,
			Name:              "Definitions from entities making use of the ICT services",
			DBTable:           "roi_definitions",
			Weight:            0.5,
			OptionalWhenEmpty: true,
			Columns: []ColumnDefinition{
				col("c0010", "column_ref", "Template and column the definition refers to", TypeString).req().key(),
				col("c0020", "option", "Option used by the entity", TypeString).req(),
				col("c0030", "definition", "Definition provided by the entity", TypeString).req(),
			},
		},
	}
}
