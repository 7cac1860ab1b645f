package registry

import (
	"sort"
	"strings"
)

// CodeEntry is one value of an ESA code list.
type CodeEntry struct {
	// Code is the ESA code written to the package, e.g. "eba_GA:DE".
	Code string

	// Label is the human-readable meaning.
	Label string

	// Aliases are internal codes that translate to Code.
	Aliases []string
}

// Codelist is a named, ordered set of ESA codes.
type Codelist struct {
	Name    string
	Entries []CodeEntry
}

// Enumeration returns ESA code -> label.
func (l Codelist) Enumeration() map[string]string {
	m := make(map[string]string, len(l.Entries))
	for _, e := range l.Entries {
		m[e.Code] = e.Label
	}
	return m
}

// Translations returns lower-cased internal alias -> ESA code. The bare
// suffix after the prefix (e.g. "de" for "eba_GA:DE") is always an alias.
func (l Codelist) Translations() map[string]string {
	m := make(map[string]string, len(l.Entries)*2)
	for _, e := range l.Entries {
		if i := strings.IndexByte(e.Code, ':'); i >= 0 {
			m[strings.ToLower(e.Code[i+1:])] = e.Code
		}
		for _, a := range e.Aliases {
			m[strings.ToLower(a)] = e.Code
		}
	}
	return m
}

// Codes returns the ESA codes in sorted order.
func (l Codelist) Codes() []string {
	codes := make([]string, len(l.Entries))
	for i, e := range l.Entries {
		codes[i] = e.Code
	}
	sort.Strings(codes)
	return codes
}

func prefixed(prefix string, pairs ...string) []CodeEntry {
	out := make([]CodeEntry, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, CodeEntry{Code: prefix + pairs[i], Label: pairs[i+1]})
	}
	return out
}

// =============================================================================
// GEOGRAPHY AND CURRENCY
// =============================================================================

// Countries is the ISO 3166-1 alpha-2 list used for country columns.
var Countries = Codelist{
	Name: "countries",
	Entries: prefixed("eba_GA:",
		"AT", "Austria", "BE", "Belgium", "BG", "Bulgaria", "HR", "Croatia",
		"CY", "Cyprus", "CZ", "Czechia", "DK", "Denmark", "EE", "Estonia",
		"FI", "Finland", "FR", "France", "DE", "Germany", "GR", "Greece",
		"HU", "Hungary", "IE", "Ireland", "IT", "Italy", "LV", "Latvia",
		"LT", "Lithuania", "LU", "Luxembourg", "MT", "Malta", "NL", "Netherlands",
		"PL", "Poland", "PT", "Portugal", "RO", "Romania", "SK", "Slovakia",
		"SI", "Slovenia", "ES", "Spain", "SE", "Sweden",
		"IS", "Iceland", "LI", "Liechtenstein", "NO", "Norway",
		"CH", "Switzerland", "GB", "United Kingdom", "US", "United States",
		"CA", "Canada", "JP", "Japan", "CN", "China", "IN", "India",
		"SG", "Singapore", "HK", "Hong Kong", "AU", "Australia", "IL", "Israel",
		"BR", "Brazil", "ZA", "South Africa", "AE", "United Arab Emirates",
		"KR", "Korea, Republic of", "TW", "Taiwan", "UA", "Ukraine",
		"RS", "Serbia", "TR", "Turkey", "MX", "Mexico", "PH", "Philippines",
		"VN", "Viet Nam", "MY", "Malaysia", "NZ", "New Zealand",
		"GG", "Guernsey", "JE", "Jersey", "IM", "Isle of Man",
		"BM", "Bermuda", "KY", "Cayman Islands",
	),
}

// currencyCodes is the active ISO 4217 list accepted as base currency and
// for currency columns.
var currencyCodes = []string{
	"AED", "AUD", "BGN", "BRL", "CAD", "CHF", "CNY", "CZK", "DKK", "EUR",
	"GBP", "HKD", "HUF", "ILS", "INR", "ISK", "JPY", "KRW", "MXN", "MYR",
	"NOK", "NZD", "PHP", "PLN", "RON", "RSD", "SEK", "SGD", "TRY", "TWD",
	"UAH", "USD", "VND", "ZAR",
}

// Currencies is the ISO 4217 code list.
var Currencies = func() Codelist {
	l := Codelist{Name: "currencies"}
	for _, c := range currencyCodes {
		l.Entries = append(l.Entries, CodeEntry{Code: "eba_CU:" + c, Label: c})
	}
	return l
}()

var currencySet = func() map[string]bool {
	m := make(map[string]bool, len(currencyCodes))
	for _, c := range currencyCodes {
		m[c] = true
	}
	return m
}()

// IsCurrency reports whether code is an active ISO 4217 code.
func IsCurrency(code string) bool {
	return currencySet[code]
}

// =============================================================================
// ENTITY CODE LISTS
// =============================================================================

// EntityTypes classifies financial entities.
var EntityTypes = Codelist{
	Name: "entity_types",
	Entries: []CodeEntry{
		{Code: "eba_CT:x12", Label: "Credit institution", Aliases: []string{"credit_institution", "bank"}},
		{Code: "eba_CT:x599", Label: "Investment firm", Aliases: []string{"investment_firm"}},
		{Code: "eba_CT:x7", Label: "Payment institution", Aliases: []string{"payment_institution"}},
		{Code: "eba_CT:x8", Label: "Electronic money institution", Aliases: []string{"emoney_institution", "e_money_institution"}},
		{Code: "eba_CT:x11", Label: "Insurance and reinsurance undertaking", Aliases: []string{"insurance_undertaking", "insurer"}},
		{Code: "eba_CT:x20", Label: "Crypto-asset service provider", Aliases: []string{"casp", "crypto_asset_service_provider"}},
		{Code: "eba_CT:x21", Label: "Central securities depository", Aliases: []string{"csd"}},
		{Code: "eba_CT:x9", Label: "Management company", Aliases: []string{"management_company", "ucits_manco"}},
		{Code: "eba_CT:x6", Label: "Alternative investment fund manager", Aliases: []string{"aifm"}},
		{Code: "eba_CT:x300", Label: "Other financial entity", Aliases: []string{"other"}},
	},
}

// Hierarchy is the position of an entity within its group.
var Hierarchy = Codelist{
	Name: "hierarchy",
	Entries: []CodeEntry{
		{Code: "eba_RP:x53", Label: "Ultimate parent", Aliases: []string{"ultimate_parent"}},
		{Code: "eba_RP:x551", Label: "Parent other than ultimate parent", Aliases: []string{"parent"}},
		{Code: "eba_RP:x56", Label: "Subsidiary", Aliases: []string{"subsidiary"}},
		{Code: "eba_RP:x21", Label: "Other entities of the group", Aliases: []string{"group_entity"}},
		{Code: "eba_RP:x210", Label: "Other", Aliases: []string{"other"}},
	},
}

// NatureOfEntity distinguishes branches from other entities.
var NatureOfEntity = Codelist{
	Name: "nature_of_entity",
	Entries: []CodeEntry{
		{Code: "eba_ZZ:x838", Label: "Branch of a financial entity", Aliases: []string{"branch"}},
		{Code: "eba_ZZ:x839", Label: "Not a branch", Aliases: []string{"entity", "not_branch"}},
	},
}

// PersonTypes distinguishes legal from natural persons.
var PersonTypes = Codelist{
	Name: "person_types",
	Entries: []CodeEntry{
		{Code: "eba_CT:x212", Label: "Legal person", Aliases: []string{"legal_person", "company"}},
		{Code: "eba_CT:x213", Label: "Individual acting in a business capacity", Aliases: []string{"individual", "natural_person"}},
	},
}

// ProviderCodeTypes identifies the kind of code used for a provider.
var ProviderCodeTypes = Codelist{
	Name: "provider_code_types",
	Entries: []CodeEntry{
		{Code: "eba_qCO:qx2000", Label: "LEI", Aliases: []string{"lei"}},
		{Code: "eba_qCO:qx2001", Label: "EUID", Aliases: []string{"euid"}},
		{Code: "eba_qCO:qx2002", Label: "Country code + VAT number", Aliases: []string{"vat", "country_vat"}},
		{Code: "eba_qCO:qx2003", Label: "Passport number", Aliases: []string{"passport"}},
		{Code: "eba_qCO:qx2004", Label: "National identity card number", Aliases: []string{"national_id"}},
		{Code: "eba_qCO:qx2099", Label: "Other code", Aliases: []string{"other"}},
	},
}

// =============================================================================
// CONTRACT AND SERVICE CODE LISTS
// =============================================================================

// ContractTypes classifies contractual arrangements.
var ContractTypes = Codelist{
	Name: "contract_types",
	Entries: []CodeEntry{
		{Code: "eba_CO:x1", Label: "Standalone arrangement", Aliases: []string{"standalone"}},
		{Code: "eba_CO:x2", Label: "Overarching / master arrangement", Aliases: []string{"overarching", "master"}},
		{Code: "eba_CO:x3", Label: "Subsequent or associated arrangement", Aliases: []string{"subsequent", "associated"}},
	},
}

// TerminationReasons explains why an arrangement ended.
var TerminationReasons = Codelist{
	Name: "termination_reasons",
	Entries: []CodeEntry{
		{Code: "eba_CO:x4", Label: "Termination not for cause: expiration of term", Aliases: []string{"expired", "end_of_term"}},
		{Code: "eba_CO:x5", Label: "Termination for cause: breach by the provider", Aliases: []string{"breach"}},
		{Code: "eba_CO:x6", Label: "Impediments capable of altering the supported function", Aliases: []string{"impediment"}},
		{Code: "eba_CO:x7", Label: "Weaknesses in the provider's ICT risk management", Aliases: []string{"ict_risk_weakness"}},
		{Code: "eba_CO:x8", Label: "Instruction by the competent authority", Aliases: []string{"supervisory_instruction"}},
		{Code: "eba_CO:x9", Label: "Other reasons", Aliases: []string{"other"}},
	},
}

// ICTServiceTypes is the ESA taxonomy of ICT services.
var ICTServiceTypes = Codelist{
	Name: "ict_service_types",
	Entries: []CodeEntry{
		{Code: "eba_TA:S01", Label: "ICT project management", Aliases: []string{"project_management"}},
		{Code: "eba_TA:S02", Label: "ICT development", Aliases: []string{"development"}},
		{Code: "eba_TA:S03", Label: "ICT help desk and first level support", Aliases: []string{"help_desk", "support"}},
		{Code: "eba_TA:S04", Label: "ICT security management services", Aliases: []string{"security"}},
		{Code: "eba_TA:S05", Label: "Provision of data", Aliases: []string{"data_provision"}},
		{Code: "eba_TA:S06", Label: "Data analysis", Aliases: []string{"data_analysis"}},
		{Code: "eba_TA:S07", Label: "ICT, facilities and hosting services", Aliases: []string{"hosting", "facilities"}},
		{Code: "eba_TA:S08", Label: "Computation", Aliases: []string{"computation"}},
		{Code: "eba_TA:S09", Label: "Non-cloud data storage", Aliases: []string{"storage"}},
		{Code: "eba_TA:S10", Label: "Telecom carrier", Aliases: []string{"telecom"}},
		{Code: "eba_TA:S11", Label: "Network infrastructure", Aliases: []string{"network"}},
		{Code: "eba_TA:S12", Label: "Hardware and physical devices", Aliases: []string{"hardware"}},
		{Code: "eba_TA:S13", Label: "Software licencing (excluding SaaS)", Aliases: []string{"software_license"}},
		{Code: "eba_TA:S14", Label: "ICT operation management", Aliases: []string{"operations"}},
		{Code: "eba_TA:S15", Label: "ICT consulting", Aliases: []string{"consulting"}},
		{Code: "eba_TA:S16", Label: "ICT risk management", Aliases: []string{"risk_management"}},
		{Code: "eba_TA:S17", Label: "Cloud computing services: IaaS", Aliases: []string{"iaas"}},
		{Code: "eba_TA:S18", Label: "Cloud computing services: PaaS", Aliases: []string{"paas"}},
		{Code: "eba_TA:S19", Label: "Cloud computing services: SaaS", Aliases: []string{"saas"}},
	},
}

// LicensedActivities is a subset of activities a function supports.
var LicensedActivities = Codelist{
	Name: "licensed_activities",
	Entries: []CodeEntry{
		{Code: "eba_TA:x1", Label: "Taking deposits and other repayable funds", Aliases: []string{"deposits"}},
		{Code: "eba_TA:x2", Label: "Lending", Aliases: []string{"lending"}},
		{Code: "eba_TA:x3", Label: "Payment services", Aliases: []string{"payments"}},
		{Code: "eba_TA:x4", Label: "Issuing electronic money", Aliases: []string{"emoney"}},
		{Code: "eba_TA:x5", Label: "Portfolio management", Aliases: []string{"portfolio_management"}},
		{Code: "eba_TA:x6", Label: "Custody and administration", Aliases: []string{"custody"}},
		{Code: "eba_TA:x7", Label: "Underwriting", Aliases: []string{"underwriting"}},
		{Code: "eba_TA:x8", Label: "Crypto-asset services", Aliases: []string{"crypto"}},
		{Code: "eba_TA:x99", Label: "Other activity", Aliases: []string{"other"}},
	},
}

// =============================================================================
// ASSESSMENT CODE LISTS
// =============================================================================

// Criticality is the outcome of a function's criticality assessment.
var Criticality = Codelist{
	Name: "criticality",
	Entries: []CodeEntry{
		{Code: "eba_BT:x28", Label: "Critical or important function", Aliases: []string{"critical", "important", "critical_or_important"}},
		{Code: "eba_BT:x29", Label: "Not critical or important", Aliases: []string{"standard", "not_critical"}},
		{Code: "eba_BT:x21", Label: "Assessment not performed", Aliases: []string{"not_assessed"}},
	},
}

// Substitutability rates how easily a provider can be replaced.
var Substitutability = Codelist{
	Name: "substitutability",
	Entries: []CodeEntry{
		{Code: "eba_ZZ:x959", Label: "Not substitutable", Aliases: []string{"not_substitutable", "none"}},
		{Code: "eba_ZZ:x960", Label: "Highly complex substitutability", Aliases: []string{"highly_complex", "hard"}},
		{Code: "eba_ZZ:x961", Label: "Medium complexity in terms of substitutability", Aliases: []string{"medium"}},
		{Code: "eba_ZZ:x962", Label: "Easily substitutable", Aliases: []string{"easy", "easily_substitutable"}},
	},
}

// RelianceLevels rates dependence on a service.
var RelianceLevels = Codelist{
	Name: "reliance_levels",
	Entries: []CodeEntry{
		{Code: "eba_ZZ:x791", Label: "Not significant", Aliases: []string{"not_significant"}},
		{Code: "eba_ZZ:x792", Label: "Low reliance", Aliases: []string{"low"}},
		{Code: "eba_ZZ:x793", Label: "Material reliance", Aliases: []string{"material"}},
		{Code: "eba_ZZ:x794", Label: "Full reliance", Aliases: []string{"full"}},
	},
}

// Sensitiveness rates the sensitivity of data handled by a provider.
var Sensitiveness = Codelist{
	Name: "sensitiveness",
	Entries: []CodeEntry{
		{Code: "eba_ZZ:x796", Label: "Low", Aliases: []string{"low"}},
		{Code: "eba_ZZ:x797", Label: "Medium", Aliases: []string{"medium"}},
		{Code: "eba_ZZ:x798", Label: "High", Aliases: []string{"high"}},
	},
}

// ImpactLevels rates the impact of discontinuing a function or service.
var ImpactLevels = Codelist{
	Name: "impact_levels",
	Entries: []CodeEntry{
		{Code: "eba_ZZ:x799", Label: "Low impact", Aliases: []string{"low"}},
		{Code: "eba_ZZ:x800", Label: "Medium impact", Aliases: []string{"medium"}},
		{Code: "eba_ZZ:x801", Label: "High impact", Aliases: []string{"high"}},
	},
}

// ReintegrationPossibility rates how feasible insourcing a service is.
var ReintegrationPossibility = Codelist{
	Name: "reintegration",
	Entries: []CodeEntry{
		{Code: "eba_ZZ:x966", Label: "Easy", Aliases: []string{"easy"}},
		{Code: "eba_ZZ:x967", Label: "Difficult", Aliases: []string{"difficult"}},
		{Code: "eba_ZZ:x968", Label: "Highly complex", Aliases: []string{"highly_complex"}},
	},
}

// Codelists returns every built-in list, for the data dictionary.
func Codelists() []Codelist {
	return []Codelist{
		Countries, Currencies, EntityTypes, Hierarchy, NatureOfEntity,
		PersonTypes, ProviderCodeTypes, ContractTypes, TerminationReasons,
		ICTServiceTypes, LicensedActivities, Criticality, Substitutability,
		RelianceLevels, Sensitiveness, ImpactLevels, ReintegrationPossibility,
	}
}
