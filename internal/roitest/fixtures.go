// Package roitest provides a small, fully consistent register of
// information for tests: every mandatory template is populated, every
// reference resolves and every cell is well formed.
package roitest

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/FedericoTs/dora-comply/internal/mapper"
	"github.com/FedericoTs/dora-comply/internal/registry"
	"github.com/FedericoTs/dora-comply/internal/source"
	"github.com/FedericoTs/dora-comply/internal/types"
)

const (
	EntityLEI     = "529900T8BM49AURSDO55"
	SubsidiaryLEI = "549300ABCDEFGH12IJ08"
	ReportingDate = "2024-12-31"
	ContractRef   = "CTR-2024-001"
	ProviderCode  = "969500KLMNOPQR34ST12"
	FunctionID    = "F-PAY-01"
)

// Parameters returns valid reporting parameters matching the fixture.
func Parameters() types.ReportingParameters {
	return types.ReportingParameters{
		EntityLEI:     EntityLEI,
		ReportingDate: ReportingDate,
		BaseCurrency:  "EUR",
		EntityName:    "Example Bank S.A.",
	}
}

// Records returns one typed record per mandatory template, plus one
// subsidiary in scope.
func Records() []source.Record {
	yes := true
	notice := int64(90)
	providerNotice := int64(180)

	return []source.Record{
		&source.EntityRecord{
			LEI:                EntityLEI,
			Name:               "Example Bank S.A.",
			Country:            "LU",
			EntityType:         "credit_institution",
			CompetentAuthority: "CSSF",
			SubmissionDate:     source.NewDate(2025, time.March, 31),
		},
		&source.ScopeEntityRecord{
			LEI:             EntityLEI,
			Name:            "Example Bank S.A.",
			Country:         "LU",
			EntityType:      "credit_institution",
			Hierarchy:       "eba_RP:x53",
			LastUpdated:     source.NewDate(2024, time.December, 15),
			IntegrationDate: source.NewDate(2023, time.January, 1),
			Currency:        "EUR",
			TotalAssets:     decimal.NewNullDecimal(decimal.RequireFromString("1250000000.50")),
		},
		&source.ScopeEntityRecord{
			LEI:             SubsidiaryLEI,
			Name:            "Example Leasing GmbH",
			Country:         "DE",
			EntityType:      "credit_institution",
			Hierarchy:       "eba_RP:x53",
			ParentLEI:       EntityLEI,
			LastUpdated:     source.NewDate(2024, time.December, 15),
			IntegrationDate: source.NewDate(2023, time.June, 1),
			Currency:        "EUR",
			TotalAssets:     decimal.NewNullDecimal(decimal.RequireFromString("80000000")),
		},
		&source.ContractRecord{
			ContractRef:  ContractRef,
			ContractType: "eba_CO:x1",
			Currency:     "EUR",
			AnnualCost:   decimal.NewNullDecimal(decimal.RequireFromString("240000")),
		},
		&source.ContractDetailRecord{
			ContractRef:          ContractRef,
			EntityLEI:            EntityLEI,
			ProviderCode:         ProviderCode,
			ProviderCodeType:     "lei",
			FunctionID:           FunctionID,
			ServiceType:          "eba_TA:S01",
			StartDate:            source.NewDate(2023, time.January, 1),
			EndDate:              source.NewDate(2027, time.December, 31),
			NoticePeriodEntity:   &notice,
			NoticePeriodProvider: &providerNotice,
			GoverningLaw:         "LU",
			ProvisionCountry:     "IE",
			StoresData:           &yes,
			DataLocation:         "IE",
			RelianceLevel:        "eba_ZZ:x791",
		},
		&source.EntitySignatoryRecord{
			ContractRef: ContractRef,
			EntityLEI:   EntityLEI,
			IsSignatory: &yes,
		},
		&source.ProviderSignatoryRecord{
			ContractRef:      ContractRef,
			ProviderCode:     ProviderCode,
			ProviderCodeType: "lei",
			IsSignatory:      &yes,
		},
		&source.ServiceUserRecord{
			ContractRef:  ContractRef,
			EntityLEI:    EntityLEI,
			EntityNature: "eba_ZZ:x838",
		},
		&source.ProviderRecord{
			ProviderCode:        ProviderCode,
			ProviderCodeType:    "lei",
			LegalName:           "Acme Cloud Services Ltd",
			PersonType:          "eba_CT:x212",
			HeadquartersCountry: "IE",
			Currency:            "EUR",
			AnnualExpense:       decimal.NewNullDecimal(decimal.RequireFromString("240000")),
		},
		&source.FunctionRecord{
			FunctionID:            FunctionID,
			LicensedActivity:      "eba_TA:x1",
			FunctionName:          "Payment processing",
			EntityLEI:             EntityLEI,
			Criticality:           "critical",
			LastAssessed:          source.NewDate(2024, time.November, 30),
			RTOHours:              decimal.NewNullDecimal(decimal.NewFromInt(4)),
			RPOHours:              decimal.NewNullDecimal(decimal.NewFromInt(1)),
			DiscontinuationImpact: "eba_ZZ:x799",
		},
		&source.AssessmentRecord{
			ContractRef:           ContractRef,
			ProviderCode:          ProviderCode,
			ProviderCodeType:      "lei",
			ServiceType:           "eba_TA:S01",
			Substitutability:      "eba_ZZ:x959",
			LastAudit:             source.NewDate(2024, time.September, 1),
			HasExitPlan:           &yes,
			DiscontinuationImpact: "eba_ZZ:x799",
			HasAlternatives:       &yes,
		},
	}
}

// Source returns a static source serving Records.
func Source() *source.StaticSource {
	return source.NewStaticSource(Records()...)
}

// Rows returns Records mapped through the default registry.
func Rows() types.TemplateData {
	reg := registry.Default()
	byTemplate := make(map[string][]source.Record)
	for _, rec := range Records() {
		byTemplate[rec.TemplateID()] = append(byTemplate[rec.TemplateID()], rec)
	}

	data := make(types.TemplateData, reg.Len())
	for _, def := range reg.Templates() {
		data[def.ID] = mapper.MapRecords(byTemplate[def.ID], def)
	}
	return data
}
