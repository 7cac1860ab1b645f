// =============================================================================
// DORA Register of Information - Reporting Parameters
// =============================================================================
//
// Builds and validates the per-submission metadata (entity LEI, reference
// date, base currency). Validation returns every problem found as a list of
// messages and never panics: a bad LEI is a user input problem, not a crash.
//
// LEI CHECK:
//   ISO 17442 LEIs are 20 characters: 18 alphanumerics followed by two check
//   digits computed with ISO 7064 MOD 97-10. Letters are expanded to numbers
//   (A=10 ... Z=35) and the resulting number modulo 97 must equal 1.
//
// =============================================================================

package params

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/FedericoTs/dora-comply/internal/registry"
	"github.com/FedericoTs/dora-comply/internal/types"
)

// DefaultBaseCurrency is used when an organisation has none configured.
const DefaultBaseCurrency = "EUR"

var leiPattern = regexp.MustCompile(`^[A-Z0-9]{18}[0-9]{2}$`)

// now is replaced in tests.
var now = time.Now

// Organization is the subset of organisation settings parameters come from.
type Organization struct {
	LEI          string
	Name         string
	BaseCurrency string
}

// GetDefaultParameters returns parameters for an entity. An empty
// reportingDate means today (UTC).
func GetDefaultParameters(lei, reportingDate string) types.ReportingParameters {
	return Build(Organization{LEI: lei}, reportingDate)
}

// Build derives parameters from organisation settings.
func Build(org Organization, reportingDate string) types.ReportingParameters {
	if reportingDate == "" {
		reportingDate = now().UTC().Format(time.DateOnly)
	}
	currency := strings.ToUpper(strings.TrimSpace(org.BaseCurrency))
	if currency == "" {
		currency = DefaultBaseCurrency
	}
	return types.ReportingParameters{
		EntityLEI:     strings.ToUpper(strings.TrimSpace(org.LEI)),
		ReportingDate: strings.TrimSpace(reportingDate),
		BaseCurrency:  currency,
		EntityName:    strings.TrimSpace(org.Name),
	}
}

// Result is the outcome of ValidateParameters.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// ValidateParameters checks every parameter and reports one message per
// violation.
func ValidateParameters(p types.ReportingParameters) Result {
	var errs []string

	errs = append(errs, checkLEI(p.EntityLEI)...)

	if p.ReportingDate == "" {
		errs = append(errs, "reporting date is required")
	} else if _, err := ParseDate(p.ReportingDate); err != nil {
		errs = append(errs, fmt.Sprintf("reporting date %q is not a valid YYYY-MM-DD date", p.ReportingDate))
	}

	if p.BaseCurrency == "" {
		errs = append(errs, "base currency is required")
	} else if !registry.IsCurrency(p.BaseCurrency) {
		errs = append(errs, fmt.Sprintf("base currency %q is not an active ISO 4217 code", p.BaseCurrency))
	}

	return Result{Valid: len(errs) == 0, Errors: errs}
}

func checkLEI(lei string) []string {
	switch {
	case lei == "":
		return []string{"entity LEI is required"}
	case len(lei) != 20:
		return []string{fmt.Sprintf("entity LEI must be 20 characters, got %d", len(lei))}
	case !leiPattern.MatchString(lei):
		return []string{"entity LEI must be 18 upper-case alphanumerics followed by 2 check digits"}
	case !checksumOK(lei):
		return []string{"entity LEI check digits are invalid (ISO 7064 MOD 97-10)"}
	}
	return nil
}

// ValidLEI reports whether s is a well-formed LEI with correct check digits.
func ValidLEI(s string) bool {
	return len(s) == 20 && leiPattern.MatchString(s) && checksumOK(s)
}

// checksumOK computes the ISO 7064 MOD 97-10 remainder digit by digit so no
// big integer is needed.
func checksumOK(s string) bool {
	rem := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			rem = (rem*10 + int(r-'0')) % 97
		case r >= 'A' && r <= 'Z':
			v := int(r-'A') + 10
			rem = (rem*100 + v) % 97
		default:
			return false
		}
	}
	return rem == 1
}

// ParseDate parses a strict YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	if len(s) != len(time.DateOnly) {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return time.Parse(time.DateOnly, s)
}
