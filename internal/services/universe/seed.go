package universe

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bobmcallan/nivesh/internal/models"
)

//go:embed seed/funds.yaml
var embeddedSeed []byte

type seedFile struct {
	Funds []models.MutualFund `yaml:"funds"`
}

// LoadSeed reads the curated universe from path, or from the embedded seed
// when path is empty. Structural problems are errors; inconsistencies that do
// not block ranking are returned as warnings.
func LoadSeed(path string) ([]models.MutualFund, []string, error) {
	data := embeddedSeed
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read seed file %s: %w", path, err)
		}
		data = b
	}
	return ParseSeed(data)
}

// ParseSeed decodes and validates a seed document.
func ParseSeed(data []byte) ([]models.MutualFund, []string, error) {
	var doc seedFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("failed to parse seed: %w", err)
	}

	var warnings []string
	seen := make(map[string]bool, len(doc.Funds))
	funds := make([]models.MutualFund, 0, len(doc.Funds))

	for i, f := range doc.Funds {
		f.SchemeCode = strings.TrimSpace(f.SchemeCode)
		if f.SchemeCode == "" {
			return nil, nil, fmt.Errorf("seed fund %d (%s) has no scheme code", i, f.Name)
		}
		if seen[f.SchemeCode] {
			return nil, nil, fmt.Errorf("seed scheme code %s is duplicated", f.SchemeCode)
		}
		seen[f.SchemeCode] = true

		switch f.Risk {
		case models.RiskLow, models.RiskMedium, models.RiskHigh:
		default:
			return nil, nil, fmt.Errorf("seed fund %s has unknown risk %q", f.SchemeCode, f.Risk)
		}

		if f.ID == "" {
			f.ID = f.SchemeCode
		}
		if f.Returns == nil {
			f.Returns = models.FundReturns{}
		}
		if f.Holdings == nil {
			f.Holdings = []string{}
		}
		if f.RedFlags == nil {
			f.RedFlags = []string{}
		}
		f.Origin = models.OriginCurated

		if sub := f.Score.SubTotal(); sub != f.Score.Total {
			warnings = append(warnings, fmt.Sprintf("fund %s: score components sum to %d, total is %d", f.SchemeCode, sub, f.Score.Total))
		}

		funds = append(funds, f)
	}

	if len(funds) == 0 {
		return nil, nil, fmt.Errorf("seed contains no funds")
	}

	return funds, warnings, nil
}
