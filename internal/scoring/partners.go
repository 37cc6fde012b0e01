package scoring

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Partners holds the outbound links and document checklist each tier hands
// to the applicant.
type Partners struct {
	BankName         string   `yaml:"bank_name"`
	BankLink         string   `yaml:"bank_link"`
	FintechName      string   `yaml:"fintech_name"`
	FintechLink      string   `yaml:"fintech_link"`
	UtilityName      string   `yaml:"utility_name"`
	UtilityLink      string   `yaml:"utility_link"`
	UtilityDocuments []string `yaml:"utility_documents"`
	AdvisorLink      string   `yaml:"advisor_link"`
}

func DefaultPartners() Partners {
	return Partners{
		BankName:         "Banco de Bogotá",
		BankLink:         "https://digital.bancodebogota.com/",
		FintechName:      "CrediOrbe",
		FintechLink:      "https://crediorbe.com/",
		UtilityName:      "Brilla",
		UtilityLink:      "https://brilladegasesdeoccidente.com/",
		UtilityDocuments: []string{"recibo_gas", "foto_cedula"},
		AdvisorLink:      "https://wa.me/573000000000",
	}
}

func (p Partners) withDefaults() Partners {
	d := DefaultPartners()
	if p.BankName == "" {
		p.BankName = d.BankName
	}
	if p.BankLink == "" {
		p.BankLink = d.BankLink
	}
	if p.FintechName == "" {
		p.FintechName = d.FintechName
	}
	if p.FintechLink == "" {
		p.FintechLink = d.FintechLink
	}
	if p.UtilityName == "" {
		p.UtilityName = d.UtilityName
	}
	if p.UtilityLink == "" {
		p.UtilityLink = d.UtilityLink
	}
	if len(p.UtilityDocuments) == 0 {
		p.UtilityDocuments = d.UtilityDocuments
	}
	if p.AdvisorLink == "" {
		p.AdvisorLink = d.AdvisorLink
	}
	return p
}

// LoadPartners reads a YAML partners file. A missing file yields the
// defaults; fields left out of the file keep their default value.
func LoadPartners(path string) (Partners, error) {
	if path == "" {
		return DefaultPartners(), nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultPartners(), nil
	}
	if err != nil {
		return Partners{}, fmt.Errorf("read partners file: %w", err)
	}

	var p Partners
	if err := yaml.Unmarshal(b, &p); err != nil {
		return Partners{}, fmt.Errorf("parse partners file %s: %w", path, err)
	}
	return p.withDefaults(), nil
}
