package models

import (
	"fmt"
	"strings"
)

// Province is a two-letter Canadian province code. The three territories are not
// eligible and have no constant.
type Province string

const (
	ProvinceAlberta                 Province = "AB"
	ProvinceBritishColumbia         Province = "BC"
	ProvinceManitoba                Province = "MB"
	ProvinceNewBrunswick            Province = "NB"
	ProvinceNewfoundlandAndLabrador Province = "NL"
	ProvinceNovaScotia              Province = "NS"
	ProvinceOntario                 Province = "ON"
	ProvincePrinceEdwardIsland      Province = "PE"
	ProvinceQuebec                  Province = "QC"
	ProvinceSaskatchewan            Province = "SK"
)

var provinceNames = map[Province]string{
	ProvinceAlberta:                 "Alberta",
	ProvinceBritishColumbia:         "British Columbia",
	ProvinceManitoba:                "Manitoba",
	ProvinceNewBrunswick:            "New Brunswick",
	ProvinceNewfoundlandAndLabrador: "Newfoundland and Labrador",
	ProvinceNovaScotia:              "Nova Scotia",
	ProvinceOntario:                 "Ontario",
	ProvincePrinceEdwardIsland:      "Prince Edward Island",
	ProvinceQuebec:                  "Quebec",
	ProvinceSaskatchewan:            "Saskatchewan",
}

// Provinces lists the eligible provinces in display order.
var Provinces = []Province{
	ProvinceAlberta,
	ProvinceBritishColumbia,
	ProvinceManitoba,
	ProvinceNewBrunswick,
	ProvinceNewfoundlandAndLabrador,
	ProvinceNovaScotia,
	ProvinceOntario,
	ProvincePrinceEdwardIsland,
	ProvinceQuebec,
	ProvinceSaskatchewan,
}

func (p Province) IsValid() bool {
	_, ok := provinceNames[p]
	return ok
}

// Name returns the English name, or "" for an unknown code.
func (p Province) Name() string {
	return provinceNames[p]
}

func (p Province) String() string {
	return string(p)
}

// ParseProvince accepts a code ("on") or a full name ("Ontario"), case-insensitive.
func ParseProvince(s string) (Province, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("province is empty")
	}
	code := Province(strings.ToUpper(s))
	if code.IsValid() {
		return code, nil
	}
	for p, name := range provinceNames {
		if strings.EqualFold(name, s) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown province %q", s)
}
