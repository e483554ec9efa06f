package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

type ReferenceSeed struct {
	Provinces      []string            `json:"provinces"`
	Certifications []CertificationSeed `json:"certifications"`
	CommodityTypes []string            `json:"commodity_types"`
	Seasons        []string            `json:"seasons"`
}

type CertificationSeed struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func LoadReferenceSeed(path string) (ReferenceSeed, error) {
	if path == "" {
		return ReferenceSeed{}, fmt.Errorf("reference seed path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return ReferenceSeed{}, fmt.Errorf("read reference seed: %w", err)
	}

	var seed ReferenceSeed
	if err := json.Unmarshal(data, &seed); err != nil {
		return ReferenceSeed{}, fmt.Errorf("parse reference seed: %w", err)
	}

	if len(seed.Provinces) == 0 {
		return ReferenceSeed{}, fmt.Errorf("provinces are required")
	}
	for _, province := range seed.Provinces {
		if strings.TrimSpace(province) == "" {
			return ReferenceSeed{}, fmt.Errorf("province name is empty")
		}
	}
	for _, cert := range seed.Certifications {
		if strings.TrimSpace(cert.Code) == "" {
			return ReferenceSeed{}, fmt.Errorf("certifications.code is required")
		}
	}

	return seed, nil
}
