package config

import (
	"fmt"
	"os"
	"strconv"
)

// AnalyticsConfig holds the unit costs behind the business impact estimate.
type AnalyticsConfig struct {
	BrandIncidentCost float64 `toml:"brand_incident_cost"`
	LawsuitCost       float64 `toml:"lawsuit_cost"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *AnalyticsConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *AnalyticsConfig) Merge(overlay *AnalyticsConfig) {
	if overlay.BrandIncidentCost != 0 {
		c.BrandIncidentCost = overlay.BrandIncidentCost
	}
	if overlay.LawsuitCost != 0 {
		c.LawsuitCost = overlay.LawsuitCost
	}
}

func (c *AnalyticsConfig) loadDefaults() {
	if c.BrandIncidentCost == 0 {
		c.BrandIncidentCost = 50000
	}
	if c.LawsuitCost == 0 {
		c.LawsuitCost = 250000
	}
}

func (c *AnalyticsConfig) loadEnv() {
	if v := os.Getenv("VERITY_ANALYTICS_BRAND_INCIDENT_COST"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.BrandIncidentCost = f
		}
	}
	if v := os.Getenv("VERITY_ANALYTICS_LAWSUIT_COST"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.LawsuitCost = f
		}
	}
}

func (c *AnalyticsConfig) validate() error {
	if c.BrandIncidentCost < 0 {
		return fmt.Errorf("invalid brand_incident_cost: %.2f", c.BrandIncidentCost)
	}
	if c.LawsuitCost < 0 {
		return fmt.Errorf("invalid lawsuit_cost: %.2f", c.LawsuitCost)
	}
	return nil
}
