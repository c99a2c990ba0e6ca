// Package org provides organization value types and pure validation logic.
package org

import (
	"strings"
	"time"
	"unicode"
)

// Type classifies an organization node in the hierarchy.
type Type string

// Organization types.
const (
	TypeCompany    Type = "company"
	TypeDepartment Type = "department"
	TypeTeam       Type = "team"
)

// ValidType reports whether t is a known organization type.
func ValidType(t Type) bool {
	switch t {
	case TypeCompany, TypeDepartment, TypeTeam:
		return true
	}
	return false
}

// Settings holds per-organization wellness configuration.
type Settings struct {
	Timezone           string `json:"timezone"`
	Locale             string `json:"locale"`
	EmociogramaEnabled bool   `json:"emociogramaEnabled"`
	AlertThreshold     int    `json:"alertThreshold"`
	DataRetentionDays  int    `json:"dataRetentionDays"`
	AnonymityDefault   bool   `json:"anonymityDefault"`
}

// DefaultSettings returns the settings applied when a create request omits
// them.
func DefaultSettings() Settings {
	return Settings{
		Timezone:           "America/Sao_Paulo",
		Locale:             "pt-BR",
		EmociogramaEnabled: true,
		AlertThreshold:     3,
		DataRetentionDays:  365,
		AnonymityDefault:   true,
	}
}

// SettingsPatch is a partial settings update. Nil fields are left unchanged.
type SettingsPatch struct {
	Timezone           *string `json:"timezone,omitempty"`
	Locale             *string `json:"locale,omitempty"`
	EmociogramaEnabled *bool   `json:"emociogramaEnabled,omitempty"`
	AlertThreshold     *int    `json:"alertThreshold,omitempty"`
	DataRetentionDays  *int    `json:"dataRetentionDays,omitempty"`
	AnonymityDefault   *bool   `json:"anonymityDefault,omitempty"`
}

// Apply merges the patch over s and returns the result.
func (p SettingsPatch) Apply(s Settings) Settings {
	if p.Timezone != nil {
		s.Timezone = *p.Timezone
	}
	if p.Locale != nil {
		s.Locale = *p.Locale
	}
	if p.EmociogramaEnabled != nil {
		s.EmociogramaEnabled = *p.EmociogramaEnabled
	}
	if p.AlertThreshold != nil {
		s.AlertThreshold = *p.AlertThreshold
	}
	if p.DataRetentionDays != nil {
		s.DataRetentionDays = *p.DataRetentionDays
	}
	if p.AnonymityDefault != nil {
		s.AnonymityDefault = *p.AnonymityDefault
	}
	return s
}

// Organization is an organization record (value type).
type Organization struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Slug      string     `json:"slug"`
	Type      Type       `json:"type"`
	Settings  Settings   `json:"settings"`
	ParentID  string     `json:"parentId,omitempty"`
	IsActive  bool       `json:"isActive"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

// Slugify derives a URL-safe slug from an organization name: lowercase,
// runs of non-alphanumerics collapse to single hyphens, edges trimmed.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true // suppress leading hyphen
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) && r < 128, unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// Validate checks a candidate create request. It returns a map of field
// errors suitable for a validation failure envelope; empty means valid.
func Validate(name string, typ Type, threshold, retention int) map[string]any {
	errs := make(map[string]any)
	if strings.TrimSpace(name) == "" {
		errs["name"] = "name is required"
	} else if len(name) > 120 {
		errs["name"] = "name must be at most 120 characters"
	}
	if !ValidType(typ) {
		errs["type"] = "type must be one of company, department, team"
	}
	if threshold < 1 || threshold > 5 {
		errs["settings.alertThreshold"] = "alertThreshold must be between 1 and 5"
	}
	if retention < 1 {
		errs["settings.dataRetentionDays"] = "dataRetentionDays must be positive"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}
