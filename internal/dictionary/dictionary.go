// Package dictionary maintains the data dictionary: the single source of truth
// about the analytics schema shared by the validator (known-table checks), the
// classifier (place-name lookups), the insight engine (reference populations),
// and the translator (schema context for the language model). The dictionary is
// generated once from the live database, cached, and treated as immutable until
// refreshed.
package dictionary

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ColumnInfo describes one column of an analytics table.
type ColumnInfo struct {
	Name          string `json:"name"`
	DataType      string `json:"data_type"`
	Nullable      bool   `json:"nullable"`
	PrimaryKey    bool   `json:"primary_key"`
	Description   string `json:"description,omitempty"`
	SampleValues  []any  `json:"sample_values,omitempty"`
	DistinctCount int    `json:"distinct_count,omitempty"`
}

// TableInfo describes one analytics table.
type TableInfo struct {
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	RowCount    int64        `json:"row_count"`
	Columns     []ColumnInfo `json:"columns"`
}

// ColumnNames returns the column names in declaration order.
func (t *TableInfo) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Dictionary is the complete schema artifact.
type Dictionary struct {
	DatabaseName        string      `json:"database_name"`
	DatabaseDescription string      `json:"database_description"`
	Tables              []TableInfo `json:"tables"`
	GeneratedAt         time.Time   `json:"generated_at"`
	Version             string      `json:"version"`

	tableIndex map[string]*TableInfo
	places     map[string]bool
}

// tableDescriptions documents the global health tables the deployment ships with.
// Tables discovered in the database but absent here get an empty description.
var tableDescriptions = map[string]string{
	"disease_burden":                  "Global Burden of Disease data tracking deaths and Disability-Adjusted Life Years (DALYs) by cause, country, age group, sex, and year. Primary table for mortality analysis.",
	"intervention_outcomes":           "Health intervention effectiveness studies measuring baseline rates, post-intervention rates, and reduction percentages for various public health programs.",
	"health_system_capacity":          "Healthcare infrastructure metrics including physicians, nurses, hospital beds per capita, health expenditure, and Universal Health Coverage index.",
	"immunization_coverage":           "Vaccination coverage percentages by country, vaccine type, and year. Includes doses administered and target population groups.",
	"maternal_child_health":           "Maternal and child health indicators including mortality rates (maternal, infant, under-5, neonatal), skilled birth attendance, and antenatal care coverage.",
	"infectious_disease_surveillance": "Disease outbreak and surveillance data tracking confirmed/suspected cases, deaths, case fatality rates, and outbreak status by country and time period.",
}

var columnDescriptions = map[string]string{
	"country":      "Country name",
	"country_code": "ISO 3-letter country code",
	"region":       "Geographic region (e.g., Sub-Saharan Africa, South Asia)",
	"income_group": "World Bank income classification (Low, Lower middle, Upper middle, High)",
	"year":         "Calendar year of the data",

	"cause_of_death":  "Specific cause of death (e.g., Malaria, HIV/AIDS, Stroke)",
	"deaths":          "Number of deaths",
	"dalys_thousands": "Disability-Adjusted Life Years in thousands",
	"age_group":       "Age range (0-4, 5-14, 15-29, 30-44, 45-59, 60-74, 75+)",
	"sex":             "Biological sex (Male, Female)",
	"data_source":     "Data source organization",

	"intervention_type":               "Type of health intervention (e.g., Bed net distribution, Vaccination)",
	"target_condition":                "Health condition targeted by the intervention",
	"baseline_rate_per_100k":          "Disease rate per 100,000 before intervention",
	"post_intervention_rate_per_100k": "Disease rate per 100,000 after intervention",
	"reduction_percent":               "Percentage reduction achieved",
	"study_year":                      "Year the study was conducted",
	"sample_size":                     "Number of participants in the study",
	"confidence_interval_lower":       "Lower bound of 95% confidence interval",
	"confidence_interval_upper":       "Upper bound of 95% confidence interval",
	"study_quality":                   "Quality rating of the study (High, Moderate, Low)",

	"physicians_per_10k":                "Number of physicians per 10,000 population",
	"nurses_per_10k":                    "Number of nurses per 10,000 population",
	"hospital_beds_per_10k":             "Hospital beds per 10,000 population",
	"health_expenditure_pct_gdp":        "Health expenditure as percentage of GDP",
	"health_expenditure_per_capita_usd": "Health expenditure per person in USD",
	"out_of_pocket_pct":                 "Percentage of health costs paid out-of-pocket",
	"universal_health_coverage_index":   "UHC service coverage index (0-100)",

	"vaccine":                     "Vaccine type (e.g., BCG, DTP3, MCV1, Polio3)",
	"coverage_pct":                "Percentage of target population vaccinated",
	"target_group":                "Population group targeted for vaccination",
	"doses_administered_millions": "Total doses administered in millions",

	"maternal_mortality_ratio":     "Maternal deaths per 100,000 live births",
	"infant_mortality_rate":        "Infant deaths per 1,000 live births",
	"under5_mortality_rate":        "Under-5 deaths per 1,000 live births",
	"neonatal_mortality_rate":      "Neonatal deaths per 1,000 live births",
	"stillbirth_rate":              "Stillbirths per 1,000 total births",
	"skilled_birth_attendance_pct": "Percentage of births attended by skilled personnel",
	"antenatal_care_4visits_pct":   "Percentage receiving 4+ antenatal visits",
	"low_birthweight_pct":          "Percentage of newborns with low birth weight",

	"disease":            "Infectious disease name",
	"confirmed_cases":    "Number of laboratory-confirmed cases",
	"suspected_cases":    "Number of suspected/probable cases",
	"case_fatality_rate": "Proportion of cases resulting in death",
	"incidence_per_100k": "New cases per 100,000 population",
	"outbreak_status":    "Current status (Sporadic, Endemic, Outbreak)",
	"month":              "Month of the year (1-12)",
}

// New builds a Dictionary from discovered tables and wires the lookup indexes.
func New(databaseName, description string, tables []TableInfo) *Dictionary {
	d := &Dictionary{
		DatabaseName:        databaseName,
		DatabaseDescription: description,
		Tables:              tables,
		GeneratedAt:         time.Now().UTC(),
		Version:             "1.0",
	}
	d.buildIndexes()
	return d
}

func (d *Dictionary) buildIndexes() {
	d.tableIndex = make(map[string]*TableInfo, len(d.Tables))
	d.places = make(map[string]bool)
	for i := range d.Tables {
		t := &d.Tables[i]
		d.tableIndex[strings.ToLower(t.Name)] = t
		// Sample values of country/region columns seed the place-name index
		// the classifier consults.
		for _, c := range t.Columns {
			lower := strings.ToLower(c.Name)
			if lower != "country" && lower != "region" {
				continue
			}
			for _, v := range c.SampleValues {
				if s, ok := v.(string); ok {
					d.places[strings.ToLower(s)] = true
				}
			}
		}
	}
	for name := range referencePopulations {
		d.places[strings.ToLower(name)] = true
	}
}

// Table returns the table with the given name, case-insensitively.
func (d *Dictionary) Table(name string) (*TableInfo, bool) {
	t, ok := d.tableIndex[strings.ToLower(name)]
	return t, ok
}

// KnownTable reports whether the name refers to an analytics table. The
// validator uses this to reject hallucinated table names before execution.
func (d *Dictionary) KnownTable(name string) bool {
	// Accept schema-qualified references against the public schema.
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	_, ok := d.tableIndex[strings.ToLower(name)]
	return ok
}

// IsPlaceName reports whether the value names a known geographic entity.
func (d *Dictionary) IsPlaceName(value string) bool {
	return d.places[strings.ToLower(strings.TrimSpace(value))]
}

// ReferencePopulation returns the reference population for an entity, used for
// per-capita normalization when a query result carries no denominator column.
func (d *Dictionary) ReferencePopulation(entity string) (float64, bool) {
	p, ok := referencePopulations[canonicalPlace(entity)]
	return p, ok
}

// LLMContext renders the dictionary as schema context for the language-model
// system prompt, so generated SQL references real tables and columns.
func (d *Dictionary) LLMContext() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n%s\n\n## Available Tables\n\n", d.DatabaseName, d.DatabaseDescription)

	for _, t := range d.Tables {
		fmt.Fprintf(&b, "### %s\n", t.Name)
		fmt.Fprintf(&b, "**Description:** %s\n", t.Description)
		fmt.Fprintf(&b, "**Rows:** %d\n\n", t.RowCount)
		b.WriteString("| Column | Type | Description | Sample Values |\n")
		b.WriteString("|--------|------|-------------|---------------|\n")
		for _, c := range t.Columns {
			samples := formatSamples(c.SampleValues, 3)
			pk := ""
			if c.PrimaryKey {
				pk = " (PK)"
			}
			fmt.Fprintf(&b, "| %s%s | %s | %s | %s |\n", c.Name, pk, c.DataType, c.Description, samples)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Markdown renders full human-readable documentation.
func (d *Dictionary) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s - Data Dictionary\n\n", d.DatabaseName)
	fmt.Fprintf(&b, "*Generated: %s*\n\n", d.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "## Overview\n\n%s\n\n", d.DatabaseDescription)
	var total int64
	for _, t := range d.Tables {
		total += t.RowCount
	}
	fmt.Fprintf(&b, "**Total Tables:** %d\n**Total Rows:** %d\n\n---\n\n", len(d.Tables), total)

	for _, t := range d.Tables {
		fmt.Fprintf(&b, "## %s\n\n> %s\n\n**Row Count:** %d\n\n### Columns\n\n", t.Name, t.Description, t.RowCount)
		b.WriteString("| Column | Type | Nullable | Description |\n")
		b.WriteString("|--------|------|----------|-------------|\n")
		for _, c := range t.Columns {
			nullable := "No"
			if c.Nullable {
				nullable = "Yes"
			}
			pk := ""
			if c.PrimaryKey {
				pk = " **(PK)**"
			}
			fmt.Fprintf(&b, "| %s%s | `%s` | %s | %s |\n", c.Name, pk, c.DataType, nullable, c.Description)
		}
		b.WriteString("\n### Sample Values\n\n")
		for _, c := range t.Columns {
			if len(c.SampleValues) > 0 && c.DistinctCount > 0 && c.DistinctCount <= 20 {
				var vals []string
				for _, v := range c.SampleValues {
					vals = append(vals, fmt.Sprintf("`%v`", v))
				}
				fmt.Fprintf(&b, "- **%s**: %s\n", c.Name, strings.Join(vals, ", "))
			}
		}
		b.WriteString("\n---\n\n")
	}
	return b.String()
}

// MarshalBinary serializes the dictionary for caching.
func (d *Dictionary) MarshalBinary() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// Load deserializes a cached dictionary and rebuilds its indexes.
func Load(data []byte) (*Dictionary, error) {
	var d Dictionary
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode dictionary: %w", err)
	}
	d.buildIndexes()
	return &d, nil
}

// TableNames returns all table names sorted.
func (d *Dictionary) TableNames() []string {
	names := make([]string, 0, len(d.Tables))
	for _, t := range d.Tables {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}

func formatSamples(values []any, limit int) string {
	var parts []string
	for i, v := range values {
		if i >= limit {
			parts = append(parts, "...")
			break
		}
		parts = append(parts, fmt.Sprintf("%v", v))
	}
	return strings.Join(parts, ", ")
}
