package model

// ColumnRole is the inferred semantic category of a result column. Roles are
// derived per result set and never persisted.
type ColumnRole string

const (
	RoleIdentifier        ColumnRole = "identifier"         // Row keys, codes, surrogate ids
	RoleCategorical       ColumnRole = "categorical"        // Bounded text labels
	RoleTemporal          ColumnRole = "temporal"           // Dates, years, months
	RoleNumericContinuous ColumnRole = "numeric_continuous" // Rates, percentages, measurements
	RoleNumericCount      ColumnRole = "numeric_count"      // Non-negative integer tallies
	RoleGeographic        ColumnRole = "geographic_entity"  // Countries, regions
	RoleUnknown           ColumnRole = "unknown"            // Unclassifiable; excluded from chart binding
)

// Numeric reports whether the role is one of the numeric roles.
func (r ColumnRole) Numeric() bool {
	return r == RoleNumericContinuous || r == RoleNumericCount
}

// Entity reports whether the role can name an entity for baseline comparison.
func (r ColumnRole) Entity() bool {
	return r == RoleCategorical || r == RoleGeographic
}
