package blueprint

import (
	"fmt"
	"strings"
)

// DataType enumerates database field data types.
type DataType string

const (
	TypeString   DataType = "string"
	TypeInteger  DataType = "integer"
	TypeFloat    DataType = "float"
	TypeBoolean  DataType = "boolean"
	TypeDate     DataType = "date"
	TypeDateTime DataType = "datetime"
	TypeText     DataType = "text"
	TypeJSON     DataType = "json"
	TypeUUID     DataType = "uuid"
	TypeBinary   DataType = "binary"
)

// Valid reports whether the data type is known.
func (d DataType) Valid() bool {
	switch d {
	case TypeString, TypeInteger, TypeFloat, TypeBoolean, TypeDate,
		TypeDateTime, TypeText, TypeJSON, TypeUUID, TypeBinary:
		return true
	default:
		return false
	}
}

// FieldConstraint enumerates database field constraints.
type FieldConstraint string

const (
	ConstraintPrimaryKey    FieldConstraint = "primary_key"
	ConstraintForeignKey    FieldConstraint = "foreign_key"
	ConstraintUnique        FieldConstraint = "unique"
	ConstraintNotNull       FieldConstraint = "not_null"
	ConstraintIndexed       FieldConstraint = "indexed"
	ConstraintAutoIncrement FieldConstraint = "auto_increment"
)

// Valid reports whether the constraint is known.
func (c FieldConstraint) Valid() bool {
	switch c {
	case ConstraintPrimaryKey, ConstraintForeignKey, ConstraintUnique,
		ConstraintNotNull, ConstraintIndexed, ConstraintAutoIncrement:
		return true
	default:
		return false
	}
}

// DatabaseField is a single column in a table.
type DatabaseField struct {
	Name                string            `json:"name"`
	DataType            DataType          `json:"data_type"`
	Constraints         []FieldConstraint `json:"constraints,omitempty"`
	ForeignKeyReference string            `json:"foreign_key_reference,omitempty"` // "table.field" for foreign keys
	Description         string            `json:"description"`
	DefaultValue        string            `json:"default_value,omitempty"`
}

// HasConstraint reports whether the field carries the given constraint.
func (f *DatabaseField) HasConstraint(c FieldConstraint) bool {
	for _, fc := range f.Constraints {
		if fc == c {
			return true
		}
	}
	return false
}

// DatabaseTable is a table with its columns and indexes.
type DatabaseTable struct {
	Name        string          `json:"name"`
	Fields      []DatabaseField `json:"fields"`
	Description string          `json:"description"`
	Indexes     []string        `json:"indexes,omitempty"` // Composite indexes like "user_id,created_at"
}

// Field returns the named field, or nil.
func (t *DatabaseTable) Field(name string) *DatabaseField {
	for i := range t.Fields {
		if t.Fields[i].Name == name {
			return &t.Fields[i]
		}
	}
	return nil
}

// DatabaseSchema is the complete database design stage payload.
type DatabaseSchema struct {
	Tables        []DatabaseTable `json:"tables"`
	Relationships []string        `json:"relationships,omitempty"` // Prose like "users has many posts"
	Reasoning     string          `json:"reasoning"`
}

// Table returns the named table, or nil.
func (s *DatabaseSchema) Table(name string) *DatabaseTable {
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return &s.Tables[i]
		}
	}
	return nil
}

// Validate checks structural completeness and referential integrity: every
// foreign key reference must name an existing table and field.
func (s *DatabaseSchema) Validate() error {
	if len(s.Tables) == 0 {
		return fmt.Errorf("database: tables must not be empty")
	}
	if s.Reasoning == "" {
		return fmt.Errorf("database: reasoning must not be empty")
	}

	seen := make(map[string]bool, len(s.Tables))
	for i := range s.Tables {
		table := &s.Tables[i]
		if table.Name == "" {
			return fmt.Errorf("database: table %d has no name", i)
		}
		if seen[table.Name] {
			return fmt.Errorf("database: duplicate table %q", table.Name)
		}
		seen[table.Name] = true

		if len(table.Fields) == 0 {
			return fmt.Errorf("database: table %q has no fields", table.Name)
		}
		for j := range table.Fields {
			field := &table.Fields[j]
			if field.Name == "" {
				return fmt.Errorf("database: table %q field %d has no name", table.Name, j)
			}
			if !field.DataType.Valid() {
				return fmt.Errorf("database: table %q field %q has unknown data type %q", table.Name, field.Name, field.DataType)
			}
			for _, c := range field.Constraints {
				if !c.Valid() {
					return fmt.Errorf("database: table %q field %q has unknown constraint %q", table.Name, field.Name, c)
				}
			}
			if field.HasConstraint(ConstraintForeignKey) && field.ForeignKeyReference == "" {
				return fmt.Errorf("database: table %q field %q is a foreign key without a reference", table.Name, field.Name)
			}
		}
	}

	// Referential integrity pass once all tables are known.
	for i := range s.Tables {
		table := &s.Tables[i]
		for j := range table.Fields {
			field := &table.Fields[j]
			if field.ForeignKeyReference == "" {
				continue
			}
			refTable, refField, ok := strings.Cut(field.ForeignKeyReference, ".")
			if !ok {
				return fmt.Errorf("database: table %q field %q foreign key reference %q is not table.field",
					table.Name, field.Name, field.ForeignKeyReference)
			}
			target := s.Table(refTable)
			if target == nil {
				return fmt.Errorf("database: table %q field %q references unknown table %q",
					table.Name, field.Name, refTable)
			}
			if target.Field(refField) == nil {
				return fmt.Errorf("database: table %q field %q references unknown field %q.%q",
					table.Name, field.Name, refTable, refField)
			}
		}
	}

	return nil
}

// Relationship is a structured foreign key edge derived from the schema.
// Relationships are computed from field references, never model-produced.
type Relationship struct {
	FromTable   string
	FromField   string
	ToTable     string
	ToField     string
	Cardinality string // "many-to-one" for plain FKs, "one-to-one" when the FK is unique
}

// DeriveRelationships extracts the foreign key edges from a validated schema
// in table order. Invalid references are skipped.
func (s *DatabaseSchema) DeriveRelationships() []Relationship {
	var rels []Relationship
	for i := range s.Tables {
		table := &s.Tables[i]
		for j := range table.Fields {
			field := &table.Fields[j]
			if field.ForeignKeyReference == "" {
				continue
			}
			refTable, refField, ok := strings.Cut(field.ForeignKeyReference, ".")
			if !ok || s.Table(refTable) == nil {
				continue
			}
			cardinality := "many-to-one"
			if field.HasConstraint(ConstraintUnique) {
				cardinality = "one-to-one"
			}
			rels = append(rels, Relationship{
				FromTable:   table.Name,
				FromField:   field.Name,
				ToTable:     refTable,
				ToField:     refField,
				Cardinality: cardinality,
			})
		}
	}
	return rels
}
