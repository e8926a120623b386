package blueprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSchema() *DatabaseSchema {
	return &DatabaseSchema{
		Tables: []DatabaseTable{
			{
				Name:        "users",
				Description: "Registered accounts",
				Fields: []DatabaseField{
					{Name: "id", DataType: TypeUUID, Constraints: []FieldConstraint{ConstraintPrimaryKey}, Description: "primary key"},
					{Name: "email", DataType: TypeString, Constraints: []FieldConstraint{ConstraintUnique, ConstraintNotNull}, Description: "login email"},
				},
			},
			{
				Name:        "posts",
				Description: "User posts",
				Fields: []DatabaseField{
					{Name: "id", DataType: TypeUUID, Constraints: []FieldConstraint{ConstraintPrimaryKey}, Description: "primary key"},
					{Name: "user_id", DataType: TypeUUID, Constraints: []FieldConstraint{ConstraintForeignKey, ConstraintNotNull}, ForeignKeyReference: "users.id", Description: "author"},
					{Name: "title", DataType: TypeString, Description: "post title"},
				},
			},
			{
				Name:        "profiles",
				Description: "One profile per user",
				Fields: []DatabaseField{
					{Name: "id", DataType: TypeUUID, Constraints: []FieldConstraint{ConstraintPrimaryKey}, Description: "primary key"},
					{Name: "user_id", DataType: TypeUUID, Constraints: []FieldConstraint{ConstraintForeignKey, ConstraintUnique}, ForeignKeyReference: "users.id", Description: "owner"},
				},
			},
		},
		Reasoning: "normalized around users",
	}
}

func TestDatabaseSchemaValidate(t *testing.T) {
	require.NoError(t, validSchema().Validate())
}

func TestDatabaseSchemaValidateEmptyTables(t *testing.T) {
	s := &DatabaseSchema{Reasoning: "x"}
	assert.Error(t, s.Validate())
}

func TestDatabaseSchemaValidateDuplicateTable(t *testing.T) {
	s := validSchema()
	s.Tables = append(s.Tables, s.Tables[0])
	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate table")
}

func TestDatabaseSchemaValidateUnknownDataType(t *testing.T) {
	s := validSchema()
	s.Tables[0].Fields[0].DataType = "varchar"
	assert.Error(t, s.Validate())
}

func TestDatabaseSchemaValidateForeignKeyWithoutReference(t *testing.T) {
	s := validSchema()
	s.Tables[1].Fields[1].ForeignKeyReference = ""
	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without a reference")
}

func TestDatabaseSchemaValidateDanglingReference(t *testing.T) {
	s := validSchema()
	s.Tables[1].Fields[1].ForeignKeyReference = "accounts.id"
	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown table")
}

func TestDatabaseSchemaValidateUnknownReferencedField(t *testing.T) {
	s := validSchema()
	s.Tables[1].Fields[1].ForeignKeyReference = "users.uuid"
	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown field")
}

func TestDeriveRelationships(t *testing.T) {
	s := validSchema()
	require.NoError(t, s.Validate())

	rels := s.DeriveRelationships()
	require.Len(t, rels, 2)

	assert.Equal(t, "posts", rels[0].FromTable)
	assert.Equal(t, "users", rels[0].ToTable)
	assert.Equal(t, "id", rels[0].ToField)
	assert.Equal(t, "many-to-one", rels[0].Cardinality)

	// Unique FK collapses to one-to-one.
	assert.Equal(t, "profiles", rels[1].FromTable)
	assert.Equal(t, "one-to-one", rels[1].Cardinality)
}

func TestDeriveRelationshipsSkipsInvalidReference(t *testing.T) {
	s := validSchema()
	s.Tables[1].Fields[1].ForeignKeyReference = "nope"
	rels := s.DeriveRelationships()
	require.Len(t, rels, 1)
	assert.Equal(t, "profiles", rels[0].FromTable)
}

func TestTableAndFieldLookup(t *testing.T) {
	s := validSchema()
	require.NotNil(t, s.Table("users"))
	assert.Nil(t, s.Table("missing"))
	assert.NotNil(t, s.Table("users").Field("email"))
	assert.Nil(t, s.Table("users").Field("missing"))
}
