package lookup

import (
	"github.com/krew-solutions/ascetic-lookup-go/asceticlookup/schema"
)

func newTestSchema() *schema.Registry {
	return schema.NewRegistry().
		Entity("Variable", "variables").
		Column("id", schema.TypeInteger).
		Column("value", schema.TypeFloat).
		Column("created_at", schema.TypeTimestamp).
		Column("extra", schema.TypeJSON).
		Column("attribute_id", schema.TypeInteger).
		Column("modeling_unit_id", schema.TypeInteger).
		PrimaryKey("id").
		Relation("attribute", "Attribute", "attribute_id", "id").
		Relation("modeling_unit", "ModelingUnit", "modeling_unit_id", "id").
		Entity("Attribute", "attributes").
		Column("id", schema.TypeInteger).
		Column("description", schema.TypeText).
		Column("database_id", schema.TypeInteger).
		PrimaryKey("id").
		Relation("database", "Database", "database_id", "id").
		Entity("Database", "databases").
		Column("id", schema.TypeInteger).
		Column("name", schema.TypeText).
		PrimaryKey("id").
		Entity("ModelingUnit", "modeling_units").
		Column("id", schema.TypeInteger).
		Column("description", schema.TypeText).
		PrimaryKey("id").
		Entity("Measurement", "measurements").
		Column("tenant_id", schema.TypeUUID).
		Column("id", schema.TypeInteger).
		Column("value", schema.TypeFloat).
		Column("variable_id", schema.TypeInteger).
		PrimaryKey("tenant_id", "id").
		Relation("variable", "Variable", "variable_id", "id").
		Entity("Reading", "readings").
		Column("sensor", schema.TypeText).
		Column("taken_at", schema.TypeTimestamp).
		Column("value", schema.TypeFloat).
		PrimaryKey("sensor", "taken_at").
		Registry()
}
