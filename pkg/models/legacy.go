package models

// LegacyTagTable describes one of the per-entity join tables that predate
// entity_tags. They're read by the consolidation job and checked by tag
// deletion; this repo never writes to them.
type LegacyTagTable struct {
	Table          string
	EntityType     EntityType
	EntityIDColumn string
}

var LegacyTagTables = []LegacyTagTable{
	{"company_tags", EntityTypeCompany, "company_id"},
	{"product_tags", EntityTypeProduct, "product_id"},
	{"service_tags", EntityTypeService, "service_id"},
	{"space_tags", EntityTypeSpace, "space_id"},
	{"company_product_tags", EntityTypeCompanyProduct, "company_product_id"},
}
