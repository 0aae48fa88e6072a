package model

// CRMColumns is the fixed column order of the general CRM export.
var CRMColumns = []string{
	// company
	"business_name", "dba_name", "company_type", "industry_primary",
	"industry_secondary", "business_description", "founded_date",
	"company_size", "annual_revenue", "public_private",

	// contact
	"headquarters_address", "headquarters_city", "headquarters_state",
	"headquarters_zip", "phone_main", "phone_toll_free", "fax_number",
	"email_general", "website_url", "linkedin_company",

	// leadership
	"ceo_name", "ceo_email", "ceo_linkedin", "president_name",
	"cfo_name", "cto_name", "sales_director", "marketing_director",
	"hr_director",

	"general_email", "sales_email", "support_email",
	"procurement_contact", "it_contact", "finance_contact",

	"market_position", "main_competitors", "competitive_advantages",
	"geographic_coverage", "customer_base", "revenue_growth",

	"service_type", "technology_focus", "coverage",
	"primary_software", "crm_system", "cloud_provider",

	"business_hours", "time_zone", "certifications",
	"licenses", "union_status",

	"buying_cycle", "budget_range", "fiscal_year_end",
	"procurement_process", "vendor_requirements",

	"rating", "review_count", "social_media_presence",

	// quality metadata
	"data_quality_score", "completeness_score", "confidence_score",
	"verification_status", "data_source", "data_sources_all",
	"collection_date", "last_updated", "naics_code",

	// lead scoring
	"lead_score", "buying_intent", "timing_indicators",
	"budget_indicators", "authority_level", "need_urgency",
}

// ISPColumn maps an ISP export column to the record field it reads.
type ISPColumn struct {
	Header string
	Field  string
}

// ISPColumns is the fixed column order of the ISP export.
var ISPColumns = []ISPColumn{
	{"company_name", FieldBusinessName},
	{"business_address", FieldAddress},
	{"phone_number", FieldPhone},
	{"website_url", FieldWebsite},
	{"business_description", FieldBusinessDescription},
	{"isp_type", FieldISPType},
	{"service_coverage", FieldCoverage},
	{"naics_code", FieldNAICSCode},
	{"industry_description", FieldIndustryDescription},
	{"data_quality_score", FieldQualityScore},
	{"confidence_score", FieldConfidenceScore},
	{"source_attribution", FieldSource},
	{"validation_flags", FieldValidationFlags},
}

// ExpectedFieldCount is the schema size completeness is measured against.
const ExpectedFieldCount = 50
