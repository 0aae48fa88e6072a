package model

// Field names used across pipeline stages.
const (
	FieldBusinessName        = "business_name"
	FieldBusinessDescription = "business_description"
	FieldAddress             = "address"
	FieldPhone               = "phone_number"
	FieldWebsite             = "website"
	FieldIndustry            = "industry"
	FieldCategories          = "categories"
	FieldCompanySize         = "company_size"
	FieldServiceType         = "service_type"
	FieldTechnologyFocus     = "technology_focus"
	FieldCoverage            = "coverage"
	FieldRating              = "rating"
	FieldReviewCount         = "review_count"
	FieldBusinessHours       = "business_hours"

	FieldCEOName           = "ceo_name"
	FieldCEOEmail          = "ceo_email"
	FieldPresidentName     = "president_name"
	FieldCFOName           = "cfo_name"
	FieldCTOName           = "cto_name"
	FieldSalesDirector     = "sales_director"
	FieldMarketingDirector = "marketing_director"

	FieldGeneralEmail     = "general_email"
	FieldSalesEmail       = "sales_email"
	FieldSupportEmail     = "support_email"
	FieldAdditionalEmails = "additional_emails"

	FieldHQAddress = "headquarters_address"
	FieldHQCity    = "headquarters_city"
	FieldHQState   = "headquarters_state"
	FieldHQZip     = "headquarters_zip"

	FieldNAICSCode               = "naics_code"
	FieldIndustryCategory        = "industry_category"
	FieldIndustryDescription     = "industry_description"
	FieldIndustryPrimary         = "industry_primary"
	FieldIndustrySecondary       = "industry_secondary"
	FieldConfidenceScore         = "confidence_score"
	FieldClassificationMethod    = "classification_method"
	FieldClassificationReasoning = "classification_reasoning"
	FieldISPType                 = "isp_type"

	FieldDataQualityScore = "data_quality_score"
	FieldCompleteness     = "completeness_score"
	FieldLeadScore        = "lead_score"
	FieldQualityScore     = "quality_score"
	FieldReliabilityScore = "reliability_score"
	FieldPhoneValid       = "phone_valid"
	FieldWebsiteValid     = "website_valid"
	FieldValidationFlags  = "validation_flags"
	FieldValidationStatus = "validation_status"

	FieldSource         = "source"
	FieldCollectionDate = "collection_date"
	FieldValidationDate = "validation_date"
)

// bookkeepingFields are written by validation and excluded from completeness.
var bookkeepingFields = map[string]bool{
	FieldDataQualityScore: true,
	FieldCompleteness:     true,
	FieldLeadScore:        true,
	FieldQualityScore:     true,
	FieldReliabilityScore: true,
	FieldPhoneValid:       true,
	FieldWebsiteValid:     true,
	FieldValidationFlags:  true,
	FieldValidationStatus: true,
	FieldCollectionDate:   true,
	FieldValidationDate:   true,
}

// LeadershipFields lists the contact fields filled by website enrichment.
var LeadershipFields = []string{
	FieldCEOName,
	FieldCEOEmail,
	FieldPresidentName,
	FieldCFOName,
	FieldCTOName,
	FieldSalesDirector,
	FieldMarketingDirector,
}

// EmailFields lists the email-valued fields normalized by validation.
var EmailFields = []string{
	FieldCEOEmail,
	FieldGeneralEmail,
	FieldSalesEmail,
	FieldSupportEmail,
}
