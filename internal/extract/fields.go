package extract

import "github.com/JakeFAU/tender-acquirer/internal/tender"

type valueKind int

const (
	kindText valueKind = iota
	kindDate
	kindPrice
)

type fieldSpec struct {
	name       string
	kind       valueKind
	set        func(r *tender.Record, v string)
	candidates []string
}

func responsibleOrg(field string) []string {
	return []string{
		"//ns5:responsibleOrgInfo/ns5:" + field,
		"//responsibleOrgInfo/" + field,
		"//ns5:" + field,
		"//" + field,
	}
}

// tenderFields lists the flat tender fields with their candidate paths.
var tenderFields = []fieldSpec{
	{"reestr_number", kindText, func(r *tender.Record, v string) { r.ReestrNumber = v }, []string{
		"//ns5:purchaseNumber", "//purchaseNumber",
		"//ns5:commonInfo/ns5:purchaseNumber", "//commonInfo/purchaseNumber",
		"//*[local-name()='purchaseNumber']",
	}},
	{"doc_number", kindText, func(r *tender.Record, v string) { r.DocNumber = v }, []string{
		"//ns5:docNumber", "//docNumber", "//ns5:commonInfo/ns5:docNumber",
	}},
	{"title", kindText, func(r *tender.Record, v string) { r.Title = v }, []string{
		"//ns5:purchaseObjectInfo", "//purchaseObjectInfo", "//ns5:commonInfo/ns5:purchaseObjectInfo",
	}},
	{"placement_type", kindText, func(r *tender.Record, v string) { r.PlacementType = v }, []string{
		"//ns5:placingWay/ns2:name", "//placingWay/name", "//ns2:name",
	}},
	{"publish_date", kindDate, func(r *tender.Record, v string) { r.PublishDate = v }, []string{
		"//ns5:publishDTInEIS", "//publishDTInEIS", "//ns5:commonInfo/ns5:publishDTInEIS",
	}},
	{"planned_publish_date", kindDate, func(r *tender.Record, v string) { r.PlannedPublishDate = v }, []string{
		"//ns5:plannedPublishDate", "//plannedPublishDate",
	}},
	{"max_price", kindPrice, func(r *tender.Record, v string) { r.MaxPrice = v }, []string{
		"//ns5:maxPrice", "//maxPrice",
		"//ns5:contractConditionsInfo/ns5:maxPriceInfo/ns5:maxPrice",
		"//ns5:notificationInfo/ns5:contractConditionsInfo/ns5:maxPriceInfo/ns5:maxPrice",
	}},
	{"currency", kindText, func(r *tender.Record, v string) { r.Currency = v }, []string{
		"//ns5:currency/ns2:name", "//currency/name", "//ns2:name[parent::currency]",
	}},
	{"start_date", kindDate, func(r *tender.Record, v string) { r.StartDate = v }, []string{
		"//ns5:startDT", "//startDT", "//ns5:collectingInfo/ns5:startDT",
	}},
	{"end_date", kindDate, func(r *tender.Record, v string) { r.EndDate = v }, []string{
		"//ns5:endDT", "//endDT", "//ns5:collectingInfo/ns5:endDT",
	}},
	{"bidding_date", kindDate, func(r *tender.Record, v string) { r.BiddingDate = v }, []string{
		"//ns5:biddingDate", "//biddingDate",
	}},
	{"summarizing_date", kindDate, func(r *tender.Record, v string) { r.SummarizingDate = v }, []string{
		"//ns5:summarizingDate", "//summarizingDate",
	}},
	{"organization_name", kindText, func(r *tender.Record, v string) { r.OrganizationName = v }, responsibleOrg("fullName")},
	{"organization_short_name", kindText, func(r *tender.Record, v string) { r.OrganizationShortName = v }, responsibleOrg("shortName")},
	{"organization_inn", kindText, func(r *tender.Record, v string) { r.OrganizationINN = v }, responsibleOrg("INN")},
	{"organization_kpp", kindText, func(r *tender.Record, v string) { r.OrganizationKPP = v }, responsibleOrg("KPP")},
	{"contact_email", kindText, func(r *tender.Record, v string) { r.ContactEmail = v }, []string{
		"//ns5:contactEMail", "//contactEMail",
	}},
	{"contact_phone", kindText, func(r *tender.Record, v string) { r.ContactPhone = v }, []string{
		"//ns5:contactPhone", "//contactPhone",
	}},
	{"etp_name", kindText, func(r *tender.Record, v string) { r.ETPName = v }, []string{
		"//ns5:ETP/ns2:name", "//ETP/name",
	}},
	{"etp_url", kindText, func(r *tender.Record, v string) { r.ETPURL = v }, []string{
		"//ns5:ETP/ns2:url", "//ETP/url",
	}},
	{"href", kindText, func(r *tender.Record, v string) { r.Href = v }, []string{
		"//ns5:href", "//href",
	}},
	{"print_form_url", kindText, func(r *tender.Record, v string) { r.PrintFormURL = v }, []string{
		"//ns5:printFormInfo/ns4:url", "//printFormInfo/url",
	}},
	{"version_number", kindText, func(r *tender.Record, v string) { r.VersionNumber = v }, []string{
		"//ns5:versionNumber", "//versionNumber",
	}},
	{"external_id", kindText, func(r *tender.Record, v string) { r.ExternalID = v }, []string{
		"//ns5:externalId", "//externalId",
	}},
}

var contactPersonPaths = []string{"//ns5:contactPersonInfo", "//contactPersonInfo"}

// Name parts in output order.
var contactNameParts = [][]string{
	{"ns4:firstName", "firstName"},
	{"ns4:middleName", "middleName"},
	{"ns4:lastName", "lastName"},
}

var (
	collectingStartPaths = []string{"//ns5:collectingInfo/ns5:startDT", "//collectingInfo/startDT"}
	collectingEndPaths   = []string{"//ns5:collectingInfo/ns5:endDT", "//collectingInfo/endDT"}

	lotPaths       = []string{"//ns5:lotInfo", "//lotInfo"}
	lotNumberPaths = []string{".//ns5:lotNumber", ".//lotNumber"}
	lotNamePaths   = []string{".//ns5:lotName", ".//lotName"}
	lotPricePaths  = []string{".//ns5:maxPrice", ".//maxPrice"}

	contractGuaranteePaths    = []string{"//ns5:contractGuarantee/ns5:part", "//contractGuarantee/part"}
	applicationGuaranteePaths = []string{"//ns5:applicationGuarantee/ns5:part", "//applicationGuarantee/part"}

	contractNumberPaths   = []string{"//contractNumber", "//ns5:contractNumber", "//*[local-name()='contractNumber']"}
	organizationNamePaths = []string{"//fullName", "//ns5:fullName", "//*[local-name()='fullName']"}
)

// Attachment container patterns. Overlapping matches are intentionally not
// merged, so one attachment can be reported twice.
var attachmentPatterns = []string{
	"//ns4:attachmentInfo",
	"//attachmentInfo",
	"//ns5:attachmentsInfo//ns4:attachmentInfo",
	"//attachmentsInfo//attachmentInfo",
}

type attachmentField struct {
	kind       valueKind
	set        func(a *tender.Attachment, v string)
	candidates []string
}

var attachmentFields = []attachmentField{
	{kindText, func(a *tender.Attachment, v string) { a.PublishedContentID = v }, []string{".//ns4:publishedContentId", ".//publishedContentId"}},
	{kindText, func(a *tender.Attachment, v string) { a.FileName = v }, []string{".//ns4:fileName", ".//fileName"}},
	{kindText, func(a *tender.Attachment, v string) { a.FileSize = parseInt(v) }, []string{".//ns4:fileSize", ".//fileSize"}},
	{kindText, func(a *tender.Attachment, v string) { a.Description = v }, []string{".//ns4:docDescription", ".//docDescription"}},
	{kindText, func(a *tender.Attachment, v string) { a.URL = v }, []string{".//ns4:url", ".//url"}},
	{kindText, func(a *tender.Attachment, v string) { a.DocKind = v }, []string{".//ns4:docKindInfo/ns2:name", ".//docKindInfo/name", ".//ns2:name"}},
	{kindDate, func(a *tender.Attachment, v string) { a.DocDate = v }, []string{".//ns4:docDate", ".//docDate"}},
}

func normalize(kind valueKind, raw string) string {
	switch kind {
	case kindDate:
		return NormalizeDate(raw)
	case kindPrice:
		return NormalizePrice(raw)
	default:
		return raw
	}
}
