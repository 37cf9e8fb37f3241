package tender

import "time"

// DocumentType is the classification assigned to a parsed XML document.
type DocumentType string

// Supported document types.
const (
	DocumentTender       DocumentType = "tender"
	DocumentContract     DocumentType = "contract"
	DocumentOrganization DocumentType = "organization"
	DocumentUnknown      DocumentType = "unknown"
)

// ArchiveHandle points at one downloadable archive returned by the query service.
type ArchiveHandle struct {
	URL string `json:"url"`
}

// FetchedBlob is the raw body of a downloaded archive.
type FetchedBlob struct {
	Bytes       []byte
	Size        int64
	ContentType string
}

// ExtractedFile is one file entry taken out of an archive.
type ExtractedFile struct {
	Name           string
	Content        []byte
	Size           int64
	CompressedSize int64
	CRC32          uint32
}

// Extraction is the decoded content of an archive.
type Extraction struct {
	Files map[string]ExtractedFile
	// Skipped lists entries that could not be read.
	Skipped []string
	// Gzipped is true when the archive was a gzip member wrapping a zip.
	Gzipped bool
	// CompressedSize is the gzip byte count; zero for bare zip input.
	CompressedSize   int64
	DecompressedSize int64
}

// Document is the classifier/extractor result for one XML blob.
type Document struct {
	Type         DocumentType  `json:"document_type"`
	RootElement  string        `json:"root_element"`
	NamespaceURI string        `json:"namespace,omitempty"`
	Tender       *Record       `json:"tender,omitempty"`
	Contract     *Contract     `json:"contract,omitempty"`
	Organization *Organization `json:"organization,omitempty"`
	Generic      *Generic      `json:"generic,omitempty"`
}

// Record is a tender notice. Empty fields are absent and never serialized.
type Record struct {
	ReestrNumber          string `json:"reestr_number,omitempty"`
	DocNumber             string `json:"doc_number,omitempty"`
	Title                 string `json:"title,omitempty"`
	PlacementType         string `json:"placement_type,omitempty"`
	PublishDate           string `json:"publish_date,omitempty"`
	PlannedPublishDate    string `json:"planned_publish_date,omitempty"`
	MaxPrice              string `json:"max_price,omitempty"`
	Currency              string `json:"currency,omitempty"`
	StartDate             string `json:"start_date,omitempty"`
	EndDate               string `json:"end_date,omitempty"`
	BiddingDate           string `json:"bidding_date,omitempty"`
	SummarizingDate       string `json:"summarizing_date,omitempty"`
	OrganizationName      string `json:"organization_name,omitempty"`
	OrganizationShortName string `json:"organization_short_name,omitempty"`
	OrganizationINN       string `json:"organization_inn,omitempty"`
	OrganizationKPP       string `json:"organization_kpp,omitempty"`
	ContactEmail          string `json:"contact_email,omitempty"`
	ContactPhone          string `json:"contact_phone,omitempty"`
	ContactName           string `json:"contact_name,omitempty"`
	ETPName               string `json:"etp_name,omitempty"`
	ETPURL                string `json:"etp_url,omitempty"`
	Href                  string `json:"href,omitempty"`
	PrintFormURL          string `json:"print_form_url,omitempty"`
	VersionNumber         string `json:"version_number,omitempty"`
	ExternalID            string `json:"external_id,omitempty"`

	ProcedureInfo   *ProcedureInfo   `json:"procedure_info,omitempty"`
	LotInfo         *LotInfo         `json:"lot_info,omitempty"`
	GuaranteeInfo   *GuaranteeInfo   `json:"guarantee_info,omitempty"`
	PurchaseObjects *PurchaseObjects `json:"purchase_objects,omitempty"`

	// Set by the orchestrator, never by the parser.
	Attachments      []Attachment `json:"attachments,omitempty"`
	AttachmentsCount *int         `json:"attachments_count,omitempty"`
	SourceFile       string       `json:"source_file,omitempty"`
	ArchiveURL       string       `json:"archive_url,omitempty"`
	ProcessedAt      *time.Time   `json:"processed_at,omitempty"`
	ArchiveIndex     *int         `json:"archive_index,omitempty"`
	SubsystemType    string       `json:"subsystem_type,omitempty"`
	DocumentTypeUsed string       `json:"document_type_used,omitempty"`
}

// ProcedureInfo is the bid collection window.
type ProcedureInfo struct {
	CollectingStart string `json:"collecting_start,omitempty"`
	CollectingEnd   string `json:"collecting_end,omitempty"`
}

// Lot is one lot of a multi-lot tender.
type Lot struct {
	LotNumber string `json:"lot_number,omitempty"`
	LotName   string `json:"lot_name,omitempty"`
	MaxPrice  string `json:"max_price,omitempty"`
}

// LotInfo groups the lots of a tender.
type LotInfo struct {
	Lots      []Lot `json:"lots"`
	LotsCount int   `json:"lots_count"`
}

// GuaranteeInfo carries the guarantee percentages.
type GuaranteeInfo struct {
	ContractGuaranteePart    *float64 `json:"contract_guarantee_part,omitempty"`
	ApplicationGuaranteePart *float64 `json:"application_guarantee_part,omitempty"`
}

// NameType tells whether a purchase object's declared name reads like a product
// or like a characteristic description.
type NameType string

// Name kinds.
const (
	NameTypeProduct        NameType = "product_name"
	NameTypeCharacteristic NameType = "characteristic"
)

// CodeName is a classifier entry such as KTRU, OKPD2 or OKEI.
type CodeName struct {
	Code string `json:"code,omitempty"`
	Name string `json:"name,omitempty"`
}

// Restrictions flags national regime restrictions on a purchase object.
type Restrictions struct {
	IsPreferenceRF *bool `json:"is_preference_rf,omitempty"`
}

// PurchaseObject is one procurement line item.
type PurchaseObject struct {
	SID           string        `json:"sid,omitempty"`
	ExternalSID   string        `json:"external_sid,omitempty"`
	Name          string        `json:"name,omitempty"`
	ProductName   string        `json:"product_name,omitempty"`
	NameType      NameType      `json:"name_type"`
	Price         string        `json:"price,omitempty"`
	Quantity      *float64      `json:"quantity,omitempty"`
	Sum           string        `json:"sum,omitempty"`
	Type          string        `json:"type,omitempty"`
	HierarchyType string        `json:"hierarchy_type,omitempty"`
	KTRU          *CodeName     `json:"ktru,omitempty"`
	OKPD2         *CodeName     `json:"okpd2,omitempty"`
	OKEI          *CodeName     `json:"okei,omitempty"`
	Restrictions  *Restrictions `json:"restrictions,omitempty"`
}

// PurchaseObjects is the object-of-procurement section.
type PurchaseObjects struct {
	Objects           []PurchaseObject `json:"objects"`
	ObjectsCount      int              `json:"objects_count"`
	TotalSum          string           `json:"total_sum,omitempty"`
	QuantityUndefined *bool            `json:"quantity_undefined,omitempty"`
}

// Contract is the shallow record extracted from contract documents.
type Contract struct {
	ContractNumber string `json:"contract_number,omitempty"`
}

// Organization is the shallow record extracted from organization documents.
type Organization struct {
	OrganizationName string `json:"organization_name,omitempty"`
}

// Generic describes a document that could not be classified.
type Generic struct {
	RootElement  string `json:"root_element"`
	NamespaceURI string `json:"namespace,omitempty"`
	ElementCount int    `json:"element_count"`
}

// Attachment describes one document attached to a notice.
type Attachment struct {
	PublishedContentID string `json:"published_content_id,omitempty"`
	FileName           string `json:"file_name,omitempty"`
	FileSize           *int64 `json:"file_size,omitempty"`
	Description        string `json:"description,omitempty"`
	URL                string `json:"url,omitempty"`
	DocKind            string `json:"doc_kind,omitempty"`
	DocDate            string `json:"doc_date,omitempty"`
}

// AttachmentSet is the result of scanning a document for attachments.
type AttachmentSet struct {
	Attachments []Attachment `json:"attachments"`
	TotalCount  int          `json:"total_count"`
}

// Query describes what to acquire. Either Region+ExactDate or RegistryNumber is set.
type Query struct {
	Region         string `json:"region,omitempty"`
	ExactDate      string `json:"exact_date,omitempty"`
	Subsystem      string `json:"subsystem,omitempty"`
	DocumentType   string `json:"document_type,omitempty"`
	RegistryNumber string `json:"registry_number,omitempty"`
}

// QueryEnvelope is the correlation header sent with every query.
type QueryEnvelope struct {
	ID             string
	CreateDateTime string
	Mode           string
}

// QueryRequest is the document handed to the query service.
type QueryRequest struct {
	Envelope       QueryEnvelope
	Region         string
	SubsystemType  string
	DocumentType44 string
	ExactDate      string
	RegistryNumber string
}

// ByRegistry reports whether the request selects by registry number.
func (r QueryRequest) ByRegistry() bool {
	return r.RegistryNumber != ""
}

// ArchiveFailure records why one archive contributed nothing.
type ArchiveFailure struct {
	Index  int       `json:"index"`
	URL    string    `json:"url"`
	Kind   ErrorKind `json:"kind"`
	Reason string    `json:"reason"`

	// RetryAfterSeconds is set for blocked archives.
	RetryAfterSeconds int `json:"retry_after_seconds,omitempty"`
}

// AcquisitionState is the resume checkpoint of a multi-archive run.
type AcquisitionState struct {
	Query             Query            `json:"query"`
	Records           []Record         `json:"records"`
	TotalFiles        int              `json:"total_files"`
	ArchivesProcessed int              `json:"archives_processed"`
	ArchivesFailed    int              `json:"archives_failed"`
	Archives          []ArchiveHandle  `json:"archives"`
	NextArchiveIndex  int              `json:"next_archive_index"`
	Failures          []ArchiveFailure `json:"failures,omitempty"`
}

// Checkpoint is returned when a run halts on a block and can be resumed later.
type Checkpoint struct {
	State             AcquisitionState `json:"state"`
	RetryAfterSeconds int              `json:"retry_after_seconds"`
	BlockedURL        string           `json:"blocked_url"`
	Message           string           `json:"message"`
}

// Outcome summarizes a completed run.
type Outcome struct {
	RunID             string           `json:"run_id,omitempty"`
	Records           []Record         `json:"tenders"`
	ArchivesTotal     int              `json:"total_archives"`
	ArchivesProcessed int              `json:"archives_processed"`
	ArchivesFailed    int              `json:"archives_failed"`
	TotalFiles        int              `json:"total_files"`
	TotalTenders      int              `json:"total_tenders"`
	Failures          []ArchiveFailure `json:"failures,omitempty"`
	ProcessedAt       time.Time        `json:"processed_at"`
}

// SubsystemOutcome is the per-subsystem part of a multi-subsystem run.
type SubsystemOutcome struct {
	Subsystem   string   `json:"subsystem"`
	Description string   `json:"description,omitempty"`
	Tenders     int      `json:"tenders"`
	Archives    int      `json:"archives"`
	Errors      []string `json:"errors,omitempty"`
}

// MultiOutcome summarizes a search across several subsystems.
type MultiOutcome struct {
	Records            []Record                    `json:"tenders"`
	ArchivesTotal      int                         `json:"total_archives"`
	Subsystems         map[string]SubsystemOutcome `json:"subsystem_results"`
	SubsystemsSearched int                         `json:"subsystems_searched"`
	ProcessedAt        time.Time                   `json:"processed_at"`
}
