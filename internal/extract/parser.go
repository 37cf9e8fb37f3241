package extract

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"

	"github.com/antchfx/xmlquery"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"github.com/JakeFAU/tender-acquirer/internal/tender"
)

var _ tender.DocumentParser = (*Parser)(nil)

// Parser implements tender.DocumentParser. It holds no per-document state and
// is safe for concurrent use.
type Parser struct {
	logger *zap.Logger
}

// New builds a Parser.
func New(logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{logger: logger}
}

// Parse classifies data and extracts the record matching its type.
func (p *Parser) Parse(data []byte) (tender.Document, error) {
	doc, root, err := load(data)
	if err != nil {
		return tender.Document{}, err
	}
	l := newLookup(doc)
	out := tender.Document{
		Type:         classify(root, l),
		RootElement:  root.Data,
		NamespaceURI: root.NamespaceURI,
	}
	switch out.Type {
	case tender.DocumentTender:
		out.Tender = extractTender(l)
	case tender.DocumentContract:
		out.Contract = &tender.Contract{ContractNumber: l.First(contractNumberPaths...)}
	case tender.DocumentOrganization:
		out.Organization = &tender.Organization{OrganizationName: l.First(organizationNamePaths...)}
	default:
		out.Generic = &tender.Generic{
			RootElement:  root.Data,
			NamespaceURI: root.NamespaceURI,
			ElementCount: l.Count("//*"),
		}
	}
	p.logger.Debug("parsed xml document",
		zap.String("document_type", string(out.Type)),
		zap.String("root_element", out.RootElement),
	)
	return out, nil
}

// ExtractAttachments lists the attachments referenced by data.
func (p *Parser) ExtractAttachments(data []byte) (tender.AttachmentSet, error) {
	doc, _, err := load(data)
	if err != nil {
		return tender.AttachmentSet{}, err
	}
	l := newLookup(doc)
	nodes := l.Concat(doc, attachmentPatterns...)
	set := tender.AttachmentSet{Attachments: make([]tender.Attachment, 0, len(nodes))}
	for _, n := range nodes {
		var a tender.Attachment
		for _, f := range attachmentFields {
			if v := normalize(f.kind, l.FirstIn(n, f.candidates...)); v != "" {
				f.set(&a, v)
			}
		}
		set.Attachments = append(set.Attachments, a)
	}
	set.TotalCount = len(set.Attachments)
	return set, nil
}

func load(data []byte) (*xmlquery.Node, *xmlquery.Node, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil, tender.ErrEmptyInput
	}
	if err := wellFormed(data); err != nil {
		return nil, nil, &tender.MalformedXMLError{Err: err}
	}
	doc, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, nil, &tender.MalformedXMLError{Err: err}
	}
	root := rootElement(doc)
	if root == nil {
		return nil, nil, &tender.MalformedXMLError{Err: errors.New("no root element")}
	}
	return doc, root, nil
}

// wellFormed runs a strict token pass so truncated documents are rejected
// instead of yielding a partial tree.
func wellFormed(data []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true
	dec.CharsetReader = charset.NewReaderLabel
	sawElement := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			if !sawElement {
				return errors.New("no root element")
			}
			return nil
		}
		if err != nil {
			return err
		}
		if _, ok := tok.(xml.StartElement); ok {
			sawElement = true
		}
	}
}
