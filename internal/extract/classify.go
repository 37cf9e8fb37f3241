package extract

import (
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/JakeFAU/tender-acquirer/internal/tender"
)

var rootKeywords = []struct {
	docType  tender.DocumentType
	keywords []string
}{
	{tender.DocumentTender, []string{"notification", "tender", "auction"}},
	{tender.DocumentContract, []string{"contract"}},
	{tender.DocumentOrganization, []string{"organization", "org"}},
}

// classify picks the document type from the root element name, then from
// marker elements anywhere in the tree.
func classify(root *xmlquery.Node, l *Lookup) tender.DocumentType {
	name := strings.ToLower(root.Data)
	for _, rule := range rootKeywords {
		for _, kw := range rule.keywords {
			if strings.Contains(name, kw) {
				return rule.docType
			}
		}
	}
	switch {
	case l.Exists("//*[local-name()='purchaseNumber']"):
		return tender.DocumentTender
	case l.Exists("//*[local-name()='contractNumber']"):
		return tender.DocumentContract
	default:
		return tender.DocumentUnknown
	}
}

func rootElement(doc *xmlquery.Node) *xmlquery.Node {
	for n := doc.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == xmlquery.ElementNode {
			return n
		}
	}
	return nil
}
