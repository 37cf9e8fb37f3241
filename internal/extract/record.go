package extract

import (
	"strings"

	"github.com/JakeFAU/tender-acquirer/internal/tender"
)

func extractTender(l *Lookup) *tender.Record {
	rec := &tender.Record{}
	for _, f := range tenderFields {
		if v := normalize(f.kind, l.First(f.candidates...)); v != "" {
			f.set(rec, v)
		}
	}
	rec.ContactName = contactName(l)
	rec.ProcedureInfo = procedureInfo(l)
	rec.LotInfo = lotInfo(l)
	rec.GuaranteeInfo = guaranteeInfo(l)
	rec.PurchaseObjects = extractPurchaseObjects(l)
	return rec
}

func contactName(l *Lookup) string {
	person := l.Node(l.doc, contactPersonPaths...)
	if person == nil {
		return ""
	}
	parts := make([]string, 0, len(contactNameParts))
	for _, candidates := range contactNameParts {
		if v := l.FirstIn(person, candidates...); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

func procedureInfo(l *Lookup) *tender.ProcedureInfo {
	info := tender.ProcedureInfo{
		CollectingStart: NormalizeDate(l.First(collectingStartPaths...)),
		CollectingEnd:   NormalizeDate(l.First(collectingEndPaths...)),
	}
	if info == (tender.ProcedureInfo{}) {
		return nil
	}
	return &info
}

func lotInfo(l *Lookup) *tender.LotInfo {
	nodes := l.All(l.doc, lotPaths...)
	if len(nodes) == 0 {
		return nil
	}
	info := &tender.LotInfo{Lots: make([]tender.Lot, 0, len(nodes))}
	for _, n := range nodes {
		info.Lots = append(info.Lots, tender.Lot{
			LotNumber: l.FirstIn(n, lotNumberPaths...),
			LotName:   l.FirstIn(n, lotNamePaths...),
			MaxPrice:  NormalizePrice(l.FirstIn(n, lotPricePaths...)),
		})
	}
	info.LotsCount = len(info.Lots)
	return info
}

func guaranteeInfo(l *Lookup) *tender.GuaranteeInfo {
	info := tender.GuaranteeInfo{
		ContractGuaranteePart:    parseFloat(l.First(contractGuaranteePaths...)),
		ApplicationGuaranteePart: parseFloat(l.First(applicationGuaranteePaths...)),
	}
	if info.ContractGuaranteePart == nil && info.ApplicationGuaranteePart == nil {
		return nil
	}
	return &info
}
