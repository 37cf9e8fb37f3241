package extract

import (
	"regexp"

	"github.com/antchfx/xmlquery"

	"github.com/JakeFAU/tender-acquirer/internal/tender"
)

// characteristicPatterns recognize declared names that describe a property
// of the goods rather than the goods themselves.
var characteristicPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\s*соответствие\s+требованиям`),
	regexp.MustCompile(`(?i)^\s*минимальн\p{L}*\s+(?:\p{L}+\s+)*срок`),
	regexp.MustCompile(`(?i)^\s*количество\s+\p{L}`),
	regexp.MustCompile(`(?i)^\s*(?:размер|объ[её]м|вес|цвет|материал|тип|класс|категория|способ|технология)\s+\p{L}`),
}

var (
	purchaseObjectPaths = []string{
		"//ns5:notDrugPurchaseObjectsInfo/ns4:purchaseObject",
		"//notDrugPurchaseObjectsInfo/purchaseObject",
		"//ns4:purchaseObject",
		"//purchaseObject",
	}
	totalSumPaths = []string{
		"//ns5:notDrugPurchaseObjectsInfo/ns4:totalSum",
		"//ns4:totalSum",
		"//totalSum",
	}
	quantityUndefinedPaths = []string{
		"//ns5:notDrugPurchaseObjectsInfo/ns5:quantityUndefined",
		"//ns5:quantityUndefined",
		"//quantityUndefined",
	}
)

// Object paths are relative to the purchaseObject element and use the child
// axis: characteristics nest their own name elements.
var objectPaths = struct {
	sid, externalSID, name, price, quantity, sum, kind, hierarchy []string
	ktruCode, ktruName, okpdCode, okpdName, okeiCode, okeiName   []string
	preferenceRF                                                 []string
}{
	sid:          []string{"ns4:sid", "sid"},
	externalSID:  []string{"ns4:externalSid", "externalSid"},
	name:         []string{"ns4:name", "name"},
	price:        []string{"ns4:price", "price"},
	quantity:     []string{"ns4:quantity/ns4:value", "quantity/value", "ns4:quantity", "quantity"},
	sum:          []string{"ns4:sum", "sum"},
	kind:         []string{"ns4:type", "type"},
	hierarchy:    []string{"ns4:hierarchyType", "hierarchyType"},
	ktruCode:     []string{"ns4:KTRU/ns2:code", "KTRU/code"},
	ktruName:     []string{"ns4:KTRU/ns2:name", "KTRU/name"},
	okpdCode:     []string{"ns4:OKPD2/ns2:OKPDCode", "OKPD2/OKPDCode"},
	okpdName:     []string{"ns4:OKPD2/ns2:OKPDName", "OKPD2/OKPDName"},
	okeiCode:     []string{"ns4:OKEI/ns2:code", "OKEI/code"},
	okeiName:     []string{"ns4:OKEI/ns2:name", "OKEI/name"},
	preferenceRF: []string{"ns4:restrictionsInfo/ns4:isPreferenseRFPurchaseObjects", "restrictionsInfo/isPreferenseRFPurchaseObjects"},
}

// ClassifyName reports whether a declared name reads as a characteristic.
func ClassifyName(name string) tender.NameType {
	for _, re := range characteristicPatterns {
		if re.MatchString(name) {
			return tender.NameTypeCharacteristic
		}
	}
	return tender.NameTypeProduct
}

func extractPurchaseObjects(l *Lookup) *tender.PurchaseObjects {
	nodes := l.All(l.doc, purchaseObjectPaths...)
	totalSum := NormalizePrice(l.First(totalSumPaths...))
	if len(nodes) == 0 && totalSum == "" {
		return nil
	}
	section := &tender.PurchaseObjects{
		Objects:           make([]tender.PurchaseObject, 0, len(nodes)),
		TotalSum:          totalSum,
		QuantityUndefined: parseBool(l.First(quantityUndefinedPaths...)),
	}
	for _, n := range nodes {
		section.Objects = append(section.Objects, purchaseObject(l, n))
	}
	section.ObjectsCount = len(section.Objects)
	return section
}

func purchaseObject(l *Lookup, n *xmlquery.Node) tender.PurchaseObject {
	p := objectPaths
	obj := tender.PurchaseObject{
		SID:           l.FirstIn(n, p.sid...),
		ExternalSID:   l.FirstIn(n, p.externalSID...),
		Name:          l.FirstIn(n, p.name...),
		Price:         NormalizePrice(l.FirstIn(n, p.price...)),
		Quantity:      parseFloat(l.FirstIn(n, p.quantity...)),
		Sum:           NormalizePrice(l.FirstIn(n, p.sum...)),
		Type:          l.FirstIn(n, p.kind...),
		HierarchyType: l.FirstIn(n, p.hierarchy...),
		KTRU:          codeName(l.FirstIn(n, p.ktruCode...), l.FirstIn(n, p.ktruName...)),
		OKPD2:         codeName(l.FirstIn(n, p.okpdCode...), l.FirstIn(n, p.okpdName...)),
		OKEI:          codeName(l.FirstIn(n, p.okeiCode...), l.FirstIn(n, p.okeiName...)),
	}
	if pref := parseBool(l.FirstIn(n, p.preferenceRF...)); pref != nil {
		obj.Restrictions = &tender.Restrictions{IsPreferenceRF: pref}
	}
	obj.ProductName = preferredName(obj)
	obj.NameType = ClassifyName(obj.Name)
	return obj
}

func preferredName(obj tender.PurchaseObject) string {
	if obj.KTRU != nil && obj.KTRU.Name != "" {
		return obj.KTRU.Name
	}
	if obj.OKPD2 != nil && obj.OKPD2.Name != "" {
		return obj.OKPD2.Name
	}
	return obj.Name
}

func codeName(code, name string) *tender.CodeName {
	if code == "" && name == "" {
		return nil
	}
	return &tender.CodeName{Code: code, Name: name}
}
