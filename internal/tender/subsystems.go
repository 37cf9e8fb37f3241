package tender

import "slices"

// Query defaults.
const (
	DefaultSubsystem    = "PRIZ"
	DefaultDocumentType = "epNotificationEF2020"
)

// SubsystemTypes lists every subsystem code the document service accepts.
var SubsystemTypes = []string{
	"PRIZ", "RPEC", "RPGZ", "RJ", "RDI", "BTK", "RPKLKP", "RPNZ", "RGK", "EA", "UR", "REC", "RPP",
	"RVP", "RRK", "RRA", "RNP", "RKPO", "PPRF615", "RD615", "LKOK", "OZ", "OD223", "RD223",
	"MSP223", "IPVP223", "TRU223", "RJ223", "RPP223", "RPZ223", "RI223", "RZ223", "OV223",
	"TPOZ223", "POZ223", "RNP223", "POM223", "ZC",
}

// DefaultSearchSubsystems is the set scanned by a multi-subsystem search.
var DefaultSearchSubsystems = []string{"PRIZ", "RPEC", "RPGZ", "BTK", "UR", "RGK", "OD223", "RD223"}

// ElectronicNotificationTypes are the notice document types of the PRIZ subsystem.
var ElectronicNotificationTypes = []string{
	"epNotificationEF2020", "epNotificationEF", "epNotificationOK2020",
	"epNotificationEP2020", "epNotificationZK2020", "epNotificationZP2020",
	"epNotificationISM2020", "fcsNotificationEF", "fcsNotificationOK",
	"fcsNotificationEP", "fcsNotificationZK", "fcsNotificationZP",
	"fcsNotificationISM", "fcsPlacement", "fcsPlacementResult",
}

var subsystemDescriptions = map[string]string{
	"PRIZ":  "Notices, documentation and protocols (44-FZ)",
	"RPEC":  "Electronic acceptance documents",
	"RPGZ":  "Procurement schedules",
	"BTK":   "Standard contract library",
	"UR":    "Procurement participants registry",
	"RGK":   "Contracts registry (44-FZ)",
	"OD223": "Notices and protocols (223-FZ)",
	"RD223": "Contracts registry (223-FZ)",
}

var subsystemDocumentTypes = map[string][]string{
	"PRIZ": ElectronicNotificationTypes,
	"RGK":  {"contract", "contractProcedure"},
	"RPGZ": {"tenderPlan2020"},
}

// IsSubsystem reports whether code is a known subsystem.
func IsSubsystem(code string) bool {
	return slices.Contains(SubsystemTypes, code)
}

// DescribeSubsystem returns a human readable label, or the code itself.
func DescribeSubsystem(code string) string {
	if d, ok := subsystemDescriptions[code]; ok {
		return d
	}
	return code
}

// DocumentTypesFor returns the document types known for a subsystem, falling
// back to the default notice type.
func DocumentTypesFor(code string) []string {
	if types, ok := subsystemDocumentTypes[code]; ok && len(types) > 0 {
		return slices.Clone(types)
	}
	return []string{DefaultDocumentType}
}
