package soap

import (
	"encoding/xml"

	"github.com/JakeFAU/tender-acquirer/internal/tender"
)

const soapEnvNS = "http://schemas.xmlsoap.org/soap/envelope/"

type envelope struct {
	XMLName xml.Name `xml:"soapenv:Envelope"`
	SoapNS  string   `xml:"xmlns:soapenv,attr"`
	WsNS    string   `xml:"xmlns:ws,attr"`
	Header  header   `xml:"soapenv:Header"`
	Body    body     `xml:"soapenv:Body"`
}

type header struct {
	Token string `xml:"individualPerson_token"`
}

type body struct {
	Region   *regionRequest   `xml:"ws:getDocsByOrgRegionRequest,omitempty"`
	Registry *registryRequest `xml:"ws:getDocsByReestrNumberRequest,omitempty"`
}

type index struct {
	ID             string `xml:"id"`
	CreateDateTime string `xml:"createDateTime"`
	Mode           string `xml:"mode"`
}

type regionRequest struct {
	Index     index           `xml:"index"`
	Selection regionSelection `xml:"selectionParams"`
}

type regionSelection struct {
	OrgRegion      string     `xml:"orgRegion"`
	SubsystemType  string     `xml:"subsystemType"`
	DocumentType44 string     `xml:"documentType44"`
	PeriodInfo     periodInfo `xml:"periodInfo"`
}

type periodInfo struct {
	ExactDate string `xml:"exactDate"`
}

type registryRequest struct {
	Index     index             `xml:"index"`
	Selection registrySelection `xml:"selectionParams"`
}

type registrySelection struct {
	SubsystemType  string `xml:"subsystemType"`
	RegistryNumber string `xml:"registryNumber"`
}

// operation names the SOAP operation req maps to.
func operation(req tender.QueryRequest) string {
	if req.ByRegistry() {
		return "getDocsByReestrNumber"
	}
	return "getDocsByOrgRegion"
}

func buildEnvelope(namespace, token string, req tender.QueryRequest) ([]byte, error) {
	idx := index{
		ID:             req.Envelope.ID,
		CreateDateTime: req.Envelope.CreateDateTime,
		Mode:           req.Envelope.Mode,
	}
	env := envelope{
		SoapNS: soapEnvNS,
		WsNS:   namespace,
		Header: header{Token: token},
	}
	if req.ByRegistry() {
		env.Body.Registry = &registryRequest{
			Index: idx,
			Selection: registrySelection{
				SubsystemType:  req.SubsystemType,
				RegistryNumber: req.RegistryNumber,
			},
		}
	} else {
		env.Body.Region = &regionRequest{
			Index: idx,
			Selection: regionSelection{
				OrgRegion:      req.Region,
				SubsystemType:  req.SubsystemType,
				DocumentType44: req.DocumentType44,
				PeriodInfo:     periodInfo{ExactDate: req.ExactDate},
			},
		}
	}
	out, err := xml.Marshal(env)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}
