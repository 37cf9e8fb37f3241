// Package query builds document service requests.
package query

import (
	"fmt"
	"strings"

	"github.com/JakeFAU/tender-acquirer/internal/tender"
)

const (
	// CreateDateTimeLayout formats the envelope timestamp with a colon offset.
	CreateDateTimeLayout = "2006-01-02T15:04:05-07:00"
	// ModeProd is the only mode the service accepts for live data.
	ModeProd = "PROD"
)

// Builder stamps requests with a fresh envelope.
type Builder struct {
	ids   tender.IDGenerator
	clock tender.Clock
}

// NewBuilder returns a Builder. ids should produce v4 UUIDs.
func NewBuilder(ids tender.IDGenerator, clock tender.Clock) *Builder {
	return &Builder{ids: ids, clock: clock}
}

// Region builds a selection by region and publication date. Blank subsystem
// and document type take the service defaults.
func (b *Builder) Region(region, subsystem, documentType, exactDate string) (tender.QueryRequest, error) {
	subsystem = orDefault(subsystem, tender.DefaultSubsystem)
	documentType = orDefault(documentType, tender.DefaultDocumentType)
	if err := requireFields(
		"org_region", region,
		"subsystem_type", subsystem,
		"document_type", documentType,
		"exact_date", exactDate,
	); err != nil {
		return tender.QueryRequest{}, err
	}
	env, err := b.envelope()
	if err != nil {
		return tender.QueryRequest{}, err
	}
	return tender.QueryRequest{
		Envelope:       env,
		Region:         strings.TrimSpace(region),
		SubsystemType:  subsystem,
		DocumentType44: documentType,
		ExactDate:      strings.TrimSpace(exactDate),
	}, nil
}

// Registry builds a selection by registry number.
func (b *Builder) Registry(subsystem, registryNumber string) (tender.QueryRequest, error) {
	subsystem = orDefault(subsystem, tender.DefaultSubsystem)
	if err := requireFields("reestr_number", registryNumber, "subsystem_type", subsystem); err != nil {
		return tender.QueryRequest{}, err
	}
	env, err := b.envelope()
	if err != nil {
		return tender.QueryRequest{}, err
	}
	return tender.QueryRequest{
		Envelope:       env,
		SubsystemType:  subsystem,
		RegistryNumber: strings.TrimSpace(registryNumber),
	}, nil
}

// FromQuery dispatches on the populated fields of q.
func (b *Builder) FromQuery(q tender.Query) (tender.QueryRequest, error) {
	if strings.TrimSpace(q.RegistryNumber) != "" {
		return b.Registry(q.Subsystem, q.RegistryNumber)
	}
	return b.Region(q.Region, q.Subsystem, q.DocumentType, q.ExactDate)
}

func (b *Builder) envelope() (tender.QueryEnvelope, error) {
	id, err := b.ids.NewID()
	if err != nil {
		return tender.QueryEnvelope{}, fmt.Errorf("envelope id: %w", err)
	}
	return tender.QueryEnvelope{
		ID:             id,
		CreateDateTime: b.clock.Now().Format(CreateDateTimeLayout),
		Mode:           ModeProd,
	}, nil
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}

// requireFields takes name/value pairs.
func requireFields(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return fmt.Errorf("%w: parameter %s cannot be blank", tender.ErrInvalidQuery, pairs[i])
		}
	}
	return nil
}
