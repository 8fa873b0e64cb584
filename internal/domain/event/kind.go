package event

import (
	"fmt"
	"strings"
)

// Kind is the immutable type of an event row.
type Kind string

const (
	KindAccident      Kind = "accident"
	KindIncident      Kind = "incident"
	KindCitation      Kind = "citation"
	KindTicket        Kind = "ticket"
	KindDotInspection Kind = "dot_inspection"
	KindWarning       Kind = "warning"
)

var allKinds = []Kind{KindAccident, KindIncident, KindCitation, KindTicket, KindDotInspection, KindWarning}

func Kinds() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds)
	return out
}

func ParseKind(raw string) (Kind, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	for _, k := range allKinds {
		if string(k) == normalized {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, raw)
}

// Category is the first storage segment below Event/.
type Category string

const (
	CategoryAccident      Category = "Accident"
	CategoryIncident      Category = "Incident"
	CategoryTicket        Category = "Ticket"
	CategoryDotInspection Category = "Dot_Inspection"
	CategoryWarning       Category = "Warning"
)

// SubCategory separates documents from pictures inside a category.
type SubCategory string

const (
	SubAccidentDoc           SubCategory = "Accident_Doc"
	SubAccidentPictures      SubCategory = "Accident_Pictures"
	SubIncidentDoc           SubCategory = "Incident_Doc"
	SubIncidentPictures      SubCategory = "Incident_Pictures"
	SubTicketDoc             SubCategory = "Ticket_Doc"
	SubTicketImage           SubCategory = "Ticket_Image"
	SubDotInspectionDocument SubCategory = "Dot_Inspection_Document"
	SubWarningDocument       SubCategory = "Warning_Document"
)

// OwnerType names the specialization table that owns child collections.
type OwnerType string

const (
	OwnerAccident      OwnerType = "accident"
	OwnerIncident      OwnerType = "incident"
	OwnerTicket        OwnerType = "ticket"
	OwnerWarning       OwnerType = "warning"
	OwnerDotInspection OwnerType = "dot_inspection"
)

// Profile describes what a kind stores and where. Citation shares the ticket profile.
type Profile struct {
	Kind             Kind
	Owner            OwnerType
	Category         Category
	DocSub           SubCategory
	PictureSub       SubCategory
	Violations       bool
	Claims           bool
	Tags             []TagCategory
	RequiredDocTypes []uint64
}

func (p Profile) Images() bool { return p.PictureSub != "" }

func (p Profile) SupportsTag(c TagCategory) bool {
	for _, t := range p.Tags {
		if t == c {
			return true
		}
	}
	return false
}

var profiles = map[Kind]Profile{
	KindAccident: {
		Kind:             KindAccident,
		Owner:            OwnerAccident,
		Category:         CategoryAccident,
		DocSub:           SubAccidentDoc,
		PictureSub:       SubAccidentPictures,
		Claims:           true,
		RequiredDocTypes: []uint64{DocTypeDriverReport},
	},
	KindIncident: {
		Kind:       KindIncident,
		Owner:      OwnerIncident,
		Category:   CategoryIncident,
		DocSub:     SubIncidentDoc,
		PictureSub: SubIncidentPictures,
		Claims:     true,
		Tags:       []TagCategory{TagIncidentType, TagEquipmentDamage},
	},
	KindTicket: {
		Kind:       KindTicket,
		Owner:      OwnerTicket,
		Category:   CategoryTicket,
		DocSub:     SubTicketDoc,
		PictureSub: SubTicketImage,
		Violations: true,
	},
	KindCitation: {
		Kind:       KindCitation,
		Owner:      OwnerTicket,
		Category:   CategoryTicket,
		DocSub:     SubTicketDoc,
		PictureSub: SubTicketImage,
		Violations: true,
	},
	KindDotInspection: {
		Kind:       KindDotInspection,
		Owner:      OwnerDotInspection,
		Category:   CategoryDotInspection,
		DocSub:     SubDotInspectionDocument,
		Violations: true,
	},
	KindWarning: {
		Kind:       KindWarning,
		Owner:      OwnerWarning,
		Category:   CategoryWarning,
		DocSub:     SubWarningDocument,
		Violations: true,
	},
}

func ProfileFor(kind Kind) (Profile, error) {
	p, ok := profiles[kind]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return p, nil
}

// TagCategory names the lookup table behind a tag link.
type TagCategory string

const (
	TagIncidentType    TagCategory = "incident_type"
	TagEquipmentDamage TagCategory = "equipment_damage"
)

// Document type ids seeded into the document_types lookup.
const (
	DocTypeDriverReport     uint64 = 24
	DocTypePoliceReport     uint64 = 25
	DocTypeInsuranceForm    uint64 = 26
	DocTypeTicketCopy       uint64 = 27
	DocTypeCourtDisposition uint64 = 28
	DocTypeInspectionReport uint64 = 29
	DocTypeWarningLetter    uint64 = 30
)

const AttachmentStatusUploaded = "uploaded"
