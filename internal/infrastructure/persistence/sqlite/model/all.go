package model

// All lists every table for AutoMigrate.
func All() []any {
	return []any{
		&Event{},
		&Accident{},
		&Incident{},
		&Ticket{},
		&Warning{},
		&DotInspection{},
		&Attachment{},
		&Image{},
		&ViolationLink{},
		&TagLink{},
		&Claim{},
		&Violation{},
		&IncidentType{},
		&EquipmentDamage{},
		&DocumentType{},
		&KV{},
	}
}
