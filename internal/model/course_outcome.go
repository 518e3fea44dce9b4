package model

// CourseOutcome is a stated learning objective attached to a syllabus.
// Outcomes are treated as immutable once question generation has run for them.
// swagger:model
type CourseOutcome struct {
	UUIDBase
	SyllabusID  string `gorm:"type:uuid;index;not null" json:"syllabusId"`
	Code        string `gorm:"size:50;not null" json:"code"`
	Description string `gorm:"size:500;not null" json:"description"`
	UnitNumber  int    `gorm:"default:1" json:"unitNumber"`
}
