package model

type QuestionStatus string

const (
	StatusDraft    QuestionStatus = "draft"
	StatusAudited  QuestionStatus = "audited"
	StatusApproved QuestionStatus = "approved"
	StatusRejected QuestionStatus = "rejected"
)

// Question is a generated exam question. Lifecycle: created as draft with
// quality_score 0 (unscored sentinel), moved to audited by the audit pass,
// then approved/rejected by the teacher. Regeneration resets it to draft
// before re-auditing in place.
// swagger:model
type Question struct {
	UUIDBase
	SyllabusID      string         `gorm:"type:uuid;index;not null" json:"syllabusId"`
	CourseOutcomeID *string        `gorm:"type:uuid;index" json:"courseOutcomeId"`
	QuestionText    string         `gorm:"type:text;not null" json:"questionText"`
	BloomLevel      string         `gorm:"size:20;index;not null" json:"bloomLevel"`
	Marks           int            `gorm:"default:5" json:"marks"`
	SourceParagraph *string        `gorm:"type:text" json:"sourceParagraph"`
	QualityScore    int            `gorm:"default:0" json:"qualityScore"`
	AuditFeedback   *string        `gorm:"type:text" json:"auditFeedback"`
	Status          QuestionStatus `gorm:"size:20;index;default:draft" json:"status"`

	CourseOutcome *CourseOutcome `gorm:"foreignKey:CourseOutcomeID" json:"courseOutcome,omitempty"`
	Syllabus      *Syllabus      `gorm:"foreignKey:SyllabusID" json:"-"`
}
