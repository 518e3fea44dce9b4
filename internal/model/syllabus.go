package model

// swagger:model
type Syllabus struct {
	UUIDBase
	Title    string  `gorm:"size:255;not null" json:"title"`
	Content  string  `gorm:"type:text" json:"content"`
	FileName *string `gorm:"size:255" json:"fileName"`
	FileURL  *string `gorm:"size:512" json:"fileUrl"`
	UserID   string  `gorm:"type:uuid;index;not null" json:"userId"`
	User     *User   `gorm:"foreignKey:UserID" json:"-"`

	CourseOutcomes []CourseOutcome `gorm:"foreignKey:SyllabusID;constraint:OnDelete:CASCADE" json:"courseOutcomes,omitempty"`
	Questions      []Question      `gorm:"foreignKey:SyllabusID;constraint:OnDelete:CASCADE" json:"questions,omitempty"`
}
