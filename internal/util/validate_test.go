package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUUID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want string
	}{
		{"valid lowercase", "0b944b1c-6c4e-41a7-9c2b-3f8d5e6a7b8c", ""},
		{"valid uppercase", "0B944B1C-6C4E-41A7-9C2B-3F8D5E6A7B8C", ""},
		{"empty", "", "syllabusId is required"},
		{"missing dashes", "0b944b1c6c4e41a79c2b3f8d5e6a7b8c", "syllabusId must be a valid UUID"},
		{"too short", "0b944b1c-6c4e-41a7-9c2b", "syllabusId must be a valid UUID"},
		{"non-hex characters", "0b944b1z-6c4e-41a7-9c2b-3f8d5e6a7b8c", "syllabusId must be a valid UUID"},
		{"sql injection attempt", "1; DROP TABLE questions--", "syllabusId must be a valid UUID"},
		{"trailing garbage", "0b944b1c-6c4e-41a7-9c2b-3f8d5e6a7b8c ", "syllabusId must be a valid UUID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateUUID(tt.id, "syllabusId"))
		})
	}
}

func TestValidateUUIDRejectionIsStable(t *testing.T) {
	// A malformed ID must fail identically no matter how often it is checked.
	for i := 0; i < 3; i++ {
		assert.NotEmpty(t, ValidateUUID("not-a-uuid", "questionId"))
	}
}

func TestIsUUID(t *testing.T) {
	assert.True(t, IsUUID("0b944b1c-6c4e-41a7-9c2b-3f8d5e6a7b8c"))
	assert.False(t, IsUUID("urn:uuid:0b944b1c-6c4e-41a7-9c2b-3f8d5e6a7b8c"))
}
