package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

// MaxSyllabusContentChars is the hard ceiling on uploaded syllabus text.
// Requests above it are rejected before any model call happens.
const MaxSyllabusContentChars = 100000
