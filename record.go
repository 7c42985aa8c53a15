package metis

import "strings"

// Field names accepted by filter expressions and Record.Field.
const (
	FieldID          = "id"
	FieldCategory    = "category"
	FieldInstruction = "instruction"
	FieldKeywords    = "keywords"
	FieldPolicy      = "policy"
)

// Record is a single clinical guideline entry.
// Records are owned by whoever loaded them; search code only reads them.
type Record struct {
	// ID uniquely identifies the record within a collection.
	ID string `json:"id" yaml:"id" dynamodbav:"id"`
	// Category is a short classification label such as "cardiac".
	Category string `json:"category" yaml:"category" dynamodbav:"category"`
	// Instruction is the free-text guidance content.
	Instruction string `json:"instruction" yaml:"instruction" dynamodbav:"instruction"`
	// Keywords are searchable synonyms and tags.
	Keywords []string `json:"keywords" yaml:"keywords" dynamodbav:"keywords"`
	// Policy is the citation the guidance was taken from. It is never searched.
	Policy string `json:"policy" yaml:"policy" dynamodbav:"policy"`
}

// Field returns the value of the named field and whether the name is known.
// Keywords are returned as []string, every other field as string.
func (r Record) Field(name string) (any, bool) {
	switch strings.ToLower(name) {
	case FieldID:
		return r.ID, true
	case FieldCategory:
		return r.Category, true
	case FieldInstruction:
		return r.Instruction, true
	case FieldKeywords:
		return r.Keywords, true
	case FieldPolicy:
		return r.Policy, true
	default:
		return nil, false
	}
}
