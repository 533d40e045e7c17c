package domain

// RowRecord is one parsed data row from an uploaded file, as a mapping from
// column name to cell value. Created at ingestion and never mutated.
type RowRecord map[string]string

// Field returns the first non-empty value among the given column names.
// Uploaded files use inconsistent headers ("customer_id" vs "customerId"),
// so lookups go through aliases.
func (r RowRecord) Field(names ...string) string {
	for _, n := range names {
		if v, ok := r[n]; ok && v != "" {
			return v
		}
	}
	return ""
}

// UploadedDataset holds the parsed contents of one uploaded customer file.
// A re-upload replaces the dataset wholesale; datasets are never merged.
type UploadedDataset struct {
	FileName string      `json:"file_name"`
	RowCount int         `json:"row_count"`
	Rows     []RowRecord `json:"rows"`
}

// Tone enumerates the supported campaign message tones.
type Tone string

const (
	ToneProfessional Tone = "Professional"
	ToneFriendly     Tone = "Friendly"
	ToneUrgent       Tone = "Urgent"
)

// Valid reports whether t is one of the supported tones.
func (t Tone) Valid() bool {
	switch t {
	case ToneProfessional, ToneFriendly, ToneUrgent:
		return true
	}
	return false
}

// CampaignConfig holds the user-editable campaign parameters. It is freely
// mutable until generation starts; the orchestrator consumes a snapshot.
type CampaignConfig struct {
	Tone       Tone   `json:"tone"`
	PromptText string `json:"prompt_text"`
}
