package domain

// DefaultEquipment is used for exercises created on demand during program import.
const DefaultEquipment = "Various"

// Exercise is a shared exercise definition. Names are matched case-insensitively.
type Exercise struct {
	ID           string   `bson:"_id" json:"id"`
	Name         string   `bson:"name" json:"name"`
	NameKey      string   `bson:"nameKey" json:"-"` // strings.ToLower(Name), used for lookups
	Description  string   `bson:"description,omitempty" json:"description,omitempty"`
	MuscleGroups []string `bson:"muscleGroups" json:"muscleGroups"`
	Equipment    string   `bson:"equipment,omitempty" json:"equipment,omitempty"`
	Instructions string   `bson:"instructions,omitempty" json:"instructions,omitempty"`
	Tips         string   `bson:"tips,omitempty" json:"tips,omitempty"`
}
