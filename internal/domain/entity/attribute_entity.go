package entity

// AttributeKind distinguishes the two user-scoped name records a recipe can
// reference.
type AttributeKind string

const (
	KindTag        AttributeKind = "tag"
	KindIngredient AttributeKind = "ingredient"
)

// Attribute is a tag or an ingredient. Names are unique per user in practice,
// not by constraint.
type Attribute struct {
	ID     int64
	UserID string
	Kind   AttributeKind
	Name   string
}

func (a Attribute) String() string { return a.Name }
