package dto

// Relationship values are matched case-sensitively against stored rows.
const (
	RelationshipSpouse       = "Spouse"
	RelationshipGirlfriend   = "Girlfriend"
	RelationshipBoyfriend    = "Boyfriend"
	RelationshipCrush        = "Crush"
	RelationshipEx           = "Ex"
	RelationshipMaleFriend   = "Male Friend"
	RelationshipFemaleFriend = "Female Friend"
	RelationshipFather       = "Father"
	RelationshipMother       = "Mother"
	RelationshipSister       = "Sister"
	RelationshipBrother      = "Brother"
	RelationshipCousin       = "Cousin"
	RelationshipPastor       = "Pastor"
	RelationshipEmployer     = "Employer"
	RelationshipCustomer     = "Customer"
)

const (
	ToneRomantic     = "Romantic"
	ToneProfessional = "Professional"
	ToneFriendly     = "Friendly"
	TonePolite       = "Polite"
	ToneFunny        = "Funny"
	ToneHeartbroken  = "Heartbroken"
	ToneApology      = "Apology"
	ToneAppreciation = "Appreciation"
)

// GenericScope tags seeded templates that are not tied to a relationship or tone.
const GenericScope = "Generic"

// Category groups relationships that share a content policy.
type Category string

const (
	CategoryRomantic      Category = "romantic"
	CategoryProfessional  Category = "professional"
	CategoryFormerPartner Category = "former_partner"
	CategoryFamily        Category = "family"
	CategoryFriend        Category = "friend"
)

var Relationships = []string{
	RelationshipSpouse, RelationshipGirlfriend, RelationshipBoyfriend, RelationshipCrush,
	RelationshipEx, RelationshipMaleFriend, RelationshipFemaleFriend, RelationshipFather,
	RelationshipMother, RelationshipSister, RelationshipBrother, RelationshipCousin,
	RelationshipPastor, RelationshipEmployer, RelationshipCustomer,
}

var Tones = []string{
	ToneRomantic, ToneProfessional, ToneFriendly, TonePolite,
	ToneFunny, ToneHeartbroken, ToneApology, ToneAppreciation,
}

var relationshipCategories = map[string]Category{
	RelationshipSpouse:       CategoryRomantic,
	RelationshipGirlfriend:   CategoryRomantic,
	RelationshipBoyfriend:    CategoryRomantic,
	RelationshipCrush:        CategoryRomantic,
	RelationshipEx:           CategoryFormerPartner,
	RelationshipMaleFriend:   CategoryFriend,
	RelationshipFemaleFriend: CategoryFriend,
	RelationshipFather:       CategoryFamily,
	RelationshipMother:       CategoryFamily,
	RelationshipSister:       CategoryFamily,
	RelationshipBrother:      CategoryFamily,
	RelationshipCousin:       CategoryFamily,
	RelationshipPastor:       CategoryProfessional,
	RelationshipEmployer:     CategoryProfessional,
	RelationshipCustomer:     CategoryProfessional,
}

var toneSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(Tones))
	for _, t := range Tones {
		set[t] = struct{}{}
	}
	return set
}()

// IsValidRelationship reports whether value is one of the supported relationships.
func IsValidRelationship(value string) bool {
	_, ok := relationshipCategories[value]
	return ok
}

// IsValidTone reports whether value is one of the supported tones.
func IsValidTone(value string) bool {
	_, ok := toneSet[value]
	return ok
}

// CategoryOf returns the content-policy category of a relationship.
func CategoryOf(relationship string) (Category, bool) {
	c, ok := relationshipCategories[relationship]
	return c, ok
}
