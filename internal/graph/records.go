package graph

// Source supplies the already-deserialized Doxygen records the pipeline
// consumes. The pipeline never touches storage itself: reading and decoding
// the XML lives behind this interface (see internal/doxml).
type Source interface {
	// Index returns the top-level compound enumeration. An error here is
	// fatal to reconciliation.
	Index() (*Index, error)

	// Detail returns the per-entity record for refid. An error is
	// recoverable: the pipeline reports it and continues with whatever is
	// already known about the entity.
	Detail(refid string) (*Detail, error)
}

// Index is the compound enumeration from Doxygen's index.xml.
type Index struct {
	Compounds []Compound
}

// Compound is one top-level entry of the index. Only namespace and file
// compounds carry a member list.
type Compound struct {
	Name    string
	Kind    Kind
	Refid   string
	Members []Member
}

// Member is one entry of a compound's member list.
type Member struct {
	Name  string
	Kind  Kind
	Refid string
}

// Relation tags how a detail record references another entity.
type Relation string

const (
	// RelationInnerClass marks a class or struct declared inside the
	// compound.
	RelationInnerClass Relation = "innerclass"

	// RelationInnerNamespace marks a namespace nested inside the compound.
	RelationInnerNamespace Relation = "innernamespace"

	// RelationMember marks a member section entry (function, variable,
	// typedef, define, ...) of the compound.
	RelationMember Relation = "member"
)

// InnerRef is a reference from a detail record to another entity.
type InnerRef struct {
	Refid    string
	Relation Relation
}

// ListingRef is a cross reference found inside a file's program listing.
type ListingRef struct {
	Refid string

	// Member is true when Doxygen tagged the reference kindref="member".
	// Only member references count as ownership candidates.
	Member bool
}

// Detail is the per-entity record behind one refid. Every field is optional;
// ProgramListing and ListingRefs only ever appear on file records.
type Detail struct {
	Refid          string
	Location       string
	Includes       []string
	IncludedBy     []IncludeRef
	Inner          []InnerRef
	ProgramListing []string
	ListingRefs    []ListingRef
}
