// Package taxonomy models the immutable typed multi-graph that the search
// planner expands against: nodes, relationships, constraints and their
// enumerated tags.
package taxonomy

// NodeType enumerates the taxonomy node tags. Every tag collapses onto one
// of {Organization, Person, Thing} for graph projection (Schema).
type NodeType string

const (
	Organization         NodeType = "Organization"
	Person               NodeType = "Person"
	Thing                NodeType = "Thing"
	Product              NodeType = "Product"
	DigitalDocument      NodeType = "DigitalDocument"
	Vulnerability        NodeType = "Vulnerability"
	Place                NodeType = "Place"
	Email                NodeType = "Email"
	Website              NodeType = "Website"
	Phone                NodeType = "Phone"
	Passport             NodeType = "Passport"
	School               NodeType = "School"
	BankAccount          NodeType = "BankAccount"
	Patent               NodeType = "Patent"
	Certification        NodeType = "Certification"
	PublishedWork        NodeType = "PublishedWork"
	SocialSecurityNumber NodeType = "SocialSecurityNumber"
	SocialMedia          NodeType = "SocialMedia"
	DataBreach           NodeType = "DataBreach"
)

// schema maps every NodeType tag onto its collapsed projection type, mirroring
// the reference nodeType.py enum where most tags alias "Thing" (School
// aliases "Organization") rather than getting their own graph label.
var schema = map[NodeType]NodeType{
	Organization:         Organization,
	Person:                Person,
	Thing:                Thing,
	Product:              Thing,
	DigitalDocument:      Thing,
	Vulnerability:        Thing,
	Place:                Thing,
	Email:                Thing,
	Website:              Thing,
	Phone:                Thing,
	Passport:             Thing,
	School:               Organization,
	BankAccount:          Thing,
	Patent:               Thing,
	Certification:        Thing,
	PublishedWork:        Thing,
	SocialSecurityNumber: Thing,
	SocialMedia:          Thing,
	DataBreach:           Thing,
}

// Schema returns the collapsed projection type for a node type tag, or
// ("", false) if the tag is not recognized.
func (t NodeType) Schema() (NodeType, bool) {
	s, ok := schema[t]
	return s, ok
}

// Valid reports whether t is one of the enumerated node type tags.
func (t NodeType) Valid() bool {
	_, ok := schema[t]
	return ok
}

// RelationshipMultiplicity constrains how many instances of a relationship
// between two taxonomy nodes are permitted.
type RelationshipMultiplicity string

const (
	RequiredOne          RelationshipMultiplicity = "REQUIRED_ONE"
	RequiredMany         RelationshipMultiplicity = "REQUIRED_MANY"
	OptionalMany         RelationshipMultiplicity = "OPTIONAL_MANY"
	OptionalZeroOrMore   RelationshipMultiplicity = "OPTIONAL_ZERO_OR_MORE"
)

// Required reports whether the multiplicity belongs in the graph query's
// required-match clause rather than its optional-match clause.
func (m RelationshipMultiplicity) Required() bool {
	return m == RequiredOne || m == RequiredMany
}

// Comparator is a constraint comparator tag. Its wire token is the Cypher
// operator text emitted into the WHERE clause.
type Comparator string

const (
	StartsWith         Comparator = "STARTSWITH"
	EndsWith           Comparator = "ENDSWITH"
	Equals             Comparator = "EQUALS"
	Different          Comparator = "DIFFERENT"
	GreaterThan        Comparator = "GREATERTHAN"
	LessThan           Comparator = "LESSTHAN"
	GreaterOrEqualThan Comparator = "GREATEROREQUALTHAN"
	LessOrEqualThan    Comparator = "LESSOREQUALTHAN"
	Contains           Comparator = "CONTAINS"
	Regex              Comparator = "REGEX"
)

var wireTokens = map[Comparator]string{
	StartsWith:         " STARTS WITH ",
	EndsWith:           " ENDS WITH ",
	Equals:             " = ",
	Different:          " <> ",
	GreaterThan:        " > ",
	LessThan:           " < ",
	GreaterOrEqualThan: " >= ",
	LessOrEqualThan:    " <= ",
	Contains:           " CONTAINS ",
	Regex:              " =~ ",
}

// WireToken returns the Cypher operator text for the comparator, and false
// if the comparator is not recognized.
func (c Comparator) WireToken() (string, bool) {
	t, ok := wireTokens[c]
	return t, ok
}

// DataSource is an ingress worker's fetch target tag.
type DataSource string

const (
	CVE                  DataSource = "CVE"
	DataScraper          DataSource = "dataScraper"
	PeopleDataLabs       DataSource = "peopleDataLabs"
	CoAuthors            DataSource = "coAuthors"
	SocialMediaExtractor DataSource = "socialMediaExtractor"
	EmailBreachDetector  DataSource = "emailBreachDetector"
	SamsDataset          DataSource = "samsDataset"
)

var dataSources = map[DataSource]struct{}{
	CVE: {}, DataScraper: {}, PeopleDataLabs: {}, CoAuthors: {},
	SocialMediaExtractor: {}, EmailBreachDetector: {}, SamsDataset: {},
}

// Valid reports whether d is one of the enumerated data source tags.
func (d DataSource) Valid() bool {
	_, ok := dataSources[d]
	return ok
}
