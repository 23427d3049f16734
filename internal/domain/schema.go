package domain

// TableInfo is a row of the schema metadata store.
type TableInfo struct {
	Name       string
	Columns    string
	SampleData string
}

// Relationship describes a foreign-key style link between two tables.
type Relationship struct {
	FromTable  string
	FromColumn string
	ToTable    string
	ToColumn   string
	Type       string
}
