package domain

import "time"

// PolicySection is one indexed chunk of the HR handbook.
type PolicySection struct {
	ID           int64   `json:"id"`
	PageNumber   int     `json:"page_number,omitempty"`
	SectionTitle string  `json:"section_title,omitempty"`
	Content      string  `json:"content"`
	Relevance    float64 `json:"relevance"`
}

// PolicySearchStat aggregates repeated handbook searches for the same query.
type PolicySearchStat struct {
	Query        string    `json:"query"`
	SearchCount  int       `json:"searchCount"`
	AvgResults   float64   `json:"avgResults"`
	LastSearched time.Time `json:"lastSearched"`
}

// PolicyStatus reports whether the handbook index has been loaded.
type PolicyStatus struct {
	Loaded     bool `json:"loaded"`
	Chunks     int  `json:"chunks"`
	Characters int  `json:"characters"`
	Pages      int  `json:"pages"`
}
