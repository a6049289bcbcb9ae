package dto

// CompanyImportRow represents a single row from an import file
type CompanyImportRow struct {
	Row         int    `json:"row"`
	Name        string `json:"name"`
	Sector      string `json:"sector"`
	Website     string `json:"website,omitempty"`
	Description string `json:"description,omitempty"`
}

// CompanyImportError represents an error for a specific row
type CompanyImportError struct {
	Row   int    `json:"row"`
	Name  string `json:"name,omitempty"`
	Error string `json:"error"`
}

// CompanyImportResponse is returned for both dry runs and real imports
type CompanyImportResponse struct {
	DryRun           bool                 `json:"dry_run"`
	TotalRows        int                  `json:"total_rows"`
	SectorsToCreate  []string             `json:"sectors_to_create"`
	CreatedSectors   int                  `json:"created_sectors"`
	CreatedCompanies int                  `json:"created_companies"`
	Skipped          int                  `json:"skipped"`
	Errors           []CompanyImportError `json:"errors"`
}
