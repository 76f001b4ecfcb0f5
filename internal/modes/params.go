package modes

type SearchParams struct {
	SearchTerm string `json:"term" jsonschema:"Term to search for"`
	Page       int    `json:"page,omitempty" jsonschema:"1-based result page, defaults to 1"`
	PageSize   int    `json:"pageSize,omitempty" jsonschema:"Results per page, defaults to the configured page size"`
}
