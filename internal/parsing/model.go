package parsing

// ParsedResume is the validated structured form of a résumé.
// Pointer and slice fields are nullable.
type ParsedResume struct {
	Profile        Profile          `json:"profile"`
	WorkExperience []WorkExperience `json:"workExperience"`
	Education      []Education      `json:"education,omitempty"`
	Skills         Skills           `json:"skills"`
	Projects       []Project        `json:"projects,omitempty"`
}

type Profile struct {
	FullName string   `json:"fullName"`
	Email    *string  `json:"email,omitempty"`
	Phone    *string  `json:"phone,omitempty"`
	Location *string  `json:"location,omitempty"`
	Links    []string `json:"links,omitempty"`
	Summary  *string  `json:"summary,omitempty"`
}

type WorkExperience struct {
	Company      string   `json:"company"`
	Position     string   `json:"position"`
	StartDate    string   `json:"startDate"`
	EndDate      *string  `json:"endDate,omitempty"`
	IsCurrent    *bool    `json:"isCurrent,omitempty"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies,omitempty"`
}

type Education struct {
	Institution  string  `json:"institution"`
	Degree       string  `json:"degree"`
	FieldOfStudy *string `json:"fieldOfStudy,omitempty"`
	StartDate    *string `json:"startDate,omitempty"`
	EndDate      *string `json:"endDate,omitempty"`
}

type Skills struct {
	Technical []string `json:"technical"`
	Soft      []string `json:"soft,omitempty"`
	Languages []string `json:"languages,omitempty"`
}

type Project struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies,omitempty"`
	Link         *string  `json:"link,omitempty"`
}
