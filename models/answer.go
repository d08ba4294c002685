package models

// Query categories the classifier is asked to choose from
const (
	CategoryBenefits   = "Benefits"
	CategoryLeave      = "Leave"
	CategoryLegal      = "Legal"
	CategoryITPolicy   = "IT Policy"
	CategoryCulture    = "Culture"
	CategoryPayroll    = "Payroll"
	CategoryCompliance = "Compliance"
)

// Categories lists the closed set in prompt order.
var Categories = []string{
	CategoryBenefits,
	CategoryLeave,
	CategoryLegal,
	CategoryITPolicy,
	CategoryCulture,
	CategoryPayroll,
	CategoryCompliance,
}

// SourceRef points an answer back at the passage it was grounded on.
type SourceRef struct {
	Document string `json:"document"`
	Page     string `json:"page"`
	Snippet  string `json:"snippet"`
	Path     string `json:"path"`
}

// Answer is the result of a policy question.
type Answer struct {
	Text     string      `json:"answer"`
	Category string      `json:"category"`
	Sources  []SourceRef `json:"sources"`
}

type ChatRequest struct {
	Query string `json:"query" form:"query" binding:"required,max=2000"`
	TopK  int    `json:"top_k,omitempty" form:"top_k" binding:"omitempty,min=1,max=20"`
}
