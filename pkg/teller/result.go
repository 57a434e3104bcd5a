package teller

// Result is a classified complaint.
// This is the stable public type; internal representations may evolve
// independently without breaking consumers.
type Result struct {
	Dataset     int    `json:"dataset"`
	Category    string `json:"category"`     // label as trained, e.g. "credit_card"
	DisplayName string `json:"display_name"` // label as shown to users, e.g. "Credit Card"
	Icon        string `json:"icon"`         // Remix Icon class
	Model       string `json:"model_used"`   // variant id: logistic or svm
	Empty       bool   `json:"empty,omitempty"`
}

// Dataset describes one trained dataset.
type Dataset struct {
	ID         int        `json:"id"`
	Title      string     `json:"title"`
	Complaints int        `json:"complaints"`
	Categories []Category `json:"categories"`
}

// Category is a dataset category with its icon.
type Category struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// Model describes a classifier variant.
type Model struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}
