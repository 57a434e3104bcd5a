package model

// Prediction is the outcome of classifying one complaint. It is built fresh
// per call and never mutated afterwards.
type Prediction struct {
	Dataset   Dataset `json:"dataset"`
	Category  string  `json:"category"`   // label decoded from the classifier's class index
	Class     int     `json:"class"`      // predicted class index
	ModelUsed Variant `json:"model_used"` // classifier variant that produced the prediction
}

// Resolution is the display form of a decoded category label.
type Resolution struct {
	DisplayName string `json:"display_name"`
	Icon        string `json:"icon"`
}

// Result combines a prediction with its display resolution. It is what the
// consumer-facing classify operation hands back.
type Result struct {
	Text        string  `json:"text,omitempty"`
	Dataset     Dataset `json:"dataset"`
	Category    string  `json:"category,omitempty"`
	DisplayName string  `json:"display_name,omitempty"`
	Icon        string  `json:"icon,omitempty"`
	ModelUsed   Variant `json:"model_used,omitempty"`
	Empty       bool    `json:"empty,omitempty"` // text normalized to nothing
	Error       string  `json:"error,omitempty"`
}

// Result joins a prediction with its display resolution.
func (p Prediction) Result(text string, r Resolution) Result {
	return Result{
		Text:        text,
		Dataset:     p.Dataset,
		Category:    p.Category,
		DisplayName: r.DisplayName,
		Icon:        r.Icon,
		ModelUsed:   p.ModelUsed,
	}
}
