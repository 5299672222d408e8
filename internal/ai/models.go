package ai

// ProductBrief is what the model is told about a product.
type ProductBrief struct {
	Name      string  `json:"name"`
	Category  string  `json:"category,omitempty"`
	BasePrice float64 `json:"base_price"`
	AddonName string  `json:"addon_name,omitempty"`
	// Current is the existing description, if any, for the model to improve on.
	Current string `json:"current,omitempty"`
}

// ProductCopy captures the structured output from the model.
type ProductCopy struct {
	Description string   `json:"description"`
	Tagline     string   `json:"tagline"`
	Keywords    []string `json:"keywords,omitempty"`
}
