package models

// Provider is a registered data source.
type Provider struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Description   string            `json:"description,omitempty"`
	Tags          []string          `json:"tags,omitempty"`
	Attributes    map[string]string `json:"attributes,omitempty"`
	LastIngestion *Timestamp        `json:"lastIngestion,omitempty"`
}

// ProviderCriteria selects providers. Nil fields are not constrained.
type ProviderCriteria struct {
	ID             *string `json:"id,omitempty"`
	Text           *string `json:"text,omitempty"`
	Tag            *string `json:"tag,omitempty"`
	AttributeKey   *string `json:"attributeKey,omitempty"`
	AttributeValue *string `json:"attributeValue,omitempty"`
}

// IsEmpty reports whether no criterion is set.
func (c ProviderCriteria) IsEmpty() bool {
	return allNil(c.ID, c.Text, c.Tag, c.AttributeKey, c.AttributeValue)
}

func allNil(fields ...*string) bool {
	for _, f := range fields {
		if f != nil {
			return false
		}
	}
	return true
}
