package model

// UserContext accumulates slot-filled data for one external user across
// messages. Fields start empty and are only ever added to or overwritten,
// never cleared.
type UserContext struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Service string `json:"service,omitempty"`
	Date    string `json:"date,omitempty"` // 2006-01-02
	Time    string `json:"time,omitempty"` // HH:MM, 24-hour

	// Property-search preferences, filled by the same extractor pass.
	Operations    []OperationType `json:"operations,omitempty"`
	PriceFrom     int             `json:"priceFrom,omitempty"`
	PriceTo       int             `json:"priceTo,omitempty"`
	PropertyTypes []PropertyType  `json:"propertyTypes,omitempty"`
	Location      string          `json:"location,omitempty"`
}

// requiredFields are the slots that must all be present before a booking
// may be attempted.
var requiredFields = []string{"name", "email", "phone", "service", "date", "time"}

// Ready reports whether every required slot has been filled.
func (c *UserContext) Ready() bool {
	return len(c.MissingFields()) == 0
}

// MissingFields returns the required slots that are still empty, in a fixed
// order suitable for prompting the user.
func (c *UserContext) MissingFields() []string {
	values := map[string]string{
		"name":    c.Name,
		"email":   c.Email,
		"phone":   c.Phone,
		"service": c.Service,
		"date":    c.Date,
		"time":    c.Time,
	}
	var missing []string
	for _, f := range requiredFields {
		if values[f] == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

// HasOperation reports whether op has already been recorded.
func (c *UserContext) HasOperation(op OperationType) bool {
	for _, o := range c.Operations {
		if o == op {
			return true
		}
	}
	return false
}

// HasPropertyType reports whether pt has already been recorded.
func (c *UserContext) HasPropertyType(pt PropertyType) bool {
	for _, p := range c.PropertyTypes {
		if p == pt {
			return true
		}
	}
	return false
}
