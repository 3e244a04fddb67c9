package catalog

import "strings"

// Attributes are the structured jersey attributes of a product
type Attributes struct {
	Team    string   `json:"team,omitempty"`
	Season  string   `json:"season,omitempty"`
	Type    string   `json:"type,omitempty"`
	Version string   `json:"version,omitempty"`
	Gender  string   `json:"gender,omitempty"`
	Sleeve  string   `json:"sleeve,omitempty"`
	Events  []string `json:"events,omitempty"`
}

// IsZero reports whether no attribute is set
func (a Attributes) IsZero() bool {
	return a.Team == "" && a.Season == "" && a.Type == "" && a.Version == "" &&
		a.Gender == "" && a.Sleeve == "" && len(a.Events) == 0
}

// RemoteAttribute is a name/options pair as reported by a storefront
type RemoteAttribute struct {
	Name    string
	Options []string
}

// normalizeAttributeName lower-cases and strips spaces: "Gender Age" -> "genderage"
func normalizeAttributeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "")
}

// ExtractAttributes maps storefront attributes onto Attributes.
// The size attribute and unknown names are ignored.
func ExtractAttributes(remote []RemoteAttribute) Attributes {
	var a Attributes
	for _, ra := range remote {
		if len(ra.Options) == 0 {
			continue
		}
		first := strings.TrimSpace(ra.Options[0])
		switch normalizeAttributeName(ra.Name) {
		case "genderage", "gender":
			a.Gender = first
		case "season":
			a.Season = first
		case "jerseytype", "type":
			a.Type = first
		case "style", "version":
			a.Version = first
		case "sleevelength", "sleeve":
			a.Sleeve = first
		case "team":
			a.Team = first
		case "event", "events":
			for _, o := range ra.Options {
				if o = strings.TrimSpace(o); o != "" {
					a.Events = append(a.Events, o)
				}
			}
		}
	}
	return a
}
