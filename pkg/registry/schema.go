// pkg/registry/schema.go
package registry

// TemplateRegistry is the on-disk override file for response templates.
// Built-in texts ship compiled into the formatter; the registry only
// has to carry the templates an operator wants to replace.
type TemplateRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Templates   []Template `json:"templates"`
}

type Template struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Text        string `json:"text"`
	Version     string `json:"version"`
}

// Find returns the template with the given id.
func (r *TemplateRegistry) Find(id string) (*Template, bool) {
	for i := range r.Templates {
		if r.Templates[i].ID == id {
			return &r.Templates[i], true
		}
	}
	return nil, false
}
