package types

// ElementKind is the kind of a form element.
type ElementKind string

// Element kinds.
const (
	KindSelect      ElementKind = "select"
	KindTextfield   ElementKind = "textfield"
	KindNumber      ElementKind = "number"
	KindMachineName ElementKind = "machine_name"
	KindCheckbox    ElementKind = "checkbox"
	KindCheckboxes  ElementKind = "checkboxes"
	KindContainer   ElementKind = "container"
	KindFieldset    ElementKind = "fieldset"
	KindMarkup      ElementKind = "markup"
	KindSubmit      ElementKind = "submit"
	KindHidden      ElementKind = "hidden"
)

// Option is one choice of a select or checkboxes element.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// OptionGroup is a labelled group of options.
type OptionGroup struct {
	Label   string   `json:"label"`
	Options []Option `json:"options"`
}

// Element is one node of a form description. Forms are trees of elements;
// clients render them however they like.
type Element struct {
	Key          string        `json:"key"`
	Kind         ElementKind   `json:"kind"`
	Title        string        `json:"title,omitempty"`
	Description  string        `json:"description,omitempty"`
	Default      any           `json:"default,omitempty"`
	Required     bool          `json:"required,omitempty"`
	MaxLength    int           `json:"max_length,omitempty"`
	Min          *float64      `json:"min,omitempty"`
	Options      []Option      `json:"options,omitempty"`
	OptionGroups []OptionGroup `json:"option_groups,omitempty"`
	EmptyOption  string        `json:"empty_option,omitempty"`
	// Reactive elements trigger a rebuild of the enclosing form when their
	// value changes.
	Reactive bool      `json:"reactive,omitempty"`
	Disabled bool      `json:"disabled,omitempty"`
	Markup   string    `json:"markup,omitempty"`
	Children []Element `json:"children,omitempty"`
}

// Find returns the descendant element with the given key, searching depth
// first.
func (e *Element) Find(key string) *Element {
	if e.Key == key {
		return e
	}
	for i := range e.Children {
		if found := e.Children[i].Find(key); found != nil {
			return found
		}
	}
	return nil
}

// Form is a built form: a titled tree of elements.
type Form struct {
	ID       string    `json:"id"`
	Title    string    `json:"title,omitempty"`
	Elements []Element `json:"elements"`
}

// Find returns the element with the given key anywhere in the form.
func (f *Form) Find(key string) *Element {
	for i := range f.Elements {
		if found := f.Elements[i].Find(key); found != nil {
			return found
		}
	}
	return nil
}
