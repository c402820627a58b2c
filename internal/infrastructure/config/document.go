package config

// Document is the YAML form of a manifest.
type Document struct {
	Vars     map[string]any `yaml:"vars,omitempty"`
	Root     *NodeDocument  `yaml:"root"`
	Manifest Metadata       `yaml:"manifest"`
}

// Metadata describes the manifest itself.
type Metadata struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Description string `yaml:"description,omitempty"`
	// Requires is a semver constraint on the engine version.
	Requires string `yaml:"requires,omitempty"`
}

// NodeDocument declares one position in the object graph.
type NodeDocument struct {
	ID              string           `yaml:"id"`
	Name            string           `yaml:"name,omitempty"`
	Type            string           `yaml:"type,omitempty"`
	Accessor        string           `yaml:"accessor,omitempty"`
	Identity        string           `yaml:"identity,omitempty"`
	OnAccessorError string           `yaml:"on_accessor_error,omitempty"`
	Recurse         string           `yaml:"recurse,omitempty"`
	Rules           []RuleDocument   `yaml:"rules,omitempty"`
	Children        []*NodeDocument  `yaml:"children,omitempty"`
	Branches        []BranchDocument `yaml:"branches,omitempty"`
	Each            bool             `yaml:"each,omitempty"`
}

// RuleDocument declares one rule.
type RuleDocument struct {
	ID          string               `yaml:"id"`
	Name        string               `yaml:"name,omitempty"`
	Description string               `yaml:"description,omitempty"`
	Expr        string               `yaml:"expr"`
	DependsOn   []DependencyDocument `yaml:"depends_on,omitempty"`
}

// DependencyDocument references a rule at another node.
type DependencyDocument struct {
	Node string `yaml:"node"`
	Rule string `yaml:"rule"`
	Name string `yaml:"name,omitempty"`
}

// BranchDocument adds rules and children for values matching When.
type BranchDocument struct {
	When     string          `yaml:"when"`
	Type     string          `yaml:"type,omitempty"`
	Rules    []RuleDocument  `yaml:"rules,omitempty"`
	Children []*NodeDocument `yaml:"children,omitempty"`
}

// walk visits n and every node below it, branch children included.
func (n *NodeDocument) walk(fn func(*NodeDocument)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Children {
		c.walk(fn)
	}
	for _, b := range n.Branches {
		for _, c := range b.Children {
			c.walk(fn)
		}
	}
}
