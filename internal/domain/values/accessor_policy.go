package values

import "fmt"

// AccessorErrorPolicy decides what happens when reading a value fails.
type AccessorErrorPolicy string

const (
	// PolicyInherit defers to the next policy up (node, then run level).
	PolicyInherit AccessorErrorPolicy = ""
	// PolicyIgnore records the value as Ignored; rules bound to it produce no result.
	PolicyIgnore AccessorErrorPolicy = "ignore"
	// PolicyError records the value as Errored; its rules yield one errored result per distinct error.
	PolicyError AccessorErrorPolicy = "error"
	// PolicyPropagate aborts building the value tree.
	PolicyPropagate AccessorErrorPolicy = "propagate"
)

// DefaultAccessorErrorPolicy is used when neither the node nor the run sets one.
const DefaultAccessorErrorPolicy = PolicyError

// ParseAccessorErrorPolicy parses a policy name. The empty string means inherit.
func ParseAccessorErrorPolicy(s string) (AccessorErrorPolicy, error) {
	p := AccessorErrorPolicy(s)
	if err := p.Validate(); err != nil {
		return PolicyInherit, err
	}
	return p, nil
}

// Validate returns an error if the policy value is invalid
func (p AccessorErrorPolicy) Validate() error {
	switch p {
	case PolicyInherit, PolicyIgnore, PolicyError, PolicyPropagate:
		return nil
	default:
		return fmt.Errorf("invalid accessor error policy: %q (expected ignore, error or propagate)", string(p))
	}
}

// Or returns p unless it is PolicyInherit, in which case fallback is returned.
func (p AccessorErrorPolicy) Or(fallback AccessorErrorPolicy) AccessorErrorPolicy {
	if p == PolicyInherit {
		return fallback
	}
	return p
}
