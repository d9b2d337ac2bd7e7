package retention

// Policy pairs an age threshold with a marker flag. When GenerateLabel is
// set, messages disposed under the policy are tagged with a rule-specific
// marker label so later runs do not select them again.
type Policy struct {
	Age           Age
	GenerateLabel bool
}

// NewPolicy builds a Policy from an age token.
func NewPolicy(token string, generateLabel bool) (Policy, error) {
	age, err := ParseAge(token)
	if err != nil {
		return Policy{}, err
	}
	return Policy{Age: age, GenerateLabel: generateLabel}, nil
}
