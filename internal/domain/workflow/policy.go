package workflow

// PolicyKind is the persisted discriminant of a workflow policy
type PolicyKind string

const (
	PolicySequential PolicyKind = "SEQUENTIAL"
	PolicyQuorum     PolicyKind = "QUORUM"
)

// IsValid reports whether k is a known policy kind
func (k PolicyKind) IsValid() bool {
	return k == PolicySequential || k == PolicyQuorum
}

// Policy decides how approvals of an expense are resolved. It is either
// Sequential or Quorum.
type Policy interface {
	Kind() PolicyKind
	isPolicy()
}

// Sequential walks the steps of a rule in step_sequence order. CurrentStepID
// is nil once the expense has left the step graph.
type Sequential struct {
	RuleID        int64
	CurrentStepID *int64
}

// Quorum requires every manager of the company to approve. The required
// count is resolved when an approval is recorded, since managers come and go.
type Quorum struct{}

func (Sequential) Kind() PolicyKind { return PolicySequential }
func (Quorum) Kind() PolicyKind     { return PolicyQuorum }

func (Sequential) isPolicy() {}
func (Quorum) isPolicy()     {}

// NewPolicy rebuilds a policy from its persisted columns. A sequential kind
// without a rule cannot be walked and is treated as a quorum.
func NewPolicy(kind PolicyKind, ruleID, currentStepID *int64) Policy {
	if kind == PolicySequential && ruleID != nil {
		return Sequential{RuleID: *ruleID, CurrentStepID: currentStepID}
	}
	return Quorum{}
}
