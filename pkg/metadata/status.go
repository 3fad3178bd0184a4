package metadata

import "fmt"

type Status string

const (
	StatusActive         Status = "active"
	StatusInactive       Status = "inactive"
	StatusDecommissioned Status = "decommissioned"
)

func NewStatus(value string) (Status, error) {
	status := Status(normalize(value))
	if !status.IsValid() {
		return "", fmt.Errorf("invalid status: %s", value)
	}
	return status, nil
}

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusDecommissioned:
		return true
	default:
		return false
	}
}

func (s Status) String() string {
	return string(s)
}

// Condition is the physical state of an asset, recorded on registration and
// again when it leaves a location.
type Condition string

const (
	ConditionExcellent Condition = "excellent"
	ConditionGood      Condition = "good"
	ConditionRegular   Condition = "regular"
	ConditionBad       Condition = "bad"
)

func NewCondition(value string) (Condition, error) {
	condition := Condition(normalize(value))
	if !condition.IsValid() {
		return "", fmt.Errorf(
			"invalid condition: %s, only valid values are: %s, %s, %s, %s",
			value, ConditionExcellent, ConditionGood, ConditionRegular, ConditionBad,
		)
	}
	return condition, nil
}

func (c Condition) IsValid() bool {
	switch c {
	case ConditionExcellent, ConditionGood, ConditionRegular, ConditionBad:
		return true
	default:
		return false
	}
}

func (c Condition) String() string {
	return string(c)
}
