package proxy

import "fmt"

// Status is the outcome code carried by RESULT messages.
type Status uint16

const (
	StatusSuccess          Status = 0
	StatusSystemFailure    Status = 1
	StatusContractNotFound Status = 2
	StatusMethodNotFound   Status = 3
	StatusMethodNotPayable Status = 4
	StatusIllegalFormat    Status = 5
	StatusInvalidParameter Status = 6
	StatusAccessDenied     Status = 9
	StatusOutOfStep        Status = 10
	StatusOutOfBalance     Status = 11
	StatusUserFailure      Status = 32
)

// String returns the status name
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "Success"
	case StatusSystemFailure:
		return "SystemFailure"
	case StatusContractNotFound:
		return "ContractNotFound"
	case StatusMethodNotFound:
		return "MethodNotFound"
	case StatusMethodNotPayable:
		return "MethodNotPayable"
	case StatusIllegalFormat:
		return "IllegalFormat"
	case StatusInvalidParameter:
		return "InvalidParameter"
	case StatusAccessDenied:
		return "AccessDenied"
	case StatusOutOfStep:
		return "OutOfStep"
	case StatusOutOfBalance:
		return "OutOfBalance"
	case StatusUserFailure:
		return "UserFailure"
	default:
		return fmt.Sprintf("Status(%d)", uint16(s))
	}
}
