package fees

type payerMatchKind int

const (
	matchSelectedAccount payerMatchKind = iota
	matchAnyAccount
	matchGivenAccount
)

// PayerMatcher decides whether a fee component charged to a particular
// payer should be counted into a fee total. A nil payer on a fee component
// always means the user's selected account.
type PayerMatcher struct {
	kind    payerMatchKind
	account string
}

// SelectedAccount matches fees paid by the user's selected account, i.e.
// components with a nil payer.
func SelectedAccount() PayerMatcher {
	return PayerMatcher{kind: matchSelectedAccount}
}

// AnyAccount matches every account-paid fee component.
func AnyAccount() PayerMatcher {
	return PayerMatcher{kind: matchAnyAccount}
}

// GivenAccount matches only components explicitly charged to the named
// account.
func GivenAccount(account string) PayerMatcher {
	return PayerMatcher{kind: matchGivenAccount, account: account}
}

func (m PayerMatcher) Matches(payer *string) bool {
	switch m.kind {
	case matchAnyAccount:
		return true
	case matchSelectedAccount:
		return payer == nil
	case matchGivenAccount:
		return payer != nil && *payer == m.account
	default:
		return false
	}
}
