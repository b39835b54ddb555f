package chain

// ForkSelector resolves competing views of the ledger to a single canonical
// chain using the longest-valid-chain rule. Chains are compared by length
// only, and only after they have been fully validated.
type ForkSelector struct {
	store *Store
}

// NewForkSelector ...
func NewForkSelector(store *Store) *ForkSelector {
	return &ForkSelector{store: store}
}

// Resolve makes candidate the canonical chain if it wins against the current
// one. It returns true if the chain was switched. A candidate that is valid
// but not longer yields (false, ChainErr{NotLonger}).
func (f *ForkSelector) Resolve(candidate []Block) (bool, error) {
	if err := f.store.TryReplace(candidate); err != nil {
		return false, err
	}
	return true, nil
}
