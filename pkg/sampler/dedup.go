package sampler

// keyFilter tracks snippet keys already released, so a snippet that reached
// several groups surfaces at most once.
type keyFilter struct {
	seen map[string]struct{}
}

func newKeyFilter() *keyFilter {
	return &keyFilter{seen: make(map[string]struct{})}
}

// ShouldInclude reports whether key has not been seen before, recording it
// as seen.
func (f *keyFilter) ShouldInclude(key string) bool {
	if _, dup := f.seen[key]; dup {
		return false
	}
	f.seen[key] = struct{}{}
	return true
}
