package store

// Hooks receive the store's high-signal events. They run inline on the
// calling goroutine; wrap slow ones with hooks/async.
type Hooks interface {
	// SelfHeal: an entry failed to decode and was deleted. reason is
	// "corrupt" when the bytes are not well-formed RESP and "value_decode"
	// when they are but do not describe a V. offset is where decoding
	// stopped, or -1 if the codec did not report one.
	SelfHeal(storageKey, reason string, offset int)

	// SetRejected: the provider refused a write (ok=false).
	SetRejected(storageKey string)
}

// NopHooks ignores every event.
type NopHooks struct{}

func (NopHooks) SelfHeal(string, string, int) {}
func (NopHooks) SetRejected(string)           {}
