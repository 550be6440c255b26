package identity

// CallerContext describes who started the flow. A nil AuthenticatedLocalUserID
// means an anonymous visitor; otherwise the flow runs in binding mode.
type CallerContext struct {
	AuthenticatedLocalUserID *uint64
}

func AnonymousCaller() CallerContext {
	return CallerContext{}
}

func AuthenticatedCaller(localUserID uint64) CallerContext {
	return CallerContext{AuthenticatedLocalUserID: &localUserID}
}

func (c CallerContext) IsAuthenticated() bool {
	return c.AuthenticatedLocalUserID != nil && *c.AuthenticatedLocalUserID != 0
}
