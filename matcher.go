package pubsub

import "regexp"

// Matcher selects which deliveries a listener receives. It is applied to the
// concrete channel a message was published to, never to the subscribed
// pattern.
type Matcher interface {
	MatchChannel(channel string) bool
}

type exactMatcher string

func (m exactMatcher) MatchChannel(channel string) bool {
	return string(m) == channel
}

// Exactly matches a single channel name.
func Exactly(channel string) Matcher {
	return exactMatcher(channel)
}

type regexpMatcher struct {
	re *regexp.Regexp
}

func (m regexpMatcher) MatchChannel(channel string) bool {
	return m.re.MatchString(channel)
}

// Matching matches every channel name the expression matches.
func Matching(re *regexp.Regexp) Matcher {
	return regexpMatcher{re: re}
}
