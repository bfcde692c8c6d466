package inmemory

// Match reports whether the channel name matches a redis-style glob
// pattern: `*` matches any sequence, `?` a single byte, `[...]` a class
// with optional leading `^` negation and `a-z` ranges, `\` escapes the next
// byte. Matching is byte-wise, as in the broker.
func Match(pattern, name string) bool {
	p, n := 0, 0
	starP, starN := -1, 0

	for n < len(name) {
		if p < len(pattern) {
			switch pattern[p] {
			case '*':
				// remember the star so we can retry with a longer prefix
				starP, starN = p, n
				p++
				continue
			case '?':
				p++
				n++
				continue
			case '[':
				if ok, next := matchClass(pattern, p, name[n]); ok {
					p = next
					n++
					continue
				}
			case '\\':
				if p+1 < len(pattern) {
					if pattern[p+1] == name[n] {
						p += 2
						n++
						continue
					}
				} else if name[n] == '\\' {
					// a trailing backslash is a literal byte
					p++
					n++
					continue
				}
			default:
				if pattern[p] == name[n] {
					p++
					n++
					continue
				}
			}
		}
		if starP >= 0 {
			starN++
			n = starN
			p = starP + 1
			continue
		}
		return false
	}

	for p < len(pattern) && pattern[p] == '*' {
		p++
	}
	return p == len(pattern)
}

// matchClass matches one byte against the class starting at pattern[p] (a
// '['). It returns whether the byte matched and the index just past the
// closing ']'. An unterminated class never matches.
func matchClass(pattern string, p int, c byte) (bool, int) {
	i := p + 1
	negate := false
	if i < len(pattern) && pattern[i] == '^' {
		negate = true
		i++
	}

	matched := false
	for i < len(pattern) && pattern[i] != ']' {
		if pattern[i] == '\\' && i+1 < len(pattern) {
			i++
			if pattern[i] == c {
				matched = true
			}
			i++
			continue
		}
		if i+2 < len(pattern) && pattern[i+1] == '-' && pattern[i+2] != ']' {
			lo, hi := pattern[i], pattern[i+2]
			if lo > hi {
				lo, hi = hi, lo
			}
			if c >= lo && c <= hi {
				matched = true
			}
			i += 3
			continue
		}
		if pattern[i] == c {
			matched = true
		}
		i++
	}
	if i >= len(pattern) {
		return false, i
	}
	if negate {
		matched = !matched
	}
	return matched, i + 1
}
