package models

// ReactionAlphabet is the set of emoji offered on every post.
var ReactionAlphabet = []string{"👍", "❤️", "🔥", "🚀", "💡"}

// Reactions maps an emoji to its click count.
type Reactions map[string]int

// Clone copies the map; a nil receiver yields an empty map.
func (r Reactions) Clone() Reactions {
	out := make(Reactions, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Total sums every count.
func (r Reactions) Total() int {
	n := 0
	for _, v := range r {
		n += v
	}
	return n
}

// InAlphabet reports whether emoji is one of ReactionAlphabet.
func InAlphabet(emoji string) bool {
	for _, e := range ReactionAlphabet {
		if e == emoji {
			return true
		}
	}
	return false
}
