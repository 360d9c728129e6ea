package multiform

// Media declares the CSS and JS assets a form needs. The aggregate merges
// the media of all children that provide it.
type Media struct {
	CSS []string
	JS  []string
}

// Merge returns the order-preserving union of two media declarations.
// Assets already present are not repeated.
func (m Media) Merge(other Media) Media {
	return Media{
		CSS: mergeAssets(m.CSS, other.CSS),
		JS:  mergeAssets(m.JS, other.JS),
	}
}

// IsEmpty reports whether no assets are declared.
func (m Media) IsEmpty() bool {
	return len(m.CSS) == 0 && len(m.JS) == 0
}

func mergeAssets(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	seen := make(map[string]bool, len(a))
	out := make([]string, 0, len(a)+len(b))
	for _, asset := range a {
		if !seen[asset] {
			seen[asset] = true
			out = append(out, asset)
		}
	}
	for _, asset := range b {
		if !seen[asset] {
			seen[asset] = true
			out = append(out, asset)
		}
	}
	return out
}
