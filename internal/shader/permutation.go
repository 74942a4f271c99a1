package shader

import "strings"

// Permutation tags recognized in manifests
const (
	TagMSAA    = "msaa"
	TagSkyCube = "skycube"
)

type permutationRule struct {
	tag    string
	suffix string
	macro  string
}

// permutationTable is evaluated in order, independent of the tag order in the manifest.
var permutationTable = []permutationRule{
	{tag: TagMSAA, suffix: "_msaa", macro: "USE_MSAA"},
	{tag: TagSkyCube, suffix: "_skycube", macro: "USE_CUBE_SAMPLER"},
}

// Permutation is the output-name suffix and macro set derived from a tag set
type Permutation struct {
	Suffix string
	Macros []string
}

// MacroArgs returns the macro tokens each prefixed by a space,
// e.g. " USE_MSAA USE_CUBE_SAMPLER". Empty when no macros are defined.
func (p Permutation) MacroArgs() string {
	var b strings.Builder
	for _, m := range p.Macros {
		b.WriteByte(' ')
		b.WriteString(m)
	}
	return b.String()
}

// Empty reports whether the permutation adds nothing
func (p Permutation) Empty() bool {
	return p.Suffix == "" && len(p.Macros) == 0
}

// DerivePermutation maps permutation tags to a suffix and macro list.
// Unrecognized tags are ignored.
func DerivePermutation(tags []string) Permutation {
	var p Permutation
	for _, rule := range permutationTable {
		if !containsTag(tags, rule.tag) {
			continue
		}
		p.Suffix += rule.suffix
		p.Macros = append(p.Macros, rule.macro)
	}
	return p
}

// KnownTags returns the recognized permutation tags in table order
func KnownTags() []string {
	tags := make([]string, len(permutationTable))
	for i, rule := range permutationTable {
		tags[i] = rule.tag
	}
	return tags
}

// IsKnownTag reports whether tag is a recognized permutation tag
func IsKnownTag(tag string) bool {
	for _, rule := range permutationTable {
		if rule.tag == tag {
			return true
		}
	}
	return false
}

// UnknownTags returns the tags that DerivePermutation would ignore
func UnknownTags(tags []string) []string {
	var unknown []string
	for _, tag := range tags {
		if !IsKnownTag(tag) {
			unknown = append(unknown, tag)
		}
	}
	return unknown
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
