// Package rig turns an annotated scene graph into a live physics rig:
// bodies for collider nodes, joints between referenced bodies, pose sync
// links and cable chains, all owned by a Session that drives their
// per-frame update and can tear everything down again.
package rig

// Annotation keys written by the exporter into each node's metadata.
const (
	KeyType       = "threejscannones_type"
	KeyMass       = "threejscannones_mass"
	KeyGroup      = "threejscannones_cgroup"
	KeyMask       = "threejscannones_cwith"
	KeyRefA       = "threejscannones_A"
	KeyRefB       = "threejscannones_B"
	KeySyncSource = "threejscannones_syncSource"
	KeyCustomID   = "threejscannones_customId"
)

// Tag is the normalized physics annotation of a node.
type Tag int

// The closed set of node tags. A node with no recognized annotation is
// TagNone.
const (
	TagNone Tag = iota
	TagBox
	TagSphere
	TagCompound
	TagLock
	TagHinge
	TagPoint
	TagDistance
	TagSync
	TagCable
	TagCustom
)

var tagNames = map[Tag]string{
	TagNone:     "none",
	TagBox:      "box",
	TagSphere:   "sphere",
	TagCompound: "compound",
	TagLock:     "lock",
	TagHinge:    "hinge",
	TagPoint:    "point",
	TagDistance: "distance",
	TagSync:     "sync",
	TagCable:    "cable",
	TagCustom:   "custom",
}

var tagsByName = map[string]Tag{
	"none":     TagNone,
	"x":        TagNone, // exporter writes "x" for "no physics"
	"box":      TagBox,
	"sphere":   TagSphere,
	"compound": TagCompound,
	"glue":     TagCompound, // exporter's name for the compound kind
	"lock":     TagLock,
	"hinge":    TagHinge,
	"point":    TagPoint,
	"distance": TagDistance,
	"dist":     TagDistance, // exporter writes the short form
	"sync":     TagSync,
	"cable":    TagCable,
	"tube":     TagCable, // legacy exporter alias
	"custom":   TagCustom,
}

func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return "none"
}

// Collider reports whether the tag asks for a body in pass 1.
func (t Tag) Collider() bool {
	return t == TagBox || t == TagSphere || t == TagCompound
}

// Filter is a collision group/mask bit pair. Zero values are defaulted to
// 1 when a body is built.
type Filter struct {
	Group int
	Mask  int
}

// NormalizeTag maps a raw annotation value to a Tag. Recognized symbolic
// strings go through the fixed vocabulary; numeric values are treated as
// already resolved; anything else is TagNone. Normalizing a Tag returns it
// unchanged.
func NormalizeTag(raw any) Tag {
	switch v := raw.(type) {
	case Tag:
		return v
	case string:
		if tag, ok := tagsByName[v]; ok {
			return tag
		}
		return TagNone
	case int:
		return intTag(v)
	case int64:
		return intTag(int(v))
	case float64:
		return intTag(int(v))
	case float32:
		return intTag(int(v))
	}
	return TagNone
}

func intTag(v int) Tag {
	if v < int(TagNone) || v > int(TagCustom) {
		return TagNone
	}
	return Tag(v)
}

// NormalizeMask resolves a collision group or mask annotation to an
// integer bitmask. Already-numeric input is returned verbatim; a list is
// interpreted per element: booleans select the bit at their slot index
// (the exporter's 32-slot layer vector), numbers are selected bit indices.
// Absent or empty input yields 0.
func NormalizeMask(raw any) int {
	switch v := raw.(type) {
	case nil:
		return 0
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case float32:
		return int(v)
	case []bool:
		mask := 0
		for i, set := range v {
			if set {
				mask |= 1 << i
			}
		}
		return mask
	case []int:
		mask := 0
		for _, idx := range v {
			mask |= 1 << idx
		}
		return mask
	case []any:
		mask := 0
		for i, item := range v {
			switch bit := item.(type) {
			case bool:
				if bit {
					mask |= 1 << i
				}
			case int:
				mask |= 1 << bit
			case int64:
				mask |= 1 << int(bit)
			case float64:
				mask |= 1 << int(bit)
			}
		}
		return mask
	}
	return 0
}

// Normalize resolves a node's raw tag and collision filter annotations in
// one step. Both halves are idempotent: feeding back an already-normalized
// tag or integer mask returns it unchanged.
func Normalize(rawTag, rawGroup, rawMask any) (Tag, Filter) {
	return NormalizeTag(rawTag), Filter{
		Group: NormalizeMask(rawGroup),
		Mask:  NormalizeMask(rawMask),
	}
}
